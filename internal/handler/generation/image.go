package generation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"animstory/internal/model"
)

const (
	imageMissingParams = "Missing required parameter: prompt"
	imageFailed        = "Failed to generate image."
)

// Image 生成分镜图片
// @Summary      生成图片
// @Description  根据动画提示词生成一张图片，同时返回 data URL 和 base64
// @Tags         生成
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImageRequest  true  "图片请求"
// @Success      200      {object}  model.ImageResult
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      405      {object}  ErrorResponse  "方法不允许"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/image [post]
func (h *Handler) Image(c *gin.Context) {
	if !h.checkCredential(c) {
		return
	}

	var req model.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: imageMissingParams})
		return
	}

	result, err := h.svc.GenerateImage(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err, imageMissingParams, imageFailed)
		return
	}

	c.JSON(http.StatusOK, result)
}
