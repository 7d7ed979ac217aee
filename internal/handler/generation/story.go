package generation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"animstory/internal/model"
)

const (
	storyMissingParams = "Missing required parameters: topic, numberOfScenes"
	storyFailed        = "Failed to generate story."
)

// Story 生成故事分镜
// @Summary      生成故事分镜
// @Description  根据主题、分镜数量和高级选项生成分镜数组（脚本 + 动画提示词）
// @Tags         生成
// @Accept       json
// @Produce      json
// @Param        request  body      model.StoryRequest  true  "故事请求"
// @Success      200      {array}   model.StoryScene
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      405      {object}  ErrorResponse  "方法不允许"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/story [post]
func (h *Handler) Story(c *gin.Context) {
	if !h.checkCredential(c) {
		return
	}

	var req model.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: storyMissingParams})
		return
	}

	scenes, err := h.svc.GenerateStory(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err, storyMissingParams, storyFailed)
		return
	}

	c.JSON(http.StatusOK, scenes)
}
