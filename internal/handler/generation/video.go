package generation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"animstory/internal/model"
)

const (
	videoStartMissingParams = "Missing required parameters: prompt, imageBase64"
	videoStartFailed        = "Failed to start video generation."
	videoPollMissingParams  = "Missing or invalid operationName query parameter"
	videoPollFailed         = "Failed to poll video status."
)

// VideoStart 提交图生视频任务
// @Summary      启动视频生成
// @Description  提交图生视频长任务，返回用于轮询的操作句柄
// @Tags         生成
// @Accept       json
// @Produce      json
// @Param        request  body      model.VideoStartRequest  true  "视频请求"
// @Success      202      {object}  model.VideoStartResponse
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      405      {object}  ErrorResponse  "方法不允许"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/video-start [post]
func (h *Handler) VideoStart(c *gin.Context) {
	if !h.checkCredential(c) {
		return
	}

	var req model.VideoStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: videoStartMissingParams})
		return
	}

	resp, err := h.svc.StartVideo(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err, videoStartMissingParams, videoStartFailed)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// VideoPoll 查询视频任务状态
// @Summary      轮询视频生成
// @Description  未完成返回 {done:false}；完成返回 {done:true, videoUrl}；供应商报告失败时返回 {done:true, error}
// @Tags         生成
// @Produce      json
// @Param        operationName  query     string  true  "操作句柄"
// @Success      200            {object}  model.VideoPollResult
// @Failure      400            {object}  ErrorResponse  "请求参数错误"
// @Failure      405            {object}  ErrorResponse  "方法不允许"
// @Failure      500            {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/video-poll [get]
func (h *Handler) VideoPoll(c *gin.Context) {
	if !h.checkCredential(c) {
		return
	}

	result, err := h.svc.PollVideo(c.Request.Context(), c.Query("operationName"))
	if err != nil {
		writeServiceError(c, err, videoPollMissingParams, videoPollFailed)
		return
	}

	c.JSON(http.StatusOK, result)
}
