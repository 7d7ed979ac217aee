package generation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "animstory/internal/pkg/http"
	"animstory/internal/service"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// Handler 生成接口处理器
// 四个接口都是对供应商调用的薄代理，不保存任何状态
type Handler struct {
	svc                  *service.GenerationService
	credentialConfigured bool
}

// NewHandler 创建生成接口处理器
// credentialConfigured 为 false 时所有接口返回 500
func NewHandler(svc *service.GenerationService, credentialConfigured bool) *Handler {
	return &Handler{
		svc:                  svc,
		credentialConfigured: credentialConfigured,
	}
}

// Register 注册路由
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/api/story", h.Story)
	r.POST("/api/image", h.Image)
	r.POST("/api/video-start", h.VideoStart)
	r.GET("/api/video-poll", h.VideoPoll)
}

// checkCredential 未配置凭证时中止请求
func (h *Handler) checkCredential(c *gin.Context) bool {
	if h.credentialConfigured {
		return true
	}
	httputil.AbortWithError(c, http.StatusInternalServerError, service.ErrMissingCredential.Error())
	return false
}

// writeServiceError 把服务层错误映射为 HTTP 响应
func writeServiceError(c *gin.Context, err error, badRequestMsg, failureMsg string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		httputil.AbortWithError(c, http.StatusBadRequest, badRequestMsg)
	case errors.Is(err, service.ErrEmptyStory):
		httputil.AbortWithError(c, http.StatusInternalServerError, err.Error())
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("generation request failed")
		httputil.AbortWithError(c, http.StatusInternalServerError, failureMsg)
	}
}
