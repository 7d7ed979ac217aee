package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Pinger 就绪检查依赖的外部组件
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler 创建健康检查处理器，deps 中的 nil 项会被忽略
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	h := &HealthHandler{deps: make(map[string]Pinger)}
	for name, dep := range deps {
		if dep != nil {
			h.deps[name] = dep
		}
	}
	return h
}

// Health 健康检查
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready 就绪检查
// 任一依赖不可用时返回 503
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"failed": failed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
