package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "animstory/internal/pkg/http"
)

// Recovery 异常恢复中间件，panic 以统一错误格式返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Str(RequestIDKey, c.GetString(RequestIDKey)).
					Msg("panic recovered")

				httputil.AbortWithError(c, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		c.Next()
	}
}
