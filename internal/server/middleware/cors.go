package middleware

import (
	"github.com/gin-gonic/gin"
	cors "github.com/rs/cors/wrapper/gin"
)

// CORS 跨域中间件，前端页面可能和接口不同源
func CORS(allowedOrigins []string) gin.HandlerFunc {
	options := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}
	if len(allowedOrigins) == 0 {
		options.AllowOriginFunc = func(origin string) bool { return true }
	}
	return cors.New(options)
}
