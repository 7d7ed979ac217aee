package http

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应（所有API共用）
// 前端与客户端只读取 error 字段
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// AbortWithError 以统一格式中止请求
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(message))
}
