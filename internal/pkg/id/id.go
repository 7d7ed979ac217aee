package id

import (
	"strings"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// NewCompact 生成不带连字符的UUID，可选前缀，如 "mockop_3f2a..."
func NewCompact(prefix string) string {
	s := strings.ReplaceAll(uuid.New().String(), "-", "")
	if prefix == "" {
		return s
	}
	return prefix + "_" + s
}
