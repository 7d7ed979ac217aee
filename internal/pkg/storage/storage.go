package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Storage 导出产物存储接口
type Storage interface {
	// Upload 写入对象，返回可访问地址
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Download 读取对象
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete 删除对象，对象不存在时不报错
	Delete(ctx context.Context, key string) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// GetStorageType 获取存储类型
	GetStorageType() string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
)

var contentTypes = map[string]string{
	".json": "application/json",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
}

// ContentType 根据扩展名推断 Content-Type
func ContentType(key string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}
