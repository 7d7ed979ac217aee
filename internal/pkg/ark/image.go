package ark

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

// DefaultBaseURL Ark API 默认地址
const DefaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// ImageConfig Ark 图片生成配置
type ImageConfig struct {
	APIKey  string // API Key（必需）
	BaseURL string // 默认 DefaultBaseURL
	Model   string // 默认 doubao-seedream-3-0-t2i-250415
	Size    string // 默认 1280x720（横屏，和 16:9 视频一致）
}

// ImageClient Ark 图片生成客户端
type ImageClient struct {
	client *arkruntime.Client
	model  string
	size   string
}

// NewImageClient 创建 Ark 图片生成客户端
func NewImageClient(cfg ImageConfig) (*ImageClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ark api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = "doubao-seedream-3-0-t2i-250415"
	}
	size := cfg.Size
	if size == "" {
		size = "1280x720"
	}

	return &ImageClient{
		client: arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL)),
		model:  modelName,
		size:   size,
	}, nil
}

// GenerateImage 生成一张图片，返回 base64（不带 data URL 前缀）
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	responseFormat := "b64_json"
	watermark := false
	size := c.size

	output, err := c.client.GenerateImages(ctx, model.GenerateImagesRequest{
		Model:          c.model,
		Prompt:         prompt,
		Size:           &size,
		ResponseFormat: &responseFormat,
		Watermark:      &watermark,
	})
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("failed to call Ark GenerateImages API")
		return "", fmt.Errorf("ark generate images: %w", err)
	}

	if len(output.Data) == 0 || output.Data[0].B64Json == nil || *output.Data[0].B64Json == "" {
		return "", errors.New("no image data in response")
	}
	return *output.Data[0].B64Json, nil
}
