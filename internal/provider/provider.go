package provider

import (
	"context"
	"fmt"

	"animstory/internal/model"
)

// StoryGenerator 故事分镜生成
type StoryGenerator interface {
	GenerateStory(ctx context.Context, topic string, sceneCount int, opts model.AdvancedOptions) ([]model.StoryScene, error)
}

// ImageGenerator 图片生成，返回 base64（不带 data URL 前缀）和媒体类型
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (base64Data, mediaType string, err error)
}

// VideoGenerator 图生视频长任务
type VideoGenerator interface {
	// StartVideo 提交任务，返回不透明的操作句柄
	StartVideo(ctx context.Context, prompt, imageBase64 string) (string, error)
	// PollVideo 查询任务状态；供应商报告的失败放在 VideoPollResult.Error 中，不作为 error 返回
	PollVideo(ctx context.Context, operationName string) (*model.VideoPollResult, error)
}

// Set 一组生成器
type Set struct {
	Story StoryGenerator
	Image ImageGenerator
	Video VideoGenerator
}

// DataURL 拼接 data URL
func DataURL(mediaType, base64Data string) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64Data)
}
