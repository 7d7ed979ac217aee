package provider

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"animstory/internal/ai/chain"
	"animstory/internal/config"
	"animstory/internal/model"
	"animstory/internal/pkg/ark"
)

// NewSet 根据配置创建生成器；mock 不需要凭证
func NewSet(ctx context.Context, cfg *config.AIConfig) (*Set, error) {
	if cfg.IsMock() {
		log.Warn().Msg("using mock generators, no provider calls will be made")
		return NewMockSet(), nil
	}

	storyChain, err := chain.NewStoryChain(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create story chain: %w", err)
	}

	imageClient, err := ark.NewImageClient(ark.ImageConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.ArkBaseURL,
		Model:   cfg.ImageModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create image client: %w", err)
	}

	videoClient, err := ark.NewVideoClient(ark.VideoConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.ArkBaseURL,
		Model:   cfg.VideoModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create video client: %w", err)
	}

	return &Set{
		Story: &ChainStory{chain: storyChain},
		Image: &ArkImage{client: imageClient},
		Video: &ArkVideo{client: videoClient},
	}, nil
}

// ChainStory 基于 eino ChatModel 的故事生成
type ChainStory struct {
	chain *chain.StoryChain
}

// NewChainStory 创建故事生成器
func NewChainStory(c *chain.StoryChain) *ChainStory {
	return &ChainStory{chain: c}
}

func (s *ChainStory) GenerateStory(ctx context.Context, topic string, sceneCount int, opts model.AdvancedOptions) ([]model.StoryScene, error) {
	return s.chain.Run(ctx, topic, sceneCount, opts)
}

// ArkImage Ark 图片生成
type ArkImage struct {
	client *ark.ImageClient
}

func (g *ArkImage) GenerateImage(ctx context.Context, prompt string) (string, string, error) {
	data, err := g.client.GenerateImage(ctx, prompt)
	if err != nil {
		return "", "", err
	}
	return data, "image/jpeg", nil
}

// videoTaskClient Ark 视频任务接口
type videoTaskClient interface {
	CreateTask(ctx context.Context, prompt, imageDataURL string) (string, error)
	GetTask(ctx context.Context, taskID string) (*ark.VideoTask, error)
}

// ArkVideo Ark 图生视频，操作句柄即任务 ID
type ArkVideo struct {
	client videoTaskClient
}

func (g *ArkVideo) StartVideo(ctx context.Context, prompt, imageBase64 string) (string, error) {
	return g.client.CreateTask(ctx, prompt, DataURL("image/jpeg", imageBase64))
}

func (g *ArkVideo) PollVideo(ctx context.Context, operationName string) (*model.VideoPollResult, error) {
	task, err := g.client.GetTask(ctx, operationName)
	if err != nil {
		return nil, err
	}

	if !task.Done() {
		return &model.VideoPollResult{Done: false}, nil
	}
	if msg := task.FailureMessage(); msg != "" {
		return &model.VideoPollResult{Done: true, Error: msg}, nil
	}
	if task.VideoURL == "" {
		return &model.VideoPollResult{Done: true, Error: "Video processing finished, but URI not found in response."}, nil
	}
	return &model.VideoPollResult{Done: true, VideoURL: task.VideoURL}, nil
}
