package component

import (
	"context"
	"fmt"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"animstory/internal/config"
)

// 故事生成默认模型
const (
	defaultArkModel    = "doubao-seed-1-6-flash-250615"
	defaultArkBaseURL  = "https://ark.cn-beijing.volces.com/api/v3"
	defaultOpenAIModel = "gpt-4o-mini"
)

// sampling 模型采样参数，零值表示使用模型默认值
type sampling struct {
	temperature *float32
	maxTokens   *int
	topP        *float32
}

func samplingFrom(opts config.AIOptionsConfig) sampling {
	var s sampling
	if opts.Temperature > 0 {
		t := float32(opts.Temperature)
		s.temperature = &t
	}
	if opts.MaxTokens > 0 {
		n := opts.MaxTokens
		s.maxTokens = &n
	}
	if opts.TopP > 0 {
		p := float32(opts.TopP)
		s.topP = &p
	}
	return s
}

// NewChatModel 按 Provider 创建故事生成使用的 ChatModel
// mock 不走这里，由 provider 包提供本地实现
func NewChatModel(ctx context.Context, cfg *config.AIConfig) (model.BaseChatModel, error) {
	s := samplingFrom(cfg.Options)

	switch cfg.Provider {
	case "ark":
		modelName := cfg.Model
		if modelName == "" {
			modelName = defaultArkModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultArkBaseURL
		}
		return arkext.NewChatModel(ctx, &arkext.ChatModelConfig{
			Model:       modelName,
			APIKey:      cfg.APIKey,
			BaseURL:     baseURL,
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
			TopP:        s.topP,
		})
	case "openai", "azure":
		modelName := cfg.Model
		if modelName == "" {
			modelName = defaultOpenAIModel
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:       modelName,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			ByAzure:     cfg.Provider == "azure",
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
			TopP:        s.topP,
		})
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
