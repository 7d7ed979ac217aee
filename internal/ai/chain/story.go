package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"animstory/internal/ai/component"
	"animstory/internal/config"
	domain "animstory/internal/model"
)

// ErrInvalidResponse 模型输出不是非空的分镜数组
var ErrInvalidResponse = errors.New("invalid or empty story response")

const baseInstructions = "You are a creative director for an animation studio. Your task is to take a user's topic and generate a short, compelling story suitable for a 3D animated video."

// StoryChain 故事分镜生成链
// 工作流: 主题 + 选项 -> 提示词 -> ChatModel -> JSON 分镜数组
type StoryChain struct {
	chatModel model.BaseChatModel
}

// NewStoryChain 根据配置创建故事生成链
func NewStoryChain(ctx context.Context, cfg *config.AIConfig) (*StoryChain, error) {
	chatModel, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return NewStoryChainWithModel(chatModel), nil
}

// NewStoryChainWithModel 使用已有 ChatModel 创建故事生成链
func NewStoryChainWithModel(chatModel model.BaseChatModel) *StoryChain {
	return &StoryChain{chatModel: chatModel}
}

// Run 生成分镜
func (c *StoryChain) Run(ctx context.Context, topic string, sceneCount int, opts domain.AdvancedOptions) ([]domain.StoryScene, error) {
	messages := []*schema.Message{
		schema.SystemMessage(BuildInstructions(opts)),
		schema.UserMessage(BuildStoryPrompt(topic, sceneCount)),
	}

	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		log.Debug().
			Int("prompt_tokens", resp.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", resp.ResponseMeta.Usage.CompletionTokens).
			Msg("story model usage")
	}

	return ParseScenes(resp.Content)
}

// BuildInstructions 根据高级选项拼接系统指令，空选项不出现在指令中
func BuildInstructions(opts domain.AdvancedOptions) string {
	var b strings.Builder
	b.WriteString(baseInstructions)
	if opts.Genre != "" {
		fmt.Fprintf(&b, " The genre must be %s.", opts.Genre)
	}
	if opts.Audience != "" {
		fmt.Fprintf(&b, " The target audience is %s.", opts.Audience)
	}
	if opts.Tone != "" {
		fmt.Fprintf(&b, " The tone should be %s.", opts.Tone)
	}
	if opts.Include != "" {
		fmt.Fprintf(&b, " IMPORTANT: You must include the following elements, ideas, or plot points: %q.", opts.Include)
	}
	if opts.Avoid != "" {
		fmt.Fprintf(&b, " IMPORTANT: You must avoid the following elements, ideas, or themes: %q.", opts.Avoid)
	}
	return b.String()
}

// BuildStoryPrompt 构建用户提示词
func BuildStoryPrompt(topic string, sceneCount int) string {
	return fmt.Sprintf(`The story should be broken down into exactly %d scenes. For each scene, provide:
1. A concise voiceover script.
2. A detailed animation prompt for a text-to-video AI model. This prompt should describe the scene's visuals, character actions, camera movements (e.g., 'dolly zoom', 'crane shot', 'handheld follow'), and overall mood. Use descriptive keywords like 'cinematic lighting', 'hyperrealistic', '4K', 'Unreal Engine'.

User's Topic: %q

Respond with only a JSON array. Each element must be an object with the fields "scene" (integer, starting at 1), "script" (string) and "animationPrompt" (string).`, sceneCount, topic)
}

// ParseScenes 解析模型输出，容忍 markdown 代码块和前后说明文字
func ParseScenes(text string) ([]domain.StoryScene, error) {
	body := stripCodeFence(strings.TrimSpace(text))

	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end < start {
		return nil, ErrInvalidResponse
	}

	var scenes []domain.StoryScene
	if err := json.Unmarshal([]byte(body[start:end+1]), &scenes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(scenes) == 0 {
		return nil, ErrInvalidResponse
	}
	return scenes, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
