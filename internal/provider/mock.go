package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"animstory/internal/model"
	"animstory/internal/pkg/id"
)

// mockPNG 1x1 像素 PNG
const mockPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// NewMockSet 创建本地开发使用的确定性生成器
func NewMockSet() *Set {
	return &Set{
		Story: &MockStory{},
		Image: &MockImage{},
		Video: NewMockVideo(2, "https://example.com/animstory/mock"),
	}
}

// MockStory 按主题拼出固定分镜
type MockStory struct{}

func (MockStory) GenerateStory(ctx context.Context, topic string, sceneCount int, opts model.AdvancedOptions) ([]model.StoryScene, error) {
	style := "cinematic lighting, 4K"
	if opts.Tone != "" {
		style = strings.ToLower(opts.Tone) + " mood, " + style
	}

	scenes := make([]model.StoryScene, sceneCount)
	for i := range scenes {
		n := i + 1
		scenes[i] = model.StoryScene{
			Scene:           n,
			Script:          fmt.Sprintf("Part %d of the story about %s.", n, topic),
			AnimationPrompt: fmt.Sprintf("Scene %d: %s, slow dolly zoom, %s.", n, topic, style),
		}
	}
	return scenes, nil
}

// MockImage 返回固定的 1x1 PNG
type MockImage struct{}

func (MockImage) GenerateImage(ctx context.Context, prompt string) (string, string, error) {
	return mockPNG, "image/png", nil
}

// MockVideo 任务在若干次轮询后完成
type MockVideo struct {
	mu           sync.Mutex
	pendingPolls int
	urlBase      string
	ops          map[string]int // 剩余未完成轮询次数
}

// NewMockVideo pendingPolls 为返回 done 之前的未完成次数
func NewMockVideo(pendingPolls int, urlBase string) *MockVideo {
	return &MockVideo{
		pendingPolls: pendingPolls,
		urlBase:      strings.TrimSuffix(urlBase, "/"),
		ops:          make(map[string]int),
	}
}

func (g *MockVideo) StartVideo(ctx context.Context, prompt, imageBase64 string) (string, error) {
	op := id.NewCompact("mockop")

	g.mu.Lock()
	g.ops[op] = g.pendingPolls
	g.mu.Unlock()

	return op, nil
}

func (g *MockVideo) PollVideo(ctx context.Context, operationName string) (*model.VideoPollResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	remaining, ok := g.ops[operationName]
	if !ok {
		return &model.VideoPollResult{Done: true, Error: "Video operation not found."}, nil
	}
	if remaining > 0 {
		g.ops[operationName] = remaining - 1
		return &model.VideoPollResult{Done: false}, nil
	}
	return &model.VideoPollResult{Done: true, VideoURL: fmt.Sprintf("%s/%s.mp4", g.urlBase, operationName)}, nil
}
