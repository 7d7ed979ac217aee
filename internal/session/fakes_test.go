package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"animstory/internal/model"
	"animstory/internal/voice"
)

type fakeOrch struct {
	mu         sync.Mutex
	storyCalls int
	imageCalls int
	videoCalls int
	prompts    []string

	storyFn func(ctx context.Context, topic string, n int, opts model.AdvancedOptions) ([]model.Scene, error)
	imageFn func(ctx context.Context, prompt string) (*model.ImageResult, error)
	videoFn func(ctx context.Context, prompt, imageBase64 string) (string, error)
}

func newFakeOrch() *fakeOrch {
	return &fakeOrch{
		storyFn: func(ctx context.Context, topic string, n int, opts model.AdvancedOptions) ([]model.Scene, error) {
			return makeScenes(n), nil
		},
		imageFn: func(ctx context.Context, prompt string) (*model.ImageResult, error) {
			return &model.ImageResult{DataURL: "data:image/jpeg;base64,QUJD", Base64: "QUJD"}, nil
		},
		videoFn: func(ctx context.Context, prompt, imageBase64 string) (string, error) {
			return "https://x/y", nil
		},
	}
}

func (f *fakeOrch) GenerateStory(ctx context.Context, topic string, n int, opts model.AdvancedOptions) ([]model.Scene, error) {
	f.mu.Lock()
	f.storyCalls++
	fn := f.storyFn
	f.mu.Unlock()
	return fn(ctx, topic, n, opts)
}

func (f *fakeOrch) GenerateImage(ctx context.Context, prompt string) (*model.ImageResult, error) {
	f.mu.Lock()
	f.imageCalls++
	f.prompts = append(f.prompts, prompt)
	fn := f.imageFn
	f.mu.Unlock()
	return fn(ctx, prompt)
}

func (f *fakeOrch) GenerateVideo(ctx context.Context, prompt, imageBase64 string) (string, error) {
	f.mu.Lock()
	f.videoCalls++
	fn := f.videoFn
	f.mu.Unlock()
	return fn(ctx, prompt, imageBase64)
}

func (f *fakeOrch) calls() (story, image, video int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storyCalls, f.imageCalls, f.videoCalls
}

func makeScenes(n int) []model.Scene {
	scenes := make([]model.Scene, n)
	for i := range scenes {
		num := i + 1
		scenes[i] = model.Scene{
			Number:          num,
			Script:          fmt.Sprintf("script %d", num),
			AnimationPrompt: fmt.Sprintf("prompt %d", num),
		}
	}
	return scenes
}

// gate 让假调用阻塞到测试放行
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait() {
	g.started <- struct{}{}
	<-g.release
}

type fakePlayback struct {
	done    chan error
	once    sync.Once
	stopped atomic.Int32
}

func (p *fakePlayback) Done() <-chan error { return p.done }

func (p *fakePlayback) Stop() {
	p.once.Do(func() {
		p.stopped.Add(1)
		p.done <- voice.ErrStopped
	})
}

func (p *fakePlayback) finish(err error) {
	p.once.Do(func() { p.done <- err })
}

type fakeEngine struct {
	mu        sync.Mutex
	scripts   []string
	playbacks []*fakePlayback
	speakErr  error
	started   chan *fakePlayback
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{started: make(chan *fakePlayback, 8)}
}

func (e *fakeEngine) Speak(ctx context.Context, text string) (voice.Playback, error) {
	e.mu.Lock()
	e.scripts = append(e.scripts, text)
	err := e.speakErr
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	pb := &fakePlayback{done: make(chan error, 1)}
	e.mu.Lock()
	e.playbacks = append(e.playbacks, pb)
	e.mu.Unlock()
	e.started <- pb
	return pb, nil
}
