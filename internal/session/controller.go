package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"animstory/internal/model"
	"animstory/internal/voice"
)

// 面向用户的错误信息
const (
	msgTopicRequired    = "Please enter a topic for your story."
	msgSceneCountRange  = "Number of scenes must be between 3 and 10."
	msgImageRequiredFmt = "Generate an image for scene %d before generating its video."
	msgImageFailedFmt   = "Failed to generate image for scene %d."
	msgVideoFailedFmt   = "Failed to generate video for scene %d."
	msgVoiceoverFailed  = "Text-to-speech playback failed."
)

// Orchestrator 故事编排操作，由 studio.Service 实现
type Orchestrator interface {
	GenerateStory(ctx context.Context, topic string, sceneCount int, opts model.AdvancedOptions) ([]model.Scene, error)
	GenerateImage(ctx context.Context, prompt string) (*model.ImageResult, error)
	GenerateVideo(ctx context.Context, prompt, imageBase64 string) (string, error)
}

// State 会话状态快照
type State struct {
	Topic        string
	SceneCount   int
	Options      model.AdvancedOptions
	Scenes       []model.Scene
	PlayingScene int    // 正在配音的分镜，0 表示无
	Error        string // 最近一次失败信息，空表示无
	Loading      bool   // 故事生成中
}

// Option 控制器选项
type Option func(*Controller)

// WithVoice 设置配音引擎
func WithVoice(engine voice.Engine) Option {
	return func(c *Controller) {
		c.voice = engine
	}
}

// WithObserver 每次状态变化后回调，回调中不要再调用控制器的写方法
func WithObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// Controller 会话状态控制器
// 所有状态只通过 Snapshot 对外可见；异步结果携带发起时的生成代次，代次过期的结果被丢弃
type Controller struct {
	orch     Orchestrator
	voice    voice.Engine
	observer func(State)
	slot     playbackSlot

	mu         sync.Mutex
	topic      string
	sceneCount int
	options    model.AdvancedOptions
	scenes     []model.Scene
	errMsg     string
	loading    bool
	token      uint64
	closed     bool
}

// New 创建会话控制器
func New(orch Orchestrator, opts ...Option) *Controller {
	c := &Controller{
		orch:       orch,
		sceneCount: model.DefaultScenes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTopic 设置故事主题
func (c *Controller) SetTopic(topic string) {
	c.update(func() { c.topic = topic })
}

// SetSceneCount 设置分镜数量，合法性在生成时校验
func (c *Controller) SetSceneCount(n int) {
	c.update(func() { c.sceneCount = n })
}

// SetOptions 设置高级选项
func (c *Controller) SetOptions(opts model.AdvancedOptions) {
	c.update(func() { c.options = opts })
}

// ClearError 清除错误信息
func (c *Controller) ClearError() {
	c.update(func() { c.errMsg = "" })
}

// Snapshot 返回状态深拷贝
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	scenes := make([]model.Scene, len(c.scenes))
	for i, sc := range c.scenes {
		scenes[i] = sc.Clone()
	}
	return State{
		Topic:        c.topic,
		SceneCount:   c.sceneCount,
		Options:      c.options,
		Scenes:       scenes,
		PlayingScene: c.slot.Current(),
		Error:        c.errMsg,
		Loading:      c.loading,
	}
}

// update 在锁内修改状态，解锁后通知观察者
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) notify(st State) {
	if c.observer != nil {
		c.observer(st)
	}
}

// fail 记录校验失败并返回 ValidationError
func (c *Controller) fail(msg string) error {
	c.update(func() { c.errMsg = msg })
	return &ValidationError{Message: msg}
}

// findLocked 按序号查找分镜
func (c *Controller) findLocked(number int) *model.Scene {
	for i := range c.scenes {
		if c.scenes[i].Number == number {
			return &c.scenes[i]
		}
	}
	return nil
}

// GenerateStory 生成故事，成功后整体替换分镜列表
func (c *Controller) GenerateStory(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.loading {
		c.mu.Unlock()
		return ErrOperationInProgress
	}
	topic := strings.TrimSpace(c.topic)
	count := c.sceneCount
	opts := c.options
	c.mu.Unlock()

	if topic == "" {
		return c.fail(msgTopicRequired)
	}
	if count < model.MinScenes || count > model.MaxScenes {
		return c.fail(msgSceneCountRange)
	}

	c.mu.Lock()
	if c.closed || c.loading {
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return ErrClosed
		}
		return ErrOperationInProgress
	}
	c.slot.ReleaseAll()
	c.errMsg = ""
	c.scenes = nil
	c.loading = true
	c.token++
	token := c.token
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)

	logger := log.With().Str("topic", topic).Int("scenes", count).Logger()
	logger.Debug().Msg("story generation started")

	scenes, err := c.orch.GenerateStory(ctx, topic, count, opts)

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		logger.Debug().Msg("stale story result discarded")
		return err
	}
	c.loading = false
	if err != nil {
		c.errMsg = err.Error()
		c.scenes = nil
		logger.Warn().Err(err).Msg("story generation failed")
	} else {
		c.scenes = make([]model.Scene, len(scenes))
		for i, sc := range scenes {
			sc.Image = nil
			sc.Video = nil
			c.scenes[i] = sc
		}
		logger.Info().Int("received", len(scenes)).Msg("story generated")
	}
	st = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)

	return err
}

// GenerateImage 为分镜生成图片
// 该分镜的图片或视频正在生成时忽略本次触发
func (c *Controller) GenerateImage(ctx context.Context, number int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	sc := c.findLocked(number)
	if sc == nil {
		c.mu.Unlock()
		return ErrSceneNotFound
	}
	if (sc.Image != nil && sc.Image.Generating) || (sc.Video != nil && sc.Video.Generating) {
		c.mu.Unlock()
		return ErrOperationInProgress
	}
	sc.Image = &model.SceneImage{Generating: true}
	prompt := sc.AnimationPrompt
	token := c.token
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)

	logger := log.With().Int("scene", number).Logger()
	logger.Debug().Msg("image generation started")

	img, err := c.orch.GenerateImage(ctx, prompt)

	c.mu.Lock()
	sc = c.findLocked(number)
	if token != c.token || sc == nil {
		c.mu.Unlock()
		logger.Debug().Msg("stale image result discarded")
		return err
	}
	if err != nil {
		sc.Image = &model.SceneImage{}
		c.errMsg = fmt.Sprintf(msgImageFailedFmt, number)
		logger.Warn().Err(err).Msg("image generation failed")
	} else {
		sc.Image = &model.SceneImage{DataURL: img.DataURL, Base64: img.Base64}
		logger.Info().Msg("image generated")
	}
	st = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)

	return err
}

// GenerateVideo 以分镜图片为首帧生成视频
func (c *Controller) GenerateVideo(ctx context.Context, number int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	sc := c.findLocked(number)
	if sc == nil {
		c.mu.Unlock()
		return ErrSceneNotFound
	}
	if sc.Video != nil && sc.Video.Generating {
		c.mu.Unlock()
		return ErrOperationInProgress
	}
	if !sc.Image.HasContent() {
		c.mu.Unlock()
		return c.fail(fmt.Sprintf(msgImageRequiredFmt, number))
	}
	sc.Video = &model.SceneVideo{Generating: true}
	prompt := sc.AnimationPrompt
	imageBase64 := sc.Image.Base64
	token := c.token
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)

	logger := log.With().Int("scene", number).Logger()
	logger.Debug().Msg("video generation started")

	videoURL, err := c.orch.GenerateVideo(ctx, prompt, imageBase64)

	c.mu.Lock()
	sc = c.findLocked(number)
	if token != c.token || sc == nil {
		c.mu.Unlock()
		logger.Debug().Msg("stale video result discarded")
		return err
	}
	if err != nil {
		sc.Video = &model.SceneVideo{}
		c.errMsg = fmt.Sprintf(msgVideoFailedFmt, number)
		logger.Warn().Err(err).Msg("video generation failed")
	} else {
		sc.Video = &model.SceneVideo{URL: videoURL}
		logger.Info().Msg("video generated")
	}
	st = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)

	return err
}

// PlayVoiceover 播放分镜配音
// 同一分镜正在播放时切换为停止；其他分镜正在播放时先停止再开始
// 返回的 done 在本次播放结束（自然结束、被停止或失败）后关闭；切换为停止时返回 nil
func (c *Controller) PlayVoiceover(number int) (<-chan struct{}, error) {
	if c.voice == nil {
		return nil, ErrVoiceUnavailable
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	sc := c.findLocked(number)
	if sc == nil {
		c.mu.Unlock()
		return nil, ErrSceneNotFound
	}
	if c.slot.Current() == number {
		c.slot.ReleaseAll()
		st := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(st)
		return nil, nil
	}
	script := sc.Script
	l, ctx := c.slot.Acquire(context.Background(), number)
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)

	done := make(chan struct{})
	go c.runVoiceover(ctx, l, script, done)
	return done, nil
}

func (c *Controller) runVoiceover(ctx context.Context, l *lease, script string, done chan struct{}) {
	defer close(done)
	logger := log.With().Int("scene", l.scene).Logger()

	pb, err := c.voice.Speak(ctx, script)
	if err != nil {
		c.finishVoiceover(l, err)
		return
	}
	if !c.slot.Attach(l, pb) {
		pb.Stop()
		return
	}
	logger.Debug().Msg("voiceover playing")

	c.finishVoiceover(l, <-pb.Done())
}

// finishVoiceover 仅当 lease 仍持有槽位时清空槽位并记录失败
func (c *Controller) finishVoiceover(l *lease, err error) {
	c.mu.Lock()
	if !c.slot.Release(l) {
		c.mu.Unlock()
		return
	}
	if err != nil && !errors.Is(err, voice.ErrStopped) && !errors.Is(err, context.Canceled) {
		c.errMsg = msgVoiceoverFailed
		log.Warn().Err(err).Int("scene", l.scene).Msg("voiceover playback failed")
	}
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)
}

// StopVoiceover 停止当前配音
func (c *Controller) StopVoiceover() {
	c.update(c.slot.ReleaseAll)
}

// Close 关闭会话：释放播放槽位，使所有进行中的结果失效
// 可重复调用
// 只有第一次关闭会通知观察者
func (c *Controller) Close() {
	c.mu.Lock()
	c.slot.ReleaseAll()
	c.token++
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.loading = false
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)
}
