package voice

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrStopped 播放被主动停止
var ErrStopped = errors.New("playback stopped")

// Playback 一次正在进行的播放
type Playback interface {
	// Done 播放结束时收到一个值：nil 表示自然结束，ErrStopped 表示被停止，其他为播放失败
	Done() <-chan error
	// Stop 同步停止播放，可重复调用
	Stop()
}

// Engine 配音引擎
type Engine interface {
	// Speak 合成并开始播放，合成阶段可被 ctx 取消
	Speak(ctx context.Context, text string) (Playback, error)
}

// Synthesizer 文本转语音
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player 音频播放器
type Player interface {
	Play(ctx context.Context, audio []byte) (Playback, error)
}

// TTSEngine 先合成后播放
type TTSEngine struct {
	synth  Synthesizer
	player Player
}

// NewTTSEngine 创建配音引擎
func NewTTSEngine(synth Synthesizer, player Player) *TTSEngine {
	return &TTSEngine{synth: synth, player: player}
}

// Speak 合成并播放
func (e *TTSEngine) Speak(ctx context.Context, text string) (Playback, error) {
	audio, err := e.synth.Synthesize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug().Int("audio_bytes", len(audio)).Msg("voiceover synthesized")

	pb, err := e.player.Play(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("play: %w", err)
	}
	return pb, nil
}
