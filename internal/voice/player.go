package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// DefaultPlayerArgs ffplay 从 stdin 读取音频、无窗口、播完退出
var DefaultPlayerArgs = []string{"-nodisp", "-autoexit", "-loglevel", "error", "-"}

// CommandPlayer 通过外部进程播放音频，音频数据写入进程 stdin
type CommandPlayer struct {
	path string
	args []string
}

// NewCommandPlayer 创建播放器，path 为空时使用 ffplay
// ffplay 未指定参数时使用 DefaultPlayerArgs
func NewCommandPlayer(path string, args []string) *CommandPlayer {
	if path == "" {
		path = "ffplay"
	}
	if len(args) == 0 && strings.TrimSuffix(filepath.Base(path), ".exe") == "ffplay" {
		args = DefaultPlayerArgs
	}
	return &CommandPlayer{path: path, args: args}
}

// Play 启动播放进程；ctx 取消时进程被杀死
func (p *CommandPlayer) Play(ctx context.Context, audio []byte) (Playback, error) {
	cmd := exec.CommandContext(ctx, p.path, p.args...)
	cmd.Stdin = bytes.NewReader(audio)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player %s: %w", p.path, err)
	}

	pb := &commandPlayback{
		cmd:    cmd,
		done:   make(chan error, 1),
		exited: make(chan struct{}),
	}
	go pb.wait(ctx)

	log.Debug().Str("player", p.path).Int("pid", cmd.Process.Pid).Msg("playback started")
	return pb, nil
}

type commandPlayback struct {
	cmd      *exec.Cmd
	done     chan error
	exited   chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
}

func (pb *commandPlayback) wait(ctx context.Context) {
	err := pb.cmd.Wait()
	if pb.stopped.Load() || ctx.Err() != nil {
		err = ErrStopped
	} else if err != nil {
		err = fmt.Errorf("player exited: %w", err)
	}
	pb.done <- err
	close(pb.exited)
}

func (pb *commandPlayback) Done() <-chan error {
	return pb.done
}

func (pb *commandPlayback) Stop() {
	pb.stopOnce.Do(func() {
		pb.stopped.Store(true)
		if pb.cmd.Process != nil {
			_ = pb.cmd.Process.Kill()
		}
	})
	<-pb.exited
}
