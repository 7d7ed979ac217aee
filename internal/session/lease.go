package session

import (
	"context"
	"sync"

	"animstory/internal/voice"
)

// lease 播放槽位的一次占用
type lease struct {
	id       uint64
	scene    int
	cancel   context.CancelFunc
	playback voice.Playback
}

// playbackSlot 全局唯一的配音播放槽位
// 同一时刻至多一个 lease；获取时强制释放旧的持有者
type playbackSlot struct {
	mu      sync.Mutex
	seq     uint64
	current *lease
}

// Acquire 占用槽位，返回新 lease 及其上下文
func (s *playbackSlot) Acquire(parent context.Context, scene int) (*lease, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	prev := s.current
	s.seq++
	l := &lease{id: s.seq, scene: scene, cancel: cancel}
	s.current = l
	s.mu.Unlock()

	release(prev)
	return l, ctx
}

// Attach 为仍持有槽位的 lease 绑定播放；lease 已失效时返回 false
func (s *playbackSlot) Attach(l *lease, pb voice.Playback) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != l {
		return false
	}
	l.playback = pb
	return true
}

// Release 仅当 l 仍是当前持有者时释放，返回是否释放
func (s *playbackSlot) Release(l *lease) bool {
	s.mu.Lock()
	if s.current != l {
		s.mu.Unlock()
		return false
	}
	s.current = nil
	s.mu.Unlock()

	release(l)
	return true
}

// ReleaseAll 无条件释放当前持有者
func (s *playbackSlot) ReleaseAll() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	release(prev)
}

// Current 当前占用槽位的分镜序号，0 表示空闲
func (s *playbackSlot) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0
	}
	return s.current.scene
}

// release 取消合成并同步停止播放
func release(l *lease) {
	if l == nil {
		return
	}
	l.cancel()
	if l.playback != nil {
		l.playback.Stop()
	}
}
