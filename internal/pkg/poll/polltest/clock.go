// Package polltest 提供轮询测试使用的假时钟
package polltest

import (
	"sync"
	"time"
)

// ImmediateClock 立即触发的时钟，记录每次等待的时长
type ImmediateClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

// After 记录等待时长并立即返回已触发的 channel
func (c *ImmediateClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// Waits 返回所有等待时长
func (c *ImmediateClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// NeverClock 永不触发的时钟
type NeverClock struct{}

// After 返回永不触发的 channel
func (NeverClock) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}
