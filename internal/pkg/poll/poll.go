package poll

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock 时间源，测试时可替换为假时钟
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// RealClock 系统时钟
var RealClock Clock = realClock{}

type options struct {
	clock Clock
	name  string
}

// Option 轮询选项
type Option func(*options)

// WithClock 指定时间源
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithName 指定日志中的轮询名称
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Until 反复调用 probe 直到 isDone 返回 true
//
// probe 或 isDone 返回错误时立即结束并返回该错误，不做重试。
// 没有次数和时长上限；需要截止时间的调用方通过 ctx 控制。
// 每次调用相互独立，可以并发运行。
func Until[T any](
	ctx context.Context,
	probe func(ctx context.Context) (T, error),
	isDone func(T) (bool, error),
	interval time.Duration,
	opts ...Option,
) (T, error) {
	o := options{clock: RealClock, name: "poll"}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := probe(ctx)
		if err != nil {
			return zero, err
		}

		done, err := isDone(result)
		if err != nil {
			return zero, err
		}
		if done {
			log.Debug().Str("poll", o.name).Int("attempt", attempt).Msg("poll finished")
			return result, nil
		}

		log.Debug().Str("poll", o.name).Int("attempt", attempt).Dur("interval", interval).Msg("not done, waiting")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-o.clock.After(interval):
		}
	}
}
