package reactor

import (
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"time"
)

const (
	defaultReadyBuffer = 1024
)

type Options struct {
	RxpOptions  rxp.Options
	ReadyBuffer int
}

func (options *Options) AsRxpOptions() []rxp.Option {
	opts := make([]rxp.Option, 0, 1)
	if n := options.RxpOptions.MaxprocsOptions.MinGOMAXPROCS; n > 0 {
		opts = append(opts, rxp.WithMinGOMAXPROCS(n))
	}
	if fn := options.RxpOptions.MaxprocsOptions.Procs; fn != nil {
		opts = append(opts, rxp.WithProcs(fn))
	}
	if fn := options.RxpOptions.MaxprocsOptions.RoundQuotaFunc; fn != nil {
		opts = append(opts, rxp.WithRoundQuotaFunc(fn))
	}
	if n := options.RxpOptions.MaxGoroutines; n > 0 {
		opts = append(opts, rxp.WithMaxGoroutines(n))
	}
	if n := options.RxpOptions.MaxReadyGoroutinesIdleDuration; n > 0 {
		opts = append(opts, rxp.WithMaxReadyGoroutinesIdleDuration(n))
	}
	if n := options.RxpOptions.CloseTimeout; n > 0 {
		opts = append(opts, rxp.WithCloseTimeout(n))
	}
	return opts
}

type Option func(options *Options) (err error)

// WithReadyBuffer
// 设置任务就绪队列的容量。
func WithReadyBuffer(n int) Option {
	return func(options *Options) (err error) {
		if n < 1 {
			err = errors.New("reactor: ready buffer must be greater than zero")
			return
		}
		options.ReadyBuffer = n
		return
	}
}

// WithMaxGoroutines
// 设置执行器最大协程数。
func WithMaxGoroutines(n int) Option {
	return func(options *Options) (err error) {
		return rxp.WithMaxGoroutines(n)(&options.RxpOptions)
	}
}

// WithCloseTimeout
// 设置执行器关闭超时。
func WithCloseTimeout(timeout time.Duration) Option {
	return func(options *Options) (err error) {
		return rxp.WithCloseTimeout(timeout)(&options.RxpOptions)
	}
}
