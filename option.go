package outflow

import (
	"github.com/brickingsoft/errors"
)

type Options struct {
	HighWatermark int
	LowWatermark  int
}

type Option func(options *Options) (err error)

// WithHighWatermark
// 设置背压队列的高水位。
//
// 缓冲量达到高水位后写入者被挂起。默认值为 pending.DefaultHighWatermark。
func WithHighWatermark(n int) Option {
	return func(options *Options) (err error) {
		if n < 1 {
			err = errors.New("outflow: high watermark must be greater than zero")
			return
		}
		options.HighWatermark = n
		return
	}
}

// WithLowWatermark
// 设置背压队列的低水位。
//
// 缓冲量排空至低水位及以下后写入者按序恢复。须小于高水位。
func WithLowWatermark(n int) Option {
	return func(options *Options) (err error) {
		if n < 1 {
			err = errors.New("outflow: low watermark must be greater than zero")
			return
		}
		options.LowWatermark = n
		return
	}
}
