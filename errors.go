package outflow

import (
	"context"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/outflow/pkg/pending"
	"github.com/brickingsoft/rxp/async"
)

var (
	ErrFinished = errors.Define("outflow: writer finished")
	ErrCanceled = errors.Define("outflow: operation canceled")
)

// IsFinished
// 判断错误是否为已结束:对已 Finish 的写入器再行操作时返回。
func IsFinished(err error) bool {
	return errors.Is(err, ErrFinished) || errors.Is(err, pending.ErrFinished)
}

// IsCanceled
// 判断错误是否为取消:挂起中调用方的 ctx 被取消时返回。
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, pending.ErrCanceled) ||
		errors.Is(err, context.Canceled) ||
		async.IsCanceled(err)
}
