package outflow

import (
	"context"
	"github.com/brickingsoft/errors"
	"iter"
)

// Sequence
// WriteFrom 的元素来源:逐个拉取,可在产出之间挂起,只可被消费一次。
type Sequence[E any] interface {
	Next(ctx context.Context) (element E, ok bool, err error)
}

// SeqOf
// 将一个同步迭代器适配为 Sequence。
func SeqOf[E any](seq iter.Seq[E]) Sequence[E] {
	next, stop := iter.Pull(seq)
	return &seqSequence[E]{next: next, stop: stop}
}

type seqSequence[E any] struct {
	next func() (E, bool)
	stop func()
}

func (seq *seqSequence[E]) Next(ctx context.Context) (element E, ok bool, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		seq.stop()
		err = errors.From(ErrCanceled, errors.WithWrap(ctxErr))
		return
	}
	element, ok = seq.next()
	if !ok {
		seq.stop()
	}
	return
}

// ChanOf
// 将一个通道适配为 Sequence,通道关闭即序列终止。
func ChanOf[E any](ch <-chan E) Sequence[E] {
	return &chanSequence[E]{ch: ch}
}

type chanSequence[E any] struct {
	ch <-chan E
}

func (seq *chanSequence[E]) Next(ctx context.Context) (element E, ok bool, err error) {
	select {
	case element, ok = <-seq.ch:
		return
	case <-ctx.Done():
		err = errors.From(ErrCanceled, errors.WithWrap(ctx.Err()))
		return
	}
}
