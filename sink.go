package outflow

import (
	"context"
	"github.com/brickingsoft/errors"
	"sync"
)

// Pair
// 创建共享同一条记录通道的 (Writer, Sink) 组合,用于在无管线的情况下断言写入内容。
//
// 记录无界,写入者从不因背压挂起。Sink 为单消费者的惰性序列,
// 写入者 Finish 后序列在排空剩余元素后终止。
func Pair[E any]() (w *Writer[E], sink *Sink[E]) {
	rec := &recording[E]{
		wake: make(chan struct{}, 1),
	}
	w = &Writer[E]{kind: testBacking, recording: rec}
	sink = &Sink[E]{recording: rec}
	return
}

type recording[E any] struct {
	mutex    sync.Mutex
	elements []E
	finished bool
	wake     chan struct{}
}

func (rec *recording[E]) push(elements ...E) (err error) {
	rec.mutex.Lock()
	if rec.finished {
		rec.mutex.Unlock()
		err = errors.From(ErrFinished)
		return
	}
	rec.elements = append(rec.elements, elements...)
	rec.mutex.Unlock()
	rec.signal()
	return
}

func (rec *recording[E]) finish() (err error) {
	rec.mutex.Lock()
	if rec.finished {
		rec.mutex.Unlock()
		err = errors.From(ErrFinished)
		return
	}
	rec.finished = true
	rec.mutex.Unlock()
	rec.signal()
	return
}

func (rec *recording[E]) signal() {
	select {
	case rec.wake <- struct{}{}:
	default:
	}
}

// Sink
// 记录通道的消费端:按写入次序产出元素,不可重启。
type Sink[E any] struct {
	recording *recording[E]
}

// Next
// 取出下一个元素。
//
// 通道打开且暂无元素时挂起;配对写入者 Finish 且元素耗尽后 ok 为 false;
// ctx 取消时以取消错误返回。
func (sink *Sink[E]) Next(ctx context.Context) (element E, ok bool, err error) {
	rec := sink.recording
	for {
		rec.mutex.Lock()
		if len(rec.elements) > 0 {
			element = rec.elements[0]
			rec.elements = rec.elements[1:]
			ok = true
			rec.mutex.Unlock()
			return
		}
		finished := rec.finished
		rec.mutex.Unlock()
		if finished {
			return
		}
		select {
		case <-rec.wake:
		case <-ctx.Done():
			err = errors.From(ErrCanceled, errors.WithWrap(ctx.Err()))
			return
		}
	}
}
