package outflow

import (
	"context"
	"github.com/brickingsoft/outflow/pkg/pending"
	"github.com/brickingsoft/outflow/pkg/reactor"
	"github.com/brickingsoft/rxp/async"
)

type backingKind int

const (
	testBacking backingKind = iota + 1
	liveBacking
)

// Writer
// 并发写入者与单线程管线之间的桥。构造后不可变,可被任意多个协程并发使用。
//
// 背衬二选一:测试背衬记录写入且从不挂起;
// 实况背衬经背压队列入队,由事件循环排空给管线处理器。
// 测试背衬经 Pair 创建,实况背衬经 Attach 创建。
type Writer[E any] struct {
	kind      backingKind
	recording *recording[E]
	queue     *pending.Queue[Action[E]]
	loop      *reactor.EventLoop
}

// Write
// 纯写入一个元素。
//
// 实况背衬:队列不可写时挂起,恢复后入队即返回,不等待冲刷。
// 测试背衬:记录即返回,从不挂起。
func (w *Writer[E]) Write(ctx context.Context, element E) (err error) {
	switch w.kind {
	case testBacking:
		err = w.recording.push(element)
	case liveBacking:
		err = w.queue.Push(ctx, Action[E]{Kind: ActionWrite, Element: element})
	default:
		panic("outflow: writer has no backing")
	}
	return
}

// WriteAndFlush
// 写入一个元素并挂起至该次冲刷被管线确认。
//
// 测试背衬:行为与 Write 一致。
func (w *Writer[E]) WriteAndFlush(ctx context.Context, element E) (err error) {
	switch w.kind {
	case testBacking:
		err = w.recording.push(element)
	case liveBacking:
		err = AwaitPromise(ctx, w.loop, func(completion async.Promise[async.Void]) error {
			return w.queue.Push(ctx, Action[E]{Kind: ActionWriteAndFlush, Element: element, Completion: completion})
		})
	default:
		panic("outflow: writer has no backing")
	}
	return
}

// WriteBatch
// 以一次原子入队写入一批元素,批内次序保持,批间不被其他写入者拆散。
//
// 空批为成功的空操作。
func (w *Writer[E]) WriteBatch(ctx context.Context, elements []E) (err error) {
	if len(elements) == 0 {
		return
	}
	switch w.kind {
	case testBacking:
		err = w.recording.push(elements...)
	case liveBacking:
		actions := make([]Action[E], len(elements))
		for i, element := range elements {
			actions[i] = Action[E]{Kind: ActionWrite, Element: element}
		}
		err = w.queue.Push(ctx, actions...)
	default:
		panic("outflow: writer has no backing")
	}
	return
}

// WriteAndFlushBatch
// 原子写入一批元素,整批共享一个完成承诺,挂起至该批冲刷被确认。
//
// 空批退化为 Flush。测试背衬:行为与 WriteBatch 一致。
func (w *Writer[E]) WriteAndFlushBatch(ctx context.Context, elements []E) (err error) {
	switch w.kind {
	case testBacking:
		if len(elements) > 0 {
			err = w.recording.push(elements...)
		}
	case liveBacking:
		if len(elements) == 0 {
			err = w.Flush(ctx)
			return
		}
		err = AwaitPromise(ctx, w.loop, func(completion async.Promise[async.Void]) error {
			actions := make([]Action[E], len(elements))
			last := len(elements) - 1
			for i, element := range elements[:last] {
				actions[i] = Action[E]{Kind: ActionWrite, Element: element}
			}
			actions[last] = Action[E]{Kind: ActionWriteAndFlush, Element: elements[last], Completion: completion}
			return w.queue.Push(ctx, actions...)
		})
	default:
		panic("outflow: writer has no backing")
	}
	return
}

// WriteFrom
// 从一个惰性序列逐个拉取元素并依序写入,每个元素前重新检查背压。
//
// 序列只被消费一次。拉取与写入的挂起遵循各自的契约。
func (w *Writer[E]) WriteFrom(ctx context.Context, sequence Sequence[E]) (err error) {
	for {
		element, ok, nextErr := sequence.Next(ctx)
		if nextErr != nil {
			err = nextErr
			return
		}
		if !ok {
			return
		}
		if err = w.Write(ctx, element); err != nil {
			return
		}
	}
}

// Flush
// 挂起至一次冲刷被管线确认。测试背衬为成功的空操作。
func (w *Writer[E]) Flush(ctx context.Context) (err error) {
	switch w.kind {
	case testBacking:
	case liveBacking:
		err = AwaitPromise(ctx, w.loop, func(completion async.Promise[async.Void]) error {
			return w.queue.Push(ctx, Action[E]{Kind: ActionFlush, Completion: completion})
		})
	default:
		panic("outflow: writer has no backing")
	}
	return
}

// Finish
// 结束生产。
//
// 测试背衬:关闭记录通道,配对的 Sink 迭代随之终止。
// 实况背衬:通知队列结束,排空后由管线处理器执行其半关行为。
// 此后的写入族操作均以结束错误返回。
func (w *Writer[E]) Finish() (err error) {
	switch w.kind {
	case testBacking:
		err = w.recording.finish()
	case liveBacking:
		err = w.queue.Finish()
	default:
		panic("outflow: writer has no backing")
	}
	return
}
