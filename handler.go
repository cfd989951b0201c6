package outflow

import (
	"github.com/brickingsoft/outflow/pkg/pending"
	"github.com/brickingsoft/outflow/pkg/reactor"
	"github.com/brickingsoft/rxp/async"
	"sync/atomic"
)

// Handler
// 管线处理器:接收排空的动作并执行真实的写与冲刷,全部在循环线程上被调用。
//
// Wire 在 Attach 期间被恰好调用一次,处理器由此获得反向操控队列的句柄;
// 对已接线的处理器再次 Wire 属编程错误。
// HandleFlush 在传输确认后兑现完成承诺;HandleFinish 执行既定的半关行为。
type Handler[E any] interface {
	Wire(ctrl *Control)
	HandleWrite(element E)
	HandleFlush(completion async.Promise[async.Void])
	HandleFinish()
}

// Control
// 处理器侧伸入队列的句柄:翻转可写信号,或使队列永久失败。
type Control struct {
	setWritable func(writable bool)
	fail        func(cause error)
}

func (ctrl *Control) SetWritable(writable bool) {
	ctrl.setWritable(writable)
}

func (ctrl *Control) Fail(cause error) {
	ctrl.fail(cause)
}

// Wiring
// 可嵌入处理器的接线座:保存 Control 并保证恰好接线一次,重复接线 panic。
type Wiring struct {
	ctrl atomic.Pointer[Control]
}

func (wiring *Wiring) Wire(ctrl *Control) {
	if !wiring.ctrl.CompareAndSwap(nil, ctrl) {
		panic("outflow: handler already wired")
	}
}

func (wiring *Wiring) Control() *Control {
	ctrl := wiring.ctrl.Load()
	if ctrl == nil {
		panic("outflow: handler not wired")
	}
	return ctrl
}

// Attach
// 将写入器一次性接入事件循环与管线处理器。
//
// 必须在循环线程上执行,否则 panic;经 reactor.EventLoop.Call 投递即可。
// 创建与处理器交叉接线的背压队列,返回面向生产者的写入器。
// 接线不可重入:对同一 Control 的第二次接线 panic。
func Attach[E any](loop *reactor.EventLoop, handler Handler[E], options ...Option) (w *Writer[E], err error) {
	loop.AssertInLoop()
	opts := Options{}
	for _, opt := range options {
		if err = opt(&opts); err != nil {
			return
		}
	}
	delegate := &pipelineDelegate[E]{handler: handler}
	queue, queueErr := pending.New[Action[E]](loop, delegate, opts.HighWatermark, opts.LowWatermark)
	if queueErr != nil {
		err = queueErr
		return
	}
	ctrl := &Control{
		setWritable: queue.SetWritable,
		fail:        queue.Fail,
	}
	handler.Wire(ctrl)
	w = &Writer[E]{kind: liveBacking, queue: queue, loop: loop}
	return
}

type pipelineDelegate[E any] struct {
	handler Handler[E]
}

func (d *pipelineDelegate[E]) Process(actions []Action[E]) {
	for _, action := range actions {
		switch action.Kind {
		case ActionWrite:
			d.handler.HandleWrite(action.Element)
		case ActionWriteAndFlush:
			d.handler.HandleWrite(action.Element)
			d.handler.HandleFlush(action.Completion)
		case ActionFlush:
			d.handler.HandleFlush(action.Completion)
		}
	}
}

func (d *pipelineDelegate[E]) Discard(actions []Action[E], cause error) {
	for _, action := range actions {
		if action.Completion != nil {
			action.Completion.Fail(cause)
		}
	}
}

func (d *pipelineDelegate[E]) Finish(cause error) {
	d.handler.HandleFinish()
}
