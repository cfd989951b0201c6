package pending

import (
	"context"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/outflow/pkg/reactor"
	"sync"
)

var (
	ErrFinished = errors.Define("pending: queue finished")
	ErrCanceled = errors.Define("pending: push canceled")
	ErrFailed   = errors.Define("pending: queue failed")
)

const (
	DefaultHighWatermark = 64
	DefaultLowWatermark  = 16
)

// Delegate
// 队列的消费侧。方法均在循环线程上被调用。
//
// Process 按入队次序接收一批动作。
// Discard 接收因失败而未被消费的动作,其完成承诺必须在此兑现。
// Finish 在生产结束并排空后被调用一次,cause 为 nil 表示正常结束。
type Delegate[A any] interface {
	Process(actions []A)
	Discard(actions []A, cause error)
	Finish(cause error)
}

// New
// 创建一个绑定事件循环与消费侧的背压队列。
//
// 缓冲量达到 high 后生产者被挂起,排空至 low 及以下后按先来先服务放行。
func New[A any](loop *reactor.EventLoop, delegate Delegate[A], high int, low int) (v *Queue[A], err error) {
	if loop == nil {
		err = errors.New("pending: loop is nil")
		return
	}
	if delegate == nil {
		err = errors.New("pending: delegate is nil")
		return
	}
	if high < 1 {
		high = DefaultHighWatermark
	}
	if low < 1 || low >= high {
		if low = DefaultLowWatermark; low >= high {
			low = high / 4
		}
	}
	v = &Queue[A]{
		loop:     loop,
		delegate: delegate,
		high:     high,
		low:      low,
		writable: true,
	}
	return
}

type waiter struct {
	wake chan error
}

type Queue[A any] struct {
	loop      *reactor.EventLoop
	delegate  Delegate[A]
	mutex     sync.Mutex
	buffered  []A
	waiters   []*waiter
	high      int
	low       int
	writable  bool
	saturated bool
	draining  bool
	finished  bool
	notified  bool
	failure   error
}

// Push
// 以一次原子入队追加一批动作,批内次序保持。
//
// 不可写时挂起调用者,恢复次序与挂起次序一致。
// ctx 取消时以取消错误返回;队列已结束或已失败时以对应错误返回。
// 返回错误即表示整批未被接受,其完成承诺仍由调用者处置。
func (q *Queue[A]) Push(ctx context.Context, actions ...A) (err error) {
	if len(actions) == 0 {
		return
	}
	q.mutex.Lock()
	if err = q.terminalLocked(); err != nil {
		q.mutex.Unlock()
		return
	}
	if !(q.gateLocked() && len(q.waiters) == 0) {
		w := &waiter{wake: make(chan error, 1)}
		q.waiters = append(q.waiters, w)
		q.mutex.Unlock()
		select {
		case cause := <-w.wake:
			if cause != nil {
				err = cause
				return
			}
			q.mutex.Lock()
			if err = q.terminalLocked(); err != nil {
				q.mutex.Unlock()
				return
			}
		case <-ctx.Done():
			q.abandon(w)
			err = errors.From(ErrCanceled, errors.WithWrap(ctx.Err()))
			return
		}
	}
	q.buffered = append(q.buffered, actions...)
	if len(q.buffered) >= q.high {
		q.saturated = true
	}
	if scheduleErr := q.scheduleDrainLocked(); scheduleErr != nil {
		// the batch was not taken over, hand it back
		q.buffered = q.buffered[:len(q.buffered)-len(actions)]
		var discarded []A
		err, discarded = q.breakLocked(scheduleErr)
		q.mutex.Unlock()
		if len(discarded) > 0 {
			q.delegate.Discard(discarded, err)
		}
		return
	}
	q.wakeNextLocked()
	q.mutex.Unlock()
	return
}

// SetWritable
// 消费侧的可写信号。置为 false 时后续生产者挂起,置回 true 时按序放行。
func (q *Queue[A]) SetWritable(writable bool) {
	q.mutex.Lock()
	q.writable = writable
	if writable {
		q.wakeNextLocked()
	}
	q.mutex.Unlock()
}

// Fail
// 使队列永久失败:唤醒全部挂起的生产者,未消费的动作交由 Discard 处置。
func (q *Queue[A]) Fail(cause error) {
	if cause == nil {
		cause = errors.From(ErrFailed)
	}
	q.mutex.Lock()
	if q.failure != nil {
		q.mutex.Unlock()
		return
	}
	q.failure = cause
	discarded := q.buffered
	q.buffered = nil
	waiters := q.waiters
	q.waiters = nil
	q.mutex.Unlock()
	for _, w := range waiters {
		w.wake <- cause
	}
	if len(discarded) > 0 {
		q.dispatch(func() {
			q.delegate.Discard(discarded, cause)
		})
	}
}

// Finish
// 结束生产。剩余动作排空后在循环线程上调用 Delegate.Finish。
//
// 再次调用或此后的 Push 均以结束错误返回。
func (q *Queue[A]) Finish() (err error) {
	q.mutex.Lock()
	if err = q.terminalLocked(); err != nil {
		q.mutex.Unlock()
		return
	}
	q.finished = true
	waiters := q.waiters
	q.waiters = nil
	var discarded []A
	scheduleErr := q.scheduleDrainLocked()
	if scheduleErr != nil {
		err, discarded = q.breakLocked(scheduleErr)
	}
	notify := scheduleErr != nil && !q.notified
	if notify {
		q.notified = true
	}
	q.mutex.Unlock()
	for _, w := range waiters {
		w.wake <- errors.From(ErrFinished)
	}
	if len(discarded) > 0 {
		q.delegate.Discard(discarded, err)
	}
	if notify {
		q.delegate.Finish(scheduleErr)
	}
	return
}

func (q *Queue[A]) terminalLocked() (err error) {
	if q.failure != nil {
		err = q.failure
		return
	}
	if q.finished {
		err = errors.From(ErrFinished)
		return
	}
	return
}

// breakLocked marks the queue failed once the loop is gone. Anything
// still buffered was accepted earlier and is handed back, the caller
// runs Discard after unlocking so a delegate may re-enter the queue.
func (q *Queue[A]) breakLocked(cause error) (err error, discarded []A) {
	if q.failure == nil {
		q.failure = cause
		discarded = q.buffered
		q.buffered = nil
		waiters := q.waiters
		q.waiters = nil
		for _, w := range waiters {
			w.wake <- cause
		}
	}
	err = q.failure
	return
}

func (q *Queue[A]) gateLocked() bool {
	return q.writable && !q.saturated
}

func (q *Queue[A]) wakeNextLocked() {
	if !q.gateLocked() || len(q.waiters) == 0 {
		return
	}
	w := q.waiters[0]
	q.waiters = q.waiters[1:]
	w.wake <- nil
}

func (q *Queue[A]) abandon(w *waiter) {
	q.mutex.Lock()
	for i, x := range q.waiters {
		if x == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			q.mutex.Unlock()
			return
		}
	}
	// already woken, pass the credit on
	select {
	case cause := <-w.wake:
		if cause == nil {
			q.wakeNextLocked()
		}
	default:
	}
	q.mutex.Unlock()
}

func (q *Queue[A]) scheduleDrainLocked() (err error) {
	if q.draining {
		return
	}
	if len(q.buffered) == 0 && (!q.finished || q.notified) {
		return
	}
	q.draining = true
	if err = q.loop.Execute(q.drain); err != nil {
		q.draining = false
	}
	return
}

func (q *Queue[A]) dispatch(fn func()) {
	if err := q.loop.Execute(fn); err != nil {
		fn()
	}
}

func (q *Queue[A]) drain() {
	for {
		q.mutex.Lock()
		if q.failure != nil {
			q.draining = false
			q.mutex.Unlock()
			return
		}
		if len(q.buffered) == 0 {
			q.draining = false
			notify := q.finished && !q.notified
			if notify {
				q.notified = true
			}
			q.mutex.Unlock()
			if notify {
				q.delegate.Finish(nil)
			}
			return
		}
		// high-sized passes, producers resume once the backlog is at low
		take := len(q.buffered)
		if take > q.high {
			take = q.high
		}
		batch := q.buffered[:take:take]
		q.buffered = q.buffered[take:]
		if len(q.buffered) <= q.low {
			q.saturated = false
			q.wakeNextLocked()
		}
		q.mutex.Unlock()
		q.delegate.Process(batch)
	}
}
