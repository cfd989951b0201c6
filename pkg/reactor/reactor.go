package reactor

import (
	"context"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	ErrClosed  = errors.Define("reactor: event loop closed")
	ErrNilTask = errors.Define("reactor: task is nil")
)

// New
// 创建并启动一个单线程事件循环。
//
// 循环独占一个系统线程,所有经 Execute 投递的任务均在该线程上按序执行。
// 循环持有一个 rxp.Executors,经 Context 取得可创建 async.Promise 的上下文。
func New(options ...Option) (v *EventLoop, err error) {
	opts := Options{}
	for _, opt := range options {
		if err = opt(&opts); err != nil {
			return
		}
	}
	readyBuffer := opts.ReadyBuffer
	if readyBuffer < 1 {
		readyBuffer = defaultReadyBuffer
	}
	exec := rxp.New(opts.AsRxpOptions()...)
	loop := &EventLoop{
		exec:  exec,
		wg:    new(sync.WaitGroup),
		ready: make(chan task, readyBuffer),
	}
	loop.ctx = rxp.With(context.Background(), exec)
	started := make(chan struct{})
	loop.wg.Add(1)
	go loop.process(started)
	<-started
	v = loop
	return
}

type task func()

type EventLoop struct {
	ctx     context.Context
	exec    rxp.Executors
	wg      *sync.WaitGroup
	locker  sync.RWMutex
	id      atomic.Uint64
	running atomic.Bool
	ready   chan task
}

// Context
// 携带执行器的上下文,用于 async.Make 等。
func (loop *EventLoop) Context() (ctx context.Context) {
	ctx = loop.ctx
	return
}

// InLoop
// 判断当前是否运行于循环线程。
func (loop *EventLoop) InLoop() bool {
	return executionID() == loop.id.Load()
}

// AssertInLoop
// 断言当前运行于循环线程,否则视为编程错误并 panic。
func (loop *EventLoop) AssertInLoop() {
	if !loop.InLoop() {
		panic("reactor: not executing on the event loop thread")
	}
}

// Execute
// 投递一个任务,由循环线程按投递次序执行。
//
// 循环关闭后投递会失败。
func (loop *EventLoop) Execute(fn func()) (err error) {
	if fn == nil {
		err = errors.From(ErrNilTask)
		return
	}
	// the read lock keeps the send ahead of the stop sentinel
	loop.locker.RLock()
	if !loop.running.Load() {
		loop.locker.RUnlock()
		err = errors.From(ErrClosed)
		return
	}
	loop.ready <- fn
	loop.locker.RUnlock()
	return
}

// Call
// 投递一个任务并等待其执行完毕。
//
// 若当前已在循环线程,则直接执行以避免自锁。
func (loop *EventLoop) Call(fn func()) (err error) {
	if fn == nil {
		err = errors.From(ErrNilTask)
		return
	}
	if loop.InLoop() {
		fn()
		return
	}
	done := make(chan struct{})
	if err = loop.Execute(func() {
		fn()
		close(done)
	}); err != nil {
		return
	}
	<-done
	return
}

// Close
// 停止循环并关闭执行器。已接受的任务在停止前会被执行。
func (loop *EventLoop) Close() (err error) {
	loop.locker.Lock()
	if !loop.running.CompareAndSwap(true, false) {
		loop.locker.Unlock()
		err = errors.From(ErrClosed)
		return
	}
	loop.locker.Unlock()
	loop.ready <- nil
	loop.wg.Wait()
	err = loop.exec.Close()
	return
}

func (loop *EventLoop) process(started chan<- struct{}) {
	defer loop.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	loop.id.Store(executionID())
	loop.running.Store(true)
	close(started)

	// every accepted task precedes the stop sentinel in the channel
	for t := range loop.ready {
		if t == nil {
			return
		}
		t()
	}
}
