package pending_test

import (
	"context"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/outflow/pkg/pending"
	"github.com/brickingsoft/outflow/pkg/reactor"
	"sync"
	"testing"
	"time"
)

type recordingDelegate struct {
	mutex     sync.Mutex
	processed []int
	passes    []int
	discarded []int
	cause     error
	finished  chan error
}

func newRecordingDelegate() *recordingDelegate {
	return &recordingDelegate{
		finished: make(chan error, 1),
	}
}

func (d *recordingDelegate) Process(actions []int) {
	d.mutex.Lock()
	d.processed = append(d.processed, actions...)
	d.passes = append(d.passes, len(actions))
	d.mutex.Unlock()
}

func (d *recordingDelegate) Discard(actions []int, cause error) {
	d.mutex.Lock()
	d.discarded = append(d.discarded, actions...)
	d.cause = cause
	d.mutex.Unlock()
}

func (d *recordingDelegate) Finish(cause error) {
	d.finished <- cause
}

func (d *recordingDelegate) snapshot() []int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]int(nil), d.processed...)
}

func setup(t *testing.T) (*reactor.EventLoop, *recordingDelegate, *pending.Queue[int]) {
	loop, loopErr := reactor.New()
	if loopErr != nil {
		t.Fatal(loopErr)
	}
	t.Cleanup(func() {
		_ = loop.Close()
	})
	delegate := newRecordingDelegate()
	queue, queueErr := pending.New[int](loop, delegate, 0, 0)
	if queueErr != nil {
		t.Fatal(queueErr)
	}
	return loop, delegate, queue
}

func TestPushOrder(t *testing.T) {
	_, delegate, queue := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := queue.Push(ctx, i); err != nil {
			t.Fatal(err)
		}
	}
	if err := queue.Finish(); err != nil {
		t.Fatal(err)
	}
	<-delegate.finished

	got := delegate.snapshot()
	if len(got) != 3 {
		t.Fatal("drained length mismatch:", got)
	}
	for i, n := range got {
		if i != n {
			t.Error("drain order broken:", got)
			break
		}
	}
}

func TestPushBatch(t *testing.T) {
	_, delegate, queue := setup(t)
	ctx := context.Background()

	if err := queue.Push(ctx, 1, 2, 3); err != nil {
		t.Fatal(err)
	}
	if err := queue.Finish(); err != nil {
		t.Fatal(err)
	}
	<-delegate.finished

	got := delegate.snapshot()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Error("batch order broken:", got)
	}
}

func TestPushSuspendsUntilWritable(t *testing.T) {
	_, delegate, queue := setup(t)
	ctx := context.Background()

	queue.SetWritable(false)

	resumed := make(chan int, 2)
	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := queue.Push(ctx, 1); err != nil {
			t.Error(err)
			return
		}
		resumed <- 1
	}()

	select {
	case <-resumed:
		t.Fatal("push must suspend while not writable")
	case <-time.After(100 * time.Millisecond):
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		if err := queue.Push(ctx, 2); err != nil {
			t.Error(err)
			return
		}
		resumed <- 2
	}()
	time.Sleep(150 * time.Millisecond)

	queue.SetWritable(true)
	<-resumed
	<-resumed
	wg.Wait()

	if err := queue.Finish(); err != nil {
		t.Fatal(err)
	}
	<-delegate.finished
	got := delegate.snapshot()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Error("drain order broken:", got)
	}
}

func TestPushCanceled(t *testing.T) {
	_, _, queue := setup(t)

	queue.SetWritable(false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- queue.Push(ctx, 1)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	err := <-done
	if !errors.Is(err, pending.ErrCanceled) {
		t.Error("canceled push must report cancellation:", err)
	}
}

func TestFinishTerminates(t *testing.T) {
	_, delegate, queue := setup(t)
	ctx := context.Background()

	if err := queue.Finish(); err != nil {
		t.Fatal(err)
	}
	cause := <-delegate.finished
	if cause != nil {
		t.Error("finish cause must be nil:", cause)
	}
	if err := queue.Push(ctx, 1); !errors.Is(err, pending.ErrFinished) {
		t.Error("push after finish must fail:", err)
	}
	if err := queue.Finish(); !errors.Is(err, pending.ErrFinished) {
		t.Error("second finish must fail:", err)
	}
}

func TestFailWakesWaiters(t *testing.T) {
	_, _, queue := setup(t)
	ctx := context.Background()

	queue.SetWritable(false)
	cause := errors.New("pipeline broken")
	done := make(chan error, 1)
	go func() {
		done <- queue.Push(ctx, 1)
	}()
	time.Sleep(50 * time.Millisecond)

	queue.Fail(cause)
	if err := <-done; !errors.Is(err, cause) {
		t.Error("suspended push must surface the failure:", err)
	}
	if err := queue.Push(ctx, 2); !errors.Is(err, cause) {
		t.Error("push after failure must surface the failure:", err)
	}
}

func TestFailDiscards(t *testing.T) {
	loop, delegate, queue := setup(t)
	ctx := context.Background()

	// hold the loop so pushed actions stay buffered
	gate := make(chan struct{})
	if err := loop.Execute(func() { <-gate }); err != nil {
		t.Fatal(err)
	}
	if err := queue.Push(ctx, 1, 2); err != nil {
		t.Fatal(err)
	}
	cause := errors.New("pipeline broken")
	queue.Fail(cause)
	close(gate)

	deadline := time.Now().Add(time.Second)
	for {
		delegate.mutex.Lock()
		n := len(delegate.discarded)
		delegate.mutex.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("buffered actions must be discarded on failure")
		}
		time.Sleep(10 * time.Millisecond)
	}
	delegate.mutex.Lock()
	if !errors.Is(delegate.cause, cause) {
		t.Error("discard cause mismatch:", delegate.cause)
	}
	delegate.mutex.Unlock()
}

func TestLowWatermarkResume(t *testing.T) {
	loop, loopErr := reactor.New()
	if loopErr != nil {
		t.Fatal(loopErr)
	}
	t.Cleanup(func() {
		_ = loop.Close()
	})
	delegate := newRecordingDelegate()
	queue, queueErr := pending.New[int](loop, delegate, 2, 1)
	if queueErr != nil {
		t.Fatal(queueErr)
	}
	ctx := context.Background()

	// hold the loop so the batch saturates the buffer before draining
	gate := make(chan struct{})
	if err := loop.Execute(func() { <-gate }); err != nil {
		t.Fatal(err)
	}
	if err := queue.Push(ctx, 0, 1, 2, 3, 4); err != nil {
		t.Fatal(err)
	}

	resumed := make(chan struct{})
	go func() {
		if err := queue.Push(ctx, 9); err != nil {
			t.Error(err)
		}
		close(resumed)
	}()
	select {
	case <-resumed:
		t.Fatal("push must suspend while saturated")
	case <-time.After(100 * time.Millisecond):
	}

	close(gate)
	select {
	case <-resumed:
	case <-time.After(time.Second):
		t.Fatal("push must resume once the backlog drains to low")
	}
	if err := queue.Finish(); err != nil {
		t.Fatal(err)
	}
	<-delegate.finished

	got := delegate.snapshot()
	want := []int{0, 1, 2, 3, 4, 9}
	if len(got) != len(want) {
		t.Fatal("drain lost actions:", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatal("drain order broken:", got)
		}
	}
	delegate.mutex.Lock()
	passes := append([]int(nil), delegate.passes...)
	delegate.mutex.Unlock()
	for _, n := range passes {
		if n > 2 {
			t.Error("a drain pass exceeded the high watermark:", passes)
		}
	}
}
