package outflow

import (
	"context"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/outflow/pkg/reactor"
	"github.com/brickingsoft/rxp/async"
)

// AwaitPromise
// 包装一个必须兑现外部承诺的易错操作,保证承诺总被兑现且调用者不会永久挂起。
//
// 在循环上下文创建承诺后执行 operation:operation 返回错误即表示承诺未被移交,
// 由本函数以该错误使其失败;否则承诺由下游兑现。随后挂起至对应 future 完成,
// ctx 取消时以取消错误恢复调用者,并以同一错误使尚未兑现的承诺失败。
func AwaitPromise(ctx context.Context, loop *reactor.EventLoop, operation func(promise async.Promise[async.Void]) error) (err error) {
	promise, promiseErr := async.Make[async.Void](loop.Context(), async.WithWait())
	if promiseErr != nil {
		err = promiseErr
		return
	}
	if operationErr := operation(promise); operationErr != nil {
		promise.Fail(operationErr)
	}
	settled := make(chan error, 1)
	promise.Future().OnComplete(func(_ context.Context, _ async.Void, cause error) {
		settled <- cause
	})
	select {
	case cause := <-settled:
		err = cause
	case <-ctx.Done():
		err = errors.From(ErrCanceled, errors.WithWrap(ctx.Err()))
		// the holder may settle concurrently, Fail loses that race and returns false
		promise.Fail(err)
	}
	return
}
