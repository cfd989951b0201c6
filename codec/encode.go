package codec

import (
	"context"
	"github.com/brickingsoft/outflow"
)

// Encoder
// 编码器。泛型 T 是待编码的消息。
type Encoder[T any] interface {
	// Encode
	// 编码消息,返回出站字节。
	Encode(param T) (p []byte, err error)
}

// Encode
// 编码消息并写入写入器。编码失败不产生写入。
func Encode[T any](ctx context.Context, encoder Encoder[T], writer *outflow.Writer[[]byte], message T) (err error) {
	p, encodeErr := encoder.Encode(message)
	if encodeErr != nil {
		err = encodeErr
		return
	}
	err = writer.Write(ctx, p)
	return
}

// EncodeAndFlush
// 编码消息、写入并挂起至冲刷被确认。
func EncodeAndFlush[T any](ctx context.Context, encoder Encoder[T], writer *outflow.Writer[[]byte], message T) (err error) {
	p, encodeErr := encoder.Encode(message)
	if encodeErr != nil {
		err = encodeErr
		return
	}
	err = writer.WriteAndFlush(ctx, p)
	return
}
