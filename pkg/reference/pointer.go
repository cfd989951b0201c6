package reference

import (
	"io"
	"reflect"
	"sync/atomic"
)

// Make
// 创建一个计数共享指针,最后一个持有者 Unpin 时关闭其值。
func Make[E io.Closer](value E) *Pointer[E] {
	if reflect.ValueOf(value).IsNil() {
		panic("reference: value is nil")
	}
	return &Pointer[E]{value: value}
}

type Pointer[E io.Closer] struct {
	value E
	count atomic.Int64
}

func (pointer *Pointer[E]) Pin() E {
	pointer.count.Add(1)
	return pointer.value
}

func (pointer *Pointer[E]) Count() int64 {
	return pointer.count.Load()
}

func (pointer *Pointer[E]) Unpin() error {
	if n := pointer.count.Add(-1); n < 1 {
		return pointer.value.Close()
	}
	return nil
}
