package outflow

import (
	"github.com/brickingsoft/rxp/async"
)

type ActionKind int

const (
	ActionWrite ActionKind = iota + 1
	ActionWriteAndFlush
	ActionFlush
)

// Action
// 写入器产出、管线处理器消费的一次动作。仅存在于入队与排空之间。
//
// ActionWrite 为纯写。
// ActionWriteAndFlush 为写后冲刷,携带完成承诺。
// ActionFlush 为仅冲刷,携带完成承诺。
type Action[E any] struct {
	Kind       ActionKind
	Element    E
	Completion async.Promise[async.Void]
}
