package outflow

import (
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/outflow/pkg/reactor"
	"github.com/brickingsoft/outflow/pkg/reference"
	"sync"
)

var (
	instance        *reference.Pointer[*reactor.EventLoop]
	instanceOptions []reactor.Option
	instanceLocker  sync.Mutex
)

// Preset
// 预设共享事件循环的选项。
//
// 须在首次 Pin 之前调用,否则无效。
func Preset(options ...reactor.Option) {
	instanceLocker.Lock()
	instanceOptions = append(instanceOptions, options...)
	instanceLocker.Unlock()
}

// Pin
// 获取进程内共享的事件循环,首次调用时创建。
//
// 与 Unpin 配对使用,最后一次 Unpin 关闭循环。
// 一般用于程序启动处,如仅有一条管线的场景。
func Pin() (loop *reactor.EventLoop, err error) {
	instanceLocker.Lock()
	if instance == nil {
		created, createErr := reactor.New(instanceOptions...)
		if createErr != nil {
			err = createErr
			instanceLocker.Unlock()
			return
		}
		instance = reference.Make(created)
	}
	loop = instance.Pin()
	instanceLocker.Unlock()
	return
}

// Unpin
// 释放共享事件循环的一次持有。
func Unpin() (err error) {
	instanceLocker.Lock()
	if instance == nil {
		err = errors.New("outflow: not pinned")
		instanceLocker.Unlock()
		return
	}
	err = instance.Unpin()
	if instance.Count() < 1 {
		instance = nil
	}
	instanceLocker.Unlock()
	return
}
