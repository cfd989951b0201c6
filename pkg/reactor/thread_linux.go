//go:build linux

package reactor

import "golang.org/x/sys/unix"

// the loop goroutine is locked to its thread, so the tid identifies it.
func executionID() uint64 {
	return uint64(unix.Gettid())
}
