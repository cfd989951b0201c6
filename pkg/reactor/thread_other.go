//go:build !linux

package reactor

import (
	"bytes"
	"runtime"
	"strconv"
)

// no portable tid, fall back to the goroutine id.
func executionID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	i := bytes.IndexByte(b, ' ')
	if i < 1 {
		return 0
	}
	id, parseErr := strconv.ParseUint(string(b[:i]), 10, 64)
	if parseErr != nil {
		return 0
	}
	return id
}
