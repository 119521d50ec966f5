package prismlog

import (
	"golang.org/x/sys/unix"
)

// gettid returns the OS thread id of the calling goroutine's current
// thread. Goroutines migrate between threads, so the value identifies the
// emitting thread at emit time only, which is all the record format needs.
func gettid() int {
	return unix.Gettid()
}
