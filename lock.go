package prismlog

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// ErrLockTimeout is returned when the rotation lock cannot be acquired
// within the bounded wait. The caller skips rotation for that cycle and
// writes anyway; rotation is size control, not a delivery requirement.
var ErrLockTimeout = errors.New("prismlog: rotation lock acquisition timed out")

// rotationLock is the cross-process mutual exclusion guarding the
// rotate-and-reopen sequence for one log file path. Implementations must
// release cleanly on every exit path.
type rotationLock interface {
	// Acquire blocks until the lock is held or the timeout elapses,
	// returning ErrLockTimeout in the latter case.
	Acquire(timeout time.Duration) error
	// Release drops the lock. Safe to call when not held.
	Release()
	// Close releases the lock and the underlying sentinel handle.
	Close() error
}

// flockLock implements rotationLock with an advisory flock on a sentinel
// file next to the log file. The sentinel never contains log content.
type flockLock struct {
	path string
	file *os.File
	held bool
}

// newRotationLock opens (creating if needed) the sentinel for the given
// log file path.
func newRotationLock(logPath string) (rotationLock, error) {
	sentinel := logPath + lockSuffix
	file, err := os.OpenFile(sentinel, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmtErrorf("failed to open rotation lock sentinel '%s': %w", sentinel, err)
	}
	return &flockLock{path: sentinel, file: file}, nil
}

// Acquire polls a non-blocking flock until it succeeds or the deadline
// passes. Polling keeps the wait bounded; a blocking flock has no portable
// timeout.
func (f *flockLock) Acquire(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(f.file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			f.held = true
			return nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EINTR {
			return fmtErrorf("flock on '%s' failed: %w", f.path, err)
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		time.Sleep(lockPollInterval)
	}
}

func (f *flockLock) Release() {
	if !f.held {
		return
	}
	f.held = false
	// Unlock failure leaves the flock to be released at fd close
	_ = unix.Flock(int(f.file.Fd()), unix.LOCK_UN)
}

func (f *flockLock) Close() error {
	f.Release()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
