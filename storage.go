package prismlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// fileSink owns the single open-for-append handle of one log file within
// this process and performs size-based rotation under the cross-process
// rotation lock. Only the listener goroutine calls Write; the size counter
// lives in State so stats and heartbeats can read it concurrently.
type fileSink struct {
	path        string
	file        *os.File
	threshold   int64
	backupCount int64
	syncEvery   bool
	lockTimeout time.Duration
	lock        rotationLock
	state       *State
	diag        func(format string, args ...any)
}

// newFileSink opens the active log file and its rotation lock sentinel.
func newFileSink(cfg *Config, state *State, diag func(format string, args ...any)) (*fileSink, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmtErrorf("failed to create log directory '%s': %w", cfg.Directory, err)
	}

	path := activeLogPath(cfg)
	file, err := openAppend(path)
	if err != nil {
		return nil, err
	}

	lock, err := newRotationLock(path)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	fs := &fileSink{
		path:        path,
		file:        file,
		threshold:   cfg.rotationThresholdBytes(),
		backupCount: cfg.BackupCount,
		syncEvery:   cfg.SyncEveryWrite,
		lockTimeout: cfg.lockTimeout(),
		lock:        lock,
		state:       state,
		diag:        diag,
	}
	fs.resyncSize()
	return fs, nil
}

// Write appends one formatted line, rotating first when the line would push
// the file over the threshold. The line is never split across files: the
// rotation decision happens entirely before the write.
func (f *fileSink) Write(line []byte) error {
	if f.threshold > 0 && f.state.CurrentSize.Load()+int64(len(line)) > f.threshold {
		f.maybeRotate(int64(len(line)))
	}

	n, err := f.file.Write(line)
	if err != nil {
		return fmtErrorf("failed to write to log file '%s': %w", f.path, err)
	}
	if n < len(line) {
		return fmtErrorf("short write to log file '%s': %d of %d bytes", f.path, n, len(line))
	}
	f.state.CurrentSize.Add(int64(n))

	if f.syncEvery {
		if err := f.file.Sync(); err != nil {
			return fmtErrorf("failed to sync log file '%s': %w", f.path, err)
		}
	}
	return nil
}

// Flush syncs the file buffer to disk.
func (f *fileSink) Flush() error {
	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

// Close syncs and closes the handle and releases the rotation lock sentinel.
func (f *fileSink) Close() error {
	var finalErr error
	if f.file != nil {
		if err := f.file.Sync(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to sync log file '%s': %w", f.path, err))
		}
		if err := f.file.Close(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to close log file '%s': %w", f.path, err))
		}
		f.file = nil
	}
	if f.lock != nil {
		if err := f.lock.Close(); err != nil {
			finalErr = combineErrors(finalErr, err)
		}
		f.lock = nil
	}
	return finalErr
}

// maybeRotate enters the cross-process critical section and rotates only if
// the on-disk state still warrants it. A lock timeout skips rotation for
// this cycle; the record is written regardless.
func (f *fileSink) maybeRotate(incoming int64) {
	if err := f.lock.Acquire(f.lockTimeout); err != nil {
		if errors.Is(err, ErrLockTimeout) {
			f.state.RotationLockTimeouts.Add(1)
		} else {
			f.diag("warning - rotation lock error: %v\n", err)
		}
		return
	}
	defer f.lock.Release()

	// The size counter is never trusted across process boundaries; re-stat
	// for the authoritative size, and detect that another process already
	// rotated the name away from our open handle.
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.reopen()
		}
		return
	}

	handleInfo, err := f.file.Stat()
	if err == nil && !os.SameFile(info, handleInfo) {
		// Our handle points at a renamed backup; switch to the fresh file.
		f.reopen()
		return
	}

	size := info.Size()
	if size == 0 || size+incoming <= f.threshold {
		// Already rotated elsewhere, or a single oversize record on a
		// fresh file: write it whole and rotate on the next write.
		f.state.CurrentSize.Store(size)
		return
	}

	if err := f.rotate(); err != nil {
		f.diag("failed to rotate log file '%s': %v\n", f.path, err)
		f.state.CurrentSize.Store(size)
	}
}

// rotate performs the backup-chain shift and reopens a fresh active file.
// Caller must hold the rotation lock. The active handle stays open until
// the shift has succeeded: rotation is size control, and a failed shift
// must leave record delivery to the current file intact.
func (f *fileSink) rotate() error {
	if f.backupCount == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmtErrorf("failed to remove log file during rotation: %w", err)
		}
	} else {
		// Shift base.k -> base.(k+1), oldest beyond backupCount discarded
		for k := f.backupCount - 1; k >= 1; k-- {
			src := backupPath(f.path, k)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			dst := backupPath(f.path, k+1)
			if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
				return fmtErrorf("failed to discard oldest backup '%s': %w", dst, err)
			}
			if err := os.Rename(src, dst); err != nil {
				return fmtErrorf("failed to shift backup '%s': %w", src, err)
			}
		}
		first := backupPath(f.path, 1)
		if err := os.Remove(first); err != nil && !os.IsNotExist(err) {
			return fmtErrorf("failed to clear backup slot '%s': %w", first, err)
		}
		if err := os.Rename(f.path, first); err != nil && !os.IsNotExist(err) {
			return fmtErrorf("failed to archive active log file: %w", err)
		}
	}

	if err := f.reopen(); err != nil {
		return err
	}
	f.state.TotalRotations.Add(1)
	return nil
}

// reopen opens a fresh handle on the active path and resynchronizes the
// size counter from disk.
func (f *fileSink) reopen() error {
	if f.file != nil {
		_ = f.file.Close()
	}
	file, err := openAppend(f.path)
	if err != nil {
		return err
	}
	f.file = file
	f.resyncSize()
	return nil
}

// resyncSize refreshes the size counter from a stat of the open handle.
func (f *fileSink) resyncSize() {
	if fi, err := f.file.Stat(); err == nil {
		f.state.CurrentSize.Store(fi.Size())
	} else {
		f.state.CurrentSize.Store(0)
	}
}

// diskFreeBytes reports the available space on the filesystem holding the
// log directory. Used by the disk heartbeat only.
func diskFreeBytes(dir string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, fmtErrorf("failed to get disk stats for '%s': %w", dir, err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}

// openAppend opens path for appending, creating it if absent.
func openAppend(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmtErrorf("failed to open/create log file '%s': %w", path, err)
	}
	return file, nil
}

// activeLogPath returns the full path to the active log file.
func activeLogPath(cfg *Config) string {
	filename := cfg.Name
	if cfg.Extension != "" {
		filename = cfg.Name + "." + cfg.Extension
	}
	return filepath.Join(cfg.Directory, filename)
}

// backupPath returns the path of backup index k (base.log.k).
func backupPath(path string, k int64) string {
	return fmt.Sprintf("%s.%d", path, k)
}
