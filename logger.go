package prismlog

import (
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Logger is a single delivery funnel: many producer goroutines enqueue,
// one listener goroutine writes. All exported methods are safe for
// concurrent use; configuration changes are serialized by initMu.
type Logger struct {
	currentConfig atomic.Value // *Config snapshot; read lock-free on the hot path
	state         State
	initMu        sync.Mutex

	// Sinks are rebuilt under initMu with the listener stopped, and read
	// only by the listener goroutine afterwards. The listener sees only
	// the recordSink interface.
	fileSink       recordSink
	console        recordSink
	consoleColored bool

	limiter       atomic.Pointer[rate.Limiter]
	drainDeadline atomic.Value // time.Time, set when draining begins

	pid int
}

// NewLogger creates a logger with default configuration. The logger is
// inert until ApplyConfig or one of the Init helpers runs.
func NewLogger() *Logger {
	l := &Logger{
		pid: os.Getpid(),
	}
	l.currentConfig.Store(DefaultConfig())
	l.state.LoggerStartTime.Store(time.Now())
	l.state.flushRequestChan = make(chan chan struct{}, 1)

	// Pre-close the placeholder channel so emits before init are counted
	// as drops instead of blocking or panicking unpredictably.
	closedChan := make(chan logRecord)
	close(closedChan)
	l.state.ActiveLogChannel.Store(closedChan)
	return l
}

// getConfig returns the current immutable configuration snapshot.
func (l *Logger) getConfig() *Config {
	return l.currentConfig.Load().(*Config)
}

// ApplyConfig validates and applies a new configuration. When the listener
// is running it is drained and restarted around the sink swap, so records
// accepted under the old configuration are written before it takes effect.
// On failure the previous configuration stays active.
func (l *Logger) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.state.ShutdownCalled.Load() {
		return fmtErrorf("logger is shut down")
	}

	return l.applyConfig(cfg.Clone())
}

// applyConfig performs the swap. Caller holds initMu and has validated cfg.
func (l *Logger) applyConfig(cfg *Config) error {
	wasRunning := l.state.ListenerState.Load() != listenerStopped
	if wasRunning {
		if err := l.stopListener(cfg.shutdownGrace()); err != nil {
			return err
		}
	}

	oldFile := l.fileSink
	oldConfig := l.getConfig()

	var newFile recordSink
	if cfg.EnableFile {
		fs, err := newFileSink(cfg, &l.state, l.internalLog)
		if err != nil {
			// Roll back: the previous sink and config remain in force
			if wasRunning {
				_ = l.startListener(oldConfig)
			}
			return err
		}
		newFile = fs
	}

	l.currentConfig.Store(cfg)
	l.fileSink = newFile
	if cfg.EnableConsole {
		cs := newConsoleSink(cfg)
		l.console = cs
		l.consoleColored = cs.colored
	} else {
		l.console = nil
		l.consoleColored = false
	}

	if cfg.MaxRecordRate > 0 {
		burst := cfg.MaxRecordRate
		if burst > math.MaxInt32 {
			// int is 32 bits on some platforms; the burst stays positive
			// after conversion
			burst = math.MaxInt32
		}
		l.limiter.Store(rate.NewLimiter(rate.Limit(cfg.MaxRecordRate), int(burst)))
	} else {
		l.limiter.Store(nil)
	}

	if oldFile != nil {
		if err := oldFile.Close(); err != nil {
			l.internalLog("warning - closing previous log file: %v\n", err)
		}
	}

	l.state.IsInitialized.Store(true)
	l.state.LoggerDisabled.Store(false)

	if wasRunning {
		return l.startListener(cfg)
	}
	return nil
}

// Start launches the listener goroutine. It is an error to start before a
// configuration is applied; starting an already running logger is a no-op.
func (l *Logger) Start() error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	if !l.state.IsInitialized.Load() {
		return fmtErrorf("cannot start uninitialized logger")
	}
	if l.state.ShutdownCalled.Load() {
		return fmtErrorf("logger is shut down")
	}
	if l.state.ListenerState.Load() != listenerStopped {
		return nil
	}
	return l.startListener(l.getConfig())
}

// startListener creates a fresh channel and spawns the listener.
// Caller holds initMu, listener is stopped.
func (l *Logger) startListener(cfg *Config) error {
	ch := make(chan logRecord, cfg.BufferSize)
	l.state.ActiveLogChannel.Store(ch)
	l.state.ListenerState.Store(listenerRunning)
	go l.processLogs(ch)
	return nil
}

// Stop drains accepted records within the configured grace window and
// stops the listener. The logger can be restarted with Start or a new
// ApplyConfig. Stopping a stopped logger is a no-op.
func (l *Logger) Stop() error {
	l.initMu.Lock()
	defer l.initMu.Unlock()
	return l.stopListener(l.getConfig().shutdownGrace())
}

// stopListener closes the active channel and waits for the listener to
// exhaust it. Caller holds initMu.
func (l *Logger) stopListener(grace time.Duration) error {
	if l.state.ListenerState.Load() == listenerStopped {
		return nil
	}

	ch := l.getCurrentLogChannel()

	// Swap in a closed channel first so new emits fail fast into the drop
	// counters instead of racing the close below.
	closedChan := make(chan logRecord)
	close(closedChan)
	l.state.ActiveLogChannel.Store(closedChan)

	l.drainDeadline.Store(time.Now().Add(grace))
	l.state.ListenerState.Store(listenerDraining)
	close(ch)

	// The listener marks itself stopped after the final sync. Allow some
	// slack beyond the drain budget for sink flushing.
	deadline := time.Now().Add(grace + time.Second)
	for l.state.ListenerState.Load() != listenerStopped {
		if time.Now().After(deadline) {
			return fmtErrorf("listener did not stop within %v", grace)
		}
		time.Sleep(minWaitTime)
	}
	return nil
}

// Shutdown permanently stops the logger: drains within the grace window,
// closes the file sink, releases the rotation lock. Subsequent emits are
// counted as drops. Shutdown is idempotent.
func (l *Logger) Shutdown(grace ...time.Duration) error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	if !l.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}
	l.state.LoggerDisabled.Store(true)

	g := l.getConfig().shutdownGrace()
	if len(grace) > 0 {
		g = grace[0]
	}

	var finalErr error
	if err := l.stopListener(g); err != nil {
		finalErr = combineErrors(finalErr, err)
	}

	if l.fileSink != nil {
		if err := l.fileSink.Close(); err != nil {
			finalErr = combineErrors(finalErr, err)
		}
		l.fileSink = nil
	}
	l.console = nil
	return finalErr
}

// Flush requests a sink sync from the listener and waits for completion,
// bounded by timeout. Returns an error when the listener is not running or
// the confirmation does not arrive in time.
func (l *Logger) Flush(timeout time.Duration) error {
	if l.state.ListenerState.Load() != listenerRunning {
		return fmtErrorf("cannot flush, listener not running")
	}

	// Serialize flushers so a confirmation is never stolen by a
	// concurrent caller.
	l.state.flushMutex.Lock()
	defer l.state.flushMutex.Unlock()

	confirmChan := make(chan struct{})
	select {
	case l.state.flushRequestChan <- confirmChan:
	case <-time.After(timeout):
		return fmtErrorf("flush request timed out after %v", timeout)
	}

	select {
	case <-confirmChan:
		return nil
	case <-time.After(timeout):
		return fmtErrorf("flush confirmation timed out after %v", timeout)
	}
}

// Emit methods on the root logger. Named children created through
// GetLogger route here with their own name.

func (l *Logger) Debug(msg string, args ...any) {
	l.log(LevelDebug, rootLoggerName, 1, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(LevelInfo, rootLoggerName, 1, msg, args...)
}

func (l *Logger) Warning(msg string, args ...any) {
	l.log(LevelWarning, rootLoggerName, 1, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(LevelError, rootLoggerName, 1, msg, args...)
}

// Critical emits at the highest severity. When exit_on_critical is set the
// process terminates after the record reaches the sinks.
func (l *Logger) Critical(msg string, args ...any) {
	l.log(LevelCritical, rootLoggerName, 1, msg, args...)
}

const rootLoggerName = "root"
