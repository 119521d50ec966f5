package prismlog

import (
	"os"
	"sync/atomic"
)

// osExit is swapped out by tests; production code always exits through it.
var osExit = os.Exit

var exitDisabled atomic.Bool

// DisableExit globally suppresses the critical exit behavior regardless of
// configuration. Intended for test harnesses that must assert on critical
// records without dying mid-suite.
func DisableExit(disable bool) {
	exitDisabled.Store(disable)
}

// handleCritical runs in the listener after a critical record has been
// handed to the sinks. With exit_on_critical set, the sinks are flushed so
// the triggering record is durable, then the process terminates.
func (l *Logger) handleCritical(cfg *Config) {
	if !cfg.ExitOnCritical || exitDisabled.Load() {
		return
	}

	if l.fileSink != nil {
		if err := l.fileSink.Flush(); err != nil {
			l.internalLog("warning - flush before critical exit: %v\n", err)
		}
	}
	osExit(1)
}
