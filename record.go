package prismlog

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// getCurrentLogChannel safely retrieves the current log channel
func (l *Logger) getCurrentLogChannel() chan logRecord {
	chVal := l.state.ActiveLogChannel.Load()
	return chVal.(chan logRecord)
}

// sendLogRecord handles safe sending to the active channel. Enqueue never
// blocks the producer: a full queue counts the record as dropped, and the
// next record that does get through is preceded by a single synthetic
// drop-notice record carrying the count.
func (l *Logger) sendLogRecord(record logRecord) {
	defer func() {
		if r := recover(); r != nil { // Catch panic on send to closed channel
			l.handleFailedSend(record)
		}
	}()

	if l.state.ShutdownCalled.Load() || l.state.LoggerDisabled.Load() {
		// Process drops even if logger is disabled or shutting down
		l.handleFailedSend(record)
		return
	}

	ch := l.getCurrentLogChannel()

	// Non-blocking send
	select {
	case ch <- record:
		// Success; check whether accumulated drops need reporting
		if record.unreportedDrops == 0 {
			droppedCount := l.state.DroppedLogs.Swap(0)

			if droppedCount > 0 {
				dropRecord := logRecord{
					TimeStamp:       time.Now(),
					Level:           LevelWarning,
					LoggerName:      "prismlog",
					Message:         fmt.Sprintf("%d records dropped", droppedCount),
					PID:             l.pid,
					unreportedDrops: droppedCount, // Carry the count for recovery
				}
				// No success check is required, count is restored if it fails
				l.sendLogRecord(dropRecord)
			}
		}
	default:
		l.handleFailedSend(record)
	}
}

// handleFailedSend restores or increments the drop counter. A failed drop
// notice restores its carried count so it is never lost or double counted.
func (l *Logger) handleFailedSend(record logRecord) {
	amountToAdd := uint64(1)
	if record.unreportedDrops > 0 {
		amountToAdd = record.unreportedDrops
	}
	l.state.DroppedLogs.Add(amountToAdd)
	l.state.TotalDroppedLogs.Add(amountToAdd)
}

// log builds a record and hands it to the delivery queue. Non-throwing by
// contract: every failure mode is absorbed and counted.
func (l *Logger) log(level Level, name string, callerSkip int, msg string, args ...any) {
	if !l.state.IsInitialized.Load() {
		return
	}

	cfg := l.getConfig()
	if level < cfg.effectiveLevel(name) {
		return
	}

	if limiter := l.limiter.Load(); limiter != nil && !limiter.Allow() {
		l.state.DroppedLogs.Add(1)
		l.state.TotalDroppedLogs.Add(1)
		return
	}

	file, line := callerSource(callerSkip + 1)

	record := logRecord{
		TimeStamp:  time.Now(),
		Level:      level,
		LoggerName: name,
		Message:    renderMessage(msg, args),
		PID:        l.pid,
		TID:        gettid(),
		File:       file,
		Line:       line,
	}
	l.sendLogRecord(record)
}

// internalLog handles writing internal logger diagnostics to stderr, if enabled.
func (l *Logger) internalLog(format string, args ...any) {
	cfg := l.getConfig()
	if !cfg.InternalErrorsToStderr {
		return
	}

	if !strings.HasPrefix(format, "prismlog: ") {
		format = "prismlog: " + format
	}

	fmt.Fprintf(os.Stderr, format, args...)
}
