package prismlog

import (
	"fmt"
	"os"
	"time"
)

// processLogs is the single listener goroutine. It is the only code that
// touches the sinks, which is what makes writes atomic without per-record
// locking inside the process.
func (l *Logger) processLogs(ch chan logRecord) {
	defer l.state.ListenerState.Store(listenerStopped)

	cfg := l.getConfig()
	ser := newSerializer(cfg.TimestampFormat)

	timers := l.setupProcessingTimers(cfg)
	defer l.cleanupTimers(timers)

	for {
		select {
		case record, ok := <-ch:
			if !ok {
				// Channel closed and fully drained
				l.performSync()
				return
			}
			l.processLogRecord(ser, cfg, record)

		case <-timers.flushTicker.C:
			if !cfg.SyncEveryWrite {
				l.performSync()
			}

		case confirmChan := <-l.state.flushRequestChan:
			l.performSync()
			close(confirmChan)

		case <-timers.heartbeatChan:
			l.emitHeartbeat(cfg)
		}
	}
}

// setupProcessingTimers initializes the timers used by the listener loop
func (l *Logger) setupProcessingTimers(cfg *Config) *TimerSet {
	timers := &TimerSet{
		flushTicker: time.NewTicker(time.Duration(cfg.FlushIntervalMs) * time.Millisecond),
	}

	if cfg.HeartbeatLevel > 0 {
		timers.heartbeatTicker = time.NewTicker(time.Duration(cfg.HeartbeatIntervalS) * time.Second)
		timers.heartbeatChan = timers.heartbeatTicker.C
	} else {
		timers.heartbeatChan = make(chan time.Time) // Never fires
	}
	return timers
}

// cleanupTimers stops all active timers
func (l *Logger) cleanupTimers(timers *TimerSet) {
	timers.flushTicker.Stop()
	if timers.heartbeatTicker != nil {
		timers.heartbeatTicker.Stop()
	}
}

// processLogRecord delivers one record to the enabled sinks. A file sink
// fault never stops the listener: the fault is counted, the line falls back
// to stderr, and processing continues with the next record.
func (l *Logger) processLogRecord(ser *serializer, cfg *Config, record logRecord) {
	if l.state.ListenerState.Load() == listenerDraining {
		if deadline, ok := l.drainDeadline.Load().(time.Time); ok && time.Now().After(deadline) {
			// Drain budget exhausted; account for the leftover instead of
			// risking an unbounded shutdown.
			l.state.TotalDroppedLogs.Add(1)
			return
		}
	}

	delivered := false

	if l.fileSink != nil {
		line := ser.serialize(record, cfg.ColoredFile)
		if err := l.fileSink.Write(line); err != nil {
			l.state.SinkFaults.Add(1)
			l.internalLog("%v\n", err)
			// Best-effort fallback so the record is not silently lost
			fmt.Fprintf(os.Stderr, "prismlog: file sink fault, record follows\n%s", ser.serialize(record, false))
		} else {
			delivered = true
		}
	}

	if l.console != nil {
		line := ser.serialize(record, l.consoleColored)
		if err := l.console.Write(line); err == nil {
			delivered = true
		}
	}

	if delivered {
		l.state.TotalLogsProcessed.Add(1)
	}

	if record.Level >= LevelCritical && record.Level < LevelProc {
		l.handleCritical(cfg)
	}
}

// performSync flushes the file sink buffers to disk
func (l *Logger) performSync() {
	if l.fileSink == nil {
		return
	}
	if err := l.fileSink.Flush(); err != nil {
		l.internalLog("warning - failed to sync log file: %v\n", err)
	}
}
