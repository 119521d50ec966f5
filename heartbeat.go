package prismlog

import (
	"fmt"
	"time"
)

// emitHeartbeat enqueues the periodic self-telemetry records. Heartbeats
// use levels above every normal severity so no level filter can silence
// them while enabled.
func (l *Logger) emitHeartbeat(cfg *Config) {
	sequence := l.state.HeartbeatSequence.Add(1)

	if cfg.HeartbeatLevel >= 1 {
		l.sendHeartbeat(LevelProc, l.buildProcStats(sequence))
	}
	if cfg.HeartbeatLevel >= 2 {
		l.sendHeartbeat(LevelDisk, l.buildDiskStats(cfg, sequence))
	}
}

// sendHeartbeat enqueues a heartbeat record through the normal delivery
// path, so a saturated queue drops heartbeats like any other record.
func (l *Logger) sendHeartbeat(level Level, message string) {
	l.sendLogRecord(logRecord{
		TimeStamp:  time.Now(),
		Level:      level,
		LoggerName: "prismlog",
		Message:    message,
		PID:        l.pid,
		TID:        gettid(),
	})
}

// buildProcStats formats process-level delivery statistics
func (l *Logger) buildProcStats(sequence uint64) string {
	uptime := time.Duration(0)
	if start, ok := l.state.LoggerStartTime.Load().(time.Time); ok {
		uptime = time.Since(start).Round(time.Second)
	}

	return fmt.Sprintf("seq=%d uptime=%s processed=%d dropped=%d sink_faults=%d",
		sequence,
		uptime,
		l.state.TotalLogsProcessed.Load(),
		l.state.TotalDroppedLogs.Load(),
		l.state.SinkFaults.Load(),
	)
}

// buildDiskStats formats rotation and disk space statistics
func (l *Logger) buildDiskStats(cfg *Config, sequence uint64) string {
	free := int64(-1)
	if f, err := diskFreeBytes(cfg.Directory); err == nil {
		free = f
	}

	return fmt.Sprintf("seq=%d file_size=%d rotations=%d lock_timeouts=%d disk_free_kb=%d",
		sequence,
		l.state.CurrentSize.Load(),
		l.state.TotalRotations.Load(),
		l.state.RotationLockTimeouts.Load(),
		free/1024,
	)
}
