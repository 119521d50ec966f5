package prismlog

import (
	"sync"
	"sync/atomic"
)

// State encapsulates the runtime state of the logger
type State struct {
	IsInitialized  atomic.Bool
	LoggerDisabled atomic.Bool
	ShutdownCalled atomic.Bool

	// Listener lifecycle: listenerStopped -> listenerRunning ->
	// listenerDraining -> listenerStopped
	ListenerState atomic.Int32

	flushRequestChan chan chan struct{} // Channel to request a flush
	flushMutex       sync.Mutex         // Protect concurrent Flush calls

	CurrentSize atomic.Int64 // Size of the current log file

	DroppedLogs          atomic.Uint64 // Drops not yet surfaced as a drop notice
	TotalDroppedLogs     atomic.Uint64 // Drops over the logger lifetime
	SinkFaults           atomic.Uint64 // File sink write failures absorbed by the listener
	TotalLogsProcessed   atomic.Uint64 // Records delivered to at least one sink
	TotalRotations       atomic.Uint64 // Successful backup-chain rotations
	RotationLockTimeouts atomic.Uint64 // Rotation cycles skipped on lock timeout

	HeartbeatSequence atomic.Uint64
	LoggerStartTime   atomic.Value // stores time.Time

	ActiveLogChannel atomic.Value // stores chan logRecord
}

// Stats is a point-in-time snapshot of the delivery counters.
type Stats struct {
	Processed            uint64
	Dropped              uint64
	SinkFaults           uint64
	Rotations            uint64
	RotationLockTimeouts uint64
	CurrentFileSize      int64
}

// Stats returns the current counter values. Safe to call from any
// goroutine at any lifecycle stage.
func (l *Logger) Stats() Stats {
	return Stats{
		Processed:            l.state.TotalLogsProcessed.Load(),
		Dropped:              l.state.TotalDroppedLogs.Load(),
		SinkFaults:           l.state.SinkFaults.Load(),
		Rotations:            l.state.TotalRotations.Load(),
		RotationLockTimeouts: l.state.RotationLockTimeouts.Load(),
		CurrentFileSize:      l.state.CurrentSize.Load(),
	}
}
