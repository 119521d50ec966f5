package prismlog

import (
	"time"
)

// logRecord represents a single log entry. Created once per emit call,
// never mutated afterwards.
type logRecord struct {
	TimeStamp       time.Time
	Level           Level
	LoggerName      string
	Message         string
	PID             int
	TID             int
	File            string
	Line            int
	unreportedDrops uint64 // Dropped log tracker for the synthetic drop notice
}

// recordSink is a destination for formatted records. The listener depends
// only on this interface, never on concrete sink identity.
type recordSink interface {
	// Write appends one formatted line. The line is written whole or
	// not at all; partial writes are treated as faults by the caller.
	Write(line []byte) error
	Flush() error
	Close() error
}

// TimerSet holds all timers used by the listener loop
type TimerSet struct {
	flushTicker     *time.Ticker
	heartbeatTicker *time.Ticker
	heartbeatChan   <-chan time.Time
}
