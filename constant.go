package prismlog

import (
	"time"
)

// Level orders log severities. Records below a logger's effective level
// are discarded at emit time.
type Level int64

const (
	LevelDebug    Level = -4
	LevelInfo     Level = 0
	LevelWarning  Level = 4
	LevelError    Level = 8
	LevelCritical Level = 12
)

// Heartbeat record levels, above every normal severity
const (
	LevelProc Level = 16
	LevelDisk Level = 20
)

// ANSI escape sequences per level for colored output
const (
	colorDebug    = "\033[94m"        // Blue
	colorInfo     = "\033[92m"        // Green
	colorWarning  = "\033[93m"        // Yellow
	colorError    = "\033[91m"        // Red
	colorCritical = "\033[91m\033[1m" // Bright red
	colorReset    = "\033[0m"
)

// Timestamp rendering modes, selected by Config.TimestampFormat
const (
	// TimestampNumeric renders epoch seconds with microsecond precision
	// instead of a time layout. Throughput over readability.
	TimestampNumeric = "numeric"

	defaultTimestampLayout = "2006-01-02 15:04:05.000"
)

const (
	// Suffix appended to the active log path for the rotation sentinel
	lockSuffix = ".lock"

	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond

	// Poll interval while waiting for the cross-process rotation lock
	lockPollInterval = 5 * time.Millisecond
)

// Listener lifecycle states
const (
	listenerStopped int32 = iota
	listenerRunning
	listenerDraining
)
