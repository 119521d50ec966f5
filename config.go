package prismlog

import (
	"strings"
	"time"
)

// Config holds all logger configuration values. A Config is treated as an
// immutable snapshot once applied; Resolve and ApplyOverride build a fresh
// copy rather than mutating a published one.
type Config struct {
	// Basic settings
	Level        Level            `koanf:"level"`
	ModuleLevels map[string]Level `koanf:"module_levels"` // per-name overrides, longest prefix wins
	Name         string           `koanf:"name"`          // Base name for log files
	Directory    string           `koanf:"directory"`
	Extension    string           `koanf:"extension"`

	// Rotation
	MaxSizeKB   int64 `koanf:"max_size_kb"`  // Rotation threshold per file, 0 disables rotation
	BackupCount int64 `koanf:"backup_count"` // Backup chain length (.1 .. .N)

	// Delivery
	BufferSize      int64 `koanf:"buffer_size"`       // Queue capacity between producers and listener
	MaxRecordRate   int64 `koanf:"max_record_rate"`   // Records/sec per process, 0 = unlimited
	LockTimeoutMs   int64 `koanf:"lock_timeout_ms"`   // Bounded wait for the rotation lock
	ShutdownGraceMs int64 `koanf:"shutdown_grace_ms"` // Drain budget at shutdown

	// Durability
	SyncEveryWrite  bool  `koanf:"sync_every_write"` // fsync after each line; dominant cost driver
	FlushIntervalMs int64 `koanf:"flush_interval_ms"`

	// Output targets
	EnableFile     bool   `koanf:"enable_file"`
	EnableConsole  bool   `koanf:"enable_console"`
	ConsoleTarget  string `koanf:"console_target"` // "stdout" or "stderr"
	ColoredConsole bool   `koanf:"colored_console"`
	ColoredFile    bool   `koanf:"colored_file"`

	// Formatting
	TimestampFormat string `koanf:"timestamp_format"` // Go layout or "numeric"

	// Critical handling
	ExitOnCritical bool `koanf:"exit_on_critical"`

	// Self telemetry
	HeartbeatLevel     int64 `koanf:"heartbeat_level"` // 0=disabled, 1=proc, 2=proc+disk
	HeartbeatIntervalS int64 `koanf:"heartbeat_interval_s"`

	// Internal error handling
	InternalErrorsToStderr bool `koanf:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Level:        LevelInfo,
	ModuleLevels: nil,
	Name:         "app",
	Directory:    "./logs",
	Extension:    "log",

	MaxSizeKB:   10 * 1024,
	BackupCount: 5,

	BufferSize:      2048,
	MaxRecordRate:   0,
	LockTimeoutMs:   1000,
	ShutdownGraceMs: 2000,

	SyncEveryWrite:  true,
	FlushIntervalMs: 100,

	EnableFile:     true,
	EnableConsole:  true,
	ConsoleTarget:  "stdout",
	ColoredConsole: true,
	ColoredFile:    false,

	TimestampFormat: defaultTimestampLayout,

	ExitOnCritical: true,

	HeartbeatLevel:     0,
	HeartbeatIntervalS: 60,

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// Validate checks the configuration for invalid or contradictory values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmtErrorf("log name cannot be empty")
	}

	if strings.HasPrefix(c.Extension, ".") {
		return fmtErrorf("extension should not start with dot: %s", c.Extension)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	if c.BufferSize <= 0 {
		return fmtErrorf("buffer_size must be positive: %d", c.BufferSize)
	}

	if c.MaxSizeKB < 0 || c.BackupCount < 0 {
		return fmtErrorf("rotation settings cannot be negative")
	}

	if c.MaxRecordRate < 0 {
		return fmtErrorf("max_record_rate cannot be negative: %d", c.MaxRecordRate)
	}

	if c.FlushIntervalMs <= 0 {
		return fmtErrorf("flush_interval_ms must be positive: %d", c.FlushIntervalMs)
	}

	if c.LockTimeoutMs <= 0 || c.ShutdownGraceMs < 0 {
		return fmtErrorf("timeout settings out of range")
	}

	if c.HeartbeatLevel < 0 || c.HeartbeatLevel > 2 {
		return fmtErrorf("heartbeat_level must be between 0 and 2: %d", c.HeartbeatLevel)
	}

	if c.HeartbeatLevel > 0 && c.HeartbeatIntervalS <= 0 {
		return fmtErrorf("heartbeat_interval_s must be positive when heartbeat is enabled: %d",
			c.HeartbeatIntervalS)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	if c.ModuleLevels != nil {
		copiedConfig.ModuleLevels = make(map[string]Level, len(c.ModuleLevels))
		for k, v := range c.ModuleLevels {
			copiedConfig.ModuleLevels[k] = v
		}
	}
	return &copiedConfig
}

// rotationThresholdBytes returns the rotation trigger size, 0 when disabled
func (c *Config) rotationThresholdBytes() int64 {
	return c.MaxSizeKB * 1024
}

// lockTimeout returns the bounded wait for rotation lock acquisition
func (c *Config) lockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMs) * time.Millisecond
}

// shutdownGrace returns the drain budget applied at shutdown
func (c *Config) shutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceMs) * time.Millisecond
}

// effectiveLevel resolves the threshold for a logger name using the longest
// matching prefix from ModuleLevels, falling back to the default level.
// A prefix matches on dotted-name boundaries only: "net" covers "net.http"
// but not "network".
func (c *Config) effectiveLevel(name string) Level {
	best := -1
	level := c.Level
	for prefix, l := range c.ModuleLevels {
		if len(prefix) <= best {
			continue
		}
		if name == prefix || strings.HasPrefix(name, prefix+".") {
			best = len(prefix)
			level = l
		}
	}
	return level
}
