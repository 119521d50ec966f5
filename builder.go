package prismlog

import "time"

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg *Config
	err error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a started Logger with the accumulated configuration.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	logger := NewLogger()
	if err := logger.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}
	if err := logger.Start(); err != nil {
		return nil, err
	}
	return logger, nil
}

// Config returns a copy of the accumulated configuration without building
// a logger.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg.Clone(), nil
}

// Level sets the default log level.
func (b *Builder) Level(level Level) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the default log level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	levelVal, err := ParseLevel(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = levelVal
	return b
}

// ModuleLevel sets a per-name level override.
func (b *Builder) ModuleLevel(name string, level Level) *Builder {
	if b.cfg.ModuleLevels == nil {
		b.cfg.ModuleLevels = make(map[string]Level)
	}
	b.cfg.ModuleLevels[name] = level
	return b
}

// Name sets the base name for log files.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// Extension sets the log file extension.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// BufferSize sets the delivery queue capacity.
func (b *Builder) BufferSize(size int64) *Builder {
	b.cfg.BufferSize = size
	return b
}

// MaxSizeKB sets the rotation threshold.
func (b *Builder) MaxSizeKB(size int64) *Builder {
	b.cfg.MaxSizeKB = size
	return b
}

// BackupCount sets the backup chain length.
func (b *Builder) BackupCount(count int64) *Builder {
	b.cfg.BackupCount = count
	return b
}

// MaxRecordRate sets the per-process emit rate cap, 0 for unlimited.
func (b *Builder) MaxRecordRate(rate int64) *Builder {
	b.cfg.MaxRecordRate = rate
	return b
}

// LockTimeout sets the bounded wait for the rotation lock.
func (b *Builder) LockTimeout(d time.Duration) *Builder {
	b.cfg.LockTimeoutMs = d.Milliseconds()
	return b
}

// ShutdownGrace sets the drain budget applied at shutdown.
func (b *Builder) ShutdownGrace(d time.Duration) *Builder {
	b.cfg.ShutdownGraceMs = d.Milliseconds()
	return b
}

// SyncEveryWrite controls per-record fsync.
func (b *Builder) SyncEveryWrite(sync bool) *Builder {
	b.cfg.SyncEveryWrite = sync
	return b
}

// FlushInterval sets the periodic sync interval used when per-record sync
// is off.
func (b *Builder) FlushInterval(d time.Duration) *Builder {
	b.cfg.FlushIntervalMs = d.Milliseconds()
	return b
}

// EnableFile toggles the file sink.
func (b *Builder) EnableFile(enable bool) *Builder {
	b.cfg.EnableFile = enable
	return b
}

// EnableConsole toggles the console mirror.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// ConsoleTarget selects "stdout" or "stderr" for the console mirror.
func (b *Builder) ConsoleTarget(target string) *Builder {
	b.cfg.ConsoleTarget = target
	return b
}

// ColoredConsole toggles ANSI color on the console mirror.
func (b *Builder) ColoredConsole(colored bool) *Builder {
	b.cfg.ColoredConsole = colored
	return b
}

// ColoredFile toggles ANSI color in the file output.
func (b *Builder) ColoredFile(colored bool) *Builder {
	b.cfg.ColoredFile = colored
	return b
}

// TimestampFormat sets the timestamp layout, or "numeric" for epoch mode.
func (b *Builder) TimestampFormat(format string) *Builder {
	b.cfg.TimestampFormat = format
	return b
}

// ExitOnCritical controls process termination after critical records.
func (b *Builder) ExitOnCritical(exit bool) *Builder {
	b.cfg.ExitOnCritical = exit
	return b
}

// Heartbeat enables self-telemetry records: level 1 for process stats,
// 2 to add disk stats.
func (b *Builder) Heartbeat(level int64, interval time.Duration) *Builder {
	b.cfg.HeartbeatLevel = level
	b.cfg.HeartbeatIntervalS = int64(interval.Seconds())
	return b
}

// InternalErrorsToStderr routes internal diagnostics to stderr.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}
