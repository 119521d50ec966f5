package prismlog

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies string key-value overrides to the logger's current
// configuration. Each override should be in the format "key=value".
// The configuration is cloned before modification; in-flight operations
// observe either the old or the new snapshot, never a mix.
//
// Example:
//
//	logger := prismlog.NewLogger()
//	err := logger.ApplyOverride(
//	    "directory=/var/log/app",
//	    "level=DEBUG",
//	    "backup_count=3",
//	)
func (l *Logger) ApplyOverride(overrides ...string) error {
	cfg := l.getConfig().Clone()

	var errors []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errors = append(errors, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return combineConfigErrors(errors)
	}

	return l.ApplyConfig(cfg)
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("prismlog: multiple configuration errors:")
	for i, err := range errors {
		errMsg := err.Error()
		// Remove "prismlog: " prefix from individual errors to avoid duplication
		errMsg = strings.TrimPrefix(errMsg, "prismlog: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
// This is the core field mapping logic shared by file, environment, CLI
// and API sources.
func applyConfigField(cfg *Config, key, value string) error {
	// module_levels.<name>=<level> sets a per-name override
	if name, ok := strings.CutPrefix(key, "module_levels."); ok {
		level, err := parseLevelValue(value)
		if err != nil {
			return fmtErrorf("invalid level for module_levels.%s: %w", name, err)
		}
		if cfg.ModuleLevels == nil {
			cfg.ModuleLevels = make(map[string]Level)
		}
		cfg.ModuleLevels[name] = level
		return nil
	}

	switch key {
	// Basic settings
	case "level":
		level, err := parseLevelValue(value)
		if err != nil {
			return fmtErrorf("invalid level value '%s': %w", value, err)
		}
		cfg.Level = level
	case "name":
		cfg.Name = value
	case "directory":
		cfg.Directory = value
	case "extension":
		cfg.Extension = value

	// Rotation
	case "max_size_kb":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for max_size_kb '%s': %w", value, err)
		}
		cfg.MaxSizeKB = intVal
	case "backup_count":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for backup_count '%s': %w", value, err)
		}
		cfg.BackupCount = intVal

	// Delivery
	case "buffer_size":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for buffer_size '%s': %w", value, err)
		}
		cfg.BufferSize = intVal
	case "max_record_rate":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for max_record_rate '%s': %w", value, err)
		}
		cfg.MaxRecordRate = intVal
	case "lock_timeout_ms":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for lock_timeout_ms '%s': %w", value, err)
		}
		cfg.LockTimeoutMs = intVal
	case "shutdown_grace_ms":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for shutdown_grace_ms '%s': %w", value, err)
		}
		cfg.ShutdownGraceMs = intVal

	// Durability
	case "sync_every_write":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for sync_every_write '%s': %w", value, err)
		}
		cfg.SyncEveryWrite = boolVal
	case "flush_interval_ms":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for flush_interval_ms '%s': %w", value, err)
		}
		cfg.FlushIntervalMs = intVal

	// Output targets
	case "enable_file":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for enable_file '%s': %w", value, err)
		}
		cfg.EnableFile = boolVal
	case "enable_console":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for enable_console '%s': %w", value, err)
		}
		cfg.EnableConsole = boolVal
	case "console_target":
		cfg.ConsoleTarget = value
	case "colored_console":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for colored_console '%s': %w", value, err)
		}
		cfg.ColoredConsole = boolVal
	case "colored_file":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for colored_file '%s': %w", value, err)
		}
		cfg.ColoredFile = boolVal

	// Formatting
	case "timestamp_format":
		cfg.TimestampFormat = value

	// Critical handling
	case "exit_on_critical":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for exit_on_critical '%s': %w", value, err)
		}
		cfg.ExitOnCritical = boolVal

	// Self telemetry
	case "heartbeat_level":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for heartbeat_level '%s': %w", value, err)
		}
		cfg.HeartbeatLevel = intVal
	case "heartbeat_interval_s":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for heartbeat_interval_s '%s': %w", value, err)
		}
		cfg.HeartbeatIntervalS = intVal

	// Internal error handling
	case "internal_errors_to_stderr":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for internal_errors_to_stderr '%s': %w", value, err)
		}
		cfg.InternalErrorsToStderr = boolVal

	default:
		return fmtErrorf("unknown config key: %s", key)
	}

	return nil
}
