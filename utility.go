package prismlog

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	case LevelProc:
		return "PROC"
	case LevelDisk:
		return "DISK"
	default:
		return "LEVEL(" + strconv.FormatInt(int64(l), 10) + ")"
	}
}

// color returns the ANSI prefix for the level, empty when unknown.
func (l Level) color() string {
	switch l {
	case LevelDebug:
		return colorDebug
	case LevelInfo:
		return colorInfo
	case LevelWarning:
		return colorWarning
	case LevelError:
		return colorError
	case LevelCritical:
		return colorCritical
	default:
		return ""
	}
}

// ParseLevel converts a level name to its constant. WARN and FATAL are
// accepted as aliases.
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL", "FATAL":
		return LevelCritical, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use DEBUG, INFO, WARNING, ERROR, CRITICAL)", levelStr)
	}
}

// parseLevelValue accepts either a numeric level or a level name.
func parseLevelValue(value string) (Level, error) {
	if numVal, err := strconv.ParseInt(value, 10, 64); err == nil {
		return Level(numVal), nil
	}
	return ParseLevel(value)
}

// callerSource resolves the emit call site, skipping the given number of
// wrapper frames. Returns the base filename and line, or zero values when
// the stack cannot be resolved.
func callerSource(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", 0
	}
	return filepath.Base(file), line
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "prismlog: ") {
		format = "prismlog: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}
