package prismlog

import (
	"sync"
	"sync/atomic"
	"time"
)

// NamedLogger is a cheap handle bound to a dotted logger name. Handles
// cache their effective level so disabled emits return after one atomic
// load; the cache is refreshed whenever the registry applies configuration.
type NamedLogger struct {
	logger *Logger
	name   string
	level  atomic.Int64
}

// Name returns the handle's dotted logger name.
func (n *NamedLogger) Name() string {
	return n.name
}

// Enabled reports whether records at level would currently be delivered.
func (n *NamedLogger) Enabled(level Level) bool {
	return int64(level) >= n.level.Load()
}

func (n *NamedLogger) emit(level Level, msg string, args []any) {
	if int64(level) < n.level.Load() {
		return
	}
	n.logger.log(level, n.name, 2, msg, args...)
}

func (n *NamedLogger) Debug(msg string, args ...any)   { n.emit(LevelDebug, msg, args) }
func (n *NamedLogger) Info(msg string, args ...any)    { n.emit(LevelInfo, msg, args) }
func (n *NamedLogger) Warning(msg string, args ...any) { n.emit(LevelWarning, msg, args) }
func (n *NamedLogger) Error(msg string, args ...any)   { n.emit(LevelError, msg, args) }

// Critical emits at the highest severity; with exit_on_critical set the
// process terminates once the record is durable.
func (n *NamedLogger) Critical(msg string, args ...any) { n.emit(LevelCritical, msg, args) }

// Registry owns one Logger and hands out NamedLogger handles. Handles are
// cached per name: repeated GetLogger calls with the same name return the
// same handle.
type Registry struct {
	mu      sync.Mutex
	logger  *Logger
	handles map[string]*NamedLogger
}

// NewRegistry creates a registry around a fresh, unstarted logger.
func NewRegistry() *Registry {
	return &Registry{
		logger:  NewLogger(),
		handles: make(map[string]*NamedLogger),
	}
}

// Logger returns the registry's underlying delivery funnel.
func (r *Registry) Logger() *Logger {
	return r.logger
}

// Initialize resolves configuration from all layers and starts the logger.
// A configuration error falls back to built-in defaults so logging stays
// available, and the error is surfaced both as the return value and as a
// warning record.
func (r *Registry) Initialize(configFile string, overrides ...string) error {
	cfg, resolveErr := ResolveConfig(configFile, nil, overrides)
	if resolveErr != nil {
		// Drop the offending source but keep caller overrides when they
		// still resolve on their own; otherwise run on pure defaults.
		fallback, err := ResolveConfig("", nil, overrides)
		if err != nil {
			fallback = DefaultConfig()
		}
		cfg = fallback
	}

	if err := r.InitializeWithConfig(cfg); err != nil {
		return combineErrors(resolveErr, err)
	}

	if resolveErr != nil {
		r.logger.log(LevelWarning, "prismlog", 1,
			"configuration error, running on defaults: %v", resolveErr)
	}
	return resolveErr
}

// InitializeWithConfig applies a prebuilt configuration and starts the
// listener. Calling it again reconfigures the running logger in place.
func (r *Registry) InitializeWithConfig(cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.logger.ApplyConfig(cfg); err != nil {
		return err
	}
	if err := r.logger.Start(); err != nil {
		return err
	}
	r.refreshHandleLevels()
	return nil
}

// GetLogger returns the handle for name, creating it on first use. Safe
// before Initialize: emits through an uninitialized logger are discarded.
func (r *Registry) GetLogger(name string) *NamedLogger {
	if name == "" {
		name = rootLoggerName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[name]; ok {
		return h
	}
	h := &NamedLogger{logger: r.logger, name: name}
	h.level.Store(int64(r.logger.getConfig().effectiveLevel(name)))
	r.handles[name] = h
	return r.handles[name]
}

// ApplyOverride applies runtime key=value overrides on top of the current
// configuration and refreshes every handle's cached level.
func (r *Registry) ApplyOverride(overrides ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.logger.ApplyOverride(overrides...); err != nil {
		return err
	}
	r.refreshHandleLevels()
	return nil
}

// refreshHandleLevels recomputes cached levels from the active config.
// Caller holds r.mu.
func (r *Registry) refreshHandleLevels() {
	cfg := r.logger.getConfig()
	for name, h := range r.handles {
		h.level.Store(int64(cfg.effectiveLevel(name)))
	}
}

// Shutdown permanently stops the underlying logger. Existing handles stay
// valid; their emits are counted as drops.
func (r *Registry) Shutdown(grace ...time.Duration) error {
	return r.logger.Shutdown(grace...)
}

// Reset shuts the current logger down and replaces it with a fresh one,
// dropping all cached handles. Primarily for tests that need a clean slate
// within one process.
func (r *Registry) Reset(grace ...time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.logger.Shutdown(grace...)
	r.logger = NewLogger()
	r.handles = make(map[string]*NamedLogger)
	return err
}

// defaultRegistry backs the package-level convenience API
var defaultRegistry = NewRegistry()

// Default returns the package-level registry.
func Default() *Registry {
	return defaultRegistry
}

// Initialize configures and starts the package-level logger.
func Initialize(configFile string, overrides ...string) error {
	return defaultRegistry.Initialize(configFile, overrides...)
}

// InitializeWithConfig configures and starts the package-level logger from
// a prebuilt Config.
func InitializeWithConfig(cfg *Config) error {
	return defaultRegistry.InitializeWithConfig(cfg)
}

// GetLogger returns the package-level handle for name.
func GetLogger(name string) *NamedLogger {
	return defaultRegistry.GetLogger(name)
}

// Shutdown stops the package-level logger.
func Shutdown(grace ...time.Duration) error {
	return defaultRegistry.Shutdown(grace...)
}
