package prismlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRegistry builds a started registry writing into a temp directory
func createTestRegistry(t *testing.T) (*Registry, string) {
	tmpDir := t.TempDir()
	r := NewRegistry()

	cfg := DefaultConfig()
	cfg.EnableConsole = false
	cfg.Directory = tmpDir
	cfg.FlushIntervalMs = 10
	cfg.ExitOnCritical = false

	require.NoError(t, r.InitializeWithConfig(cfg))
	return r, tmpDir
}

func TestGetLoggerReturnsSameHandle(t *testing.T) {
	r, _ := createTestRegistry(t)
	defer r.Shutdown()

	a := r.GetLogger("db")
	b := r.GetLogger("db")
	assert.Same(t, a, b)
	assert.Equal(t, "db", a.Name())

	assert.NotSame(t, a, r.GetLogger("db.pool"))
}

func TestGetLoggerEmptyNameIsRoot(t *testing.T) {
	r, _ := createTestRegistry(t)
	defer r.Shutdown()

	assert.Equal(t, rootLoggerName, r.GetLogger("").Name())
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	r := NewRegistry()

	// Safe to obtain and use a handle before Initialize; emits are
	// silently discarded
	h := r.GetLogger("early")
	h.Info("goes nowhere")

	assert.Zero(t, r.Logger().Stats().Processed)
	assert.Zero(t, r.Logger().Stats().Dropped)
}

func TestNamedLoggerDelivery(t *testing.T) {
	r, tmpDir := createTestRegistry(t)
	defer r.Shutdown()

	h := r.GetLogger("db.pool")
	h.Info("checked out", "conns", 3)

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(tmpDir, "app.log"))
		return err == nil && strings.Contains(string(data), " - db.pool - [INFO] - checked out conns 3")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNamedLoggerLevelCache(t *testing.T) {
	r, _ := createTestRegistry(t)
	defer r.Shutdown()

	h := r.GetLogger("db")
	assert.True(t, h.Enabled(LevelInfo))
	assert.False(t, h.Enabled(LevelDebug))

	require.NoError(t, r.ApplyOverride("module_levels.db=ERROR"))
	assert.False(t, h.Enabled(LevelInfo))
	assert.True(t, h.Enabled(LevelError))

	// Handles created after the override pick the level up immediately
	assert.False(t, r.GetLogger("db.pool").Enabled(LevelWarning))
	assert.True(t, r.GetLogger("net").Enabled(LevelInfo))
}

func TestInitializeFallsBackToDefaults(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	tmpDir := t.TempDir()
	badFile := filepath.Join(tmpDir, "bad.yaml")
	require.NoError(t, os.WriteFile(badFile, []byte("level: [broken"), 0644))

	err := r.Initialize(badFile, "directory="+tmpDir, "enable_console=false")
	assert.Error(t, err)

	// Logging still works on the default configuration
	assert.True(t, r.Logger().state.IsInitialized.Load())
	r.GetLogger("app").Info("still alive")
}

func TestInitializeAppliesOverrides(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	tmpDir := t.TempDir()
	require.NoError(t, r.Initialize("",
		"directory="+tmpDir,
		"enable_console=false",
		"level=ERROR",
	))

	assert.Equal(t, LevelError, r.Logger().getConfig().Level)
	assert.Equal(t, tmpDir, r.Logger().getConfig().Directory)
}

func TestInitializeTwiceIsIdempotent(t *testing.T) {
	r, tmpDir := createTestRegistry(t)
	defer r.Shutdown()

	cfg := r.Logger().getConfig().Clone()
	require.NoError(t, r.InitializeWithConfig(cfg))

	// Same on-disk layout, no duplicated handles or leaked locks
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"app.log", "app.log" + lockSuffix}, names)

	r.GetLogger("app").Info("still delivering")
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(tmpDir, "app.log"))
		return err == nil && strings.Contains(string(data), "still delivering")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRegistryReset(t *testing.T) {
	r, _ := createTestRegistry(t)

	old := r.GetLogger("db")
	require.NoError(t, r.Reset())

	// A reset registry hands out fresh handles over a fresh logger
	assert.NotSame(t, old, r.GetLogger("db"))

	cfg := DefaultConfig()
	cfg.EnableConsole = false
	cfg.Directory = t.TempDir()
	cfg.ExitOnCritical = false
	require.NoError(t, r.InitializeWithConfig(cfg))
	require.NoError(t, r.Shutdown())
}

func TestPackageLevelAPI(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, Initialize("",
		"directory="+tmpDir,
		"enable_console=false",
		"exit_on_critical=false",
	))

	GetLogger("pkg").Info("package level record")

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(tmpDir, "app.log"))
		return err == nil && strings.Contains(string(data), "package level record")
	}, 2*time.Second, 10*time.Millisecond)

	// Reset instead of Shutdown so later tests can reinitialize the
	// package-level registry
	require.NoError(t, Default().Reset())
}
