package prismlog

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the bursts of Write/Create events editors and
// atomic-save tools produce for a single logical change.
const watchDebounce = 200 * time.Millisecond

// ConfigWatcher re-resolves and re-applies configuration whenever the
// watched file changes. Overrides given at Watch time keep their
// precedence over the file on every reload.
type ConfigWatcher struct {
	registry  *Registry
	file      string
	overrides []string

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// Watch starts watching configFile for the registry. The parent directory
// is watched rather than the file itself, so rename-based atomic saves do
// not silently detach the watch.
func (r *Registry) Watch(configFile string, overrides ...string) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmtErrorf("failed to create config watcher: %w", err)
	}

	dir := filepath.Dir(configFile)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmtErrorf("failed to watch config directory '%s': %w", dir, err)
	}

	cw := &ConfigWatcher{
		registry:  r,
		file:      configFile,
		overrides: overrides,
		watcher:   w,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

// Stop ends the watch. Safe to call more than once.
func (cw *ConfigWatcher) Stop() {
	cw.stopOnce.Do(func() {
		close(cw.stopChan)
		<-cw.doneChan
	})
}

func (cw *ConfigWatcher) run() {
	defer close(cw.doneChan)
	defer cw.watcher.Close()

	var debounce *time.Timer
	var debounceChan <-chan time.Time

	target := filepath.Clean(cw.file)

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
				debounceChan = debounce.C
			} else {
				debounce.Reset(watchDebounce)
			}

		case <-debounceChan:
			debounce = nil
			debounceChan = nil
			cw.reload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.registry.logger.internalLog("warning - config watcher: %v\n", err)

		case <-cw.stopChan:
			return
		}
	}
}

// reload re-runs the full resolution chain and applies the result. A bad
// edit leaves the previous configuration in force and surfaces a warning
// record through the still-running logger.
func (cw *ConfigWatcher) reload() {
	cfg, err := ResolveConfig(cw.file, nil, cw.overrides)
	if err == nil {
		err = cw.registry.InitializeWithConfig(cfg)
	}
	if err != nil {
		cw.registry.logger.log(LevelWarning, "prismlog", 1,
			"config reload failed, keeping previous configuration: %v", err)
		return
	}
	cw.registry.logger.log(LevelInfo, "prismlog", 1,
		"configuration reloaded from %s", cw.file)
}
