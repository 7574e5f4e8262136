package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pomo/internal/config"
	"pomo/internal/logging"
)

// DefaultReloadDebounce collapses editor write bursts into one reload.
const DefaultReloadDebounce = 500 * time.Millisecond

// ConfigWatcher reloads the config file when it changes and hands valid
// results to apply. Invalid files are logged and ignored.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	apply    func(*config.Config)
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewConfigWatcher watches the directory holding path, which survives
// editors that replace the file on save.
func NewConfigWatcher(path string, debounce time.Duration, apply func(*config.Config), logger *slog.Logger) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}
	return &ConfigWatcher{
		path:     absPath,
		debounce: debounce,
		apply:    apply,
		logger:   logging.NewComponentLogger(logger, "config_watcher"),
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Run processes file events until ctx is canceled.
func (w *ConfigWatcher) Run(ctx context.Context) {
	defer close(w.done)
	defer w.watcher.Close()

	name := filepath.Base(w.path)
	var (
		pending *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(evt.Name) != name {
				continue
			}
			if evt.Has(fsnotify.Remove) {
				w.logger.Warn("config file removed; keeping current settings",
					logging.String("path", w.path),
					logging.String(logging.FieldEventType, "config_removed"),
					logging.String(logging.FieldImpact, "timer settings stay as loaded"),
					logging.String(logging.FieldErrorHint, "restore the config file to change settings"))
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
			} else {
				pending.Reset(w.debounce)
			}
			fire = pending.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "config watcher error", "config_watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "config changes may go unnoticed"))
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

// Wait blocks until Run has returned.
func (w *ConfigWatcher) Wait() {
	<-w.done
}

func (w *ConfigWatcher) reload() {
	cfg, _, exists, err := config.Load(w.path)
	if err == nil && !exists {
		return
	}
	if err != nil {
		logging.WarnWithContext(w.logger, "config reload rejected", "config_reload_rejected",
			logging.String("path", w.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous settings stay active"),
			logging.String(logging.FieldErrorHint, "run pomo config validate"))
		return
	}
	w.logger.Info("config reloaded",
		logging.String("path", w.path),
		logging.String(logging.FieldEventType, "config_reloaded"))
	w.apply(cfg)
}
