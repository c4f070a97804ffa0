package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file on change and hands the parsed result to
// an apply callback. Only hot-swappable tunables (match threshold,
// escalation threshold) should be applied; address or store changes need a
// restart.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	apply   func(Config)
	logger  *zap.Logger
}

func NewWatcher(path string, apply func(Config), logger *zap.Logger) (*Watcher, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config watch %q: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %q: %w", path, err)
	}
	return &Watcher{watcher: fw, path: path, apply: apply, logger: logger}, nil
}

// Run blocks until ctx is cancelled, reloading on writes. Edits are
// debounced: editors fire several events per save.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config hot-reload failed", zap.Error(err))
		return
	}
	w.apply(cfg)
	w.logger.Info("config hot-reloaded",
		zap.Float64("match_threshold", cfg.Matcher.Threshold),
		zap.Int("escalation_threshold", cfg.Escalation.Threshold))
}
