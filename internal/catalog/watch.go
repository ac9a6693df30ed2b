package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yashy10/golden-gate-quest/internal/logger"
)

const watchDebounce = 200 * time.Millisecond

// Watch calls reload after the seed file at path changes, until ctx is done.
// Bursts of events within the debounce window trigger a single reload.
// The parent directory is watched so editors that replace the file on save
// are still noticed.
func Watch(ctx context.Context, path string, reload func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	log := logger.FromContext(ctx).With("seed", abs)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				if err := reload(ctx); err != nil {
					log.Warn("reloading catalog seed", "error", err)
					return
				}
				log.Info("catalog seed reloaded")
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("seed watcher error", "error", err)
		}
	}
}
