package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// SchemaDebounce is how long the schema file must stay unchanged before a
// reload. Editors often save in several writes.
var SchemaDebounce = 300 * time.Millisecond

// WatchSchema reloads the schema file whenever it changes and hands every
// successfully parsed version to onChange. A burst of writes within
// SchemaDebounce yields one reload. A file that fails to parse is logged and
// ignored; the previous schema stays in effect.
// It blocks until ctx is cancelled.
func WatchSchema(ctx context.Context, path string, logger *zap.Logger, onChange func(*Schema)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}
	// Editors often replace the file instead of writing it, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("Watching schema for changes", zap.String("path", abs))

	debounceTicker := time.NewTicker(SchemaDebounce / 3)
	defer debounceTicker.Stop()

	// Time of the last unprocessed change; zero when nothing is pending
	var pending time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = time.Now()

		case <-debounceTicker.C:
			if pending.IsZero() || time.Since(pending) < SchemaDebounce {
				continue
			}
			pending = time.Time{}

			schema, err := LoadSchema(abs)
			if err != nil {
				logger.Warn("Schema reload failed, keeping previous schema", zap.Error(err))
				continue
			}
			logger.Info("Schema reloaded", zap.Int("groups", len(schema.Groups)))
			onChange(schema)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Schema watcher error", zap.Error(err))
		}
	}
}
