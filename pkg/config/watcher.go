package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives the merged parameters after a source changed, or the
// error that prevented loading them.
type ReloadFunc func(raw RawParameters, err error)

// Watcher reloads parameter sources when they change on disk.
type Watcher struct {
	loader *Loader
	paths  []string
	delay  time.Duration
}

// NewWatcher creates a watcher for the given parameter sources.
func NewWatcher(loader *Loader, paths []string) *Watcher {
	return &Watcher{
		loader: loader,
		paths:  paths,
		delay:  500 * time.Millisecond,
	}
}

// Watch blocks until ctx is done, calling fn after each debounced burst of
// changes. Parent directories are watched so that editors which replace
// files by rename are still observed.
func (w *Watcher) Watch(ctx context.Context, fn ReloadFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	watched := make(map[string]bool, len(w.paths))
	tracked := make(map[string]bool, len(w.paths))
	for _, path := range w.paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		tracked[abs] = true

		// CUE package directories are watched directly; any file in them counts.
		dir := filepath.Dir(abs)
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			dir = abs
		}
		if watched[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	w.loader.logger.Info().
		Int("paths", len(w.paths)).
		Msg("Started watching parameter sources")

	var reloadTimer *time.Timer
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if !tracked[name] && !tracked[filepath.Dir(name)] {
				continue
			}

			w.loader.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Parameter source changed")

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(w.delay, func() {
				fn(w.loader.LoadFiles(ctx, w.paths))
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.loader.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}
