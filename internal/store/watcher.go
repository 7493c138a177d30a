package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the persisted schedule file for external edits and reloads
// the store when the on-disk content changes. Events caused by the store's
// own atomic writes are suppressed via the content checksum, so only edits
// made outside the process trigger cb.
//
// Reload events are debounced because editors and the store's own
// tmp-and-rename writes produce bursts of fsnotify events.
func Watch(ctx context.Context, s *Store, path string, logger *slog.Logger, cb func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: rename-based writes replace the file inode.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("file", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			changed, err := s.Reload()
			if err != nil {
				logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			if changed {
				logger.Info("watcher: store reloaded from external edit")
				if cb != nil {
					cb()
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
