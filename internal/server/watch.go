package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long the pictures watcher waits for a
// burst of filesystem events to settle before firing.
const DefaultWatchDebounce = 250 * time.Millisecond

// WatchPictures watches dir and invokes onChange once per settled burst
// of create/remove/rename/write events. The watcher runs until ctx is
// canceled.
func WatchPictures(ctx context.Context, dir string, debounce time.Duration, onChange func(), log *slog.Logger) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch pictures: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch pictures %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		var settled <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
					continue
				}
				settled = time.After(debounce)
			case <-settled:
				settled = nil
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("pictures watcher error", "error", err)
			}
		}
	}()
	return nil
}
