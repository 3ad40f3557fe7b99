package load

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/skellig/stencil/model"
)

// watchDebounce coalesces the write bursts editors produce on save.
const watchDebounce = 100 * time.Millisecond

// WatchFunc receives the result of each re-parse. Exactly one of m and err
// is non-nil.
type WatchFunc func(m *model.Model, err error)

// Watch re-parses the model at path whenever it changes, reporting each
// result (including parse failures) to fn. The initial parse is reported
// before the first change. Watch blocks until ctx is canceled.
func Watch(ctx context.Context, path string, fn WatchFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors replace files on
	// save, which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	fn(ParseFile(path))

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fn(nil, err)
		case <-timerC:
			fn(ParseFile(path))
		}
	}
}
