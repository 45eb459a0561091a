package collection

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event names a change observed on disk.
type Event string

// Watched change kinds.
const (
	EventCollection Event = "collection.changed"
	EventState      Event = "state.changed"
)

// DefaultDebounce is the quiet period before a burst of writes is reported.
const DefaultDebounce = 300 * time.Millisecond

// EventCallback is called once per debounced burst of changes.
type EventCallback func(ev Event)

// WatchTarget binds a file to the event reported when it changes.
type WatchTarget struct {
	Path  string
	Event Event
}

// sqliteSidecars are the files SQLite writes next to a collection.
var sqliteSidecars = []string{"-wal", "-journal", "-shm"}

// Watch observes the parent directories of the targets and calls cb after
// each burst of writes to a target file, until ctx is cancelled. Directories
// are watched rather than files so atomic renames keep being seen.
//
// Collection targets also react to their SQLite sidecar files, since a
// commit in WAL mode may only touch the -wal file.
func Watch(ctx context.Context, targets []WatchTarget, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	names := make(map[string]Event)
	dirs := make(map[string]struct{})
	for _, t := range targets {
		if t.Path == "" {
			continue
		}
		abs, err := filepath.Abs(t.Path)
		if err != nil {
			return err
		}
		names[abs] = t.Event
		if t.Event == EventCollection {
			for _, s := range sqliteSidecars {
				names[abs+s] = t.Event
			}
		}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
		logger.Info("watcher: started", slog.String("dir", dir))
	}

	pending := make(map[Event]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			for ev := range pending {
				logger.Debug("watcher: change", slog.String("event", string(ev)))
				if cb != nil {
					cb(ev)
				}
			}
			clear(pending)

		case fe, ok := <-w.Events:
			if !ok {
				return nil
			}
			if fe.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			ev, ok := names[filepath.Clean(fe.Name)]
			if !ok {
				continue
			}
			pending[ev] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
