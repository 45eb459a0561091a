package collection

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) count(ev Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == ev {
			n++
		}
	}
	return n
}

func startWatch(t *testing.T, targets []WatchTarget) *recorder {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recorder{}
	go Watch(ctx, targets, 50*time.Millisecond, logger, rec.record)
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatcher_CollectionWritesDebounced(t *testing.T) {
	dir := t.TempDir()
	coll := filepath.Join(dir, "collection.anki2")
	_ = os.WriteFile(coll, []byte("v0"), 0o644)

	rec := startWatch(t, []WatchTarget{{Path: coll, Event: EventCollection}})

	for i := range 5 {
		_ = os.WriteFile(coll, []byte{byte('a' + i)}, 0o644)
	}
	_ = os.WriteFile(coll+"-wal", []byte("wal"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.count(EventCollection) >= 1
	}, "expected collection.changed")

	time.Sleep(200 * time.Millisecond)
	if n := rec.count(EventCollection); n != 1 {
		t.Errorf("burst reported %d times, want 1", n)
	}
}

func TestWatcher_StateFileRename(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "user_state.json")

	rec := startWatch(t, []WatchTarget{{Path: state, Event: EventState}})

	tmp := filepath.Join(dir, ".state-tmp")
	_ = os.WriteFile(tmp, []byte(`{}`), 0o644)
	_ = os.Rename(tmp, state)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.count(EventState) == 1
	}, "expected state.changed after atomic replace")
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	coll := filepath.Join(dir, "collection.anki2")

	rec := startWatch(t, []WatchTarget{{Path: coll, Event: EventCollection}})

	_ = os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(EventCollection); n != 0 {
		t.Errorf("unrelated write produced %d events", n)
	}
}
