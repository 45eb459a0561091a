package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// drain collects the messages already queued on ch.
func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func countType(msgs []string, typ string) int {
	n := 0
	for _, m := range msgs {
		if strings.HasPrefix(m, "event: "+typ+"\n") {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishChange_StaleThrottled(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(TypeCollectionChanged)
	b.PublishChange(TypeStateChanged)
	b.PublishChange(TypeCollectionChanged)
	b.PublishChange("note.deleted")

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)

	if n := countType(msgs, TypeCollectionChanged); n != 2 {
		t.Errorf("collection.changed = %d, want 2", n)
	}
	if n := countType(msgs, TypeStateChanged); n != 1 {
		t.Errorf("state.changed = %d, want 1", n)
	}
	if n := countType(msgs, TypeOverviewStale); n != 1 {
		t.Errorf("overview.stale = %d, want 1 (throttled)", n)
	}
	if len(msgs) != 4 {
		t.Errorf("unknown kinds must be ignored: %q", msgs)
	}
	if !strings.Contains(msgs[0], `"at":"`) {
		t.Errorf("change event missing timestamp: %q", msgs[0])
	}
}

func TestPublishChange_StaleAfterThrottle(t *testing.T) {
	b := NewBroker(50 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(TypeCollectionChanged)
	time.Sleep(100 * time.Millisecond)
	b.PublishChange(TypeCollectionChanged)
	time.Sleep(50 * time.Millisecond)

	if n := countType(drain(ch), TypeOverviewStale); n != 2 {
		t.Errorf("overview.stale = %d, want 2 once the throttle elapsed", n)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange(TypeStateChanged)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: state.changed") || !strings.Contains(body, "event: overview.stale") {
		t.Errorf("handler output missing events: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for range 70 {
		b.Publish(Event{Type: TypeCollectionChanged, Data: map[string]string{}})
	}
	// Reaching this point means a slow client did not block the loop.
}

func TestCloseStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.PublishChange(TypeCollectionChanged)
	b.Publish(Event{Type: TypeStateChanged})
}

func TestSSEHandler_KeepAlive(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	b.keepAlive = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), ": ping\n\n") {
		t.Errorf("no keep-alive comment in %q", w.Body.String())
	}
}
