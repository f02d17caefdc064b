package event

import (
	"testing"
	"time"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
)

func TestDispatcherMergesSources(t *testing.T) {
	d := NewDispatcher()
	defer d.Stop()

	a := make(chan backend.Event, 1)
	b := make(chan backend.Event, 1)
	d.AddSource("codex", a)
	d.AddSource("opencode", b)

	a <- backend.Event{Type: backend.EventThreadUpdated, ThreadID: "t1"}
	b <- backend.Event{Type: backend.EventThreadCreated, ThreadID: "t2"}

	seen := map[string]Event{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-d.Events():
			seen[ev.BackendID] = ev
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for merged events")
		}
	}
	if seen["codex"].ThreadID != "t1" {
		t.Errorf("codex event missing: %+v", seen)
	}
	if seen["opencode"].Type != backend.EventThreadCreated {
		t.Errorf("opencode event missing: %+v", seen)
	}
}

func TestDispatcherStopClosesStream(t *testing.T) {
	d := NewDispatcher()
	source := make(chan backend.Event)
	d.AddSource("codex", source)

	d.Stop()
	select {
	case _, ok := <-waitClosed(d.Events()):
		if ok {
			t.Error("expected closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not close after Stop")
	}

	// Stop again is a no-op.
	d.Stop()
}

func TestDispatcherSourceCloseDoesNotCloseStream(t *testing.T) {
	d := NewDispatcher()
	defer d.Stop()

	a := make(chan backend.Event, 1)
	b := make(chan backend.Event, 1)
	d.AddSource("codex", a)
	d.AddSource("gemini-cli", b)

	close(a)
	b <- backend.Event{Type: backend.EventThreadUpdated, ThreadID: "t3"}

	select {
	case ev := <-d.Events():
		if ev.BackendID != "gemini-cli" || ev.ThreadID != "t3" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("surviving source stopped delivering")
	}
}

// waitClosed drains any buffered events and returns a channel that
// yields the close signal.
func waitClosed(ch <-chan Event) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for range ch {
		}
	}()
	return out
}
