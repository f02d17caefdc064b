package backend

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

// stubBackend records the settings it was constructed with.
type stubBackend struct {
	id       string
	settings Settings
}

func (s *stubBackend) ID() string                  { return s.id }
func (s *stubBackend) Name() string                { return s.id }
func (s *stubBackend) Icon() string                { return "·" }
func (s *stubBackend) Detect(string) (bool, error) { return true, nil }
func (s *stubBackend) Threads(string) ([]Thread, error) {
	return nil, nil
}
func (s *stubBackend) Items(string) ([]thread.Item, error) {
	return nil, nil
}
func (s *stubBackend) Watch(string) (<-chan Event, error) {
	ch := make(chan Event)
	close(ch)
	return ch, nil
}

func registerStub(id string) {
	RegisterFactory(id, func(s Settings) Backend {
		return &stubBackend{id: id, settings: s}
	})
}

func TestDetectHonorsSettings(t *testing.T) {
	registerStub("stub-on")
	registerStub("stub-off")
	registerStub("stub-unconfigured")

	backends, err := Detect("/tmp/proj", map[string]Settings{
		"stub-on":  {Enabled: true, DataDir: "/custom/dir"},
		"stub-off": {Enabled: false},
	})
	if err != nil {
		t.Fatal(err)
	}

	on, ok := backends["stub-on"].(*stubBackend)
	if !ok {
		t.Fatal("enabled backend not detected")
	}
	if on.settings.DataDir != "/custom/dir" {
		t.Errorf("settings not passed to factory: %+v", on.settings)
	}
	if _, ok := backends["stub-off"]; ok {
		t.Error("disabled backend must be skipped")
	}
	if _, ok := backends["stub-unconfigured"]; !ok {
		t.Error("backend without a settings entry must default to enabled")
	}
}

func TestWatchDirEmitsOnWrite(t *testing.T) {
	dir := t.TempDir()
	events, err := WatchDir(dir, ".jsonl")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "session-abc.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev.ThreadID != "session-abc" {
			t.Errorf("ThreadID = %q", ev.ThreadID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event after write")
	}
}

func TestWatchDirIgnoresOtherSuffixes(t *testing.T) {
	dir := t.TempDir()
	events, err := WatchDir(dir, ".jsonl")
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected event for non-matching file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchDirFollowsNewSubdirs(t *testing.T) {
	dir := t.TempDir()
	events, err := WatchDir(dir, ".jsonl")
	if err != nil {
		t.Fatal(err)
	}

	sub := filepath.Join(dir, "2026", "08", "23")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to pick up the new directories.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(sub, "rollout-1.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev.ThreadID != "rollout-1" {
			t.Errorf("ThreadID = %q", ev.ThreadID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event from nested directory")
	}
}
