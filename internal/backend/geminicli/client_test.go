package geminicli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

const sampleSession = `{
  "sessionId": "sess-1",
  "projectHash": "abc",
  "startTime": "2026-08-20T10:00:00Z",
  "lastUpdated": "2026-08-20T10:05:00Z",
  "messages": [
    {"id": "info-0", "type": "info", "content": "model switched"},
    {"id": "msg-1", "type": "user", "content": "list the files\nplease"},
    {
      "id": "msg-2",
      "type": "gemini",
      "content": "Here they are.",
      "model": "gemini-2.5-pro",
      "thoughts": [{"subject": "Plan", "description": "run ls first"}],
      "toolCalls": [{
        "id": "call-1",
        "name": "run_shell_command",
        "args": {"command": "ls"},
        "result": "main.go",
        "status": "success"
      }]
    }
  ]
}`

func writeSession(t *testing.T, c *Client, projectRoot, name, content string) {
	t.Helper()
	dir := c.chatsDir(projectRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return &Client{tmpDir: t.TempDir(), threadIndex: make(map[string]string)}
}

func TestDetect(t *testing.T) {
	c := newTestClient(t)
	proj := t.TempDir()

	found, err := c.Detect(proj)
	if err != nil || found {
		t.Fatalf("Detect on empty dir = %v, %v", found, err)
	}

	writeSession(t, c, proj, "session-1.json", sampleSession)
	found, err = c.Detect(proj)
	if err != nil || !found {
		t.Fatalf("Detect with session = %v, %v", found, err)
	}

	// Non-session files do not count.
	other := t.TempDir()
	writeSession(t, c, other, "notes.json", "{}")
	found, err = c.Detect(other)
	if err != nil || found {
		t.Fatalf("Detect with stray json = %v, %v", found, err)
	}
}

func TestThreadsAndItems(t *testing.T) {
	c := newTestClient(t)
	proj := t.TempDir()
	writeSession(t, c, proj, "session-1.json", sampleSession)

	threads, err := c.Threads(proj)
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) != 1 {
		t.Fatalf("thread count = %d", len(threads))
	}
	th := threads[0]
	if th.ID != "sess-1" {
		t.Errorf("ID = %q", th.ID)
	}
	if th.Title != "list the files" {
		t.Errorf("Title = %q", th.Title)
	}
	if th.ItemCount != 2 {
		t.Errorf("ItemCount = %d, info rows must not count", th.ItemCount)
	}

	items, err := c.Items("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	// user message, thought, tool call, assistant message.
	if len(items) != 4 {
		t.Fatalf("item count = %d: %+v", len(items), items)
	}
	if items[0].Kind != thread.KindMessage || items[0].Role != thread.RoleUser {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].Kind != thread.KindReasoning || items[1].Content != "Plan: run ls first" {
		t.Errorf("thought item = %+v", items[1])
	}
	if items[2].Kind != thread.KindTool || items[2].ID != "call-1" {
		t.Errorf("tool item = %+v", items[2])
	}
	if items[2].Output != "main.go" {
		t.Errorf("tool output = %q", items[2].Output)
	}
	if items[3].Role != thread.RoleAssistant || items[3].Text != "Here they are." {
		t.Errorf("assistant item = %+v", items[3])
	}
}

func TestItemsUnknownThread(t *testing.T) {
	c := newTestClient(t)
	items, err := c.Items("nope")
	if err != nil || items != nil {
		t.Fatalf("unknown thread = %v, %v", items, err)
	}
}
