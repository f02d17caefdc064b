package convert

import (
	"encoding/json"
	"testing"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestItem_AgentMessage(t *testing.T) {
	it, ok := Item(decode(t, `{"id":"m1","type":"agent_message","text":"hello"}`))
	if !ok {
		t.Fatal("not recognized")
	}
	if it.Kind != thread.KindMessage || it.Role != thread.RoleAssistant || it.Text != "hello" {
		t.Errorf("got %+v", it)
	}
}

func TestItem_SnakeAndCamelVariants(t *testing.T) {
	snake, ok := Item(decode(t, `{"id":"t1","type":"command_execution","command":"ls","aggregated_output":"out","duration_ms":120}`))
	if !ok {
		t.Fatal("snake_case payload not recognized")
	}
	camel, ok := Item(decode(t, `{"id":"t1","type":"commandExecution","command":"ls","aggregatedOutput":"out","durationMs":120}`))
	if !ok {
		t.Fatal("camelCase payload not recognized")
	}
	if snake.ToolType != thread.ToolCommandExecution || camel.ToolType != thread.ToolCommandExecution {
		t.Errorf("tool types: %q, %q", snake.ToolType, camel.ToolType)
	}
	if snake.Output != camel.Output || snake.DurationMs != camel.DurationMs {
		t.Errorf("field variants diverged: %+v vs %+v", snake, camel)
	}
}

func TestItem_ReasoningWithStringArrayContent(t *testing.T) {
	it, ok := Item(decode(t, `{"id":"r1","type":"reasoning","summary":"plan","content":["step one","step two"]}`))
	if !ok {
		t.Fatal("not recognized")
	}
	if it.Content != "step one\nstep two" {
		t.Errorf("content = %q", it.Content)
	}
}

func TestItem_MessageWithBlockContent(t *testing.T) {
	it, ok := Item(decode(t, `{"id":"m1","type":"message","role":"user","content":[{"type":"text","text":"part a"},{"type":"text","text":"part b"}]}`))
	if !ok {
		t.Fatal("not recognized")
	}
	if it.Role != thread.RoleUser {
		t.Errorf("role = %q", it.Role)
	}
	if it.Text != "part a\npart b" {
		t.Errorf("text = %q", it.Text)
	}
}

func TestItem_FileChangeWithChanges(t *testing.T) {
	it, ok := Item(decode(t, `{"id":"f1","type":"file_change","status":"completed","changes":[{"path":"a.go","kind":"update","diff":"+x"}]}`))
	if !ok {
		t.Fatal("not recognized")
	}
	if it.ToolType != thread.ToolFileChange {
		t.Errorf("toolType = %q", it.ToolType)
	}
	if len(it.Changes) != 1 || it.Changes[0].Path != "a.go" || it.Changes[0].Diff != "+x" {
		t.Errorf("changes = %+v", it.Changes)
	}
}

func TestItem_ReviewStates(t *testing.T) {
	started, _ := Item(decode(t, `{"id":"v1","type":"review","state":"started","text":"looking"}`))
	completed, _ := Item(decode(t, `{"id":"v2","type":"review","status":"completed","text":"done"}`))
	if started.ReviewState != thread.ReviewStarted || completed.ReviewState != thread.ReviewCompleted {
		t.Errorf("states: %v, %v", started.ReviewState, completed.ReviewState)
	}
}

func TestItem_UnknownTypeRejected(t *testing.T) {
	if _, ok := Item(decode(t, `{"id":"x","type":"token_count"}`)); ok {
		t.Error("unknown payload type should be rejected")
	}
}

func TestItem_MissingIDAssigned(t *testing.T) {
	it, ok := Item(decode(t, `{"type":"agent_message","text":"hi"}`))
	if !ok {
		t.Fatal("not recognized")
	}
	if it.ID == "" {
		t.Error("expected generated id")
	}
}
