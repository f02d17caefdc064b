package thread

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateRunes_Bounds(t *testing.T) {
	long := strings.Repeat("x", MaxItemText+500)
	got := truncateRunes(long, MaxItemText)
	if utf8.RuneCountInString(got) != MaxItemText+len(Ellipsis) {
		t.Errorf("length = %d, want %d", utf8.RuneCountInString(got), MaxItemText+len(Ellipsis))
	}
	if !strings.HasSuffix(got, Ellipsis) {
		t.Error("missing ellipsis marker")
	}
}

func TestTruncateRunes_CodePointBoundary(t *testing.T) {
	long := strings.Repeat("好", 30)
	got := truncateRunes(long, 10)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation corrupted encoding: %q", got)
	}
	if utf8.RuneCountInString(got) != 10+len(Ellipsis) {
		t.Errorf("rune count = %d", utf8.RuneCountInString(got))
	}
}

func TestTruncateRunes_Idempotent(t *testing.T) {
	long := strings.Repeat("y", 50)
	once := truncateRunes(long, 20)
	twice := truncateRunes(once, 20)
	if once != twice {
		t.Errorf("re-truncation changed text: %q vs %q", once, twice)
	}
}

func TestNormalizeItem_AssistantMessageNormalized(t *testing.T) {
	it := NormalizeItem(Item{
		ID:   "m1",
		Kind: KindMessage,
		Role: RoleAssistant,
		Text: "你好\n好\n！\n我\n是\n你\n的\n助手\n。",
	})
	if it.Text != "你好好！我是你的助手。" {
		t.Errorf("got %q", it.Text)
	}
}

func TestNormalizeItem_UserMessageNeverNormalized(t *testing.T) {
	text := "A\n\nA\n\nA"
	it := NormalizeItem(Item{ID: "m1", Kind: KindMessage, Role: RoleUser, Text: text})
	if it.Text != text {
		t.Errorf("user text was reshaped: %q", it.Text)
	}
}

func TestNormalizeItem_TruncatesFields(t *testing.T) {
	long := strings.Repeat("z", MaxItemText*2)
	cases := []struct {
		name string
		in   Item
		get  func(Item) string
	}{
		{"message text", Item{Kind: KindMessage, Role: RoleUser, Text: long}, func(i Item) string { return i.Text }},
		{"reasoning summary", Item{Kind: KindReasoning, Summary: long}, func(i Item) string { return i.Summary }},
		{"reasoning content", Item{Kind: KindReasoning, Content: long}, func(i Item) string { return i.Content }},
		{"diff body", Item{Kind: KindDiff, Diff: long}, func(i Item) string { return i.Diff }},
		{"tool output", Item{Kind: KindTool, ToolType: "webSearch", Output: long}, func(i Item) string { return i.Output }},
	}
	for _, tc := range cases {
		got := tc.get(NormalizeItem(tc.in))
		if utf8.RuneCountInString(got) > MaxItemText+len(Ellipsis) {
			t.Errorf("%s not bounded: %d runes", tc.name, utf8.RuneCountInString(got))
		}
	}
}

func TestNormalizeItem_ToolHeaderBounds(t *testing.T) {
	it := NormalizeItem(Item{
		Kind:   KindTool,
		Title:  strings.Repeat("t", MaxToolTitle*2),
		Detail: strings.Repeat("d", MaxToolDetail*2),
	})
	if utf8.RuneCountInString(it.Title) > MaxToolTitle+len(Ellipsis) {
		t.Errorf("title not bounded: %d", utf8.RuneCountInString(it.Title))
	}
	if utf8.RuneCountInString(it.Detail) > MaxToolDetail+len(Ellipsis) {
		t.Errorf("detail not bounded: %d", utf8.RuneCountInString(it.Detail))
	}
}

func TestNormalizeItem_ExemptToolTypesKeepOutput(t *testing.T) {
	long := strings.Repeat("o", MaxItemText*2)
	for _, toolType := range []string{ToolCommandExecution, ToolFileChange} {
		it := NormalizeItem(Item{Kind: KindTool, ToolType: toolType, Output: long})
		if it.Output != long {
			t.Errorf("%s output was truncated", toolType)
		}
	}
}

func TestNormalizeItem_ChangesDiffsBounded(t *testing.T) {
	long := strings.Repeat("c", MaxItemText*2)
	it := NormalizeItem(Item{
		Kind:     KindTool,
		ToolType: "webSearch",
		Changes:  []FileChange{{Path: "a.go", Diff: long}},
	})
	if utf8.RuneCountInString(it.Changes[0].Diff) > MaxItemText+len(Ellipsis) {
		t.Errorf("change diff not bounded: %d", utf8.RuneCountInString(it.Changes[0].Diff))
	}
}

func TestNormalizeItem_Idempotent(t *testing.T) {
	items := []Item{
		{ID: "m1", Kind: KindMessage, Role: RoleAssistant, Text: "A\n\nA\n\nA"},
		{ID: "m2", Kind: KindMessage, Role: RoleAssistant, Text: strings.Repeat("word ", 8000)},
		{ID: "r1", Kind: KindReasoning, Summary: "thinking", Content: strings.Repeat("c", MaxItemText+10)},
		{ID: "t1", Kind: KindTool, ToolType: "webSearch", Title: strings.Repeat("t", 500), Output: strings.Repeat("o", MaxItemText+10)},
		{ID: "d1", Kind: KindDiff, Diff: strings.Repeat("+line\n", 5000)},
		{ID: "e1", Kind: KindExplore, ExploreStatus: StatusExplored, Entries: []ExploreEntry{{Kind: EntryRead, Label: "a.go"}}},
	}
	for _, it := range items {
		once := NormalizeItem(it)
		twice := NormalizeItem(once)
		if !itemsEqual(once, twice) {
			t.Errorf("item %s/%s not idempotent", it.Kind, it.ID)
		}
	}
}

func itemsEqual(a, b Item) bool {
	if a.ID != b.ID || a.Kind != b.Kind || a.Text != b.Text ||
		a.Summary != b.Summary || a.Content != b.Content ||
		a.Title != b.Title || a.Detail != b.Detail ||
		a.Status != b.Status || a.Output != b.Output || a.Diff != b.Diff {
		return false
	}
	if len(a.Changes) != len(b.Changes) || len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Changes {
		if a.Changes[i] != b.Changes[i] {
			return false
		}
	}
	for i := range a.Entries {
		if a.Entries[i] != b.Entries[i] {
			return false
		}
	}
	return true
}
