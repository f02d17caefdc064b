package thread

import "testing"

func commandTool(id, title, status string) Item {
	return Item{ID: id, Kind: KindTool, ToolType: ToolCommandExecution, Title: title, Status: status}
}

func TestSummarize_ReplacesCommandRun(t *testing.T) {
	items := []Item{
		commandTool("t1", "Command: cat internal/thread/item.go", "completed"),
		commandTool("t2", "Command: ls internal/", "completed"),
		commandTool("t3", "Command: rg Reconciler internal/", "completed"),
	}
	out := summarizeExploration(items)
	if len(out) != 1 {
		t.Fatalf("expected one explore item, got %d: %+v", len(out), out)
	}
	if out[0].Kind != KindExplore || out[0].ExploreStatus != StatusExplored {
		t.Fatalf("got %+v", out[0])
	}
	if len(out[0].Entries) != 3 {
		t.Errorf("expected 3 entries, got %+v", out[0].Entries)
	}
	// The synthetic item borrows the first tool item's id.
	if out[0].ID != "t1" {
		t.Errorf("id = %q, want t1", out[0].ID)
	}
}

func TestSummarize_FailedCommandKept(t *testing.T) {
	items := []Item{
		commandTool("t1", "Command: cat missing.go", "failed"),
	}
	out := summarizeExploration(items)
	if len(out) != 1 || out[0].Kind != KindTool {
		t.Fatalf("failed command must stay visible, got %+v", out)
	}
}

func TestSummarize_UnrecognizedCommandKept(t *testing.T) {
	items := []Item{
		commandTool("t1", "Command: go test ./...", "completed"),
	}
	out := summarizeExploration(items)
	if len(out) != 1 || out[0].Kind != KindTool {
		t.Fatalf("unrecognized command must stay a tool item, got %+v", out)
	}
}

func TestSummarize_StatusChangeStartsNewRun(t *testing.T) {
	items := []Item{
		commandTool("t1", "Command: cat a.go", "completed"),
		commandTool("t2", "Command: cat b.go", "running"),
	}
	out := summarizeExploration(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 explore items across the status change, got %+v", out)
	}
	if out[0].ExploreStatus != StatusExplored || out[1].ExploreStatus != StatusExploring {
		t.Errorf("statuses: %v, %v", out[0].ExploreStatus, out[1].ExploreStatus)
	}
}

func TestSummarize_MergesExistingExploreItems(t *testing.T) {
	items := []Item{
		{ID: "e1", Kind: KindExplore, ExploreStatus: StatusExplored,
			Entries: []ExploreEntry{{Kind: EntryRead, Label: "a.ts"}}},
		{ID: "e2", Kind: KindExplore, ExploreStatus: StatusExplored,
			Entries: []ExploreEntry{{Kind: EntryRead, Label: "b.ts"}}},
	}
	out := summarizeExploration(items)
	if len(out) != 1 {
		t.Fatalf("expected merged explore item, got %+v", out)
	}
	if len(out[0].Entries) != 2 ||
		out[0].Entries[0].Label != "a.ts" || out[0].Entries[1].Label != "b.ts" {
		t.Errorf("entries = %+v", out[0].Entries)
	}
}

func TestSummarize_MergeDeduplicatesEntries(t *testing.T) {
	items := []Item{
		commandTool("t1", "Command: cat a.go", "completed"),
		commandTool("t2", "Command: cat a.go", "completed"),
	}
	out := summarizeExploration(items)
	if len(out) != 1 || len(out[0].Entries) != 1 {
		t.Fatalf("expected one deduplicated entry, got %+v", out)
	}
}

func TestSummarize_NonToolItemsBreakRun(t *testing.T) {
	items := []Item{
		commandTool("t1", "Command: cat a.go", "completed"),
		{ID: "m1", Kind: KindMessage, Role: RoleAssistant, Text: "Found it."},
		commandTool("t2", "Command: cat b.go", "completed"),
	}
	out := summarizeExploration(items)
	if len(out) != 3 {
		t.Fatalf("expected 3 items, got %d", len(out))
	}
	if out[0].Kind != KindExplore || out[1].Kind != KindMessage || out[2].Kind != KindExplore {
		t.Errorf("kinds: %v %v %v", out[0].Kind, out[1].Kind, out[2].Kind)
	}
}

func TestSummarize_InProgressStatuses(t *testing.T) {
	for _, status := range []string{"pending", "Running", "in_progress", "started"} {
		out := summarizeExploration([]Item{commandTool("t1", "Command: ls .", status)})
		if len(out) != 1 || out[0].ExploreStatus != StatusExploring {
			t.Errorf("status %q: got %+v", status, out)
		}
	}
	for _, status := range []string{"completed", "", "done"} {
		out := summarizeExploration([]Item{commandTool("t1", "Command: ls .", status)})
		if len(out) != 1 || out[0].ExploreStatus != StatusExplored {
			t.Errorf("status %q: got %+v", status, out)
		}
	}
}
