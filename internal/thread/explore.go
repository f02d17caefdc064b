package thread

import "strings"

// Exploration summarization folds consecutive read/list/search tool
// invocations into compact explore rows. Failed commands are never
// summarized so the user can see what broke, and any command the
// interpreter does not recognize keeps its raw tool item.

// statuses that mean a command is still running.
var inProgressStatuses = map[string]bool{
	"pending": true, "running": true, "processing": true,
	"started": true, "in_progress": true, "inprogress": true,
}

func statusFailed(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "fail") || strings.Contains(s, "error")
}

func statusInProgress(status string) bool {
	return inProgressStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// summarizeExploration walks the item list once, replacing summarizable
// commandExecution tool items with synthetic explore items and merging
// adjacent explore runs that share a status. A status change starts a
// new explore item so the exploring-to-explored transition stays
// visible.
func summarizeExploration(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		explore, ok := asExploreItem(it)
		if !ok {
			out = append(out, it)
			continue
		}
		if last := len(out) - 1; last >= 0 &&
			out[last].Kind == KindExplore &&
			out[last].ExploreStatus == explore.ExploreStatus {
			out[last].Entries = mergeEntries(out[last].Entries, explore.Entries)
			continue
		}
		out = append(out, explore)
	}
	return out
}

// asExploreItem converts a summarizable tool item into a synthetic
// explore item borrowing the tool item's ID. Explore items already in
// the input pass through as-is.
func asExploreItem(it Item) (Item, bool) {
	if it.Kind == KindExplore {
		return it, true
	}
	if it.Kind != KindTool || it.ToolType != ToolCommandExecution {
		return Item{}, false
	}
	if statusFailed(it.Status) {
		return Item{}, false
	}
	command := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(it.Title), "Command:"))
	entries := ParseCommand(command)
	if len(entries) == 0 {
		return Item{}, false
	}
	status := StatusExplored
	if statusInProgress(it.Status) {
		status = StatusExploring
	}
	return Item{
		ID:            it.ID,
		Kind:          KindExplore,
		ExploreStatus: status,
		Entries:       entries,
	}, true
}

// mergeEntries concatenates entry lists, dropping exact duplicates and
// preserving first-seen order.
func mergeEntries(existing, incoming []ExploreEntry) []ExploreEntry {
	seen := make(map[ExploreEntry]bool, len(existing)+len(incoming))
	out := make([]ExploreEntry, 0, len(existing)+len(incoming))
	for _, e := range existing {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	for _, e := range incoming {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
