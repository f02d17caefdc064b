package thread

import "strings"

// Ellipsis marks text that was cut by the size bounds.
const Ellipsis = "..."

// truncateRunes bounds s to max runes, cutting on a code-point boundary
// and appending the ellipsis marker. Already-truncated text passes
// through so the operation is idempotent.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if len(runes) <= max+len(Ellipsis) && strings.HasSuffix(s, Ellipsis) {
		return s
	}
	return string(runes[:max]) + Ellipsis
}

// normalizeItem shapes a single item: size bounds on every text field,
// plus text cleanup for assistant messages when the heuristics judge it
// warranted. Explore items are already bounded by construction.
func (r *Reconciler) normalizeItem(it Item) Item {
	switch it.Kind {
	case KindMessage:
		if it.Role == RoleAssistant && r.norm.ShouldNormalize(it.Text) {
			it.Text = r.norm.Normalize(it.Text)
		}
		it.Text = truncateRunes(it.Text, MaxItemText)
	case KindReasoning:
		it.Summary = truncateRunes(it.Summary, MaxItemText)
		it.Content = truncateRunes(it.Content, MaxItemText)
	case KindDiff:
		it.Diff = truncateRunes(it.Diff, MaxItemText)
	case KindTool:
		it.Title = truncateRunes(it.Title, MaxToolTitle)
		it.Detail = truncateRunes(it.Detail, MaxToolDetail)
		if !toolOutputExempt(it.ToolType) {
			it = truncateToolOutput(it)
		}
	case KindReview:
		it.Text = truncateRunes(it.Text, MaxItemText)
	}
	return it
}

// toolOutputExempt reports whether a tool type carries output the user
// needs verbatim, exempting it from per-item truncation while recent.
func toolOutputExempt(toolType string) bool {
	return toolType == ToolFileChange || toolType == ToolCommandExecution
}

// truncateToolOutput bounds a tool item's output and per-file diffs.
func truncateToolOutput(it Item) Item {
	it.Output = truncateRunes(it.Output, MaxItemText)
	if len(it.Changes) > 0 {
		changes := make([]FileChange, len(it.Changes))
		copy(changes, it.Changes)
		for i := range changes {
			changes[i].Diff = truncateRunes(changes[i].Diff, MaxItemText)
		}
		it.Changes = changes
	}
	return it
}
