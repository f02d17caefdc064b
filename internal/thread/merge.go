package thread

import "strings"

// Reconciler owns the normalization pipeline and its memo caches. It is
// cheap to construct and safe to instantiate per thread; like the rest
// of the package it expects to be driven from a single event loop and
// holds no locks.
type Reconciler struct {
	norm *Normalizer
}

// NewReconciler creates a Reconciler with the given heuristic tuning.
func NewReconciler(tuning Tuning) *Reconciler {
	return &Reconciler{norm: NewNormalizer(tuning)}
}

// defaultReconciler backs the package-level convenience functions.
var defaultReconciler = NewReconciler(Tuning{})

// Prepare runs the full pipeline over a raw item list: per-item
// normalization, id coalescing, exploration summarization, and the
// timeline length cap. Call it whenever a thread's items are about to
// be rendered or persisted.
func Prepare(items []Item) []Item { return defaultReconciler.Prepare(items) }

// Upsert inserts or merges a single item into a timeline.
func Upsert(list []Item, it Item) []Item { return defaultReconciler.Upsert(list, it) }

// Merge reconciles a backend-authoritative timeline with the local
// speculative one after a resume, fork, or refresh.
func Merge(remote, local []Item) []Item { return defaultReconciler.Merge(remote, local) }

// NormalizeItem shapes a single item outside the full pipeline.
func NormalizeItem(it Item) Item { return defaultReconciler.NormalizeItem(it) }

// NormalizeItem shapes a single item: size bounds plus assistant-text
// cleanup. Exposed for callers that normalize freshly-built items
// before they enter the pipeline.
func (r *Reconciler) NormalizeItem(it Item) Item { return r.normalizeItem(it) }

// Prepare implements the render-path pipeline. The output holds at most
// MaxItemsPerThread items (oldest dropped first) and tool output on
// items older than the most recent ToolOutputRecentItems is bounded
// even for exempt tool types.
func (r *Reconciler) Prepare(items []Item) []Item {
	normalized := make([]Item, 0, len(items))
	for _, it := range items {
		normalized = append(normalized, r.normalizeItem(it))
	}
	out := r.coalesce(normalized)
	out = dropReviewEcho(out)
	out = summarizeExploration(out)
	if len(out) > MaxItemsPerThread {
		out = out[len(out)-MaxItemsPerThread:]
	}
	return boundStaleToolOutput(out)
}

// Upsert inserts it into list by id, or merges it into the existing
// item with the same id. The incoming item is normalized first.
func (r *Reconciler) Upsert(list []Item, it Item) []Item {
	it = r.normalizeItem(it)
	out := make([]Item, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == it.ID {
			if out[i].Kind == it.Kind {
				out[i] = mergeSameKind(out[i], it)
			} else {
				out[i] = it
			}
			return out
		}
	}
	return append(out, it)
}

// Merge reconciles remote (authoritative) and local (speculative)
// timelines. Remote order is the base; ids on both sides resolve via
// the richer-item policy; local-only items append afterward in their
// original relative order. The result is not re-capped here — pass it
// back through Prepare before display.
func (r *Reconciler) Merge(remote, local []Item) []Item {
	remote = r.coalesce(remote)
	local = r.coalesce(local)

	localByID := make(map[string]Item, len(local))
	for _, it := range local {
		localByID[it.ID] = it
	}

	out := make([]Item, 0, len(remote)+len(local))
	seen := make(map[string]bool, len(remote))
	for _, rem := range remote {
		if loc, ok := localByID[rem.ID]; ok {
			out = append(out, r.chooseRicher(rem, loc))
		} else {
			out = append(out, rem)
		}
		seen[rem.ID] = true
	}
	for _, it := range local {
		if !seen[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// coalesce merges items sharing (kind, id) in arrival order, so
// at-least-once event delivery never produces two visible rows.
func (r *Reconciler) coalesce(items []Item) []Item {
	out := make([]Item, 0, len(items))
	index := make(map[itemKey]int, len(items))
	for _, it := range items {
		if i, ok := index[it.key()]; ok {
			out[i] = mergeSameKind(out[i], it)
			continue
		}
		index[it.key()] = len(out)
		out = append(out, it)
	}
	return out
}

// dropReviewEcho removes the assistant message a backend echoes right
// after review completion when its trimmed text matches the review body
// exactly.
func dropReviewEcho(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for i := 0; i < len(items); i++ {
		out = append(out, items[i])
		if items[i].Kind != KindReview || items[i].ReviewState != ReviewCompleted {
			continue
		}
		if i+1 < len(items) &&
			items[i+1].Kind == KindMessage &&
			items[i+1].Role == RoleAssistant &&
			strings.TrimSpace(items[i+1].Text) == strings.TrimSpace(items[i].Text) {
			i++
		}
	}
	return out
}

// boundStaleToolOutput truncates tool output on items older than the
// recent window, including the fileChange/commandExecution types that
// are otherwise exempt, to bound memory on long threads.
func boundStaleToolOutput(items []Item) []Item {
	cutoff := len(items) - ToolOutputRecentItems
	if cutoff <= 0 {
		return items
	}
	out := make([]Item, len(items))
	copy(out, items)
	for i := 0; i < cutoff; i++ {
		if out[i].Kind == KindTool {
			out[i] = truncateToolOutput(out[i])
		}
	}
	return out
}

// mergeSameKind merges a duplicate delivery of one logical item into
// the copy already held. Tool items merge field by field, preferring
// non-empty incoming values but never letting an empty field blank out
// known state; every other kind takes incoming fields where present and
// falls back to existing ones.
func mergeSameKind(existing, incoming Item) Item {
	if incoming.Kind == KindTool {
		return mergeToolItems(existing, incoming)
	}
	out := incoming
	if out.Role == "" {
		out.Role = existing.Role
	}
	if out.Text == "" {
		out.Text = existing.Text
	}
	if len(out.Images) == 0 {
		out.Images = existing.Images
	}
	if out.Summary == "" {
		out.Summary = existing.Summary
	}
	if out.Content == "" {
		out.Content = existing.Content
	}
	if out.Title == "" {
		out.Title = existing.Title
	}
	if out.Status == "" {
		out.Status = existing.Status
	}
	if out.Diff == "" {
		out.Diff = existing.Diff
	}
	if out.ReviewState == "" {
		out.ReviewState = existing.ReviewState
	}
	if out.ExploreStatus == "" {
		out.ExploreStatus = existing.ExploreStatus
	}
	if len(out.Entries) == 0 {
		out.Entries = existing.Entries
	}
	return out
}

// mergeToolItems protects previously known tool state from a partial or
// late-arriving event: any field the incoming item left empty keeps its
// existing value.
func mergeToolItems(existing, incoming Item) Item {
	out := existing
	if incoming.ToolType != "" {
		out.ToolType = incoming.ToolType
	}
	if incoming.Title != "" {
		out.Title = incoming.Title
	}
	if incoming.Detail != "" {
		out.Detail = incoming.Detail
	}
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if incoming.Output != "" {
		out.Output = incoming.Output
	}
	if len(incoming.Changes) > 0 {
		out.Changes = incoming.Changes
	}
	if incoming.DurationMs > 0 {
		out.DurationMs = incoming.DurationMs
	}
	return out
}

// chooseRicher resolves a same-id conflict between the remote and local
// copies of an item. Structural fields trust the backend; message
// bodies trust whichever side is more complete.
func (r *Reconciler) chooseRicher(remote, local Item) Item {
	if remote.Kind != local.Kind {
		// The backend reclassified the item; trust it.
		return remote
	}
	switch remote.Kind {
	case KindMessage:
		return r.chooseRicherMessage(remote, local)
	case KindReasoning:
		if len(local.Summary)+len(local.Content) > len(remote.Summary)+len(remote.Content) {
			return local
		}
		return remote
	case KindTool:
		return chooseRicherTool(remote, local)
	case KindDiff:
		out := remote
		if len(local.Diff) > len(remote.Diff) {
			out.Diff = local.Diff
		}
		if out.Status == "" {
			out.Status = local.Status
		}
		return out
	default:
		return mergeSameKind(local, remote)
	}
}

func (r *Reconciler) chooseRicherMessage(remote, local Item) Item {
	if remote.Role != local.Role {
		// A role mismatch signals corruption; don't guess.
		return remote
	}
	if remote.Role != RoleAssistant {
		if len(local.Text) > len(remote.Text) {
			return local
		}
		return remote
	}
	if r.norm.BetterText(remote.Text, local.Text) == local.Text {
		return local
	}
	return remote
}

// chooseRicherTool keeps the structurally richer tool item (longer
// output) but always takes status and file-change lists from remote
// when present: both are server-computed truth. Fields the winning side
// left empty backfill from the losing side, so a title or detail known
// to only one side survives the merge.
func chooseRicherTool(remote, local Item) Item {
	out, other := remote, local
	if len(local.Output) > len(remote.Output) {
		out, other = local, remote
	}
	if remote.Status != "" {
		out.Status = remote.Status
	}
	if len(remote.Changes) > 0 {
		out.Changes = remote.Changes
	}
	if out.ToolType == "" {
		out.ToolType = other.ToolType
	}
	if out.Title == "" {
		out.Title = other.Title
	}
	if out.Detail == "" {
		out.Detail = other.Detail
	}
	if out.Output == "" {
		out.Output = other.Output
	}
	if out.DurationMs == 0 {
		out.DurationMs = other.DurationMs
	}
	return out
}
