// Package thread implements the conversation timeline engine: item
// normalization, exploration summarization, and reconciliation of
// remote (backend-authoritative) and local (speculative) item lists.
//
// Every function in this package is pure: inputs are never mutated and
// all operations are total over well-formed items. Backends are
// inconsistent about duplicate delivery, ordering, and text quality, so
// the engine is built to be idempotent and to fail toward preserving
// the original content when a heuristic does not clearly apply.
package thread

// Kind discriminates the Item union.
type Kind string

const (
	KindMessage   Kind = "message"
	KindReasoning Kind = "reasoning"
	KindTool      Kind = "tool"
	KindDiff      Kind = "diff"
	KindReview    Kind = "review"
	KindExplore   Kind = "explore"
)

// Role identifies the author of a message item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ReviewState marks the phase of a review item.
type ReviewState string

const (
	ReviewStarted   ReviewState = "started"
	ReviewCompleted ReviewState = "completed"
)

// ExploreStatus marks whether an explore run is still producing output.
type ExploreStatus string

const (
	StatusExploring ExploreStatus = "exploring"
	StatusExplored  ExploreStatus = "explored"
)

// Tool types that carry output the user needs verbatim. Their output and
// diffs are exempt from per-item truncation while the item is recent.
const (
	ToolCommandExecution = "commandExecution"
	ToolFileChange       = "fileChange"
)

// Size bounds applied by the normalization pipeline.
const (
	// MaxItemsPerThread caps a timeline; oldest items are dropped first.
	MaxItemsPerThread = 200
	// MaxItemText bounds message, reasoning, diff, and tool output bodies.
	MaxItemText = 20000
	// MaxToolTitle and MaxToolDetail bound the tool header fields.
	MaxToolTitle  = 200
	MaxToolDetail = 2000
	// ToolOutputRecentItems is how many trailing items keep exempt tool
	// output untruncated; anything older is bounded retroactively.
	ToolOutputRecentItems = 40
)

// FileChange is a single file edit reported by a tool invocation.
type FileChange struct {
	Path string `json:"path"`
	Kind string `json:"kind,omitempty"` // add, delete, update
	Diff string `json:"diff,omitempty"`
}

// EntryKind classifies one step of an exploration run.
type EntryKind string

const (
	EntryRead   EntryKind = "read"
	EntryList   EntryKind = "list"
	EntrySearch EntryKind = "search"
)

// ExploreEntry is one summarized read/list/search action.
type ExploreEntry struct {
	Kind   EntryKind `json:"kind"`
	Label  string    `json:"label"`
	Detail string    `json:"detail,omitempty"`
}

// Item is one entry in a thread timeline. It is a tagged union
// discriminated by Kind; only the fields for the active kind are
// meaningful. IDs are stable within a thread and never reused.
//
// Explore items are synthetic: they are derived from commandExecution
// tool items and borrow that item's ID.
type Item struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// message
	Role   Role     `json:"role,omitempty"`
	Text   string   `json:"text,omitempty"` // also review body text
	Images []string `json:"images,omitempty"`

	// reasoning
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`

	// tool
	ToolType   string       `json:"toolType,omitempty"`
	Title      string       `json:"title,omitempty"` // also diff title
	Detail     string       `json:"detail,omitempty"`
	Status     string       `json:"status,omitempty"` // free-text backend status
	Output     string       `json:"output,omitempty"`
	Changes    []FileChange `json:"changes,omitempty"`
	DurationMs int64        `json:"durationMs,omitempty"`

	// diff
	Diff string `json:"diff,omitempty"`

	// review
	ReviewState ReviewState `json:"reviewState,omitempty"`

	// explore
	ExploreStatus ExploreStatus  `json:"exploreStatus,omitempty"`
	Entries       []ExploreEntry `json:"entries,omitempty"`
}

// itemKey identifies an item for coalescing. Two physical rows with the
// same key are duplicate deliveries of one logical item.
type itemKey struct {
	kind Kind
	id   string
}

func (it Item) key() itemKey { return itemKey{kind: it.Kind, id: it.ID} }
