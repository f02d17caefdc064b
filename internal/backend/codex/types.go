package codex

import (
	"encoding/json"
	"time"
)

// rawRecord is a single JSONL line in a Codex rollout file.
type rawRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// sessionMeta holds the metadata record at the top of a rollout file.
type sessionMeta struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	CWD       string    `json:"cwd"`
}

// fileInfo aggregates what Threads needs from one rollout file.
type fileInfo struct {
	path      string
	threadID  string
	cwd       string
	firstSeen time.Time
	lastSeen  time.Time
	itemCount int
	title     string
}
