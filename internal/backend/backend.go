// Package backend defines the narrow interface the client uses to talk
// to AI coding-agent backends. Each backend package (codex, claudecode,
// geminicli, opencode) registers a factory here; the reconciliation
// core never sees anything below this boundary.
package backend

import (
	"time"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

// Backend provides access to one agent's threads and timeline items.
type Backend interface {
	ID() string
	Name() string
	Icon() string
	Detect(projectRoot string) (bool, error)
	Threads(projectRoot string) ([]Thread, error)
	Items(threadID string) ([]thread.Item, error)
	Watch(projectRoot string) (<-chan Event, error)
}

// Thread is one conversation session with a backend.
type Thread struct {
	ID          string
	Title       string
	BackendID   string
	BackendName string
	BackendIcon string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ItemCount   int
	IsActive    bool
}

// EventType identifies the kind of backend watch event.
type EventType string

const (
	EventThreadCreated EventType = "thread_created"
	EventThreadUpdated EventType = "thread_updated"
)

// Event signals a change in a backend's session data.
type Event struct {
	Type     EventType
	ThreadID string
}

// Settings carries per-backend construction options resolved from the
// config file. Zero values mean "use the backend's defaults".
type Settings struct {
	Enabled bool
	DataDir string // file-based backends: session data root
	BaseURL string // HTTP backends: server endpoint
}

type registration struct {
	id      string
	factory func(Settings) Backend
}

// factories holds registered backend constructors in registration order.
var factories []registration

// RegisterFactory registers a backend constructor under its id. Called
// from backend package init functions.
func RegisterFactory(id string, factory func(Settings) Backend) {
	factories = append(factories, registration{id: id, factory: factory})
}

// Detect scans for backends with data for the given project. A backend
// with no settings entry is enabled with defaults; an entry with
// Enabled false is skipped entirely.
func Detect(projectRoot string, settings map[string]Settings) (map[string]Backend, error) {
	backends := make(map[string]Backend)
	for _, reg := range factories {
		s, configured := settings[reg.id]
		if configured && !s.Enabled {
			continue
		}
		instance := reg.factory(s)
		detected, err := instance.Detect(projectRoot)
		if err != nil || !detected {
			continue
		}
		backends[instance.ID()] = instance
	}
	return backends, nil
}
