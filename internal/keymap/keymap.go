// Package keymap resolves key presses to application actions. User
// overrides from the config file take precedence over the defaults.
package keymap

// Action identifies something the application can do in response to a
// key press.
type Action string

const (
	ActionQuit          Action = "quit"
	ActionCyclePane     Action = "cycle-pane"
	ActionPrevThread    Action = "prev-thread"
	ActionNextThread    Action = "next-thread"
	ActionReload        Action = "reload"
	ActionCopyThread    Action = "copy-thread"
	ActionFocusTimeline Action = "focus-timeline"
	ActionGitDiff       Action = "git-diff"
)

// defaultBindings maps key strings (bubbletea's KeyMsg.String form) to
// actions.
var defaultBindings = map[string]Action{
	"ctrl+c": ActionQuit,
	"tab":    ActionCyclePane,
	"up":     ActionPrevThread,
	"k":      ActionPrevThread,
	"down":   ActionNextThread,
	"j":      ActionNextThread,
	"r":      ActionReload,
	"y":      ActionCopyThread,
	"enter":  ActionFocusTimeline,
	"g":      ActionGitDiff,
}

var knownActions = map[Action]bool{
	ActionQuit:          true,
	ActionCyclePane:     true,
	ActionPrevThread:    true,
	ActionNextThread:    true,
	ActionReload:        true,
	ActionCopyThread:    true,
	ActionFocusTimeline: true,
	ActionGitDiff:       true,
}

// Map holds the effective bindings.
type Map struct {
	overrides map[string]Action
}

// New builds a Map from config overrides (key -> action name). Unknown
// action names are ignored so a stale config cannot shadow a key with a
// binding that does nothing.
func New(overrides map[string]string) *Map {
	m := &Map{overrides: make(map[string]Action)}
	for key, name := range overrides {
		if action := Action(name); knownActions[action] {
			m.overrides[key] = action
		}
	}
	return m
}

// Lookup resolves a key to an action. Overrides win over defaults.
func (m *Map) Lookup(key string) (Action, bool) {
	if action, ok := m.overrides[key]; ok {
		return action, true
	}
	action, ok := defaultBindings[key]
	return action, ok
}
