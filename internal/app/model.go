// Package app is the bubbletea application: a thread list on the left,
// the conversation timeline on the right, and a composer underneath.
// All timeline content flows through the thread reconciler, so views
// only ever see normalized items.
package app

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/opencode"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/config"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/event"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/git"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/keymap"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/markdown"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/prefs"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/ui"
)

// pane identifies which pane has focus.
type pane int

const (
	paneThreads pane = iota
	paneTimeline
	paneComposer
)

const (
	prefLastThread    = "last-thread"
	prefComposerDraft = "composer-draft"
)

// Model is the application state.
type Model struct {
	cfg      *config.Config
	logger   *slog.Logger
	workDir  string
	repoName string

	backends   map[string]backend.Backend
	dispatcher *event.Dispatcher
	store      *prefs.Store
	keys       *keymap.Map

	reconciler *thread.Reconciler
	renderer   *markdown.Renderer

	// Thread list.
	threads  []backend.Thread
	selected int

	// Timeline for the selected thread. items is the reconciled view;
	// it is what Upsert and Merge operate on.
	items    []thread.Item
	timeline viewport.Model

	// Composer.
	composer textarea.Model

	focus   pane
	spinner ui.Spinner

	gitStatus  git.Status
	gitAdded   int
	gitRemoved int

	// gitDiff, when non-empty, overlays the timeline with the working
	// tree diff until dismissed.
	gitDiff string

	// epoch increments on every thread switch; async messages carrying
	// an older epoch are dropped.
	epoch uint64

	width, height int
	ready         bool
	statusMsg     string
	statusIsErr   bool
	loading       bool
}

// New creates the application model. store may be nil (preferences are
// then not persisted).
func New(cfg *config.Config, backends map[string]backend.Backend, workDir string, store *prefs.Store, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	composer := textarea.New()
	composer.Placeholder = "Message the agent (enter to send, shift+enter for newline)"
	composer.SetHeight(3)
	composer.ShowLineNumbers = false
	composer.CharLimit = 0

	m := Model{
		cfg:        cfg,
		logger:     logger,
		workDir:    workDir,
		repoName:   git.RepoName(workDir),
		backends:   backends,
		dispatcher: event.NewDispatcher(),
		store:      store,
		keys:       keymap.New(cfg.Keymap.Overrides),
		reconciler: thread.NewReconciler(cfg.ThreadTuning()),
		renderer:   markdown.NewRenderer(logger),
		timeline:   viewport.New(0, 0),
		composer:   composer,
		focus:      paneThreads,
		spinner:    ui.NewSpinner(),
	}
	if store != nil {
		if draft, err := store.Get(prefComposerDraft); err == nil && draft != "" {
			m.composer.SetValue(draft)
		}
	}
	return m
}

// Init starts the watchers and the initial loads.
func (m Model) Init() tea.Cmd {
	for id, b := range m.backends {
		events, err := b.Watch(m.workDir)
		if err != nil {
			m.logger.Warn("backend watch failed", "backend", id, "error", err)
			continue
		}
		m.dispatcher.AddSource(id, events)
	}
	return tea.Batch(
		tickCmd(),
		loadThreadsCmd(m.backends, m.workDir, m.epoch),
		loadGitStatusCmd(m.workDir),
		waitForEventCmd(m.dispatcher.Events()),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.spinner.Tick()
		return m, tickCmd()

	case threadsLoadedMsg:
		if msg.Epoch != m.epoch {
			return m, nil
		}
		if msg.Err != nil {
			m.setStatus("load threads: "+msg.Err.Error(), true)
		}
		m.threads = msg.Threads
		if m.selected >= len(m.threads) {
			m.selected = 0
		}
		if len(m.threads) > 0 {
			return m, m.selectThread(m.restoredSelection())
		}
		return m, nil

	case itemsLoadedMsg:
		return m.handleItemsLoaded(msg)

	case backendEventMsg:
		return m.handleBackendEvent(msg)

	case gitStatusMsg:
		if msg.Err == nil {
			m.gitStatus = msg.Status
			m.gitAdded = msg.Added
			m.gitRemoved = msg.Removed
		}
		return m, nil

	case gitDiffMsg:
		if msg.Err != nil {
			m.setStatus("git diff: "+msg.Err.Error(), true)
			return m, nil
		}
		if strings.TrimSpace(msg.Diff) == "" {
			m.setStatus("working tree clean", false)
			return m, nil
		}
		m.gitDiff = msg.Diff
		m.refreshTimeline()
		m.timeline.GotoTop()
		return m, nil

	case promptSentMsg:
		m.spinner.Stop()
		if msg.Err != nil {
			m.setStatus("send: "+msg.Err.Error(), true)
			return m, nil
		}
		if msg.Epoch == m.epoch {
			m.composer.Reset()
			m.saveDraft("")
			if current := m.currentThread(); current != nil {
				if b := m.backends[current.BackendID]; b != nil {
					return m, loadItemsCmd(b, current.ID, m.epoch, true)
				}
			}
		}
		return m, nil

	case copiedMsg:
		if msg.Err != nil {
			m.setStatus("copy: "+msg.Err.Error(), true)
		} else {
			m.setStatus("copied", false)
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	listWidth := m.listWidth()
	// list + divider + timeline + scrollbar column
	timelineWidth := m.width - listWidth - 4
	composerHeight := m.composer.Height() + 2

	m.timeline.Width = timelineWidth
	m.timeline.Height = m.height - composerHeight - 2
	m.composer.SetWidth(timelineWidth)
	m.refreshTimeline()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, bound := m.keys.Lookup(msg.String())

	// Quit and pane cycling work regardless of focus.
	if bound {
		switch action {
		case keymap.ActionQuit:
			m.dispatcher.Stop()
			m.saveDraft(m.composer.Value())
			return m, tea.Quit
		case keymap.ActionCyclePane:
			m.focus = (m.focus + 1) % 3
			if m.focus == paneComposer {
				m.composer.Focus()
			} else {
				m.composer.Blur()
			}
			return m, nil
		}
	}

	// esc dismisses the git diff overlay from any non-composer pane.
	if m.gitDiff != "" && m.focus != paneComposer && msg.String() == "esc" {
		m.gitDiff = ""
		m.refreshTimeline()
		return m, nil
	}

	switch m.focus {
	case paneThreads:
		if bound {
			return m.handleThreadListAction(action)
		}
		return m, nil
	case paneComposer:
		return m.handleComposerKey(msg)
	default:
		return m.updateFocused(msg)
	}
}

func (m Model) handleThreadListAction(action keymap.Action) (tea.Model, tea.Cmd) {
	switch action {
	case keymap.ActionPrevThread:
		if m.selected > 0 {
			return m, m.selectThread(m.selected - 1)
		}
	case keymap.ActionNextThread:
		if m.selected < len(m.threads)-1 {
			return m, m.selectThread(m.selected + 1)
		}
	case keymap.ActionFocusTimeline:
		m.focus = paneTimeline
		return m, nil
	case keymap.ActionReload:
		return m, tea.Batch(
			loadThreadsCmd(m.backends, m.workDir, m.epoch),
			loadGitStatusCmd(m.workDir),
		)
	case keymap.ActionCopyThread:
		return m, copyCmd(m.exportThread())
	case keymap.ActionGitDiff:
		return m, loadGitDiffCmd(m.workDir)
	}
	return m, nil
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitPrompt()
	case "esc":
		m.composer.Blur()
		m.focus = paneTimeline
		return m, nil
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	m.saveDraft(m.composer.Value())
	return m, cmd
}

// submitPrompt sends the composer content to the selected thread's
// backend. Only OpenCode accepts input; file-based backends are
// read-only mirrors of their CLI sessions.
func (m Model) submitPrompt() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.composer.Value())
	if content == "" {
		return m, nil
	}
	current := m.currentThread()
	if current == nil {
		return m, nil
	}
	client, ok := m.backends[current.BackendID].(*opencode.Client)
	if !ok {
		m.setStatus(current.BackendName+" sessions are read-only here", true)
		return m, nil
	}
	m.spinner.Start()
	return m, sendPromptCmd(client, current.ID, content, m.epoch)
}

func (m Model) handleItemsLoaded(msg itemsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Epoch != m.epoch {
		return m, nil
	}
	m.loading = false
	if msg.Err != nil {
		m.setStatus("load items: "+msg.Err.Error(), true)
		return m, nil
	}

	remote := m.reconciler.Prepare(msg.Items)
	if msg.Refresh && len(m.items) > 0 {
		// A watch-triggered reload merges with what is on screen so
		// locally richer content survives a terser remote snapshot.
		// Merge does not re-cap or re-summarize; Prepare does.
		m.items = m.reconciler.Prepare(m.reconciler.Merge(remote, m.items))
	} else {
		m.items = remote
	}
	m.refreshTimeline()
	m.timeline.GotoBottom()
	return m, nil
}

func (m Model) handleBackendEvent(msg backendEventMsg) (tea.Model, tea.Cmd) {
	if !msg.OK {
		return m, nil
	}
	cmds := []tea.Cmd{waitForEventCmd(m.dispatcher.Events())}

	current := m.currentThread()
	if current != nil && msg.Event.ThreadID == current.ID {
		if b := m.backends[current.BackendID]; b != nil {
			cmds = append(cmds, loadItemsCmd(b, current.ID, m.epoch, true))
		}
	}
	if msg.Event.Type == backend.EventThreadCreated {
		cmds = append(cmds, loadThreadsCmd(m.backends, m.workDir, m.epoch))
	}
	return m, tea.Batch(cmds...)
}

// selectThread switches selection, bumps the epoch so in-flight loads
// for the old thread are dropped, and starts loading the new one.
func (m *Model) selectThread(index int) tea.Cmd {
	if index < 0 || index >= len(m.threads) {
		return nil
	}
	m.selected = index
	m.epoch++
	m.items = nil
	m.gitDiff = ""
	m.loading = true

	current := m.threads[index]
	if m.store != nil {
		_ = m.store.Set(prefLastThread, current.ID)
	}
	b := m.backends[current.BackendID]
	if b == nil {
		m.loading = false
		return nil
	}
	return loadItemsCmd(b, current.ID, m.epoch, false)
}

// restoredSelection returns the index of the last-selected thread, or
// the current selection when it is gone.
func (m Model) restoredSelection() int {
	if m.store == nil {
		return m.selected
	}
	lastID, err := m.store.Get(prefLastThread)
	if err != nil || lastID == "" {
		return m.selected
	}
	for i, t := range m.threads {
		if t.ID == lastID {
			return i
		}
	}
	return m.selected
}

func (m Model) currentThread() *backend.Thread {
	if m.selected < 0 || m.selected >= len(m.threads) {
		return nil
	}
	return &m.threads[m.selected]
}

// ApplyStreamItem folds one streamed item into the timeline. Exposed
// for the SSE-driven update path. Upsert does not cap the timeline, so
// the result goes back through Prepare.
func (m *Model) ApplyStreamItem(it thread.Item) {
	m.items = m.reconciler.Prepare(m.reconciler.Upsert(m.items, it))
	m.refreshTimeline()
	m.timeline.GotoBottom()
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case paneTimeline:
		m.timeline, cmd = m.timeline.Update(msg)
	case paneComposer:
		m.composer, cmd = m.composer.Update(msg)
	}
	return m, cmd
}

func (m *Model) setStatus(text string, isErr bool) {
	m.statusMsg = text
	m.statusIsErr = isErr
	if isErr {
		m.logger.Warn("status", "message", text)
	}
}

func (m Model) saveDraft(draft string) {
	if m.store == nil {
		return
	}
	if draft == "" {
		_ = m.store.Delete(prefComposerDraft)
		return
	}
	_ = m.store.Set(prefComposerDraft, draft)
}

func (m Model) listWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	if w > 48 {
		w = 48
	}
	return w
}
