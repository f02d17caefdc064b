package app

import (
	"context"
	"sort"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/opencode"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/event"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/git"
)

const tickInterval = 120 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadThreadsCmd lists threads across all detected backends, newest
// first.
func loadThreadsCmd(backends map[string]backend.Backend, projectRoot string, epoch uint64) tea.Cmd {
	return func() tea.Msg {
		var all []backend.Thread
		var firstErr error
		for _, b := range backends {
			threads, err := b.Threads(projectRoot)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			all = append(all, threads...)
		}
		sort.Slice(all, func(i, j int) bool {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		})
		return threadsLoadedMsg{Epoch: epoch, Threads: all, Err: firstErr}
	}
}

// loadItemsCmd reads one thread's raw items from its backend.
func loadItemsCmd(b backend.Backend, threadID string, epoch uint64, refresh bool) tea.Cmd {
	return func() tea.Msg {
		items, err := b.Items(threadID)
		return itemsLoadedMsg{
			Epoch:    epoch,
			ThreadID: threadID,
			Items:    items,
			Refresh:  refresh,
			Err:      err,
		}
	}
}

// waitForEventCmd blocks on the dispatcher stream for the next backend
// event. Reissued from the handler to keep the pump running.
func waitForEventCmd(events <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return backendEventMsg{Event: ev, OK: ok}
	}
}

func loadGitStatusCmd(workDir string) tea.Cmd {
	return func() tea.Msg {
		status, err := git.CurrentStatus(workDir)
		if err != nil {
			return gitStatusMsg{Err: err}
		}
		if status.Branch == "" {
			if branch, err := git.CurrentBranch(workDir); err == nil {
				status.Branch = branch
			}
		}
		var added, removed int
		if !status.Clean() {
			added, removed, _ = git.DiffStat(workDir, ".", false)
		}
		return gitStatusMsg{Status: status, Added: added, Removed: removed}
	}
}

// loadGitDiffCmd reads the unstaged working-tree diff for the overlay.
func loadGitDiffCmd(workDir string) tea.Cmd {
	return func() tea.Msg {
		diff, err := git.Diff(workDir, ".", false)
		return gitDiffMsg{Diff: diff, Err: err}
	}
}

// sendPromptCmd submits the composer text to an OpenCode session.
func sendPromptCmd(client *opencode.Client, threadID, content string, epoch uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := client.SendMessage(ctx, threadID, content)
		return promptSentMsg{Epoch: epoch, ThreadID: threadID, Err: err}
	}
}

// copyCmd writes text to the system clipboard.
func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{Err: clipboard.WriteAll(text)}
	}
}
