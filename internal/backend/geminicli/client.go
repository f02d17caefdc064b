// Package geminicli reads Gemini CLI chat sessions: one JSON document
// per session under ~/.gemini/tmp/<project-hash>/chats/.
package geminicli

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/convert"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

// ID identifies this backend in configuration and thread records.
const ID = "gemini-cli"

const (
	backendName = "Gemini CLI"
	backendIcon = "★"
)

func init() {
	backend.RegisterFactory(ID, func(s backend.Settings) backend.Backend {
		return New(s.DataDir)
	})
}

// Client reads Gemini CLI sessions from disk.
type Client struct {
	tmpDir      string
	threadIndex map[string]string
}

// New creates a Gemini CLI client. An empty tmpDir means the default
// ~/.gemini/tmp.
func New(tmpDir string) *Client {
	if tmpDir == "" {
		home, _ := os.UserHomeDir()
		tmpDir = filepath.Join(home, ".gemini", "tmp")
	}
	return &Client{
		tmpDir:      tmpDir,
		threadIndex: make(map[string]string),
	}
}

func (c *Client) ID() string   { return ID }
func (c *Client) Name() string { return backendName }
func (c *Client) Icon() string { return backendIcon }

// chatsDir returns the chats directory for a project: sessions are
// keyed by the SHA-256 of the absolute project path.
func (c *Client) chatsDir(projectRoot string) string {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(c.tmpDir, hex.EncodeToString(sum[:]), "chats")
}

// Detect reports whether the project has any Gemini CLI sessions.
func (c *Client) Detect(projectRoot string) (bool, error) {
	entries, err := os.ReadDir(c.chatsDir(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	for _, entry := range entries {
		if isSessionFile(entry.Name()) {
			return true, nil
		}
	}
	return false, nil
}

// Threads lists the project's sessions, most recently updated first.
func (c *Client) Threads(projectRoot string) ([]backend.Thread, error) {
	dir := c.chatsDir(projectRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	threads := []backend.Thread{}
	c.threadIndex = make(map[string]string)
	for _, entry := range entries {
		if !isSessionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		session, err := readSession(path)
		if err != nil || session.SessionID == "" {
			continue
		}
		c.threadIndex[session.SessionID] = path

		title := ""
		count := 0
		for _, msg := range session.Messages {
			if msg.Type == "info" {
				continue
			}
			count++
			if title == "" && msg.Type == "user" && msg.Content != "" {
				title = firstLine(msg.Content)
			}
		}
		threads = append(threads, backend.Thread{
			ID:          session.SessionID,
			Title:       title,
			BackendID:   ID,
			BackendName: backendName,
			BackendIcon: backendIcon,
			CreatedAt:   session.StartTime,
			UpdatedAt:   session.LastUpdated,
			ItemCount:   count,
			IsActive:    time.Since(session.LastUpdated) < 5*time.Minute,
		})
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
	return threads, nil
}

// Items reads one session's timeline. Each message may fan out into
// thinking, tool, and text items.
func (c *Client) Items(threadID string) ([]thread.Item, error) {
	path := c.threadIndex[threadID]
	if path == "" {
		return nil, nil
	}
	session, err := readSession(path)
	if err != nil {
		return nil, err
	}

	var items []thread.Item
	for _, msg := range session.Messages {
		if msg.Type == "info" {
			continue
		}
		for i, thought := range msg.Thoughts {
			content := thought.Subject
			if thought.Description != "" {
				content = thought.Subject + ": " + thought.Description
			}
			raw := map[string]any{
				"id":      msg.ID + "-t" + strconv.Itoa(i),
				"type":    "thinking",
				"summary": thought.Subject,
				"content": content,
			}
			if it, ok := convert.Item(raw); ok {
				items = append(items, it)
			}
		}
		for _, call := range msg.ToolCalls {
			raw := map[string]any{
				"id":     call.ID,
				"type":   "tool_use",
				"tool":   call.Name,
				"title":  call.Name,
				"detail": jsonText(call.Args),
				"output": jsonText(call.Result),
				"status": call.Status,
			}
			if it, ok := convert.Item(raw); ok {
				items = append(items, it)
			}
		}
		if msg.Content != "" {
			role := msg.Type
			if role == "gemini" {
				role = "assistant"
			}
			raw := map[string]any{
				"id":   msg.ID,
				"type": "message",
				"role": role,
				"text": msg.Content,
			}
			if it, ok := convert.Item(raw); ok {
				items = append(items, it)
			}
		}
	}
	return items, nil
}

// Watch emits thread events when the project's chat files change.
// Gemini rewrites the whole session file per turn, so a directory-level
// watch on .json files is enough.
func (c *Client) Watch(projectRoot string) (<-chan backend.Event, error) {
	return backend.WatchDir(c.chatsDir(projectRoot), ".json")
}

func isSessionFile(name string) bool {
	return strings.HasPrefix(name, "session-") && strings.HasSuffix(name, ".json")
}

func readSession(path string) (*sessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var session sessionFile
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func jsonText(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
