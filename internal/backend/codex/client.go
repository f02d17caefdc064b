// Package codex reads Codex CLI rollout files: JSONL records with a
// type tag and a payload object, stored under ~/.codex/sessions.
package codex

import (
	"bufio"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/convert"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

// ID identifies this backend in configuration and thread records.
const ID = "codex"

const (
	backendName = "Codex"
	backendIcon = "◆"
)

// scanner buffer large enough for single-line tool outputs.
const maxLineBytes = 10 * 1024 * 1024

func init() {
	backend.RegisterFactory(ID, func(s backend.Settings) backend.Backend {
		return New(s.DataDir)
	})
}

// Client reads Codex sessions from disk.
type Client struct {
	sessionsDir string
	threadIndex map[string]string // thread id -> rollout path
}

// New creates a Codex client. An empty sessionsDir means the default
// ~/.codex/sessions.
func New(sessionsDir string) *Client {
	if sessionsDir == "" {
		home, _ := os.UserHomeDir()
		sessionsDir = filepath.Join(home, ".codex", "sessions")
	}
	return &Client{
		sessionsDir: sessionsDir,
		threadIndex: make(map[string]string),
	}
}

func (c *Client) ID() string   { return ID }
func (c *Client) Name() string { return backendName }
func (c *Client) Icon() string { return backendIcon }

// Detect reports whether any Codex session belongs to the project.
func (c *Client) Detect(projectRoot string) (bool, error) {
	files, err := c.rolloutFiles()
	if err != nil {
		return false, err
	}
	for _, path := range files {
		info, err := c.scanFile(path, true)
		if err != nil {
			continue
		}
		if cwdMatchesProject(projectRoot, info.cwd) {
			return true, nil
		}
	}
	return false, nil
}

// Threads lists the project's sessions, most recently updated first.
func (c *Client) Threads(projectRoot string) ([]backend.Thread, error) {
	files, err := c.rolloutFiles()
	if err != nil {
		return nil, err
	}

	threads := []backend.Thread{}
	c.threadIndex = make(map[string]string)
	for _, path := range files {
		info, err := c.scanFile(path, false)
		if err != nil || info.threadID == "" {
			continue
		}
		if !cwdMatchesProject(projectRoot, info.cwd) {
			continue
		}
		threads = append(threads, backend.Thread{
			ID:          info.threadID,
			Title:       info.title,
			BackendID:   ID,
			BackendName: backendName,
			BackendIcon: backendIcon,
			CreatedAt:   info.firstSeen,
			UpdatedAt:   info.lastSeen,
			ItemCount:   info.itemCount,
			IsActive:    time.Since(info.lastSeen) < 5*time.Minute,
		})
		c.threadIndex[info.threadID] = path
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
	return threads, nil
}

// Items reads one session's timeline.
func (c *Client) Items(threadID string) ([]thread.Item, error) {
	path := c.threadIndex[threadID]
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var items []thread.Item
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		record, payload, ok := decodeLine(scanner.Bytes())
		if !ok || record.Type != "response_item" {
			continue
		}
		if it, ok := convert.Item(payload); ok {
			items = append(items, it)
		}
	}
	return items, scanner.Err()
}

// Watch emits thread events when rollout files change.
func (c *Client) Watch(projectRoot string) (<-chan backend.Event, error) {
	return backend.WatchDir(c.sessionsDir, ".jsonl")
}

func (c *Client) rolloutFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.sessionsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(path, ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return files, err
}

// scanFile reads a rollout file's metadata; with metaOnly it stops as
// soon as the session_meta record has been seen.
func (c *Client) scanFile(path string, metaOnly bool) (fileInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return fileInfo{}, err
	}
	defer file.Close()

	info := fileInfo{path: path}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		record, payload, ok := decodeLine(scanner.Bytes())
		if !ok {
			continue
		}
		if info.firstSeen.IsZero() {
			info.firstSeen = record.Timestamp
		}
		if record.Timestamp.After(info.lastSeen) {
			info.lastSeen = record.Timestamp
		}
		switch record.Type {
		case "session_meta":
			var meta sessionMeta
			if err := json.Unmarshal(record.Payload, &meta); err == nil {
				info.threadID = meta.ID
				info.cwd = meta.CWD
			}
			if metaOnly {
				return info, nil
			}
		case "response_item":
			info.itemCount++
			if info.title == "" {
				info.title = firstLine(text(payload, "text", "content", "message"))
			}
		}
	}
	return info, scanner.Err()
}

func decodeLine(line []byte) (rawRecord, map[string]any, bool) {
	var record rawRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return rawRecord{}, nil, false
	}
	payload := map[string]any{}
	if len(record.Payload) > 0 {
		_ = json.Unmarshal(record.Payload, &payload)
	}
	return record, payload, true
}

func text(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
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

// cwdMatchesProject reports whether a session's working directory is
// the project root or nested inside it.
func cwdMatchesProject(projectRoot, cwd string) bool {
	if cwd == "" {
		return false
	}
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return false
	}
	if abs == root {
		return true
	}
	return strings.HasPrefix(abs, root+string(filepath.Separator))
}
