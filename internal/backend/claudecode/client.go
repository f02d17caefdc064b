// Package claudecode reads Claude Code transcripts: one JSONL file per
// session under ~/.claude/projects/<encoded-project-path>/.
package claudecode

import (
	"bufio"
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
const ID = "claude-code"

const (
	backendName = "Claude Code"
	backendIcon = "✳"
)

const maxLineBytes = 10 * 1024 * 1024

func init() {
	backend.RegisterFactory(ID, func(s backend.Settings) backend.Backend {
		return New(s.DataDir)
	})
}

// transcriptLine is one JSONL record in a session transcript.
type transcriptLine struct {
	Type      string          `json:"type"`
	UUID      string          `json:"uuid"`
	Timestamp time.Time       `json:"timestamp"`
	Message   json.RawMessage `json:"message"`
}

// transcriptMessage is the nested API-shaped message.
type transcriptMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Client reads Claude Code sessions from disk.
type Client struct {
	projectsDir string
	threadIndex map[string]string
}

// New creates a Claude Code client. An empty projectsDir means the
// default ~/.claude/projects.
func New(projectsDir string) *Client {
	if projectsDir == "" {
		home, _ := os.UserHomeDir()
		projectsDir = filepath.Join(home, ".claude", "projects")
	}
	return &Client{
		projectsDir: projectsDir,
		threadIndex: make(map[string]string),
	}
}

func (c *Client) ID() string   { return ID }
func (c *Client) Name() string { return backendName }
func (c *Client) Icon() string { return backendIcon }

// projectDirPath converts a project root to its transcript directory:
// the absolute path with separators replaced by dashes.
func (c *Client) projectDirPath(projectRoot string) string {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	return filepath.Join(c.projectsDir, strings.ReplaceAll(abs, "/", "-"))
}

// Detect reports whether the project has any transcripts.
func (c *Client) Detect(projectRoot string) (bool, error) {
	entries, err := os.ReadDir(c.projectDirPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".jsonl") {
			return true, nil
		}
	}
	return false, nil
}

// Threads lists the project's sessions, most recently updated first.
func (c *Client) Threads(projectRoot string) ([]backend.Thread, error) {
	dir := c.projectDirPath(projectRoot)
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
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		threadID := strings.TrimSuffix(entry.Name(), ".jsonl")
		info, err := entry.Info()
		if err != nil {
			continue
		}
		title, count := c.scanTranscript(path)
		threads = append(threads, backend.Thread{
			ID:          threadID,
			Title:       title,
			BackendID:   ID,
			BackendName: backendName,
			BackendIcon: backendIcon,
			UpdatedAt:   info.ModTime(),
			ItemCount:   count,
			IsActive:    time.Since(info.ModTime()) < 5*time.Minute,
		})
		c.threadIndex[threadID] = path
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
		items = append(items, parseLine(scanner.Bytes())...)
	}
	return items, scanner.Err()
}

// Watch emits thread events when transcripts change.
func (c *Client) Watch(projectRoot string) (<-chan backend.Event, error) {
	return backend.WatchDir(c.projectDirPath(projectRoot), ".jsonl")
}

// parseLine converts one transcript record into timeline items. A
// single assistant record may yield several items: thinking blocks,
// tool uses, and text each become their own row.
func parseLine(line []byte) []thread.Item {
	var record transcriptLine
	if err := json.Unmarshal(line, &record); err != nil {
		return nil
	}
	if record.Type != "user" && record.Type != "assistant" {
		return nil
	}
	var message transcriptMessage
	if err := json.Unmarshal(record.Message, &message); err != nil {
		return nil
	}

	// Content is either a plain string or an array of typed blocks.
	var plain string
	if err := json.Unmarshal(message.Content, &plain); err == nil {
		it, ok := convert.Item(map[string]any{
			"id":   record.UUID,
			"type": "message",
			"role": message.Role,
			"text": plain,
		})
		if !ok {
			return nil
		}
		return []thread.Item{it}
	}

	var blocks []map[string]any
	if err := json.Unmarshal(message.Content, &blocks); err != nil {
		return nil
	}
	var items []thread.Item
	for i, block := range blocks {
		raw := blockToRaw(record, message.Role, block, i)
		if raw == nil {
			continue
		}
		if it, ok := convert.Item(raw); ok {
			items = append(items, it)
		}
	}
	return items
}

func blockToRaw(record transcriptLine, role string, block map[string]any, index int) map[string]any {
	blockType, _ := block["type"].(string)
	id := record.UUID
	if index > 0 {
		id = record.UUID + "-" + strconv.Itoa(index)
	}
	switch blockType {
	case "text":
		return map[string]any{"id": id, "type": "message", "role": role, "text": block["text"]}
	case "thinking":
		return map[string]any{"id": id, "type": "thinking", "content": block["thinking"]}
	case "tool_use":
		name, _ := block["name"].(string)
		if toolID, ok := block["id"].(string); ok && toolID != "" {
			id = toolID
		}
		return map[string]any{
			"id": id, "type": "tool_use", "tool": name,
			"title": name, "input": block["input"],
		}
	case "tool_result":
		if toolID, ok := block["tool_use_id"].(string); ok && toolID != "" {
			id = toolID
		}
		return map[string]any{
			"id": id, "type": "tool_use",
			"output": block["content"],
		}
	}
	return nil
}

// scanTranscript pulls a display title (first user text) and the item
// count from a transcript.
func (c *Client) scanTranscript(path string) (string, int) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0
	}
	defer file.Close()

	title := ""
	count := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		items := parseLine(scanner.Bytes())
		count += len(items)
		if title == "" {
			for _, it := range items {
				if it.Kind == thread.KindMessage && it.Role == thread.RoleUser {
					title = firstLine(it.Text)
					break
				}
			}
		}
	}
	return title, count
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
