// Package opencode talks to a running OpenCode server over HTTP. Unlike
// the file-based backends it also supports sending prompts and aborting
// generation, and its watch channel is fed by the server's SSE stream.
package opencode

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/convert"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

// ID identifies this backend in configuration and thread records.
const ID = "opencode"

const (
	backendName = "OpenCode"
	backendIcon = "●"

	// DefaultBaseURL is where a locally started server listens.
	DefaultBaseURL = "http://localhost:4096"
)

func init() {
	backend.RegisterFactory(ID, func(s backend.Settings) backend.Backend {
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		return New(baseURL, "")
	})
}

// Client is an OpenCode server client scoped to one project directory.
type Client struct {
	baseURL    string
	projectDir string
	httpClient *http.Client
}

// New creates a client for the server at baseURL, scoping all requests
// to projectDir via the directory query parameter.
func New(baseURL, projectDir string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		projectDir: projectDir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) ID() string   { return ID }
func (c *Client) Name() string { return backendName }
func (c *Client) Icon() string { return backendIcon }

// Detect reports whether an OpenCode server is reachable.
func (c *Client) Detect(projectRoot string) (bool, error) {
	c.projectDir = projectRoot
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return false, nil
	}
	return true, nil
}

// Ping checks server reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/session"), nil)
	if err != nil {
		return fmt.Errorf("opencode: ping: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opencode: server unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.errorFrom("ping", resp)
	}
	return nil
}

// Threads lists the server's sessions, most recently updated first.
func (c *Client) Threads(projectRoot string) ([]backend.Thread, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/session"), nil)
	if err != nil {
		return nil, fmt.Errorf("opencode: list sessions: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opencode: list sessions: request failed (OpenCode may not be running): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFrom("list sessions", resp)
	}

	var sessions []sessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("opencode: list sessions: decode response: %w", err)
	}

	threads := make([]backend.Thread, 0, len(sessions))
	for _, session := range sessions {
		updated := time.UnixMilli(session.Updated)
		threads = append(threads, backend.Thread{
			ID:          session.ID,
			Title:       session.Title,
			BackendID:   ID,
			BackendName: backendName,
			BackendIcon: backendIcon,
			CreatedAt:   time.UnixMilli(session.Created),
			UpdatedAt:   updated,
			IsActive:    time.Since(updated) < 5*time.Minute,
		})
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
	return threads, nil
}

// Items reads one session's timeline from the server.
func (c *Client) Items(threadID string) ([]thread.Item, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := fmt.Sprintf("/session/%s/message", url.PathEscape(threadID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("opencode: list messages: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opencode: list messages: request failed (OpenCode may not be running): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFrom("list messages", resp)
	}

	var messages []messageEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("opencode: list messages: decode response: %w", err)
	}

	var items []thread.Item
	for _, message := range messages {
		for _, part := range message.Parts {
			raw := partToRaw(message.Info, part)
			if raw == nil {
				continue
			}
			if it, ok := convert.Item(raw); ok {
				items = append(items, it)
			}
		}
	}
	return items, nil
}

// partToRaw maps one message part onto the loose payload shape the
// converter understands.
func partToRaw(info messageInfo, part messagePart) map[string]any {
	id := part.ID
	if id == "" {
		id = info.ID
	}
	switch part.Type {
	case "text":
		if strings.TrimSpace(part.Text) == "" {
			return nil
		}
		return map[string]any{"id": id, "type": "message", "role": info.Role, "text": part.Text}
	case "reasoning":
		return map[string]any{"id": id, "type": "reasoning", "content": part.Text}
	case "tool":
		if part.CallID != "" {
			id = part.CallID
		}
		detail := ""
		if part.State.Input != nil {
			if data, err := json.Marshal(part.State.Input); err == nil {
				detail = string(data)
			}
		}
		return map[string]any{
			"id": id, "type": "tool_use", "tool": part.Tool,
			"title": part.State.Title, "detail": detail,
			"status": part.State.Status, "output": part.State.Output,
		}
	}
	return nil
}

// SendMessage submits a prompt to a session.
func (c *Client) SendMessage(ctx context.Context, sessionID, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("opencode: send message: encode request: %w", err)
	}
	path := fmt.Sprintf("/session/%s/message", url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("opencode: send message: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opencode: send message: request failed (OpenCode may not be running): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFrom("send message", resp)
	}
	return nil
}

// CreateSession starts a new session on the server.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/session"), nil)
	if err != nil {
		return "", fmt.Errorf("opencode: create session: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("opencode: create session: request failed (OpenCode may not be running): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.errorFrom("create session", resp)
	}
	var out sessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("opencode: create session: decode response: %w", err)
	}
	return out.ID, nil
}

// AbortGeneration cancels in-flight generation for a session.
func (c *Client) AbortGeneration(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/session/%s/abort", url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("opencode: abort generation: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opencode: abort generation: request failed (OpenCode may not be running): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFrom("abort generation", resp)
	}
	return nil
}

// Watch bridges the server's SSE stream onto backend events. The stream
// ends when the server goes away; the channel closes with it.
func (c *Client) Watch(projectRoot string) (<-chan backend.Event, error) {
	sse, err := c.streamEvents(context.Background())
	if err != nil {
		return nil, err
	}

	events := make(chan backend.Event, 32)
	go func() {
		defer close(events)
		for ev := range sse {
			var payload struct {
				SessionID string `json:"sessionID"`
			}
			_ = json.Unmarshal([]byte(ev.Data), &payload)
			if payload.SessionID == "" {
				continue
			}
			eventType := backend.EventThreadUpdated
			if ev.Event == "session.created" {
				eventType = backend.EventThreadCreated
			}
			select {
			case events <- backend.Event{Type: eventType, ThreadID: payload.SessionID}:
			default:
			}
		}
	}()
	return events, nil
}

// streamEvents opens the SSE endpoint and parses event blocks.
func (c *Client) streamEvents(ctx context.Context) (<-chan sseEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/event"), nil)
	if err != nil {
		return nil, fmt.Errorf("opencode: stream events: %w", err)
	}
	// No client timeout on a long-lived stream.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opencode: stream events: request failed (OpenCode may not be running): %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.errorFrom("stream events", resp)
	}

	ch := make(chan sseEvent)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		current := sseEvent{}
		emit := func(ev sseEvent) bool {
			if ev.Event == "" && ev.Data == "" && ev.ID == "" {
				return true
			}
			select {
			case <-ctx.Done():
				return false
			case ch <- ev:
				return true
			}
		}

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if !emit(current) {
					return
				}
				current = sseEvent{}
				continue
			}
			switch {
			case strings.HasPrefix(line, "event: "):
				current.Event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				current.Data += strings.TrimPrefix(line, "data: ")
			case strings.HasPrefix(line, "id: "):
				current.ID = strings.TrimPrefix(line, "id: ")
			}
		}
		_ = emit(current)
	}()
	return ch, nil
}

func (c *Client) errorFrom(operation string, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("opencode: %s: status %d: read error body: %w", operation, resp.StatusCode, err)
	}
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		if apiErr.Code != 0 {
			return fmt.Errorf("opencode: %s: status %d: %s (code=%d)", operation, resp.StatusCode, apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("opencode: %s: status %d: %s", operation, resp.StatusCode, apiErr.Error)
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("opencode: %s: status %d", operation, resp.StatusCode)
	}
	return fmt.Errorf("opencode: %s: status %d: %s", operation, resp.StatusCode, msg)
}

func (c *Client) url(path string) string {
	if c.projectDir == "" {
		return c.baseURL + path
	}
	return fmt.Sprintf("%s%s?directory=%s", c.baseURL, path, url.QueryEscape(c.projectDir))
}
