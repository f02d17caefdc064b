package geminicli

import "time"

// sessionFile is the on-disk JSON shape of one Gemini CLI chat session.
type sessionFile struct {
	SessionID   string           `json:"sessionId"`
	ProjectHash string           `json:"projectHash"`
	StartTime   time.Time        `json:"startTime"`
	LastUpdated time.Time        `json:"lastUpdated"`
	Messages    []sessionMessage `json:"messages"`
}

// sessionMessage is one chat turn. Type is "user", "gemini", or "info";
// info rows are bookkeeping and never shown.
type sessionMessage struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Model     string        `json:"model"`
	ToolCalls []toolCall    `json:"toolCalls"`
	Thoughts  []thoughtItem `json:"thoughts"`
}

type toolCall struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Args   any    `json:"args"`
	Result any    `json:"result"`
	Status string `json:"status"`
}

type thoughtItem struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}
