package opencode

// sessionInfo is one session in the list response.
type sessionInfo struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Created int64  `json:"createdAt"`
	Updated int64  `json:"updatedAt"`
}

// messageEnvelope is one message in the session message list: metadata
// plus an ordered list of typed parts.
type messageEnvelope struct {
	Info  messageInfo   `json:"info"`
	Parts []messagePart `json:"parts"`
}

type messageInfo struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type messagePart struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Text   string         `json:"text"`
	Tool   string         `json:"tool"`
	CallID string         `json:"callID"`
	State  toolState      `json:"state"`
	Extra  map[string]any `json:"metadata"`
}

type toolState struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Input  any    `json:"input"`
	Output string `json:"output"`
}

// sseEvent is a parsed Server-Sent Event.
type sseEvent struct {
	Event string
	Data  string
	ID    string
}

// errorResponse is the error body the server returns on failures.
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
