// Package convert turns raw, loosely-shaped backend payloads into
// strict thread.Item values. Backends disagree on field casing
// (snake_case vs camelCase), nest text in arrays of blocks or plain
// strings, and omit fields freely; all of that duck typing is absorbed
// here so the reconciliation core only ever sees the tagged union.
package convert

import (
	"strings"

	"github.com/google/uuid"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

// Item builds a thread.Item from a decoded JSON object. It returns
// false when the payload does not describe a recognizable item.
func Item(raw map[string]any) (thread.Item, bool) {
	rawKind := str(raw, "kind", "type", "item_type", "itemType")
	kind := normalizeKind(rawKind)
	if kind == "" {
		return thread.Item{}, false
	}

	it := thread.Item{
		ID:   str(raw, "id", "item_id", "itemId", "call_id", "callId"),
		Kind: kind,
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}

	switch kind {
	case thread.KindMessage:
		it.Role = thread.Role(strings.ToLower(str(raw, "role")))
		if it.Role == "" {
			it.Role = thread.RoleAssistant
		}
		it.Text = text(raw, "text", "content", "message", "body")
		it.Images = strSlice(raw, "images")
	case thread.KindReasoning:
		it.Summary = text(raw, "summary", "title")
		it.Content = text(raw, "content", "text", "reasoning")
	case thread.KindTool:
		it.ToolType = normalizeToolType(str(raw, "tool_type", "toolType", "tool", "name"))
		if it.ToolType == "" {
			// Backends that type the item itself as command_execution
			// or file_change carry the tool type in the kind field.
			switch t := normalizeToolType(rawKind); t {
			case thread.ToolCommandExecution, thread.ToolFileChange:
				it.ToolType = t
			}
		}
		it.Title = text(raw, "title", "command", "query")
		it.Detail = text(raw, "detail", "description", "arguments", "input")
		it.Status = str(raw, "status", "state")
		it.Output = text(raw, "output", "result", "aggregated_output", "aggregatedOutput")
		it.Changes = changes(raw)
		it.DurationMs = integer(raw, "duration_ms", "durationMs")
	case thread.KindDiff:
		it.Title = text(raw, "title", "path")
		it.Diff = text(raw, "diff", "patch", "unified_diff", "unifiedDiff")
		it.Status = str(raw, "status", "state")
	case thread.KindReview:
		it.ReviewState = reviewState(str(raw, "state", "status"))
		it.Text = text(raw, "text", "content", "summary")
	default:
		return thread.Item{}, false
	}
	return it, true
}

// normalizeKind maps the many backend item-type spellings onto the
// item kinds the core understands.
func normalizeKind(kind string) thread.Kind {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "message", "user_message", "agent_message", "agentmessage", "usermessage", "chat":
		return thread.KindMessage
	case "reasoning", "thinking", "thought":
		return thread.KindReasoning
	case "tool", "tool_call", "toolcall", "tool_use", "tooluse",
		"command_execution", "commandexecution",
		"file_change", "filechange",
		"mcp_tool_call", "mcptoolcall",
		"web_search", "websearch":
		return thread.KindTool
	case "diff", "patch":
		return thread.KindDiff
	case "review", "review_marker", "reviewmarker":
		return thread.KindReview
	}
	return ""
}

// normalizeToolType folds the snake_case tool type spellings onto the
// camelCase names the core's truncation exemptions key on.
func normalizeToolType(toolType string) string {
	switch strings.ToLower(strings.TrimSpace(toolType)) {
	case "command_execution", "commandexecution", "shell", "bash", "exec":
		return thread.ToolCommandExecution
	case "file_change", "filechange", "apply_patch", "applypatch", "edit":
		return thread.ToolFileChange
	}
	return toolType
}

func reviewState(state string) thread.ReviewState {
	if strings.EqualFold(strings.TrimSpace(state), "completed") {
		return thread.ReviewCompleted
	}
	return thread.ReviewStarted
}

// str returns the first non-empty string value among the given keys.
func str(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// text returns the first present text value, accepting plain strings,
// arrays of strings, and arrays of {text: ...} blocks.
func text(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if s := flattenText(value); s != "" {
			return s
		}
	}
	return ""
}

func flattenText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		var parts []string
		for _, element := range v {
			if s := flattenText(element); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		return str(v, "text", "content", "value")
	}
	return ""
}

func strSlice(raw map[string]any, key string) []string {
	values, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func integer(raw map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case int:
			return int64(v)
		}
	}
	return 0
}

func changes(raw map[string]any) []thread.FileChange {
	values, ok := raw["changes"].([]any)
	if !ok {
		return nil
	}
	var out []thread.FileChange
	for _, v := range values {
		change, ok := v.(map[string]any)
		if !ok {
			continue
		}
		path := str(change, "path", "file", "filename")
		if path == "" {
			continue
		}
		out = append(out, thread.FileChange{
			Path: path,
			Kind: str(change, "kind", "type", "op"),
			Diff: text(change, "diff", "patch", "unified_diff", "unifiedDiff"),
		})
	}
	return out
}
