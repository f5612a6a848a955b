package models

import "encoding/json"

// Turn is one prior exchange in a conversation, as supplied by the client.
// Only plain text turns cross the wire; tool-use bookkeeping stays internal
// to a single converse call.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ToolCallLogEntry records one executed tool invocation. The log is
// append-only within a request and returned to the caller for observability;
// it is not persisted.
type ToolCallLogEntry struct {
	Tool      string          `json:"tool_name"`
	Input     json.RawMessage `json:"input"`
	Result    json.RawMessage `json:"result"`
	Iteration int             `json:"iteration_index"`
}

// ConverseResult is the terminal output of one agent loop run.
type ConverseResult struct {
	Message    string             `json:"message"`
	ToolCalls  []ToolCallLogEntry `json:"tool_calls"`
	Iterations int                `json:"iterations"`
	Warning    string             `json:"warning,omitempty"`
}

// AgentEvent is a progress notification emitted while the loop runs,
// consumed by streaming transports (websocket) and the chat TUI.
type AgentEvent struct {
	Type      string          `json:"type"` // "tool_call" | "message"
	Tool      string          `json:"tool,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Message   string          `json:"message,omitempty"`
	Iteration int             `json:"iteration,omitempty"`
}
