package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/remind-go/internal/agent"
	"github.com/raphaelgruber/remind-go/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same trust model as the HTTP endpoints
	},
}

// wsFrame is one message pushed to a websocket client: progress events while
// the loop runs, then a single done or error frame.
type wsFrame struct {
	Type   string                 `json:"type"` // "tool_call" | "message" | "done" | "error"
	Event  *models.AgentEvent     `json:"event,omitempty"`
	Result *models.ConverseResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Code   string                 `json:"code,omitempty"`
}

// handleWebsocket runs one conversation per connection, streaming tool
// activity as it happens. The client sends a single converseRequest frame
// and reads until done or error.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req converseRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(wsFrame{Type: "error", Code: "invalid_request", Error: "malformed request frame"})
		return
	}
	if err := req.validate(); err != nil {
		_ = conn.WriteJSON(wsFrame{Type: "error", Code: "invalid_request", Error: err.Error()})
		return
	}

	// The loop is sequential, so event writes never interleave.
	onEvent := func(ev models.AgentEvent) {
		if err := conn.WriteJSON(wsFrame{Type: ev.Type, Event: &ev}); err != nil {
			s.logger.Debug("websocket event write failed", "error", err)
		}
	}

	result, err := s.agent.Converse(r.Context(), agent.Request{
		OwnerID:    req.OwnerID,
		Query:      req.Query,
		ClientDate: req.ClientDate,
		History:    req.History,
		OnEvent:    onEvent,
	})
	if err != nil {
		s.recordConverseFailure(err)

		code := "upstream_error"
		var exhausted *agent.ExhaustedError
		if errors.As(err, &exhausted) {
			code = "exhausted"
		}
		s.logger.Error("websocket conversation failed", "owner_id", req.OwnerID, "error", err)
		_ = conn.WriteJSON(wsFrame{Type: "error", Code: code, Error: "the assistant is temporarily unavailable, try again"})
		return
	}

	s.metrics.RecordConversation(false)
	for _, entry := range result.ToolCalls {
		s.metrics.RecordToolCall(entry.Tool)
	}
	_ = conn.WriteJSON(wsFrame{Type: "done", Result: result})
}
