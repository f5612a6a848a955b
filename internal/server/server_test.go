package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/remind-go/internal/agent"
	"github.com/raphaelgruber/remind-go/internal/llm"
	"github.com/raphaelgruber/remind-go/internal/metrics"
	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/raphaelgruber/remind-go/internal/service"
)

type fakeConverser struct {
	result *models.ConverseResult
	err    error
	events []models.AgentEvent
}

func (f *fakeConverser) Converse(_ context.Context, req agent.Request) (*models.ConverseResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, ev := range f.events {
		if req.OnEvent != nil {
			req.OnEvent(ev)
		}
	}
	return f.result, nil
}

type fakeSearcher struct {
	result *models.SearchResult
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, _ service.SearchRequest) (*models.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestServer(conv Converser, search Searcher) *Server {
	return New("0", conv, search, metrics.NewCollector(), slog.Default())
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleConverse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		conv := &fakeConverser{result: &models.ConverseResult{
			Message:    "Saved it.",
			Iterations: 2,
			ToolCalls: []models.ToolCallLogEntry{
				{Tool: "create_reminder", Input: json.RawMessage(`{}`), Result: json.RawMessage(`{"success":true}`), Iteration: 1},
			},
		}}
		srv := newTestServer(conv, &fakeSearcher{})

		rec := postJSON(t, srv.Handler(), "/converse", map[string]any{
			"owner_id": "u1", "query": "remind me to call mom tomorrow",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result models.ConverseResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "Saved it.", result.Message)
		assert.Len(t, result.ToolCalls, 1)
	})

	t.Run("missing fields", func(t *testing.T) {
		srv := newTestServer(&fakeConverser{}, &fakeSearcher{})

		rec := postJSON(t, srv.Handler(), "/converse", map[string]any{"query": "hi"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = postJSON(t, srv.Handler(), "/converse", map[string]any{"owner_id": "u1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = postJSON(t, srv.Handler(), "/converse", map[string]any{
			"owner_id": "u1", "query": "hi", "client_date": "June 5th",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(&fakeConverser{}, &fakeSearcher{})
		req := httptest.NewRequest(http.MethodPost, "/converse", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("exhaustion maps to its own code", func(t *testing.T) {
		conv := &fakeConverser{err: &agent.ExhaustedError{Iterations: 5}}
		srv := newTestServer(conv, &fakeSearcher{})

		rec := postJSON(t, srv.Handler(), "/converse", map[string]any{"owner_id": "u1", "query": "x"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "exhausted", body["code"])
	})

	t.Run("provider auth failure maps to provider_error", func(t *testing.T) {
		conv := &fakeConverser{err: fmt.Errorf("chat: %w", llm.ErrFatalAPI)}
		srv := newTestServer(conv, &fakeSearcher{})

		rec := postJSON(t, srv.Handler(), "/converse", map[string]any{"owner_id": "u1", "query": "x"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "provider_error", body["code"])
	})

	t.Run("infrastructure failure is retryable, not conversational", func(t *testing.T) {
		conv := &fakeConverser{err: errors.New("store unreachable")}
		srv := newTestServer(conv, &fakeSearcher{})

		rec := postJSON(t, srv.Handler(), "/converse", map[string]any{"owner_id": "u1", "query": "x"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "upstream_error", body["code"])
		assert.Contains(t, body["error"], "try again")
	})
}

func TestHandleSearch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		search := &fakeSearcher{result: &models.SearchResult{
			Answer:   "You have 1 reminder for 2025-06-10:\n- Dentist at 14:30",
			FollowUp: "Want to change it?",
			Evidence: []models.EvidenceItem{{ReminderID: "r1", Title: "Dentist", Score: 1.0}},
		}}
		srv := newTestServer(&fakeConverser{}, search)

		rec := postJSON(t, srv.Handler(), "/search", map[string]any{
			"owner_id": "u1", "query": "today", "client_date": "2025-06-10",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result models.SearchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.Len(t, result.Evidence, 1)
		assert.Equal(t, 1.0, result.Evidence[0].Score)
	})

	t.Run("validation", func(t *testing.T) {
		search := &fakeSearcher{err: fmt.Errorf("%w: bad range", service.ErrInvalidInput)}
		srv := newTestServer(&fakeConverser{}, search)

		rec := postJSON(t, srv.Handler(), "/search", map[string]any{"owner_id": "u1", "query": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("infrastructure", func(t *testing.T) {
		search := &fakeSearcher{err: errors.New("vector index gone")}
		srv := newTestServer(&fakeConverser{}, search)

		rec := postJSON(t, srv.Handler(), "/search", map[string]any{"owner_id": "u1", "query": "x"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHealthAndStats(t *testing.T) {
	conv := &fakeConverser{result: &models.ConverseResult{
		Message: "ok", Iterations: 1,
		ToolCalls: []models.ToolCallLogEntry{
			{Tool: "search_reminders", Input: json.RawMessage(`{}`), Result: json.RawMessage(`{}`), Iteration: 1},
		},
	}}
	srv := newTestServer(conv, &fakeSearcher{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	postJSON(t, srv.Handler(), "/converse", map[string]any{"owner_id": "u1", "query": "x"})

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.Conversations)
	assert.Equal(t, int64(1), snap.ToolCalls["search_reminders"])
}

func TestWebsocketStreaming(t *testing.T) {
	conv := &fakeConverser{
		result: &models.ConverseResult{Message: "Done.", Iterations: 2},
		events: []models.AgentEvent{
			{Type: "tool_call", Tool: "search_reminders", Iteration: 1},
			{Type: "message", Message: "Done.", Iteration: 2},
		},
	}
	srv := newTestServer(conv, &fakeSearcher{})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"owner_id": "u1", "query": "find gym"}))

	types := []string{}
	for {
		var frame wsFrame
		require.NoError(t, conn.ReadJSON(&frame))
		types = append(types, frame.Type)
		if frame.Type == "done" {
			assert.Equal(t, "Done.", frame.Result.Message)
			break
		}
		if frame.Type == "error" {
			t.Fatalf("unexpected error frame: %+v", frame)
		}
	}
	assert.Equal(t, []string{"tool_call", "message", "done"}, types)
}

func TestWebsocketInvalidRequest(t *testing.T) {
	srv := newTestServer(&fakeConverser{}, &fakeSearcher{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"query": "no owner"}))

	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame.Type)
	assert.Equal(t, "invalid_request", frame.Code)
}
