// Package server exposes the conversation core over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/raphaelgruber/remind-go/internal/agent"
	"github.com/raphaelgruber/remind-go/internal/db"
	"github.com/raphaelgruber/remind-go/internal/llm"
	"github.com/raphaelgruber/remind-go/internal/metrics"
	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/raphaelgruber/remind-go/internal/service"
	"github.com/raphaelgruber/remind-go/internal/temporal"
)

// Converser runs one agent conversation.
type Converser interface {
	Converse(ctx context.Context, req agent.Request) (*models.ConverseResult, error)
}

// Searcher is the retrieval-only operation for direct UI affordances.
type Searcher interface {
	Search(ctx context.Context, req service.SearchRequest) (*models.SearchResult, error)
}

// Server is the HTTP front of the reminder core.
type Server struct {
	agent   Converser
	search  Searcher
	metrics *metrics.Collector
	logger  *slog.Logger
	http    *http.Server
}

// New creates the server listening on the given port.
func New(port string, agent Converser, search Searcher, collector *metrics.Collector, logger *slog.Logger) *Server {
	s := &Server{
		agent:   agent,
		search:  search,
		metrics: collector,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /converse", s.handleConverse)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	s.http = &http.Server{
		Addr:         ":" + port,
		Handler:      LoggingMiddleware(logger)(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second, // conversations wait on the model
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// converseRequest is the wire shape of POST /converse and the websocket
// opening frame.
type converseRequest struct {
	OwnerID    string        `json:"owner_id"`
	Query      string        `json:"query"`
	ClientDate string        `json:"client_date,omitempty"`
	History    []models.Turn `json:"history,omitempty"`
}

func (r converseRequest) validate() error {
	if r.OwnerID == "" {
		return fmt.Errorf("%w: owner_id is required", service.ErrInvalidInput)
	}
	if r.Query == "" {
		return fmt.Errorf("%w: query is required", service.ErrInvalidInput)
	}
	if r.ClientDate != "" && !models.ValidDate(r.ClientDate) {
		return fmt.Errorf("%w: client_date must be YYYY-MM-DD", service.ErrInvalidInput)
	}
	return nil
}

func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	var req converseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	start := time.Now()
	result, err := s.agent.Converse(r.Context(), agent.Request{
		OwnerID:    req.OwnerID,
		Query:      req.Query,
		ClientDate: req.ClientDate,
		History:    req.History,
	})
	s.metrics.RecordTiming(metrics.OpConverse, time.Since(start))

	if err != nil {
		s.recordConverseFailure(err)
		s.writeConverseError(w, err)
		return
	}

	s.metrics.RecordConversation(false)
	for _, entry := range result.ToolCalls {
		s.metrics.RecordToolCall(entry.Tool)
	}
	writeJSON(w, http.StatusOK, result)
}

type searchRequest struct {
	OwnerID    string `json:"owner_id"`
	Query      string `json:"query"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	ClientDate string `json:"client_date,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "owner_id is required")
		return
	}

	today, err := temporal.ReferenceDate(req.ClientDate, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "client_date must be YYYY-MM-DD")
		return
	}

	start := time.Now()
	result, err := s.search.Search(r.Context(), service.SearchRequest{
		OwnerID: req.OwnerID,
		Query:   req.Query,
		Start:   req.StartDate,
		End:     req.EndDate,
		Today:   today,
	})
	s.metrics.RecordTiming(metrics.OpSearch, time.Since(start))

	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		s.logger.Error("search failed", "owner_id", req.OwnerID, "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "search is temporarily unavailable, try again")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) recordConverseFailure(err error) {
	var exhausted *agent.ExhaustedError
	s.metrics.RecordConversation(errors.As(err, &exhausted))
}

// writeConverseError maps loop failures onto distinguishable codes: clients
// show "try again" for anything here, never a conversational reply.
func (s *Server) writeConverseError(w http.ResponseWriter, err error) {
	var exhausted *agent.ExhaustedError

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.As(err, &exhausted):
		s.logger.Error("conversation exhausted", "iterations", exhausted.Iterations, "tool_calls", len(exhausted.ToolCalls))
		writeError(w, http.StatusBadGateway, "exhausted", "the assistant could not finish, try rephrasing")
	case errors.Is(err, llm.ErrFatalAPI):
		s.logger.Error("provider rejected request", "error", err)
		writeError(w, http.StatusBadGateway, "provider_error", "the language model provider rejected the request")
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.Error("conversation failed", "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "the assistant is temporarily unavailable, try again")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
