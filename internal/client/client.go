// Package client provides an HTTP client for a remote remind server, used
// by the CLI when it talks to a running instance instead of the local store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/remind-go/internal/models"
)

// Client talks to the remind server's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If baseURL is empty, REMIND_SERVER_URL is used,
// falling back to localhost.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("REMIND_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8486"
	}

	timeout := 2 * time.Minute // conversations wait on the model
	if t := os.Getenv("REMIND_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error (%s): %s", apiErr.Code, apiErr.Error)
		}
		return fmt.Errorf("server error: %s", resp.Status)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// ConverseRequest mirrors the server's POST /converse body.
type ConverseRequest struct {
	OwnerID    string        `json:"owner_id"`
	Query      string        `json:"query"`
	ClientDate string        `json:"client_date,omitempty"`
	History    []models.Turn `json:"history,omitempty"`
}

// Converse runs one conversation request.
func (c *Client) Converse(ctx context.Context, req ConverseRequest) (*models.ConverseResult, error) {
	var result models.ConverseResult
	if err := c.post(ctx, "/converse", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchRequest mirrors the server's POST /search body.
type SearchRequest struct {
	OwnerID    string `json:"owner_id"`
	Query      string `json:"query"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	ClientDate string `json:"client_date,omitempty"`
}

// Search runs a retrieval-only query.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*models.SearchResult, error) {
	var result models.SearchResult
	if err := c.post(ctx, "/search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StreamFrame is one websocket message from the server.
type StreamFrame struct {
	Type   string                 `json:"type"`
	Event  *models.AgentEvent     `json:"event,omitempty"`
	Result *models.ConverseResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Code   string                 `json:"code,omitempty"`
}

// ConverseStream runs a conversation over websocket, invoking onEvent for
// each progress frame and returning the final result.
func (c *Client) ConverseStream(ctx context.Context, req ConverseRequest, onEvent func(models.AgentEvent)) (*models.ConverseResult, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial server: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	for {
		var frame StreamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}

		switch frame.Type {
		case "done":
			return frame.Result, nil
		case "error":
			return nil, fmt.Errorf("server error (%s): %s", frame.Code, frame.Error)
		default:
			if onEvent != nil && frame.Event != nil {
				onEvent(*frame.Event)
			}
		}
	}
}

// Health checks whether the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy: %s", resp.Status)
	}
	return nil
}
