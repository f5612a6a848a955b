package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/errgroup"

	"github.com/raphaelgruber/remind-go/internal/db"
	"github.com/raphaelgruber/remind-go/internal/service"
)

// Request carries the per-conversation scope every tool call runs under.
type Request struct {
	OwnerID string
	Today   time.Time
}

// Result pairs a tool call with its envelope, preserving request order.
type Result struct {
	CallID  string
	Name    string
	Content string
}

// Dispatcher executes model-requested tool calls against the domain
// services. Expected failures (validation, not-found, unknown tool) become
// failure envelopes fed back to the model; only infrastructure errors
// escape as Go errors.
type Dispatcher struct {
	reminders ReminderOps
	search    SearchOps
	logger    *slog.Logger
}

func NewDispatcher(reminders ReminderOps, search SearchOps, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{reminders: reminders, search: search, logger: logger}
}

// DispatchAll executes a batch of tool calls. Handlers run concurrently
// since they share no state, but results come back in request order - the
// conversation protocol pairs call k with result k.
func (d *Dispatcher) DispatchAll(ctx context.Context, req Request, calls []llms.ToolCall) ([]Result, error) {
	results := make([]Result, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			content, err := d.Dispatch(gctx, req, call)
			if err != nil {
				return err
			}
			results[i] = Result{CallID: call.ID, Name: callName(call), Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// callName extracts the requested tool name, tolerating a tool-use block
// that carries no function payload.
func callName(call llms.ToolCall) string {
	if call.FunctionCall == nil {
		return ""
	}
	return call.FunctionCall.Name
}

// Dispatch executes a single tool call and returns its envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, call llms.ToolCall) (string, error) {
	if call.FunctionCall == nil {
		return failure("malformed tool call without a function", ""), nil
	}

	name := call.FunctionCall.Name
	args := call.FunctionCall.Arguments

	start := time.Now()
	content, err := d.dispatch(ctx, req, name, args)
	if err != nil {
		d.logger.Error("tool call failed",
			"tool", name, "call_id", call.ID, "owner_id", req.OwnerID,
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return "", fmt.Errorf("tool %s: %w", name, err)
	}

	d.logger.Info("tool call",
		"tool", name, "call_id", call.ID, "owner_id", req.OwnerID,
		"duration_ms", time.Since(start).Milliseconds())
	return content, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request, name, args string) (string, error) {
	switch name {
	case NameDraftReminder:
		return d.draftReminder(args)
	case NameCreateReminder:
		return d.createReminder(ctx, req, args)
	case NameSearchReminder:
		return d.searchReminders(ctx, req, args)
	case NameUpdateReminder:
		return d.updateReminder(ctx, req, args)
	case NameDeleteReminder:
		return d.deleteReminder(ctx, req, args)
	default:
		// The model may hallucinate a tool name; tell it instead of crashing
		// so it can self-correct on the next turn.
		d.logger.Warn("unknown tool requested", "tool", name)
		return failuref("Use one of the advertised tools", "unknown tool %q", name), nil
	}
}

// parseArgs unmarshals tool arguments, running sloppy JSON through
// jsonrepair before giving up.
func parseArgs(args string, target any) error {
	if args == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), target); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(args)
		if repairErr != nil {
			return fmt.Errorf("parse arguments: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), target); err != nil {
			return fmt.Errorf("parse repaired arguments: %w", err)
		}
	}
	return nil
}

// recoverable reports whether the model should see the error and retry,
// as opposed to an infrastructure failure that aborts the request.
func recoverable(err error) bool {
	return errors.Is(err, service.ErrInvalidInput) || errors.Is(err, db.ErrNotFound)
}
