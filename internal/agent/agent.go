// Package agent runs the bounded tool-calling loop that turns a user
// utterance into domain operations and a final reply.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/remind-go/internal/llm"
	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/raphaelgruber/remind-go/internal/temporal"
	"github.com/raphaelgruber/remind-go/internal/tools"
)

// ChatModel is the slice of the LLM layer the loop drives.
type ChatModel interface {
	Chat(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*llms.ContentChoice, error)
}

// Dispatcher executes the tool calls a model response requested.
type Dispatcher interface {
	DispatchAll(ctx context.Context, req tools.Request, calls []llms.ToolCall) ([]tools.Result, error)
}

// ExhaustedError is the terminal failure when the loop hits its iteration
// ceiling. It carries the full tool-call log so a runaway conversation can
// be diagnosed.
type ExhaustedError struct {
	Iterations int
	ToolCalls  []models.ToolCallLogEntry
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("conversation did not terminate after %d iterations (%d tool calls)",
		e.Iterations, len(e.ToolCalls))
}

// Agent drives one conversation request sequentially: model call, tool
// dispatch, repeat, until the model produces final text or the iteration
// ceiling trips.
type Agent struct {
	model         ChatModel
	dispatcher    Dispatcher
	maxIterations int
	logger        *slog.Logger
}

func New(model ChatModel, dispatcher Dispatcher, maxIterations int, logger *slog.Logger) *Agent {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return &Agent{
		model:         model,
		dispatcher:    dispatcher,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Request is one converse call.
type Request struct {
	OwnerID    string
	Query      string
	ClientDate string // optional YYYY-MM-DD; overrides the wall clock
	History    []models.Turn
	OnEvent    func(models.AgentEvent) // optional progress callback
}

const systemPromptTemplate = `You are a reminder assistant. Today is %s (%s).

You manage the user's reminders through the available tools. Rules:
- Use search_reminders before updating or deleting; only use reminder IDs that appeared in a search result of this conversation.
- When the user clearly asks to save a reminder, use create_reminder.
- When the intent to create is plausible but not explicit, use draft_reminder, then STOP and ask the user to confirm. Never call create_reminder in the same turn as draft_reminder.
- Dates are YYYY-MM-DD and times are 24-hour HH:mm.
- If a tool reports an error, explain the problem to the user or fix the input; do not repeat the same failing call.
- Answer in plain text, briefly.`

// Converse runs the loop. Tool-level failures are fed back to the model;
// only infrastructure errors and exhaustion surface as Go errors.
func (a *Agent) Converse(ctx context.Context, req Request) (*models.ConverseResult, error) {
	today, err := temporal.ReferenceDate(req.ClientDate, time.Now())
	if err != nil {
		return nil, err
	}

	messages := a.seedMessages(req, today)
	definitions := tools.Definitions()
	dispatchReq := tools.Request{OwnerID: req.OwnerID, Today: today}
	log := []models.ToolCallLogEntry{}

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		choice, err := a.model.Chat(ctx, messages, definitions)
		if err != nil {
			return nil, err
		}

		if len(choice.ToolCalls) > 0 {
			// Append the assistant turn verbatim, then answer every requested
			// call in one tool turn: N requests, N correlated results, same
			// order.
			messages = append(messages, assistantTurn(choice))

			// A draft ends the turn structurally: calls requested after the
			// draft are refused, and the follow-up model call gets no tools,
			// so it can only answer in text. Compliance is not left to the
			// prompt.
			executed, refused := splitAtDraft(choice.ToolCalls)
			if len(definitions) == 0 {
				// The turn already ended on a draft; nothing runs anymore.
				executed, refused = nil, choice.ToolCalls
			}

			results, err := a.dispatcher.DispatchAll(ctx, dispatchReq, executed)
			if err != nil {
				return nil, err
			}

			parts := make([]llms.ContentPart, 0, len(choice.ToolCalls))
			for i, res := range results {
				parts = append(parts, llms.ToolCallResponse{
					ToolCallID: res.CallID,
					Name:       res.Name,
					Content:    res.Content,
				})

				entry := models.ToolCallLogEntry{
					Tool:      res.Name,
					Input:     rawJSON(callArgs(executed[i])),
					Result:    rawJSON(res.Content),
					Iteration: iteration,
				}
				log = append(log, entry)
				a.emit(req, models.AgentEvent{
					Type:      "tool_call",
					Tool:      entry.Tool,
					Input:     entry.Input,
					Result:    entry.Result,
					Iteration: iteration,
				})
			}
			for _, call := range refused {
				parts = append(parts, llms.ToolCallResponse{
					ToolCallID: call.ID,
					Name:       callName(call),
					Content:    tools.NotExecuted("not executed: a draft ends the turn"),
				})
			}
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeTool,
				Parts: parts,
			})

			if len(refused) > 0 || containsDraft(executed) {
				definitions = nil
			}
			continue
		}

		message := llm.StripReasoning(choice.Content)
		result := &models.ConverseResult{
			Message:    message,
			ToolCalls:  log,
			Iterations: iteration,
		}
		if message == "" {
			// Neither tool calls nor text: surface what we got instead of
			// looping on an undecodable response.
			result.Message = strings.TrimSpace(choice.Content)
			result.Warning = fmt.Sprintf("model returned no usable response (stop reason %q)", choice.StopReason)
			a.logger.Warn("unexpected model response shape",
				"owner_id", req.OwnerID, "stop_reason", choice.StopReason, "iteration", iteration)
		}

		a.emit(req, models.AgentEvent{Type: "message", Message: result.Message, Iteration: iteration})
		a.logger.Info("conversation finished",
			"owner_id", req.OwnerID, "iterations", iteration, "tool_calls", len(log))
		return result, nil
	}

	a.logger.Warn("conversation exhausted iteration budget",
		"owner_id", req.OwnerID, "max_iterations", a.maxIterations, "tool_calls", len(log))
	return nil, &ExhaustedError{Iterations: a.maxIterations, ToolCalls: log}
}

func (a *Agent) seedMessages(req Request, today time.Time) []llms.MessageContent {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem,
			fmt.Sprintf(systemPromptTemplate, today.Format(models.DateLayout), today.Weekday())),
	}
	for _, turn := range req.History {
		role := llms.ChatMessageTypeHuman
		if turn.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Query))
}

// splitAtDraft cuts a batch after the first draft_reminder call. Everything
// up to and including the draft runs; the rest is refused.
func splitAtDraft(calls []llms.ToolCall) (executed, refused []llms.ToolCall) {
	for i, call := range calls {
		if call.FunctionCall != nil && call.FunctionCall.Name == tools.NameDraftReminder {
			return calls[:i+1], calls[i+1:]
		}
	}
	return calls, nil
}

// callName and callArgs tolerate a tool-use block without a function payload;
// such a call still gets a correlated response instead of crashing the loop.
func callName(call llms.ToolCall) string {
	if call.FunctionCall == nil {
		return ""
	}
	return call.FunctionCall.Name
}

func callArgs(call llms.ToolCall) string {
	if call.FunctionCall == nil {
		return ""
	}
	return call.FunctionCall.Arguments
}

func containsDraft(calls []llms.ToolCall) bool {
	for _, call := range calls {
		if call.FunctionCall != nil && call.FunctionCall.Name == tools.NameDraftReminder {
			return true
		}
	}
	return false
}

func assistantTurn(choice *llms.ContentChoice) llms.MessageContent {
	parts := []llms.ContentPart{}
	if choice.Content != "" {
		parts = append(parts, llms.TextContent{Text: choice.Content})
	}
	for _, tc := range choice.ToolCalls {
		parts = append(parts, tc)
	}
	return llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts}
}

func (a *Agent) emit(req Request, ev models.AgentEvent) {
	if req.OnEvent != nil {
		req.OnEvent(ev)
	}
}

// rawJSON keeps valid JSON as-is and quotes anything else so the log always
// marshals cleanly.
func rawJSON(s string) json.RawMessage {
	if json.Valid([]byte(s)) && s != "" {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}
