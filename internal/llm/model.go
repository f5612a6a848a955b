package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/kaptinlin/jsonrepair"
	"github.com/raphaelgruber/remind-go/internal/config"
	"github.com/raphaelgruber/remind-go/internal/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Model wraps a langchaingo chat model for tool calling and text generation.
type Model struct {
	llm       llms.Model
	modelName string
	timeout   time.Duration
	metrics   *metrics.Collector
}

// SetMetrics attaches a collector; completed chat calls record their timings
// on it. Safe to leave unset.
func (m *Model) SetMetrics(c *metrics.Collector) {
	m.metrics = c
}

// NewModel creates a chat model based on configuration.
func NewModel(ctx context.Context, cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx)
		if awsErr != nil {
			return nil, fmt.Errorf("load AWS config: %w", awsErr)
		}
		model, err = bedrock.New(
			bedrock.WithModel(cfg.LLMModel),
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
		timeout:   cfg.RequestTimeout,
	}, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// Chat sends a conversation to the model, optionally advertising tools, and
// returns the first choice. Fatal provider errors come back wrapped with
// ErrFatalAPI.
func (m *Model) Chat(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*llms.ContentChoice, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := []llms.CallOption{}
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(tools))
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages, opts...)
	duration := time.Since(start)

	if err != nil {
		slog.Warn("chat completion failed",
			"model", m.modelName, "messages", len(messages), "duration_ms", duration.Milliseconds(), "error", err)
		return nil, fmt.Errorf("chat: %w", wrapFatalError(err))
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	m.metrics.RecordTiming(metrics.OpLLMChat, duration)

	choice := response.Choices[0]
	slog.Debug("chat completion",
		"model", m.modelName, "messages", len(messages),
		"tool_calls", len(choice.ToolCalls), "stop_reason", choice.StopReason,
		"duration_ms", duration.Milliseconds())
	return choice, nil
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", wrapFatalError(err))
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return response.Choices[0].Content, nil
}

// GenerateJSON generates a response that must parse as JSON and unmarshals it
// into target. Model output is routinely sloppy JSON (code fences, trailing
// commas), so on a parse failure the raw text is run through jsonrepair and
// parsed again.
func (m *Model) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, target any) error {
	raw, err := m.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return err
	}

	cleaned := StripReasoning(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return fmt.Errorf("parse model JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), target); err != nil {
			return fmt.Errorf("parse repaired model JSON: %w", err)
		}
	}
	return nil
}

// StripReasoning removes <think>...</think> blocks that reasoning models
// emit before their actual answer. An unterminated block removes the rest of
// the text.
func StripReasoning(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}
