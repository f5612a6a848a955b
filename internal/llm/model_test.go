package llm

import (
	"context"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/remind-go/internal/metrics"
)

// stubLLM replays one canned choice.
type stubLLM struct{}

func (stubLLM) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok", StopReason: "end_turn"}},
	}, nil
}

func (stubLLM) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "ok", nil
}

// stubEmbeddings returns zero vectors of a fixed dimension.
type stubEmbeddings struct{ dim int }

func (s stubEmbeddings) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

func (s stubEmbeddings) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, s.dim), nil
}

func TestChat_RecordsTiming(t *testing.T) {
	collector := metrics.NewCollector()
	m := &Model{llm: stubLLM{}, modelName: "stub", timeout: time.Second}
	m.SetMetrics(collector)

	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "hi")}
	if _, err := m.Chat(context.Background(), messages, nil); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	snap := collector.Snapshot()
	if snap.LLMChat == nil || snap.LLMChat.Count != 1 {
		t.Fatalf("llm_chat timing not recorded: %+v", snap.LLMChat)
	}
}

func TestChat_WithoutCollector(t *testing.T) {
	m := &Model{llm: stubLLM{}, modelName: "stub", timeout: time.Second}

	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "hi")}
	choice, err := m.Chat(context.Background(), messages, nil)
	if err != nil {
		t.Fatalf("Chat without collector: %v", err)
	}
	if choice.Content != "ok" {
		t.Errorf("Content = %q, want %q", choice.Content, "ok")
	}
}

func TestEmbed_RecordsTiming(t *testing.T) {
	collector := metrics.NewCollector()
	e := &Embedder{model: stubEmbeddings{dim: 3}, dimension: 3, modelName: "stub"}
	e.SetMetrics(collector)

	vec, err := e.Embed(context.Background(), "gym session")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("len(vec) = %d, want 3", len(vec))
	}

	snap := collector.Snapshot()
	if snap.Embedding == nil || snap.Embedding.Count != 1 {
		t.Fatalf("embedding timing not recorded: %+v", snap.Embedding)
	}
}

func TestEmbed_DimensionMismatchNotRecorded(t *testing.T) {
	collector := metrics.NewCollector()
	e := &Embedder{model: stubEmbeddings{dim: 2}, dimension: 3, modelName: "stub"}
	e.SetMetrics(collector)

	if _, err := e.Embed(context.Background(), "gym session"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}

	if snap := collector.Snapshot(); snap.Embedding != nil {
		t.Errorf("failed embedding must not record a timing: %+v", snap.Embedding)
	}
}
