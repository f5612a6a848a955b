// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated timings for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot is the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	Conversations int64              `json:"conversations"`
	Exhausted     int64              `json:"exhausted_conversations"`
	ToolCalls     map[string]int64   `json:"tool_calls,omitempty"`
	LLMChat       *OperationSnapshot `json:"llm_chat,omitempty"`
	Embedding     *OperationSnapshot `json:"embedding,omitempty"`
	Search        *OperationSnapshot `json:"search,omitempty"`
	Converse      *OperationSnapshot `json:"converse,omitempty"`
}

// Operation names for the collector.
const (
	OpLLMChat   = "llm_chat"
	OpEmbedding = "embedding"
	OpSearch    = "search"
	OpConverse  = "converse"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu            sync.RWMutex
	startTime     time.Time
	ops           map[string]*OperationMetrics
	toolCalls     map[string]int64
	conversations int64
	exhausted     int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		toolCalls: make(map[string]int64),
	}
}

// RecordTiming records timing for an operation. A nil collector is a no-op,
// so components can record unconditionally.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}

	m.Count++
	m.TotalTime += duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordToolCall counts one executed tool call by name.
func (c *Collector) RecordToolCall(tool string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toolCalls[tool]++
}

// RecordConversation counts a finished converse request.
func (c *Collector) RecordConversation(exhausted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversations++
	if exhausted {
		c.exhausted++
	}
}

func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}
	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time copy of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make(map[string]int64, len(c.toolCalls))
	for name, count := range c.toolCalls {
		tools[name] = count
	}

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Conversations: c.conversations,
		Exhausted:     c.exhausted,
		ToolCalls:     tools,
		LLMChat:       snapshotOp(c.ops[OpLLMChat]),
		Embedding:     snapshotOp(c.ops[OpEmbedding]),
		Search:        snapshotOp(c.ops[OpSearch]),
		Converse:      snapshotOp(c.ops[OpConverse]),
	}
}
