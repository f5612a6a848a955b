package temporal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestMatchPhrase(t *testing.T) {
	// Wednesday.
	wed := "2025-06-11"

	tests := []struct {
		name    string
		query   string
		today   string
		start   string
		end     string
		isRange bool
	}{
		{"today", "what do I have today?", wed, "2025-06-11", "2025-06-11", false},
		{"tomorrow", "what do I have tomorrow", wed, "2025-06-12", "2025-06-12", false},
		{"bare weekday is next occurrence", "anything on friday?", wed, "2025-06-13", "2025-06-13", false},
		{"bare weekday never today", "wednesday plans", wed, "2025-06-18", "2025-06-18", false},
		{"next weekday skips current week", "next friday", wed, "2025-06-20", "2025-06-20", false},
		{"next monday from wednesday", "next monday", wed, "2025-06-16", "2025-06-16", false},
		{"next monday from monday", "next monday", "2025-06-09", "2025-06-16", "2025-06-16", false},
		{"this week", "show me this week", wed, "2025-06-11", "2025-06-15", true},
		{"this week on sunday", "this week", "2025-06-15", "2025-06-15", "2025-06-15", false},
		{"next week", "what about next week", wed, "2025-06-16", "2025-06-22", true},
		{"this month", "this month", wed, "2025-06-01", "2025-06-30", true},
		{"next month", "next month", wed, "2025-07-01", "2025-07-31", true},
		{"explicit date", "dentist on 2025-08-01", wed, "2025-08-01", "2025-08-01", false},
		{"explicit range", "between 2025-08-01 and 2025-08-15", wed, "2025-08-01", "2025-08-15", true},
		{"month rollover december", "next month", "2025-12-03", "2026-01-01", "2026-01-31", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchPhrase(tt.query, mustDate(t, tt.today))
			if !ok {
				t.Fatalf("matchPhrase(%q) did not match", tt.query)
			}
			if got.Start != tt.start || got.End != tt.end || got.IsRange != tt.isRange {
				t.Errorf("matchPhrase(%q) = {%s %s %v}, want {%s %s %v}",
					tt.query, got.Start, got.End, got.IsRange, tt.start, tt.end, tt.isRange)
			}
			if got.Confidence != 1.0 {
				t.Errorf("deterministic match confidence = %v, want 1.0", got.Confidence)
			}
		})
	}
}

func TestMatchPhrase_NoSignal(t *testing.T) {
	today := mustDate(t, "2025-06-11")
	queries := []string{
		"find my gym reminders",
		"delete the dentist one",
		"",
		// Weekend phrases must fall through to the fallback, not resolve
		// as whole weeks.
		"anything this weekend?",
		"free next weekend",
	}
	for _, q := range queries {
		if got, ok := matchPhrase(q, today); ok {
			t.Errorf("matchPhrase(%q) = {%s %s}, want no match", q, got.Start, got.End)
		}
	}
}

type fakeGenerator struct {
	response string
	err      error
	called   bool
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, _, _ string, target any) error {
	f.called = true
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), target)
}

func TestResolve_FastPathSkipsModel(t *testing.T) {
	gen := &fakeGenerator{response: `{}`}
	r := NewResolver(gen, slog.Default())

	rng, err := r.Resolve(context.Background(), "tomorrow", mustDate(t, "2025-06-11"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rng.Start != "2025-06-12" {
		t.Errorf("start = %q, want 2025-06-12", rng.Start)
	}
	if gen.called {
		t.Error("fast path should not call the model")
	}
}

func TestResolve_Fallback(t *testing.T) {
	t.Run("model extracts range", func(t *testing.T) {
		gen := &fakeGenerator{response: `{"start":"2025-06-24","end":"2025-06-26","confidence":0.8}`}
		r := NewResolver(gen, slog.Default())

		rng, err := r.Resolve(context.Background(), "around midsummer", mustDate(t, "2025-06-11"))
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if rng.Start != "2025-06-24" || rng.End != "2025-06-26" || !rng.IsRange {
			t.Errorf("unexpected range: %+v", rng)
		}
	})

	t.Run("non-temporal query", func(t *testing.T) {
		gen := &fakeGenerator{response: `{}`}
		r := NewResolver(gen, slog.Default())

		rng, err := r.Resolve(context.Background(), "find gym stuff", mustDate(t, "2025-06-11"))
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !rng.Empty() {
			t.Errorf("expected empty range, got %+v", rng)
		}
	})

	t.Run("invalid model date treated as non-temporal", func(t *testing.T) {
		gen := &fakeGenerator{response: `{"start":"soonish"}`}
		r := NewResolver(gen, slog.Default())

		rng, err := r.Resolve(context.Background(), "soonish stuff", mustDate(t, "2025-06-11"))
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !rng.Empty() {
			t.Errorf("expected empty range, got %+v", rng)
		}
	})

	t.Run("model error propagates", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("connection refused")}
		r := NewResolver(gen, slog.Default())

		if _, err := r.Resolve(context.Background(), "around easter", mustDate(t, "2025-06-11")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("nil model disables fallback", func(t *testing.T) {
		r := NewResolver(nil, slog.Default())

		rng, err := r.Resolve(context.Background(), "around easter", mustDate(t, "2025-06-11"))
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !rng.Empty() {
			t.Errorf("expected empty range, got %+v", rng)
		}
	})
}

func TestReferenceDate(t *testing.T) {
	now := mustDate(t, "2025-06-11")

	t.Run("client date wins", func(t *testing.T) {
		got, err := ReferenceDate("2025-01-05", now)
		if err != nil {
			t.Fatalf("ReferenceDate: %v", err)
		}
		if got.Format("2006-01-02") != "2025-01-05" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("empty falls back to now", func(t *testing.T) {
		got, err := ReferenceDate("", now)
		if err != nil {
			t.Fatalf("ReferenceDate: %v", err)
		}
		if !got.Equal(now) {
			t.Errorf("got %v, want %v", got, now)
		}
	})

	t.Run("garbage errors", func(t *testing.T) {
		if _, err := ReferenceDate("June 5th", now); err == nil {
			t.Fatal("expected error")
		}
	})
}
