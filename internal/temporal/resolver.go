// Package temporal turns natural-language date expressions into absolute
// date ranges against an explicit reference date.
package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/raphaelgruber/remind-go/internal/models"
)

// Range is a resolved date range. Start and End are "YYYY-MM-DD" strings;
// a single day has Start == End and IsRange false. An empty Start means the
// query carried no temporal signal.
type Range struct {
	Start      string  `json:"start,omitempty"`
	End        string  `json:"end,omitempty"`
	IsRange    bool    `json:"is_range"`
	Confidence float64 `json:"confidence"`
}

// Empty reports whether the query resolved to no date at all.
func (r Range) Empty() bool {
	return r.Start == ""
}

// jsonGenerator is the slice of the LLM layer the fallback needs.
type jsonGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, target any) error
}

// Resolver resolves date expressions deterministically where it can and
// falls back to a constrained language-model call for everything else.
// A nil model disables the fallback.
type Resolver struct {
	model  jsonGenerator
	logger *slog.Logger
}

func NewResolver(model jsonGenerator, logger *slog.Logger) *Resolver {
	return &Resolver{model: model, logger: logger}
}

// ReferenceDate returns the caller-supplied client date when present, else
// now. Every temporal computation goes through this one reference instead of
// reading the wall clock ad hoc.
func ReferenceDate(clientDate string, now time.Time) (time.Time, error) {
	if clientDate == "" {
		return now, nil
	}
	t, err := time.ParseInLocation(models.DateLayout, clientDate, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse client date %q: %w", clientDate, err)
	}
	return t, nil
}

// Resolve extracts a date range from a free-form query. Deterministic fast
// paths never touch the model; anything else goes to the fallback. A query
// with no temporal signal returns an empty Range and no error.
func (r *Resolver) Resolve(ctx context.Context, query string, today time.Time) (Range, error) {
	if rng, ok := matchPhrase(query, today); ok {
		return rng, nil
	}
	if r.model == nil {
		return Range{}, nil
	}
	return r.fallback(ctx, query, today)
}

var (
	isoDateRe     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	nextWeekdayRe = regexp.MustCompile(`\bnext\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	weekdayRe     = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	todayRe       = regexp.MustCompile(`\btoday\b`)
	// Word boundaries matter: "this weekend" is not "this week" and must
	// reach the fallback instead.
	nextWeekRe  = regexp.MustCompile(`\bnext\s+week\b`)
	thisWeekRe  = regexp.MustCompile(`\bthis\s+week\b`)
	nextMonthRe = regexp.MustCompile(`\bnext\s+month\b`)
	thisMonthRe = regexp.MustCompile(`\bthis\s+month\b`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// matchPhrase is the deterministic fast path. Pure function of the query
// and the reference date.
func matchPhrase(query string, today time.Time) (Range, bool) {
	q := strings.ToLower(strings.TrimSpace(query))

	if dates := isoDateRe.FindAllString(q, 2); len(dates) > 0 {
		if !models.ValidDate(dates[0]) {
			return Range{}, false
		}
		if len(dates) == 2 && models.ValidDate(dates[1]) && dates[1] > dates[0] {
			return newRange(dates[0], dates[1]), true
		}
		return newRange(dates[0], dates[0]), true
	}

	switch {
	case nextWeekRe.MatchString(q):
		mon := nextMonday(today)
		return newRange(format(mon), format(mon.AddDate(0, 0, 6))), true

	case thisWeekRe.MatchString(q):
		// Today through the upcoming Sunday inclusive.
		end := today.AddDate(0, 0, (7-isoWeekday(today))%7)
		return newRange(format(today), format(end)), true

	case nextMonthRe.MatchString(q):
		first := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location())
		last := time.Date(today.Year(), today.Month()+2, 0, 0, 0, 0, 0, today.Location())
		return newRange(format(first), format(last)), true

	case thisMonthRe.MatchString(q):
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		last := time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, today.Location())
		return newRange(format(first), format(last)), true
	}

	if m := nextWeekdayRe.FindStringSubmatch(q); m != nil {
		// The occurrence in the following week, never the current one.
		w := weekdays[m[1]]
		d := nextMonday(today).AddDate(0, 0, (int(w)-int(time.Monday)+7)%7)
		return newRange(format(d), format(d)), true
	}

	switch {
	case strings.Contains(q, "tomorrow"):
		d := format(today.AddDate(0, 0, 1))
		return newRange(d, d), true

	case todayRe.MatchString(q):
		d := format(today)
		return newRange(d, d), true
	}

	if m := weekdayRe.FindStringSubmatch(q); m != nil {
		// Next future occurrence; a bare weekday name never means today.
		w := weekdays[m[1]]
		delta := (int(w) - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		d := format(today.AddDate(0, 0, delta))
		return newRange(d, d), true
	}

	return Range{}, false
}

const fallbackSystemPrompt = `You extract date ranges from reminder queries.
Respond with ONLY a JSON object: {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD", "is_range": bool, "confidence": 0.0-1.0}.
If the query has no date expression at all, respond with {}.
Never invent dates; resolve expressions relative to the given today.`

func (r *Resolver) fallback(ctx context.Context, query string, today time.Time) (Range, error) {
	userPrompt := fmt.Sprintf("Today is %s (%s).\nQuery: %s", format(today), today.Weekday(), query)

	var rng Range
	if err := r.model.GenerateJSON(ctx, fallbackSystemPrompt, userPrompt, &rng); err != nil {
		return Range{}, fmt.Errorf("temporal fallback: %w", err)
	}

	if rng.Start == "" {
		return Range{}, nil
	}
	if !models.ValidDate(rng.Start) {
		r.logger.Warn("temporal fallback returned invalid start date", "start", rng.Start, "query", query)
		return Range{}, nil
	}
	if rng.End == "" || !models.ValidDate(rng.End) || rng.End < rng.Start {
		rng.End = rng.Start
	}
	rng.IsRange = rng.Start != rng.End
	if rng.Confidence <= 0 || rng.Confidence > 1 {
		rng.Confidence = 0.5
	}
	r.logger.Debug("temporal fallback resolved", "query", query, "start", rng.Start, "end", rng.End)
	return rng, nil
}

func newRange(start, end string) Range {
	return Range{Start: start, End: end, IsRange: start != end, Confidence: 1.0}
}

func format(t time.Time) string {
	return t.Format(models.DateLayout)
}

// isoWeekday maps Monday to 1 through Sunday to 7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// nextMonday returns the Monday of the following week, never today.
func nextMonday(t time.Time) time.Time {
	delta := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return t.AddDate(0, 0, delta)
}
