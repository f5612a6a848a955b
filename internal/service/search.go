package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/raphaelgruber/remind-go/internal/temporal"
)

// SearchStore is the slice of the database layer the retrieval engine reads.
type SearchStore interface {
	ListRemindersByDateRange(ctx context.Context, ownerID, start, end string) ([]models.Reminder, error)
	GetReminder(ctx context.Context, ownerID, id string) (*models.Reminder, error)
	SimilaritySearch(ctx context.Context, ownerID string, vec []float32, k int, threshold float64) ([]models.SimilarityMatch, error)
}

type rangeResolver interface {
	Resolve(ctx context.Context, query string, today time.Time) (temporal.Range, error)
}

type answerGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, target any) error
}

// SearchService is the hybrid retrieval engine: exact date-range rows plus
// vector-similarity matches, fetched concurrently and answered branch by
// branch. Date-anchored questions are answered deterministically so the
// system can never misreport what is scheduled on a concrete day.
type SearchService struct {
	store     SearchStore
	embedder  TextEmbedder
	resolver  rangeResolver
	model     answerGenerator
	topK      int
	threshold float64
	logger    *slog.Logger
}

func NewSearchService(store SearchStore, embedder TextEmbedder, resolver rangeResolver, model answerGenerator, topK int, threshold float64, logger *slog.Logger) *SearchService {
	if topK <= 0 {
		topK = 15
	}
	return &SearchService{
		store:     store,
		embedder:  embedder,
		resolver:  resolver,
		model:     model,
		topK:      topK,
		threshold: threshold,
		logger:    logger,
	}
}

// SearchRequest is one retrieval call. Start/End carry an explicit range
// that overrides temporal extraction; Today anchors relative expressions.
type SearchRequest struct {
	OwnerID string
	Query   string
	Start   string
	End     string
	Today   time.Time
}

// Search answers a free-form query with ranked evidence.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*models.SearchResult, error) {
	today := req.Today
	if today.IsZero() {
		today = time.Now()
	}

	rng, err := s.effectiveRange(ctx, req, today)
	if err != nil {
		return nil, err
	}

	var (
		rows    []models.Reminder
		matches []models.SimilarityMatch
	)

	g, gctx := errgroup.WithContext(ctx)
	if !rng.Empty() {
		g.Go(func() error {
			var err error
			rows, err = s.store.ListRemindersByDateRange(gctx, req.OwnerID, rng.Start, rng.End)
			return err
		})
	}
	g.Go(func() error {
		if strings.TrimSpace(req.Query) == "" {
			return nil
		}
		vec, err := s.embedder.Embed(gctx, req.Query)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		matches, err = s.store.SimilaritySearch(gctx, req.OwnerID, vec, s.topK, s.threshold)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("hybrid search",
		"owner_id", req.OwnerID, "query", req.Query,
		"range_start", rng.Start, "range_end", rng.End,
		"date_rows", len(rows), "similarity_matches", len(matches))

	switch {
	case len(rows) > 0:
		result := &models.SearchResult{
			Answer:   buildRangeAnswer(rows, rng),
			FollowUp: "Want to change or complete any of these?",
			Evidence: evidenceFromRows(rows),
		}
		models.SortEvidence(result.Evidence)
		return result, nil

	case !rng.Empty():
		result := &models.SearchResult{
			Answer:   fmt.Sprintf("Nothing scheduled for %s.", describeRange(rng)),
			FollowUp: "Should I create a reminder for then?",
			Evidence: s.evidenceFromMatches(ctx, req.OwnerID, matches),
		}
		models.SortEvidence(result.Evidence)
		return result, nil

	default:
		evidence := s.evidenceFromMatches(ctx, req.OwnerID, matches)
		models.SortEvidence(evidence)
		answer, followUp, err := s.semanticAnswer(ctx, req.Query, evidence)
		if err != nil {
			return nil, err
		}
		return &models.SearchResult{Answer: answer, FollowUp: followUp, Evidence: evidence}, nil
	}
}

// effectiveRange prefers the caller-supplied range over extraction.
func (s *SearchService) effectiveRange(ctx context.Context, req SearchRequest, today time.Time) (temporal.Range, error) {
	if req.Start != "" {
		if !models.ValidDate(req.Start) {
			return temporal.Range{}, fmt.Errorf("%w: start_date %q must be YYYY-MM-DD", ErrInvalidInput, req.Start)
		}
		end := req.End
		if end == "" {
			end = req.Start
		} else if !models.ValidDate(end) {
			return temporal.Range{}, fmt.Errorf("%w: end_date %q must be YYYY-MM-DD", ErrInvalidInput, req.End)
		}
		return temporal.Range{Start: req.Start, End: end, IsRange: req.Start != end, Confidence: 1.0}, nil
	}
	if s.resolver == nil {
		return temporal.Range{}, nil
	}
	return s.resolver.Resolve(ctx, req.Query, today)
}

// buildRangeAnswer lists what is scheduled, deterministically.
func buildRangeAnswer(rows []models.Reminder, rng temporal.Range) string {
	var b strings.Builder
	if len(rows) == 1 {
		fmt.Fprintf(&b, "You have 1 reminder for %s:\n", describeRange(rng))
	} else {
		fmt.Fprintf(&b, "You have %d reminders for %s:\n", len(rows), describeRange(rng))
	}
	for _, r := range rows {
		b.WriteString("- " + r.Title)
		if rng.IsRange && r.Date != nil {
			b.WriteString(" on " + *r.Date)
		}
		if r.Time != nil {
			b.WriteString(" at " + *r.Time)
		}
		if r.Completed {
			b.WriteString(" (done)")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeRange(rng temporal.Range) string {
	if !rng.IsRange {
		return rng.Start
	}
	return rng.Start + " to " + rng.End
}

func evidenceFromRows(rows []models.Reminder) []models.EvidenceItem {
	evidence := make([]models.EvidenceItem, 0, len(rows))
	for _, r := range rows {
		id, err := models.RecordIDString(r.ID)
		if err != nil {
			continue
		}
		evidence = append(evidence, models.EvidenceItem{
			ReminderID: id,
			Title:      r.Title,
			Date:       r.Date,
			Time:       r.Time,
			Completed:  r.Completed,
			TagID:      models.RecordIDStringPtr(r.Tag),
			PriorityID: models.RecordIDStringPtr(r.Priority),
			Score:      1.0,
		})
	}
	return evidence
}

// evidenceFromMatches resolves similarity matches back to reminders. A match
// whose reminder has vanished is skipped; the orphan sweep will catch it.
func (s *SearchService) evidenceFromMatches(ctx context.Context, ownerID string, matches []models.SimilarityMatch) []models.EvidenceItem {
	evidence := make([]models.EvidenceItem, 0, len(matches))
	for _, m := range matches {
		r, err := s.store.GetReminder(ctx, ownerID, m.ReminderID)
		if err != nil {
			s.logger.Debug("similarity match without reminder, skipping", "reminder_id", m.ReminderID, "error", err)
			continue
		}
		evidence = append(evidence, models.EvidenceItem{
			ReminderID: m.ReminderID,
			Title:      r.Title,
			Date:       r.Date,
			Time:       r.Time,
			Completed:  r.Completed,
			TagID:      models.RecordIDStringPtr(r.Tag),
			PriorityID: models.RecordIDStringPtr(r.Priority),
			Score:      m.Score,
		})
	}
	return evidence
}

const semanticSystemPrompt = `You help a user find their reminders. You get the user's query and a JSON list of matching reminders (their only source of truth).
Respond with ONLY a JSON object: {"answer": "...", "follow_up": "..."}.
Comment only on the supplied reminders. Never invent reminders that are not in the list.`

func (s *SearchService) semanticAnswer(ctx context.Context, query string, evidence []models.EvidenceItem) (string, string, error) {
	if len(evidence) == 0 {
		return "I couldn't find any reminders matching that.", "Want me to create one?", nil
	}
	if s.model == nil {
		return fmt.Sprintf("Found %d matching reminders.", len(evidence)), "Anything you'd like to do with them?", nil
	}

	payload, err := json.Marshal(evidence)
	if err != nil {
		return "", "", fmt.Errorf("marshal evidence: %w", err)
	}

	var out struct {
		Answer   string `json:"answer"`
		FollowUp string `json:"follow_up"`
	}
	userPrompt := fmt.Sprintf("Query: %s\n\nMatching reminders:\n%s", query, payload)
	if err := s.model.GenerateJSON(ctx, semanticSystemPrompt, userPrompt, &out); err != nil {
		return "", "", fmt.Errorf("semantic answer: %w", err)
	}
	if out.Answer == "" {
		out.Answer = fmt.Sprintf("Found %d matching reminders.", len(evidence))
	}
	return out.Answer, out.FollowUp, nil
}
