package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/raphaelgruber/remind-go/internal/temporal"
)

func newSearchService(store *fakeStore, model *fakeModel) *SearchService {
	logger := slog.Default()
	resolver := temporal.NewResolver(nil, logger)
	var gen answerGenerator
	if model != nil {
		gen = model
	}
	return NewSearchService(store, &fakeEmbedder{}, resolver, gen, 15, 0.2, logger)
}

func seedReminder(store *fakeStore, id, title string, date, clock *string) {
	r := testReminder(id, title)
	r.Date = date
	r.Time = clock
	store.reminders[id] = r
}

func TestSearch_DateAnchored(t *testing.T) {
	store := newFakeStore()
	seedReminder(store, "r1", "Dentist", strPtr("2025-06-10"), strPtr("14:30"))
	model := &fakeModel{response: `{}`}
	svc := newSearchService(store, model)

	today, _ := time.Parse(models.DateLayout, "2025-06-10")
	result, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: testOwner,
		Query:   "what do I have today?",
		Today:   today,
	})
	require.NoError(t, err)

	require.Len(t, result.Evidence, 1)
	assert.Equal(t, "r1", result.Evidence[0].ReminderID)
	assert.Equal(t, 1.0, result.Evidence[0].Score)
	assert.Contains(t, result.Answer, "Dentist")
	assert.Contains(t, result.Answer, "14:30")
	assert.Zero(t, model.callCount(), "date-anchored answers must not call the model")
}

func TestSearch_EmptyRange(t *testing.T) {
	store := newFakeStore()
	svc := newSearchService(store, &fakeModel{response: `{}`})

	today, _ := time.Parse(models.DateLayout, "2025-06-10")
	result, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: testOwner,
		Query:   "anything today?",
		Today:   today,
	})
	require.NoError(t, err)

	assert.Contains(t, result.Answer, "Nothing scheduled for 2025-06-10")
	assert.NotEmpty(t, result.FollowUp)
	assert.Empty(t, result.Evidence)
}

func TestSearch_SemanticRanking(t *testing.T) {
	store := newFakeStore()
	seedReminder(store, "gym", "Gym session", nil, nil)
	seedReminder(store, "milk", "Buy milk", nil, nil)
	store.matches = []models.SimilarityMatch{
		{ReminderID: "milk", Content: "Buy milk", Score: 0.31},
		{ReminderID: "gym", Content: "Gym session", Score: 0.92},
	}
	model := &fakeModel{response: `{"answer":"You have a gym session saved.","follow_up":"Want the details?"}`}
	svc := newSearchService(store, model)

	result, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: testOwner,
		Query:   "gym",
	})
	require.NoError(t, err)

	require.Len(t, result.Evidence, 2)
	assert.Equal(t, "gym", result.Evidence[0].ReminderID, "higher similarity must rank first")
	assert.Equal(t, "milk", result.Evidence[1].ReminderID)
	assert.Equal(t, "You have a gym session saved.", result.Answer)
	assert.Equal(t, 1, model.callCount())
}

func TestSearch_SemanticNoMatches(t *testing.T) {
	store := newFakeStore()
	model := &fakeModel{response: `{}`}
	svc := newSearchService(store, model)

	result, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: testOwner,
		Query:   "submarine lessons",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Evidence)
	assert.NotEmpty(t, result.Answer)
	assert.Zero(t, model.callCount(), "empty evidence must not reach the model")
}

func TestSearch_EvidenceNeverMerged(t *testing.T) {
	store := newFakeStore()
	seedReminder(store, "r1", "Dentist", strPtr("2025-06-10"), nil)
	seedReminder(store, "sem", "Teeth cleaning tips", nil, nil)
	store.matches = []models.SimilarityMatch{
		{ReminderID: "sem", Content: "Teeth cleaning tips", Score: 0.88},
	}
	svc := newSearchService(store, &fakeModel{response: `{}`})

	today, _ := time.Parse(models.DateLayout, "2025-06-10")
	result, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: testOwner,
		Query:   "dentist today",
		Today:   today,
	})
	require.NoError(t, err)

	require.Len(t, result.Evidence, 1)
	assert.Equal(t, "r1", result.Evidence[0].ReminderID)
	assert.Equal(t, 1.0, result.Evidence[0].Score)
}

func TestSearch_ExplicitRangeWins(t *testing.T) {
	store := newFakeStore()
	seedReminder(store, "r1", "Flight", strPtr("2025-07-01"), nil)
	svc := newSearchService(store, &fakeModel{response: `{}`})

	today, _ := time.Parse(models.DateLayout, "2025-06-10")
	// Query says "today" but the caller pins July; the explicit range rules.
	result, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: testOwner,
		Query:   "what do I have today?",
		Start:   "2025-07-01",
		End:     "2025-07-07",
		Today:   today,
	})
	require.NoError(t, err)

	require.Len(t, result.Evidence, 1)
	assert.Equal(t, "r1", result.Evidence[0].ReminderID)
}

func TestSearch_InvalidExplicitRange(t *testing.T) {
	svc := newSearchService(newFakeStore(), nil)

	_, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: testOwner,
		Query:   "x",
		Start:   "July 1st",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearch_DeletedReminderExcludedFromEvidence(t *testing.T) {
	store := newFakeStore()
	// Embedding still present, reminder already gone.
	store.matches = []models.SimilarityMatch{
		{ReminderID: "ghost", Content: "Old reminder", Score: 0.9},
	}
	svc := newSearchService(store, &fakeModel{response: `{}`})

	result, err := svc.Search(context.Background(), SearchRequest{
		OwnerID: testOwner,
		Query:   "old",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Evidence)
}
