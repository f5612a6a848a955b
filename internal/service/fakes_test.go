package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/raphaelgruber/remind-go/internal/db"
	"github.com/raphaelgruber/remind-go/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// fakeStore is an in-memory stand-in for *db.Client.
type fakeStore struct {
	mu          sync.Mutex
	reminders   map[string]models.Reminder
	tags        map[string]models.Tag
	priorities  map[string]models.Priority
	embeddings  map[string]models.EmbeddingRecord
	matches     []models.SimilarityMatch
	failUpserts int
	upsertCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reminders:  map[string]models.Reminder{},
		tags:       map[string]models.Tag{},
		priorities: map[string]models.Priority{},
		embeddings: map[string]models.EmbeddingRecord{},
	}
}

func (f *fakeStore) CreateReminder(_ context.Context, p db.CreateReminderParams) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := models.Reminder{
		ID:          surrealmodels.RecordID{Table: "reminder", ID: p.ID},
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Date:        p.Date,
		Time:        p.Time,
		Repeat:      p.Repeat,
		RepeatUntil: p.RepeatUntil,
		Tag:         p.TagID,
		Priority:    p.PriorityID,
		Notes:       p.Notes,
	}
	f.reminders[p.ID] = r
	return &r, nil
}

func (f *fakeStore) GetReminder(_ context.Context, ownerID, id string) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok || r.OwnerID != ownerID {
		return nil, fmt.Errorf("get reminder %q: %w", id, db.ErrNotFound)
	}
	return &r, nil
}

func (f *fakeStore) UpdateReminder(_ context.Context, ownerID, id string, patch models.UpdateReminderInput) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok || r.OwnerID != ownerID {
		return nil, fmt.Errorf("update reminder %q: %w", id, db.ErrNotFound)
	}
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Date != nil {
		r.Date = patch.Date
	}
	if patch.Time != nil {
		r.Time = patch.Time
	}
	if patch.Completed != nil {
		r.Completed = *patch.Completed
	}
	if patch.Notes != nil {
		r.Notes = patch.Notes
	}
	f.reminders[id] = r
	return &r, nil
}

func (f *fakeStore) DeleteReminder(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok || r.OwnerID != ownerID {
		return fmt.Errorf("delete reminder %q: %w", id, db.ErrNotFound)
	}
	delete(f.reminders, id)
	return nil
}

func (f *fakeStore) ListReminders(_ context.Context, ownerID string, includeCompleted bool, _ int) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Reminder{}
	for _, r := range f.reminders {
		if r.OwnerID != ownerID {
			continue
		}
		if !includeCompleted && r.Completed {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) ListRemindersByDateRange(_ context.Context, ownerID, start, end string) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Reminder{}
	for _, r := range f.reminders {
		if r.OwnerID != ownerID || r.Date == nil {
			continue
		}
		if *r.Date >= start && *r.Date <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) FindTagByName(_ context.Context, ownerID, name string) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tags[name]
	if !ok || t.OwnerID != ownerID {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) GetTag(_ context.Context, id surrealmodels.RecordID) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tag := range f.tags {
		if tag.ID == id {
			return &tag, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindPriorityByName(_ context.Context, ownerID, name string) (*models.Priority, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.priorities[name]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) UpsertEmbedding(_ context.Context, rec models.EmbeddingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.failUpserts > 0 {
		f.failUpserts--
		return fmt.Errorf("store unavailable")
	}
	f.embeddings[rec.ReminderID] = rec
	return nil
}

func (f *fakeStore) DeleteEmbedding(_ context.Context, reminderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.embeddings, reminderID)
	return nil
}

func (f *fakeStore) DeleteOrphanEmbeddings(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for id := range f.embeddings {
		if _, ok := f.reminders[id]; !ok {
			delete(f.embeddings, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeStore) SimilaritySearch(_ context.Context, _ string, _ []float32, _ int, threshold float64) ([]models.SimilarityMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.SimilarityMatch{}
	for _, m := range f.matches {
		if m.Score >= threshold {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) embeddingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.embeddings)
}

func (f *fakeStore) hasEmbedding(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.embeddings[id]
	return ok
}

// fakeEmbedder returns a fixed vector for any text.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return []float32{0.1, 0.2, 0.3}, nil
}

// fakeModel replays a canned JSON payload for GenerateJSON.
type fakeModel struct {
	mu       sync.Mutex
	response string
	calls    int
}

func (f *fakeModel) GenerateJSON(_ context.Context, _, _ string, target any) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return json.Unmarshal([]byte(f.response), target)
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func strPtr(s string) *string { return &s }
