package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// CreateReminderParams carries a fully resolved reminder row: free-text
// tag/priority names have already been turned into record references (or
// dropped) by the service layer.
type CreateReminderParams struct {
	ID          string
	OwnerID     string
	Title       string
	Date        *string
	Time        *string
	Repeat      models.Repeat
	RepeatUntil *string
	TagID       *surrealmodels.RecordID
	PriorityID  *surrealmodels.RecordID
	Notes       *string
}

// CreateReminder inserts a new reminder and returns the created record.
func (c *Client) CreateReminder(ctx context.Context, p CreateReminderParams) (*models.Reminder, error) {
	sql := `
		CREATE type::record("reminder", $id) SET
			owner_id = $owner_id,
			title = $title,
			date = $date,
			time = $time,
			repeat = $repeat,
			repeat_until = $repeat_until,
			tag = $tag,
			priority = $priority,
			notes = $notes,
			completed = false
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.Reminder](ctx, c.db, sql, map[string]any{
		"id":           p.ID,
		"owner_id":     p.OwnerID,
		"title":        p.Title,
		"date":         p.Date,
		"time":         p.Time,
		"repeat":       string(p.Repeat),
		"repeat_until": p.RepeatUntil,
		"tag":          p.TagID,
		"priority":     p.PriorityID,
		"notes":        p.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create reminder: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// GetReminder retrieves a reminder by ID, scoped to its owner.
// Returns ErrNotFound when the record is absent or owned by someone else.
func (c *Client) GetReminder(ctx context.Context, ownerID, id string) (*models.Reminder, error) {
	results, err := surrealdb.Query[[]models.Reminder](ctx, c.db, `
		SELECT * FROM type::record("reminder", $id) WHERE owner_id = $owner_id
	`, map[string]any{"id": id, "owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get reminder %q: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// UpdateReminder applies a partial update to an owner's reminder and returns
// the record after the update. Nil patch fields are left untouched.
func (c *Client) UpdateReminder(ctx context.Context, ownerID, id string, patch models.UpdateReminderInput) (*models.Reminder, error) {
	sets := make([]string, 0, 5)
	vars := map[string]any{"id": id, "owner_id": ownerID}

	if patch.Title != nil {
		sets = append(sets, "title = $title")
		vars["title"] = *patch.Title
	}
	if patch.Date != nil {
		sets = append(sets, "date = $date")
		vars["date"] = *patch.Date
	}
	if patch.Time != nil {
		sets = append(sets, "time = $time")
		vars["time"] = *patch.Time
	}
	if patch.Completed != nil {
		sets = append(sets, "completed = $completed")
		vars["completed"] = *patch.Completed
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = $notes")
		vars["notes"] = *patch.Notes
	}
	if len(sets) == 0 {
		return c.GetReminder(ctx, ownerID, id)
	}

	sql := fmt.Sprintf(`
		UPDATE type::record("reminder", $id) SET %s
		WHERE owner_id = $owner_id
		RETURN AFTER
	`, strings.Join(sets, ", "))

	results, err := surrealdb.Query[[]models.Reminder](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("update reminder %q: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// DeleteReminder removes an owner's reminder. Returns ErrNotFound when
// nothing was deleted, so ownership misses are indistinguishable from
// absent records.
func (c *Client) DeleteReminder(ctx context.Context, ownerID, id string) error {
	results, err := surrealdb.Query[[]models.Reminder](ctx, c.db, `
		DELETE type::record("reminder", $id) WHERE owner_id = $owner_id RETURN BEFORE
	`, map[string]any{"id": id, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("delete reminder %q: %w", id, ErrNotFound)
	}
	return nil
}

// ListRemindersByDateRange returns an owner's reminders whose date falls in
// [start, end], ordered by date then time. Dates are "YYYY-MM-DD" strings,
// so the comparison is lexicographic.
func (c *Client) ListRemindersByDateRange(ctx context.Context, ownerID, start, end string) ([]models.Reminder, error) {
	results, err := surrealdb.Query[[]models.Reminder](ctx, c.db, `
		SELECT * FROM reminder
		WHERE owner_id = $owner_id AND date != NONE AND date >= $start AND date <= $end
		ORDER BY date ASC, time ASC
	`, map[string]any{"owner_id": ownerID, "start": start, "end": end})
	if err != nil {
		return nil, fmt.Errorf("list reminders by date range: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Reminder{}, nil
	}
	return (*results)[0].Result, nil
}

// ListReminders returns an owner's reminders, newest first.
func (c *Client) ListReminders(ctx context.Context, ownerID string, includeCompleted bool, limit int) ([]models.Reminder, error) {
	completedClause := ""
	if !includeCompleted {
		completedClause = "AND completed = false"
	}

	sql := fmt.Sprintf(`
		SELECT * FROM reminder
		WHERE owner_id = $owner_id %s
		ORDER BY created DESC
		LIMIT $limit
	`, completedClause)

	results, err := surrealdb.Query[[]models.Reminder](ctx, c.db, sql, map[string]any{
		"owner_id": ownerID,
		"limit":    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Reminder{}, nil
	}
	return (*results)[0].Result, nil
}

// =============================================================================
// TAXONOMY
// =============================================================================

// FindTagByName resolves a free-text tag name for an owner using
// case-insensitive exact match. Returns (nil, nil) when there is no match;
// callers treat that as a dropped reference, never an error.
func (c *Client) FindTagByName(ctx context.Context, ownerID, name string) (*models.Tag, error) {
	results, err := surrealdb.Query[[]models.Tag](ctx, c.db, `
		SELECT * FROM tag
		WHERE owner_id = $owner_id AND string::lowercase(name) = string::lowercase($name)
		LIMIT 1
	`, map[string]any{"owner_id": ownerID, "name": name})
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// GetTag retrieves a tag by record reference. Returns (nil, nil) when the
// tag is gone; callers treat that like an untagged reminder.
func (c *Client) GetTag(ctx context.Context, id surrealmodels.RecordID) (*models.Tag, error) {
	results, err := surrealdb.Query[[]models.Tag](ctx, c.db, `
		SELECT * FROM $id
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// FindPriorityByName resolves a free-text priority name for an owner.
// Same null-on-no-match contract as FindTagByName.
func (c *Client) FindPriorityByName(ctx context.Context, ownerID, name string) (*models.Priority, error) {
	results, err := surrealdb.Query[[]models.Priority](ctx, c.db, `
		SELECT * FROM priority
		WHERE owner_id = $owner_id AND string::lowercase(name) = string::lowercase($name)
		LIMIT 1
	`, map[string]any{"owner_id": ownerID, "name": name})
	if err != nil {
		return nil, fmt.Errorf("find priority: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// CreateTag inserts a tag for an owner. Duplicate names (per owner) map to
// ErrAlreadyExists via the unique index.
func (c *Client) CreateTag(ctx context.Context, ownerID, name, color string) (*models.Tag, error) {
	results, err := surrealdb.Query[[]models.Tag](ctx, c.db, `
		CREATE tag SET owner_id = $owner_id, name = $name, color = $color RETURN AFTER
	`, map[string]any{"owner_id": ownerID, "name": name, "color": color})
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create tag: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// CreatePriority inserts a priority for an owner. Lower rank sorts first.
func (c *Client) CreatePriority(ctx context.Context, ownerID, name, color string, rank int) (*models.Priority, error) {
	results, err := surrealdb.Query[[]models.Priority](ctx, c.db, `
		CREATE priority SET owner_id = $owner_id, name = $name, color = $color, rank = $rank RETURN AFTER
	`, map[string]any{"owner_id": ownerID, "name": name, "color": color, "rank": rank})
	if err != nil {
		return nil, fmt.Errorf("create priority: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create priority: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// ListPriorities returns an owner's priorities ordered by rank.
func (c *Client) ListPriorities(ctx context.Context, ownerID string) ([]models.Priority, error) {
	results, err := surrealdb.Query[[]models.Priority](ctx, c.db, `
		SELECT * FROM priority WHERE owner_id = $owner_id ORDER BY rank ASC
	`, map[string]any{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("list priorities: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Priority{}, nil
	}
	return (*results)[0].Result, nil
}

// ListTags returns an owner's tags ordered by name.
func (c *Client) ListTags(ctx context.Context, ownerID string) ([]models.Tag, error) {
	results, err := surrealdb.Query[[]models.Tag](ctx, c.db, `
		SELECT * FROM tag WHERE owner_id = $owner_id ORDER BY name ASC
	`, map[string]any{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Tag{}, nil
	}
	return (*results)[0].Result, nil
}

// =============================================================================
// EMBEDDINGS
// =============================================================================

// UpsertEmbedding creates or replaces the embedding record shadowing a
// reminder. The record ID is the reminder ID, which enforces the one-to-one
// relationship.
func (c *Client) UpsertEmbedding(ctx context.Context, rec models.EmbeddingRecord) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("reminder_embedding", $reminder_id) SET
			reminder_id = $reminder_id,
			owner_id = $owner_id,
			content = $content,
			date = $date,
			embedding = $embedding,
			updated = time::now()
	`, map[string]any{
		"reminder_id": rec.ReminderID,
		"owner_id":    rec.OwnerID,
		"content":     rec.Content,
		"date":        rec.Date,
		"embedding":   rec.Embedding,
	})
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", wrapQueryError(err))
	}
	return nil
}

// DeleteEmbedding removes a reminder's embedding record. Idempotent.
func (c *Client) DeleteEmbedding(ctx context.Context, reminderID string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("reminder_embedding", $reminder_id)
	`, map[string]any{"reminder_id": reminderID})
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	return nil
}

// SimilaritySearch runs a KNN vector search over an owner's embedding
// records and returns matches scored by cosine similarity, best first.
// Matches below the threshold are excluded.
func (c *Client) SimilaritySearch(ctx context.Context, ownerID string, vec []float32, k int, threshold float64) ([]models.SimilarityMatch, error) {
	// HNSW with ef=40; the KNN operator needs a literal K.
	sql := fmt.Sprintf(`
		SELECT reminder_id, content, date,
			vector::similarity::cosine(embedding, $emb) AS score
		FROM reminder_embedding
		WHERE owner_id = $owner_id
			AND embedding <|%d,40|> $emb
			AND vector::similarity::cosine(embedding, $emb) >= $threshold
		ORDER BY score DESC
	`, k)

	results, err := surrealdb.Query[[]models.SimilarityMatch](ctx, c.db, sql, map[string]any{
		"owner_id":  ownerID,
		"emb":       vec,
		"threshold": threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.SimilarityMatch{}, nil
	}
	return (*results)[0].Result, nil
}

// DeleteOrphanEmbeddings removes embedding records whose source reminder no
// longer exists. Orphans are expected after deletes (the indexer is
// fire-and-forget); this sweep keeps the lag bounded. Returns the number of
// records removed.
func (c *Client) DeleteOrphanEmbeddings(ctx context.Context) (int, error) {
	idsResult, err := surrealdb.Query[[]string](ctx, c.db, `
		SELECT VALUE reminder_id FROM reminder_embedding
	`, nil)
	if err != nil {
		return 0, fmt.Errorf("list embedding ids: %w", err)
	}
	if idsResult == nil || len(*idsResult) == 0 || len((*idsResult)[0].Result) == 0 {
		return 0, nil
	}
	ids := (*idsResult)[0].Result

	liveResult, err := surrealdb.Query[[]string](ctx, c.db, `
		SELECT VALUE record::id(id) FROM reminder WHERE record::id(id) IN $ids
	`, map[string]any{"ids": ids})
	if err != nil {
		return 0, fmt.Errorf("list live reminder ids: %w", err)
	}

	live := map[string]struct{}{}
	if liveResult != nil && len(*liveResult) > 0 {
		for _, id := range (*liveResult)[0].Result {
			live[id] = struct{}{}
		}
	}

	orphans := make([]string, 0)
	for _, id := range ids {
		if _, ok := live[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	_, err = surrealdb.Query[any](ctx, c.db, `
		DELETE reminder_embedding WHERE reminder_id IN $ids
	`, map[string]any{"ids": orphans})
	if err != nil {
		return 0, fmt.Errorf("delete orphan embeddings: %w", err)
	}
	return len(orphans), nil
}
