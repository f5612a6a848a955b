package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/remind-go/internal/models"
)

// EmbeddingStore is the slice of the database layer the indexer writes to.
// GetTag resolves the tag reference a reminder carries, so the tag name ends
// up in the embedded text.
type EmbeddingStore interface {
	UpsertEmbedding(ctx context.Context, rec models.EmbeddingRecord) error
	DeleteEmbedding(ctx context.Context, reminderID string) error
	DeleteOrphanEmbeddings(ctx context.Context) (int, error)
	GetTag(ctx context.Context, id surrealmodels.RecordID) (*models.Tag, error)
}

// TextEmbedder turns text into a vector.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type indexOp string

const (
	opUpsert indexOp = "upsert"
	opDelete indexOp = "delete"
)

type indexEvent struct {
	id         string
	op         indexOp
	reminder   models.Reminder
	reminderID string
}

// Indexer keeps the embedding store in sync with reminder mutations.
// Mutations enqueue events and return immediately; a single worker applies
// them in order, so semantic search may briefly lag behind the store. A
// periodic sweep removes embedding records whose reminder is gone.
type Indexer struct {
	store    EmbeddingStore
	embedder TextEmbedder
	logger   *slog.Logger

	events        chan indexEvent
	sweepInterval time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

// NewIndexer creates an indexer with a bounded event queue.
func NewIndexer(store EmbeddingStore, embedder TextEmbedder, logger *slog.Logger) *Indexer {
	return &Indexer{
		store:         store,
		embedder:      embedder,
		logger:        logger,
		events:        make(chan indexEvent, 256),
		sweepInterval: 10 * time.Minute,
	}
}

// Start launches the worker and the orphan sweep. Call Close to stop.
func (ix *Indexer) Start(ctx context.Context) {
	ctx, ix.cancel = context.WithCancel(ctx)

	ix.wg.Add(2)
	go func() {
		defer ix.wg.Done()
		ix.run(ctx)
	}()
	go func() {
		defer ix.wg.Done()
		ix.sweepLoop(ctx)
	}()
}

// Close stops the workers, waits for the in-flight event to finish, and
// drains whatever is still queued so short-lived processes don't lose writes.
func (ix *Indexer) Close() {
	ix.once.Do(func() {
		if ix.cancel != nil {
			ix.cancel()
		}
		ix.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		ix.Flush(ctx)
	})
}

// Flush synchronously applies every queued event. Used at shutdown and by
// one-shot CLI invocations that never start the worker.
func (ix *Indexer) Flush(ctx context.Context) {
	for {
		select {
		case ev := <-ix.events:
			if err := ix.process(ctx, ev); err != nil {
				ix.logger.Warn("indexer flush event failed", "event_id", ev.id, "op", ev.op, "reminder_id", ev.reminderID, "error", err)
			}
		default:
			return
		}
	}
}

// EnqueueUpsert schedules an embedding refresh for a reminder. Never blocks:
// when the queue is full the event is dropped with a warning, and the sweep
// plus the next mutation keep the store from drifting permanently.
func (ix *Indexer) EnqueueUpsert(r models.Reminder) {
	reminderID, err := models.RecordIDString(r.ID)
	if err != nil {
		ix.logger.Warn("indexer: cannot derive reminder ID", "error", err)
		return
	}
	ix.enqueue(indexEvent{id: uuid.New().String()[:8], op: opUpsert, reminder: r, reminderID: reminderID})
}

// EnqueueDelete schedules removal of a reminder's embedding record.
func (ix *Indexer) EnqueueDelete(reminderID string) {
	ix.enqueue(indexEvent{id: uuid.New().String()[:8], op: opDelete, reminderID: reminderID})
}

func (ix *Indexer) enqueue(ev indexEvent) {
	select {
	case ix.events <- ev:
	default:
		ix.logger.Warn("indexer queue full, dropping event", "event_id", ev.id, "op", ev.op, "reminder_id", ev.reminderID)
	}
}

func (ix *Indexer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ix.events:
			if err := ix.process(ctx, ev); err != nil {
				// One retry; a reminder whose embedding write keeps failing
				// is simply absent from semantic results.
				ix.logger.Warn("indexer event failed, retrying", "event_id", ev.id, "op", ev.op, "error", err)
				if err := ix.process(ctx, ev); err != nil {
					ix.logger.Error("indexer event failed", "event_id", ev.id, "op", ev.op, "reminder_id", ev.reminderID, "error", err)
				}
			}
		}
	}
}

func (ix *Indexer) process(ctx context.Context, ev indexEvent) error {
	switch ev.op {
	case opDelete:
		return ix.store.DeleteEmbedding(ctx, ev.reminderID)

	case opUpsert:
		tagName := ""
		if ev.reminder.Tag != nil {
			tag, err := ix.store.GetTag(ctx, *ev.reminder.Tag)
			if err != nil {
				return fmt.Errorf("resolve tag: %w", err)
			}
			if tag != nil {
				tagName = tag.Name
			}
		}
		content := BuildContent(ev.reminder, tagName)
		vec, err := ix.embedder.Embed(ctx, content)
		if err != nil {
			return fmt.Errorf("embed reminder: %w", err)
		}
		rec := models.EmbeddingRecord{
			ReminderID: ev.reminderID,
			OwnerID:    ev.reminder.OwnerID,
			Content:    content,
			Date:       ev.reminder.Date,
			Embedding:  vec,
		}
		return ix.store.UpsertEmbedding(ctx, rec)

	default:
		return fmt.Errorf("unknown index op %q", ev.op)
	}
}

func (ix *Indexer) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(ix.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := ix.store.DeleteOrphanEmbeddings(ctx)
			if err != nil {
				ix.logger.Warn("orphan embedding sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				ix.logger.Info("orphan embedding sweep", "removed", removed)
			}
		}
	}
}

// BuildContent renders the text that gets embedded for a reminder. The same
// reminder and tag name always yield the same string, so unchanged reminders
// re-embed to the same vector.
func BuildContent(r models.Reminder, tagName string) string {
	parts := []string{r.Title}
	if r.Notes != nil && *r.Notes != "" {
		parts = append(parts, *r.Notes)
	}
	if r.Date != nil && *r.Date != "" {
		parts = append(parts, "on "+*r.Date)
	}
	if r.Time != nil && *r.Time != "" {
		parts = append(parts, "at "+*r.Time)
	}
	if tagName != "" {
		parts = append(parts, "tagged "+tagName)
	}
	if r.Repeat != "" && r.Repeat != models.RepeatNone {
		parts = append(parts, "repeats "+string(r.Repeat))
	}
	return strings.Join(parts, " | ")
}
