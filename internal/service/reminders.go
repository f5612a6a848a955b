// Package service provides the business logic for reminder management:
// validated CRUD with taxonomy resolution, hybrid retrieval and the
// embedding indexer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/raphaelgruber/remind-go/internal/db"
	"github.com/raphaelgruber/remind-go/internal/models"
)

// ErrInvalidInput marks validation failures. Tool handlers and the HTTP
// layer translate it into a recoverable failure instead of an
// infrastructure error.
var ErrInvalidInput = errors.New("invalid input")

// ReminderStore is the slice of the database layer the reminder service
// needs. *db.Client satisfies it.
type ReminderStore interface {
	CreateReminder(ctx context.Context, p db.CreateReminderParams) (*models.Reminder, error)
	GetReminder(ctx context.Context, ownerID, id string) (*models.Reminder, error)
	UpdateReminder(ctx context.Context, ownerID, id string, patch models.UpdateReminderInput) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, ownerID, id string) error
	ListReminders(ctx context.Context, ownerID string, includeCompleted bool, limit int) ([]models.Reminder, error)
	ListRemindersByDateRange(ctx context.Context, ownerID, start, end string) ([]models.Reminder, error)
	FindTagByName(ctx context.Context, ownerID, name string) (*models.Tag, error)
	FindPriorityByName(ctx context.Context, ownerID, name string) (*models.Priority, error)
}

// ReminderService handles reminder CRUD with taxonomy resolution. Every
// mutation notifies the indexer fire-and-forget; the caller never waits for
// the embedding write.
type ReminderService struct {
	store   ReminderStore
	indexer *Indexer
	logger  *slog.Logger
}

// NewReminderService creates a reminder service. A nil indexer disables
// embedding maintenance.
func NewReminderService(store ReminderStore, indexer *Indexer, logger *slog.Logger) *ReminderService {
	return &ReminderService{store: store, indexer: indexer, logger: logger}
}

// Create validates and inserts a new reminder. Unresolvable tag or priority
// names are dropped and reported in the returned warnings, never as errors.
func (s *ReminderService) Create(ctx context.Context, ownerID string, input models.CreateReminderInput) (*models.Reminder, []string, error) {
	warnings := []string{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.Date != nil && !models.ValidDate(*input.Date) {
		return nil, nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, *input.Date)
	}
	if input.Time != nil && !models.ValidTime(*input.Time) {
		return nil, nil, fmt.Errorf("%w: time %q must be HH:mm", ErrInvalidInput, *input.Time)
	}

	repeat := input.Repeat
	if repeat == "" {
		repeat = models.RepeatNone
	}
	if !repeat.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown repeat %q", ErrInvalidInput, input.Repeat)
	}

	repeatUntil := input.RepeatUntil
	if repeatUntil != nil {
		if repeat == models.RepeatNone {
			warnings = append(warnings, "repeat_until ignored because the reminder does not repeat")
			repeatUntil = nil
		} else if !models.ValidDate(*repeatUntil) {
			return nil, nil, fmt.Errorf("%w: repeat_until %q must be YYYY-MM-DD", ErrInvalidInput, *repeatUntil)
		}
	}

	params := db.CreateReminderParams{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       title,
		Date:        input.Date,
		Time:        input.Time,
		Repeat:      repeat,
		RepeatUntil: repeatUntil,
		Notes:       input.Notes,
	}

	if name := strings.TrimSpace(input.TagName); name != "" {
		tag, err := s.store.FindTagByName(ctx, ownerID, name)
		if err != nil {
			return nil, nil, err
		}
		if tag == nil {
			warnings = append(warnings, fmt.Sprintf("unknown tag %q dropped", name))
		} else {
			params.TagID = &tag.ID
		}
	}
	if name := strings.TrimSpace(input.PriorityName); name != "" {
		priority, err := s.store.FindPriorityByName(ctx, ownerID, name)
		if err != nil {
			return nil, nil, err
		}
		if priority == nil {
			warnings = append(warnings, fmt.Sprintf("unknown priority %q dropped", name))
		} else {
			params.PriorityID = &priority.ID
		}
	}

	reminder, err := s.store.CreateReminder(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("reminder created",
		"owner_id", ownerID, "reminder_id", params.ID, "title", title, "warnings", len(warnings))
	s.enqueueUpsert(*reminder)
	return reminder, warnings, nil
}

// Get retrieves one reminder, owner-scoped.
func (s *ReminderService) Get(ctx context.Context, ownerID, id string) (*models.Reminder, error) {
	return s.store.GetReminder(ctx, ownerID, id)
}

// Update applies a partial update and refreshes the embedding.
func (s *ReminderService) Update(ctx context.Context, ownerID, id string, patch models.UpdateReminderInput) (*models.Reminder, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if patch.Date != nil && !models.ValidDate(*patch.Date) {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, *patch.Date)
	}
	if patch.Time != nil && !models.ValidTime(*patch.Time) {
		return nil, fmt.Errorf("%w: time %q must be HH:mm", ErrInvalidInput, *patch.Time)
	}

	reminder, err := s.store.UpdateReminder(ctx, ownerID, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("reminder updated", "owner_id", ownerID, "reminder_id", id)
	s.enqueueUpsert(*reminder)
	return reminder, nil
}

// Complete marks a reminder done.
func (s *ReminderService) Complete(ctx context.Context, ownerID, id string) (*models.Reminder, error) {
	done := true
	return s.Update(ctx, ownerID, id, models.UpdateReminderInput{Completed: &done})
}

// Delete removes a reminder and its embedding record.
func (s *ReminderService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteReminder(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info("reminder deleted", "owner_id", ownerID, "reminder_id", id)
	if s.indexer != nil {
		s.indexer.EnqueueDelete(id)
	}
	return nil
}

// List returns an owner's reminders, newest first.
func (s *ReminderService) List(ctx context.Context, ownerID string, includeCompleted bool, limit int) ([]models.Reminder, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListReminders(ctx, ownerID, includeCompleted, limit)
}

// ListByDateRange returns an owner's reminders inside [start, end].
func (s *ReminderService) ListByDateRange(ctx context.Context, ownerID, start, end string) ([]models.Reminder, error) {
	if !models.ValidDate(start) || !models.ValidDate(end) {
		return nil, fmt.Errorf("%w: range bounds must be YYYY-MM-DD", ErrInvalidInput)
	}
	return s.store.ListRemindersByDateRange(ctx, ownerID, start, end)
}

func (s *ReminderService) enqueueUpsert(r models.Reminder) {
	if s.indexer != nil {
		s.indexer.EnqueueUpsert(r)
	}
}
