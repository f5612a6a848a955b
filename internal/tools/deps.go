// Package tools defines the operations the conversation model may invoke
// and the dispatcher that executes them.
package tools

import (
	"context"

	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/raphaelgruber/remind-go/internal/service"
)

// ReminderOps is the slice of the reminder service the tool handlers use.
type ReminderOps interface {
	Create(ctx context.Context, ownerID string, input models.CreateReminderInput) (*models.Reminder, []string, error)
	Update(ctx context.Context, ownerID, id string, patch models.UpdateReminderInput) (*models.Reminder, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// SearchOps is the retrieval engine as seen from the search tool.
type SearchOps interface {
	Search(ctx context.Context, req service.SearchRequest) (*models.SearchResult, error)
}
