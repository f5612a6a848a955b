package tools

import (
	"context"

	"github.com/raphaelgruber/remind-go/internal/service"
)

// SearchInput are the arguments for search_reminders.
type SearchInput struct {
	Query     string `json:"query,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func (d *Dispatcher) searchReminders(ctx context.Context, req Request, args string) (string, error) {
	var input SearchInput
	if err := parseArgs(args, &input); err != nil {
		return failure(err.Error(), "Send query and optional start_date/end_date as a JSON object"), nil
	}
	if input.Query == "" && input.StartDate == "" {
		return failure("query or start_date is required", "Provide a search query or a date range"), nil
	}

	result, err := d.search.Search(ctx, service.SearchRequest{
		OwnerID: req.OwnerID,
		Query:   input.Query,
		Start:   input.StartDate,
		End:     input.EndDate,
		Today:   req.Today,
	})
	if err != nil {
		if recoverable(err) {
			return failure(err.Error(), "Use YYYY-MM-DD for dates"), nil
		}
		return "", err
	}

	return envelope(map[string]any{
		"answer":    result.Answer,
		"follow_up": result.FollowUp,
		"evidence":  result.Evidence,
	}), nil
}
