package tools

import (
	"context"

	"github.com/raphaelgruber/remind-go/internal/models"
)

// UpdateInput are the arguments for update_reminder. Pointer fields
// distinguish "leave unchanged" from explicit values, notably
// completed=false.
type UpdateInput struct {
	ReminderID string  `json:"reminder_id"`
	Title      *string `json:"title,omitempty"`
	Date       *string `json:"date,omitempty"`
	Time       *string `json:"time,omitempty"`
	Completed  *bool   `json:"completed,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

func (d *Dispatcher) updateReminder(ctx context.Context, req Request, args string) (string, error) {
	var input UpdateInput
	if err := parseArgs(args, &input); err != nil {
		return failure(err.Error(), "Send reminder_id plus the fields to change"), nil
	}
	if input.ReminderID == "" {
		return failure("reminder_id is required", "Use an ID from a previous search_reminders result"), nil
	}

	patch := models.UpdateReminderInput{
		Title:     input.Title,
		Date:      input.Date,
		Time:      input.Time,
		Completed: input.Completed,
		Notes:     input.Notes,
	}
	if patch.Empty() {
		return failure("no fields to update", "Include at least one of title, date, time, completed, notes"), nil
	}

	reminder, err := d.reminders.Update(ctx, req.OwnerID, input.ReminderID, patch)
	if err != nil {
		if recoverable(err) {
			return failure(err.Error(), "Check the reminder_id against a fresh search_reminders result"), nil
		}
		return "", err
	}

	return envelope(map[string]any{"reminder": reminder}), nil
}
