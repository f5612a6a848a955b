package tools

import (
	"context"

	"github.com/raphaelgruber/remind-go/internal/models"
)

func (d *Dispatcher) createReminder(ctx context.Context, req Request, args string) (string, error) {
	var input ReminderInput
	if err := parseArgs(args, &input); err != nil {
		return failure(err.Error(), "Send the reminder fields as a JSON object"), nil
	}

	create := models.CreateReminderInput{
		Title:        input.Title,
		Repeat:       models.Repeat(input.Repeat),
		TagName:      input.TagName,
		PriorityName: input.PriorityName,
	}
	if input.Date != "" {
		create.Date = &input.Date
	}
	if input.Time != "" {
		create.Time = &input.Time
	}
	if input.RepeatUntil != "" {
		create.RepeatUntil = &input.RepeatUntil
	}
	if input.Notes != "" {
		create.Notes = &input.Notes
	}

	reminder, warnings, err := d.reminders.Create(ctx, req.OwnerID, create)
	if err != nil {
		if recoverable(err) {
			return failure(err.Error(), "Fix the fields and try again, or ask the user"), nil
		}
		return "", err
	}

	fields := map[string]any{
		"reminder": reminder,
	}
	if len(warnings) > 0 {
		fields["warnings"] = warnings
	}
	return envelope(fields), nil
}
