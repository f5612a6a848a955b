package tools

import "context"

// DeleteInput are the arguments for delete_reminder.
type DeleteInput struct {
	ReminderID string `json:"reminder_id"`
}

func (d *Dispatcher) deleteReminder(ctx context.Context, req Request, args string) (string, error) {
	var input DeleteInput
	if err := parseArgs(args, &input); err != nil {
		return failure(err.Error(), "Send reminder_id as a JSON object"), nil
	}
	if input.ReminderID == "" {
		return failure("reminder_id is required", "Use an ID from a previous search_reminders result"), nil
	}

	if err := d.reminders.Delete(ctx, req.OwnerID, input.ReminderID); err != nil {
		if recoverable(err) {
			return failure(err.Error(), "The reminder may already be gone; search again to confirm"), nil
		}
		return "", err
	}

	return envelope(map[string]any{"deleted": input.ReminderID}), nil
}
