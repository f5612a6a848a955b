package tools

import (
	"github.com/raphaelgruber/remind-go/internal/models"
)

// ReminderInput is the argument shape shared by draft_reminder and
// create_reminder.
type ReminderInput struct {
	Title        string `json:"title"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	Repeat       string `json:"repeat,omitempty"`
	RepeatUntil  string `json:"repeat_until,omitempty"`
	TagName      string `json:"tag_name,omitempty"`
	PriorityName string `json:"priority_name,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// draftReminder echoes a validated reminder back without touching the
// store. The conversation instructions make the model stop after a draft so
// the user can confirm before anything persists.
func (d *Dispatcher) draftReminder(args string) (string, error) {
	var input ReminderInput
	if err := parseArgs(args, &input); err != nil {
		return failure(err.Error(), "Send the reminder fields as a JSON object"), nil
	}

	if input.Title == "" {
		return failure("title is required", "Ask the user what the reminder is about"), nil
	}
	if input.Date != "" && !models.ValidDate(input.Date) {
		return failuref("Use YYYY-MM-DD", "invalid date %q", input.Date), nil
	}
	if input.Time != "" && !models.ValidTime(input.Time) {
		return failuref("Use 24-hour HH:mm", "invalid time %q", input.Time), nil
	}

	fields := map[string]any{
		"is_draft": true,
		"title":    input.Title,
	}
	if input.Date != "" {
		fields["date"] = input.Date
	}
	if input.Time != "" {
		fields["time"] = input.Time
	}
	if input.Repeat != "" {
		fields["repeat"] = input.Repeat
	}
	if input.RepeatUntil != "" {
		fields["repeat_until"] = input.RepeatUntil
	}
	if input.TagName != "" {
		fields["tag_name"] = input.TagName
	}
	if input.PriorityName != "" {
		fields["priority_name"] = input.PriorityName
	}
	if input.Notes != "" {
		fields["notes"] = input.Notes
	}
	return envelope(fields), nil
}
