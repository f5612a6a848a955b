package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Repeat describes the recurrence of a reminder.
type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
	RepeatYearly  Repeat = "yearly"
)

// Valid reports whether r is one of the known repeat values.
func (r Repeat) Valid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	}
	return false
}

// Reminder is a single scheduled item owned by exactly one user.
// Dates are calendar dates ("2006-01-02"), times are 24h clock times ("15:04");
// both stay strings all the way to the wire to avoid timezone ambiguity.
type Reminder struct {
	ID          surrealmodels.RecordID  `json:"id"`
	OwnerID     string                  `json:"owner_id"`
	Title       string                  `json:"title"`
	Date        *string                 `json:"date,omitempty"`
	Time        *string                 `json:"time,omitempty"`
	Repeat      Repeat                  `json:"repeat"`
	RepeatUntil *string                 `json:"repeat_until,omitempty"`
	Tag         *surrealmodels.RecordID `json:"tag,omitempty"`
	Priority    *surrealmodels.RecordID `json:"priority,omitempty"`
	Notes       *string                 `json:"notes,omitempty"`
	Completed   bool                    `json:"completed"`
	Created     time.Time               `json:"created,omitempty"`
}

// CreateReminderInput carries the fields for a new reminder.
// TagName and PriorityName are free-text labels resolved against the owner's
// taxonomy; unresolvable names are dropped with a warning, never an error.
type CreateReminderInput struct {
	Title        string  `json:"title"`
	Date         *string `json:"date,omitempty"`
	Time         *string `json:"time,omitempty"`
	Repeat       Repeat  `json:"repeat,omitempty"`
	RepeatUntil  *string `json:"repeat_until,omitempty"`
	TagName      string  `json:"tag_name,omitempty"`
	PriorityName string  `json:"priority_name,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// UpdateReminderInput is a partial update; nil fields are left untouched.
type UpdateReminderInput struct {
	Title     *string `json:"title,omitempty"`
	Date      *string `json:"date,omitempty"`
	Time      *string `json:"time,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (u UpdateReminderInput) Empty() bool {
	return u.Title == nil && u.Date == nil && u.Time == nil && u.Completed == nil && u.Notes == nil
}
