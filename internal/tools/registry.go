package tools

import "github.com/tmc/langchaingo/llms"

// Tool names as advertised to the model.
const (
	NameDraftReminder  = "draft_reminder"
	NameCreateReminder = "create_reminder"
	NameSearchReminder = "search_reminders"
	NameUpdateReminder = "update_reminder"
	NameDeleteReminder = "delete_reminder"
)

var reminderFieldProps = map[string]any{
	"title": map[string]any{
		"type":        "string",
		"description": "What to be reminded about",
	},
	"date": map[string]any{
		"type":        "string",
		"description": "Calendar date as YYYY-MM-DD",
	},
	"time": map[string]any{
		"type":        "string",
		"description": "24-hour clock time as HH:mm",
	},
	"repeat": map[string]any{
		"type":        "string",
		"enum":        []string{"none", "daily", "weekly", "monthly", "yearly"},
		"description": "Recurrence of the reminder",
	},
	"repeat_until": map[string]any{
		"type":        "string",
		"description": "Last date (YYYY-MM-DD) a repeating reminder fires",
	},
	"tag_name": map[string]any{
		"type":        "string",
		"description": "Free-text tag label, matched against the user's existing tags",
	},
	"priority_name": map[string]any{
		"type":        "string",
		"description": "Free-text priority label, matched against the user's existing priorities",
	},
	"notes": map[string]any{
		"type":        "string",
		"description": "Additional free-form notes",
	},
}

// Definitions returns the fixed tool registry advertised on every model
// call. The set never changes mid-conversation.
func Definitions() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        NameDraftReminder,
				Description: "Draft a reminder for the user to confirm, WITHOUT saving it. Use this when the user's intent to create is plausible but not explicit. After drafting, stop and ask the user to confirm.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": reminderFieldProps,
					"required":   []string{"title"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        NameCreateReminder,
				Description: "Persist a new reminder. Only use when the user has clearly asked for it or confirmed a draft.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": reminderFieldProps,
					"required":   []string{"title"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        NameSearchReminder,
				Description: "Search the user's reminders. Handles natural date expressions; pass start_date/end_date only when you already know the exact range.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "Free-form search query",
						},
						"start_date": map[string]any{
							"type":        "string",
							"description": "Range start as YYYY-MM-DD",
						},
						"end_date": map[string]any{
							"type":        "string",
							"description": "Range end as YYYY-MM-DD, defaults to start_date",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        NameUpdateReminder,
				Description: "Update fields of an existing reminder. reminder_id must come from a prior search_reminders result in this conversation.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"reminder_id": map[string]any{
							"type":        "string",
							"description": "ID of the reminder to update",
						},
						"title":     map[string]any{"type": "string"},
						"date":      map[string]any{"type": "string", "description": "YYYY-MM-DD"},
						"time":      map[string]any{"type": "string", "description": "HH:mm"},
						"completed": map[string]any{"type": "boolean"},
						"notes":     map[string]any{"type": "string"},
					},
					"required": []string{"reminder_id"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        NameDeleteReminder,
				Description: "Permanently delete a reminder. reminder_id must come from a prior search_reminders result in this conversation.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"reminder_id": map[string]any{
							"type":        "string",
							"description": "ID of the reminder to delete",
						},
					},
					"required": []string{"reminder_id"},
				},
			},
		},
	}
}
