package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	addDate     string
	addTime     string
	addRepeat   string
	addUntil    string
	addTag      string
	addPriority string
	addNotes    string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a reminder",
	Long: `Add a reminder directly, without going through the agent.

Dates are YYYY-MM-DD and times are HH:MM (24h). Tag and priority are
free-text labels; unknown labels are dropped with a warning rather than
created implicitly.

Examples:
  remind add "Call mom" --date 2026-09-04 --time 15:00
  remind add "Water the plants" --date 2026-09-01 --repeat weekly
  remind add "Pay rent" --date 2026-09-01 --repeat monthly --until 2027-08-01 --priority high
  remind add "Buy milk" --tag errands --notes "oat milk, two cartons"`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addDate, "date", "d", "", "due date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addTime, "time", "", "due time (HH:MM)")
	addCmd.Flags().StringVarP(&addRepeat, "repeat", "r", "", "repeat cadence (daily, weekly, monthly, yearly)")
	addCmd.Flags().StringVar(&addUntil, "until", "", "last date the repeat applies (YYYY-MM-DD)")
	addCmd.Flags().StringVarP(&addTag, "tag", "t", "", "tag label")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "priority label")
	addCmd.Flags().StringVarP(&addNotes, "notes", "n", "", "free-form notes")
}

func runAdd(cmd *cobra.Command, args []string) error {
	if err := requireLocal(); err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := reminderService(ctx)
	if err != nil {
		return err
	}

	input := models.CreateReminderInput{
		Title:        args[0],
		Repeat:       models.Repeat(addRepeat),
		TagName:      addTag,
		PriorityName: addPriority,
	}
	if addDate != "" {
		input.Date = &addDate
	}
	if addTime != "" {
		input.Time = &addTime
	}
	if addUntil != "" {
		input.RepeatUntil = &addUntil
	}
	if addNotes != "" {
		input.Notes = &addNotes
	}

	reminder, warnings, err := svc.Create(ctx, ownerID, input)
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}

	for _, w := range warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	fmt.Printf("Created reminder: %s (%s)\n", reminder.Title, models.MustRecordIDString(reminder.ID))
	if verbose {
		printReminderDetails(*reminder)
	}

	return nil
}
