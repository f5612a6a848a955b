package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	listAll   bool
	listLimit int
	listFrom  string
	listTo    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminders",
	Long: `List reminders, most recently created first.

Use --from/--to to list by due date instead (inclusive range, ordered by
date and time). Completed reminders are hidden unless --all is set.

Examples:
  remind list
  remind list --all
  remind list --from 2026-09-01 --to 2026-09-07`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include completed reminders")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "max results")
	listCmd.Flags().StringVar(&listFrom, "from", "", "range start (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTo, "to", "", "range end (YYYY-MM-DD, defaults to --from)")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := requireLocal(); err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := reminderService(ctx)
	if err != nil {
		return err
	}

	var reminders []models.Reminder
	if listFrom != "" {
		end := listTo
		if end == "" {
			end = listFrom
		}
		reminders, err = svc.ListByDateRange(ctx, ownerID, listFrom, end)
		if err != nil {
			return fmt.Errorf("list reminders: %w", err)
		}
	} else {
		if listTo != "" {
			return fmt.Errorf("--to requires --from")
		}
		reminders, err = svc.List(ctx, ownerID, listAll, listLimit)
		if err != nil {
			return fmt.Errorf("list reminders: %w", err)
		}
	}

	if len(reminders) == 0 {
		fmt.Println("No reminders found.")
		return nil
	}

	fmt.Printf("Reminders (%d):\n\n", len(reminders))
	for _, r := range reminders {
		printReminder(r)
	}

	return nil
}

// printReminder renders one reminder as a list line, with details when
// --verbose is set.
func printReminder(r models.Reminder) {
	doneMark := " "
	if r.Completed {
		doneMark = "x"
	}
	fmt.Printf("[%s] %s  %s\n", doneMark, formatWhen(r), r.Title)
	if verbose {
		printReminderDetails(r)
	}
}

func printReminderDetails(r models.Reminder) {
	fmt.Printf("    ID: %s\n", models.MustRecordIDString(r.ID))
	if r.Repeat != "" && r.Repeat != models.RepeatNone {
		until := ""
		if r.RepeatUntil != nil {
			until = " until " + *r.RepeatUntil
		}
		fmt.Printf("    Repeats: %s%s\n", r.Repeat, until)
	}
	if r.Notes != nil && *r.Notes != "" {
		fmt.Printf("    Notes: %s\n", *r.Notes)
	}
	if tag := models.RecordIDStringPtr(r.Tag); tag != nil {
		fmt.Printf("    Tag: %s\n", *tag)
	}
	if prio := models.RecordIDStringPtr(r.Priority); prio != nil {
		fmt.Printf("    Priority: %s\n", *prio)
	}
}

// formatWhen renders the due date/time column, padded so titles line up.
func formatWhen(r models.Reminder) string {
	when := "(no date)"
	if r.Date != nil && *r.Date != "" {
		when = *r.Date
		if r.Time != nil && *r.Time != "" {
			when += " " + *r.Time
		}
	}
	return fmt.Sprintf("%-16s", when)
}
