package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/remind-go/internal/db"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <reminder-id>",
	Short: "Mark a reminder as completed",
	Long: `Mark a reminder as completed.

Reminder IDs are shown by 'remind list -v' and in search evidence.

Examples:
  remind done 0c2d94a1-7a3f-4a01-9c49-2a41d2f0c7b1`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

func runDone(cmd *cobra.Command, args []string) error {
	if err := requireLocal(); err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := reminderService(ctx)
	if err != nil {
		return err
	}

	reminder, err := svc.Complete(ctx, ownerID, args[0])
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("reminder not found: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("complete reminder: %w", err)
	}

	fmt.Printf("Done: %s\n", reminder.Title)
	return nil
}
