package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/remind-go/internal/db"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <reminder-id>",
	Short: "Delete a reminder",
	Long: `Delete a reminder. Its embedding record is removed as well.

Requires confirmation unless --force is used.

Examples:
  remind delete 0c2d94a1-7a3f-4a01-9c49-2a41d2f0c7b1
  remind delete 0c2d94a1-7a3f-4a01-9c49-2a41d2f0c7b1 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireLocal(); err != nil {
		return err
	}

	id := args[0]
	ctx := context.Background()
	svc, err := reminderService(ctx)
	if err != nil {
		return err
	}

	reminder, err := svc.Get(ctx, ownerID, id)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("reminder not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("get reminder: %w", err)
	}

	if !deleteForce {
		fmt.Printf("About to delete: %s\n", reminder.Title)
		fmt.Print("\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := svc.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}

	fmt.Printf("Deleted: %s\n", reminder.Title)
	return nil
}
