package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	tagColor      string
	priorityColor string
	priorityRank  int
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
	Long: `Manage the tags reminders can reference.

Tag names match case-insensitively when reminders are created; a reminder
referencing an unknown tag drops the reference with a warning, so create
tags here first.

Examples:
  remind tag add errands
  remind tag add work --color "#5FAFD7"
  remind tag list`,
}

var tagAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagAdd,
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	RunE:  runTagList,
}

var priorityCmd = &cobra.Command{
	Use:   "priority",
	Short: "Manage priorities",
	Long: `Manage the priority levels reminders can reference.

Lower rank means higher priority.

Examples:
  remind priority add high --rank 1 --color "#FF005F"
  remind priority add low --rank 3
  remind priority list`,
}

var priorityAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a priority",
	Args:  cobra.ExactArgs(1),
	RunE:  runPriorityAdd,
}

var priorityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List priorities",
	RunE:  runPriorityList,
}

func init() {
	tagAddCmd.Flags().StringVar(&tagColor, "color", "", "display color (hex)")
	priorityAddCmd.Flags().StringVar(&priorityColor, "color", "", "display color (hex)")
	priorityAddCmd.Flags().IntVar(&priorityRank, "rank", 2, "rank (lower = more urgent)")

	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagListCmd)
	priorityCmd.AddCommand(priorityAddCmd)
	priorityCmd.AddCommand(priorityListCmd)
}

func runTagAdd(cmd *cobra.Command, args []string) error {
	if err := requireLocal(); err != nil {
		return err
	}

	ctx := context.Background()
	tag, err := dbClient.CreateTag(ctx, ownerID, args[0], tagColor)
	if err != nil {
		return fmt.Errorf("create tag: %w", err)
	}

	fmt.Printf("Created tag: %s (%s)\n", tag.Name, models.MustRecordIDString(tag.ID))
	return nil
}

func runTagList(cmd *cobra.Command, args []string) error {
	if err := requireLocal(); err != nil {
		return err
	}

	ctx := context.Background()
	tags, err := dbClient.ListTags(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	if len(tags) == 0 {
		fmt.Println("No tags found.")
		return nil
	}

	fmt.Printf("Tags (%d):\n\n", len(tags))
	for _, t := range tags {
		fmt.Printf("- %s\n", t.Name)
	}
	return nil
}

func runPriorityAdd(cmd *cobra.Command, args []string) error {
	if err := requireLocal(); err != nil {
		return err
	}

	ctx := context.Background()
	prio, err := dbClient.CreatePriority(ctx, ownerID, args[0], priorityColor, priorityRank)
	if err != nil {
		return fmt.Errorf("create priority: %w", err)
	}

	fmt.Printf("Created priority: %s rank=%d (%s)\n", prio.Name, prio.Rank, models.MustRecordIDString(prio.ID))
	return nil
}

func runPriorityList(cmd *cobra.Command, args []string) error {
	if err := requireLocal(); err != nil {
		return err
	}

	ctx := context.Background()
	priorities, err := dbClient.ListPriorities(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list priorities: %w", err)
	}

	if len(priorities) == 0 {
		fmt.Println("No priorities found.")
		return nil
	}

	fmt.Printf("Priorities (%d):\n\n", len(priorities))
	for _, p := range priorities {
		fmt.Printf("- %s (rank %d)\n", p.Name, p.Rank)
	}
	return nil
}
