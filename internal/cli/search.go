package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/remind-go/internal/client"
	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/raphaelgruber/remind-go/internal/service"
	"github.com/raphaelgruber/remind-go/internal/temporal"
	"github.com/spf13/cobra"
)

var (
	searchStart string
	searchEnd   string
	searchDate  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search reminders",
	Long: `Search reminders without going through the agent.

A query with a temporal phrase ("this week", "next friday") is answered
from the calendar; otherwise results are ranked by semantic similarity.
Use --start/--end to pin the date range explicitly, which skips temporal
interpretation of the query.

Examples:
  remind search "what's on this week?"
  remind search "gym"
  remind search --start 2026-09-01 --end 2026-09-07
  remind search "dentist" --date 2026-09-03`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchStart, "start", "", "explicit range start (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchEnd, "end", "", "explicit range end (YYYY-MM-DD, defaults to --start)")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "pretend today is this date (YYYY-MM-DD)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	if query == "" && searchStart == "" {
		return fmt.Errorf("provide a query or --start")
	}

	ctx := context.Background()

	var result *models.SearchResult
	var err error
	if remote() {
		result, err = remoteClient().Search(ctx, client.SearchRequest{
			OwnerID:    ownerID,
			Query:      query,
			StartDate:  searchStart,
			EndDate:    searchEnd,
			ClientDate: searchDate,
		})
	} else {
		result, err = localSearch(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	fmt.Println(result.Answer)
	if result.FollowUp != "" {
		fmt.Println(result.FollowUp)
	}
	if len(result.Evidence) > 0 {
		fmt.Println()
		printEvidence(result.Evidence)
	}

	return nil
}

func localSearch(ctx context.Context, query string) (*models.SearchResult, error) {
	svc, err := searchService(ctx)
	if err != nil {
		return nil, err
	}

	req := service.SearchRequest{
		OwnerID: ownerID,
		Query:   query,
		Start:   searchStart,
		End:     searchEnd,
	}
	if searchDate != "" {
		today, err := temporal.ReferenceDate(searchDate, time.Now())
		if err != nil {
			return nil, fmt.Errorf("invalid --date: %w", err)
		}
		req.Today = today
	}

	return svc.Search(ctx, req)
}

func printEvidence(evidence []models.EvidenceItem) {
	for i, item := range evidence {
		when := ""
		if item.Date != nil {
			when = " on " + *item.Date
			if item.Time != nil {
				when += " at " + *item.Time
			}
		}
		done := ""
		if item.Completed {
			done = " (done)"
		}
		fmt.Printf("%d. %s%s%s\n", i+1, item.Title, when, done)
		if verbose {
			fmt.Printf("   score=%.2f id=%s\n", item.Score, item.ReminderID)
		}
	}
}
