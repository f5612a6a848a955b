package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/remind-go/internal/agent"
	"github.com/raphaelgruber/remind-go/internal/client"
	"github.com/raphaelgruber/remind-go/internal/models"
	"github.com/spf13/cobra"
)

var chatDate string

// converseFunc runs one conversation turn. Implemented by the local agent
// and by the websocket client, so the TUI doesn't care which mode it's in.
type converseFunc func(ctx context.Context, query string, history []models.Turn, onEvent func(models.AgentEvent)) (*models.ConverseResult, error)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the reminder agent",
	Long: `Talk to the reminder agent in plain language.

With a message argument, runs a single turn and prints the reply. Without
arguments, opens an interactive chat session.

Examples:
  remind chat "remind me to call mom next friday at 3pm"
  remind chat "what's on this week?"
  remind chat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatDate, "date", "", "pretend today is this date (YYYY-MM-DD)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	converse, err := buildConverse(ctx)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return oneShot(ctx, converse, args[0])
	}
	return runChatTUI(converse)
}

// buildConverse picks the local agent loop or the remote websocket stream.
func buildConverse(ctx context.Context) (converseFunc, error) {
	if remote() {
		c := remoteClient()
		return func(ctx context.Context, query string, history []models.Turn, onEvent func(models.AgentEvent)) (*models.ConverseResult, error) {
			return c.ConverseStream(ctx, client.ConverseRequest{
				OwnerID:    ownerID,
				Query:      query,
				ClientDate: chatDate,
				History:    history,
			}, onEvent)
		}, nil
	}

	loop, err := conversationAgent(ctx)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, query string, history []models.Turn, onEvent func(models.AgentEvent)) (*models.ConverseResult, error) {
		return loop.Converse(ctx, agent.Request{
			OwnerID:    ownerID,
			Query:      query,
			ClientDate: chatDate,
			History:    history,
			OnEvent:    onEvent,
		})
	}, nil
}

func oneShot(ctx context.Context, converse converseFunc, query string) error {
	onEvent := func(ev models.AgentEvent) {
		if verbose && ev.Type == "tool_call" {
			fmt.Printf("→ %s %s\n", ev.Tool, ev.Input)
		}
	}

	result, err := converse(ctx, query, nil, onEvent)

	var exhausted *agent.ExhaustedError
	if errors.As(err, &exhausted) {
		return fmt.Errorf("the agent could not finish in %d steps; try a more specific request", exhausted.Iterations)
	}
	if err != nil {
		return fmt.Errorf("converse: %w", err)
	}

	if result.Warning != "" {
		fmt.Printf("Warning: %s\n", result.Warning)
	}
	fmt.Println(result.Message)
	return nil
}
