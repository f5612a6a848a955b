// Package cli provides the command-line interface for remind.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/remind-go/internal/agent"
	"github.com/raphaelgruber/remind-go/internal/client"
	"github.com/raphaelgruber/remind-go/internal/config"
	"github.com/raphaelgruber/remind-go/internal/db"
	"github.com/raphaelgruber/remind-go/internal/llm"
	"github.com/raphaelgruber/remind-go/internal/service"
	"github.com/raphaelgruber/remind-go/internal/temporal"
	"github.com/raphaelgruber/remind-go/internal/tools"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	ownerID   string
	serverURL string

	// Global config, logger and db client
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	dbClient *db.Client

	// Lazy-initialized LLM components
	embedder *llm.Embedder
	model    *llm.Model
	indexer  *service.Indexer
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "remind",
	Short: "Conversational reminder manager",
	Long: `Remind is a conversational reminder manager. Talk to it in plain
language ("remind me to call mom next friday at 3pm", "what's on this week?")
or drive it directly with subcommands.

Reminders live in SurrealDB; retrieval combines date-range lookups with
vector similarity search, and an LLM agent turns conversation into tool
calls. Use --server to talk to a running remind-server instead of a local
database.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		logger, closeLog = config.SetupLogger(cfg)

		// Remote mode never touches the database directly.
		if serverURL != "" {
			return nil
		}

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Flush pending embedding work, then close the database connection.
		if indexer != nil {
			indexer.Close()
		}
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// initLLM lazily constructs the embedder and chat model. Commands that only
// touch the reminder store skip the chat model via requireChat=false.
func initLLM(ctx context.Context, requireChat bool) error {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return fmt.Errorf("init embedder: %w", err)
		}
	}
	if requireChat && model == nil {
		var err error
		model, err = llm.NewModel(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init model: %w", err)
		}
	}
	return nil
}

// reminderService builds the reminder service backed by the local database.
// The indexer is created once and flushed on exit, so one-shot commands like
// "remind add" still get their embeddings written.
func reminderService(ctx context.Context) (*service.ReminderService, error) {
	if err := initLLM(ctx, false); err != nil {
		return nil, err
	}
	if indexer == nil {
		indexer = service.NewIndexer(dbClient, embedder, logger)
	}
	return service.NewReminderService(dbClient, indexer, logger), nil
}

// searchService builds the retrieval service. The chat model powers the
// temporal resolver fallback and answer synthesis.
func searchService(ctx context.Context) (*service.SearchService, error) {
	if err := initLLM(ctx, true); err != nil {
		return nil, err
	}
	resolver := temporal.NewResolver(model, logger)
	return service.NewSearchService(dbClient, embedder, resolver, model, cfg.SimilarityTopK, cfg.SimilarityThreshold, logger), nil
}

// conversationAgent wires the full local stack: store, indexer, tools and
// the bounded agent loop.
func conversationAgent(ctx context.Context) (*agent.Agent, error) {
	reminders, err := reminderService(ctx)
	if err != nil {
		return nil, err
	}
	search, err := searchService(ctx)
	if err != nil {
		return nil, err
	}
	indexer.Start(ctx)

	dispatcher := tools.NewDispatcher(reminders, search, logger)
	return agent.New(model, dispatcher, cfg.MaxIterations, logger), nil
}

// remoteClient returns the API client for --server mode.
func remoteClient() *client.Client {
	return client.New(serverURL)
}

// remote reports whether this invocation talks to a remind-server.
func remote() bool {
	return serverURL != ""
}

// requireLocal rejects commands that need direct database access in
// --server mode.
func requireLocal() error {
	if remote() {
		return fmt.Errorf("this command requires a local database; drop --server")
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&ownerID, "user", "u", defaultOwner(), "owner of the reminders")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "remind-server URL (default: local database)")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(priorityCmd)
}

// defaultOwner resolves the reminder owner: REMIND_USER, then the OS user.
func defaultOwner() string {
	if u := os.Getenv("REMIND_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}
