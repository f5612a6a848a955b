// Package main provides the entry point for the remind API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/remind-go/internal/agent"
	"github.com/raphaelgruber/remind-go/internal/config"
	"github.com/raphaelgruber/remind-go/internal/db"
	"github.com/raphaelgruber/remind-go/internal/llm"
	"github.com/raphaelgruber/remind-go/internal/metrics"
	"github.com/raphaelgruber/remind-go/internal/server"
	"github.com/raphaelgruber/remind-go/internal/service"
	"github.com/raphaelgruber/remind-go/internal/temporal"
	"github.com/raphaelgruber/remind-go/internal/tools"
)

const version = "0.1.0"

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg)
	defer cleanup()

	logger.Info("remind-server starting",
		"version", version,
		"port", cfg.ServerPort,
		"surrealdb_url", cfg.SurrealDBURL,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"embed_model", cfg.EmbedModel,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	dbClient, err := db.NewClient(connectCtx, dbCfg, logger)
	connectCancel()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(context.Background())
	}()

	// Initialize database schema
	if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// Wipe database if requested (via flag or env var)
	if *wipeDB || os.Getenv("REMIND_WIPE_DB") == "true" {
		if err := dbClient.WipeData(ctx); err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Info("database wiped")
	}

	// Create LLM components, recording their timings on the /stats collector
	collector := metrics.NewCollector()

	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	embedder.SetMetrics(collector)
	logger.Info("embedder initialized", "model", embedder.Model(), "dimension", embedder.Dimension())

	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		logger.Error("failed to create chat model", "error", err)
		os.Exit(1)
	}
	model.SetMetrics(collector)

	// Start the embedding indexer
	indexer := service.NewIndexer(dbClient, embedder, logger)
	indexer.Start(ctx)
	defer indexer.Close()

	// Wire services, tools and the agent loop
	reminders := service.NewReminderService(dbClient, indexer, logger)
	resolver := temporal.NewResolver(model, logger)
	search := service.NewSearchService(dbClient, embedder, resolver, model,
		cfg.SimilarityTopK, cfg.SimilarityThreshold, logger)
	dispatcher := tools.NewDispatcher(reminders, search, logger)
	loop := agent.New(model, dispatcher, cfg.MaxIterations, logger)

	// Serve
	srv := server.New(cfg.ServerPort, loop, search, collector, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
