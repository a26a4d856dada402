package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"budgetbridge/internal/amqp"
	"budgetbridge/internal/config"
	"budgetbridge/internal/export"
	applog "budgetbridge/internal/log"
	"budgetbridge/internal/services"
	"budgetbridge/internal/storage"
	"budgetbridge/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.LevelFromEnv(),
		Component: "worker",
	})
	applog.SetDefault(logger)

	logger.Info("Starting budgetbridge-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Sheets export is optional; without a spreadsheet ID the worker only
	// refreshes stored suggestions.
	var exporter worker.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := export.NewFromEnv(context.Background(), repo)
		if err != nil {
			logger.Error("Failed to initialize Sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	analysisSvc := services.NewAnalysisService(repo)
	suggestionWorker := worker.NewSuggestionWorker(analysisSvc, repo, exporter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Startup catch-up: rebuild everything so messages lost while the
	// worker was down leave no user permanently stale.
	logger.Info("Performing startup refresh...")
	if err := suggestionWorker.RefreshAllUsers(ctx); err != nil {
		logger.Error("Startup refresh incomplete", "error", err)
		// Don't exit - continue with normal operation
	}

	go func() {
		err := amqpClient.ConsumeRefresh(ctx, func(msg *amqp.RefreshMessage) error {
			return suggestionWorker.HandleRefreshMessage(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	// Nightly full refresh keeps long-idle users current (goal deadlines
	// drift closer even when no records change).
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshSchedule, func() {
		if err := suggestionWorker.RefreshAllUsers(ctx); err != nil {
			logger.Error("Scheduled refresh incomplete", "error", err)
		}
	}); err != nil {
		logger.Error("Failed to schedule refresh", "error", err, "schedule", cfg.RefreshSchedule)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Scheduled full refresh", "schedule", cfg.RefreshSchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	stopCtx := scheduler.Stop()

	select {
	case <-stopCtx.Done():
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
