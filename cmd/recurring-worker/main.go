package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"gastapp/internal/amqp"
	"gastapp/internal/config"
	applog "gastapp/internal/log"
	"gastapp/internal/services"
	"gastapp/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentRecurring,
	})
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Materialized instances go through the expense service so budget
	// alerts fire for them too.
	var publisher services.AlertPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without budget alerts", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	} else {
		logger.Info("AMQP disabled - budget alerts will not be published")
	}

	statusCache := services.NewStatusCache(cfg.StatusCacheSize, cfg.StatusCacheTTL)
	expenseService := services.NewExpenseService(repo, publisher, statusCache)
	processor := services.NewRecurringProcessor(repo, expenseService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runOnce := func(now time.Time) {
		count, err := processor.ProcessDueTemplates(ctx, now)
		if err != nil {
			logger.Error("Recurring processing failed", "error", err)
			return
		}
		logger.Info("Recurring processing complete", "expenses_created", count)
	}

	// Catch up on templates that came due while the worker was down.
	logger.Info("Running initial recurring expense processing")
	runOnce(time.Now())

	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.RecurringSchedule, func() { runOnce(time.Now()) }); err != nil {
		logger.Error("Invalid recurring schedule", "error", err, "schedule", cfg.RecurringSchedule)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Recurring expense processor scheduled", "schedule", cfg.RecurringSchedule, "sqlite_db", cfg.SQLiteDBPath)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Recurring-worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
