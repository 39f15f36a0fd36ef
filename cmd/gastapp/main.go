package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gastapp/internal/amqp"
	"gastapp/internal/cache"
	"gastapp/internal/catalog"
	"gastapp/internal/config"
	apphttp "gastapp/internal/http"
	applog "gastapp/internal/log"
	"gastapp/internal/services"
	"gastapp/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	logger.Info("Starting gastapp")

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

	// AMQP is optional: without it expenses are still recorded, budget
	// alerts just never reach the notify-worker.
	var publisher services.AlertPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without budget alerts", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - budget alerts will not be published")
	}

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		logger.Error("Failed to load subscription catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}

	statusCache := services.NewStatusCache(cfg.StatusCacheSize, cfg.StatusCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(statusCache)
	cacheManager.StartCleanup(cfg.StatusCacheTTL)
	defer cacheManager.Stop()

	expenseService := services.NewExpenseService(repo, publisher, statusCache)
	budgetService := services.NewBudgetService(repo, statusCache)

	srv := apphttp.NewServer(":"+cfg.Port, expenseService, budgetService, repo, cat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting HTTP server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
