package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/zhangyujiu/HouseKeeper/internal/amqp"
	"github.com/zhangyujiu/HouseKeeper/internal/config"
	"github.com/zhangyujiu/HouseKeeper/internal/log"
	"github.com/zhangyujiu/HouseKeeper/internal/services"
	"github.com/zhangyujiu/HouseKeeper/internal/storage"
	"github.com/zhangyujiu/HouseKeeper/internal/worker"
)

func main() {
	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting budget-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the budget worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger := services.NewLedgerService(repo, nil, nil)
	budgetWorker := worker.NewBudgetWorker(ledger)

	// Catch up on anything that happened while the worker was down.
	if err := budgetWorker.EvaluateAll(ctx); err != nil {
		logger.Error("Startup budget evaluation failed", "error", err)
		// Keep running; the next change message retries.
	}

	err = amqpClient.ConsumeWithReconnect(ctx, func(msg *amqp.ChangeMessage) error {
		return budgetWorker.HandleChangeMessage(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Budget worker stopped gracefully")
}
