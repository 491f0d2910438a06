package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zhangyujiu/HouseKeeper/internal/amqp"
	"github.com/zhangyujiu/HouseKeeper/internal/cache"
	"github.com/zhangyujiu/HouseKeeper/internal/config"
	apphttp "github.com/zhangyujiu/HouseKeeper/internal/http"
	"github.com/zhangyujiu/HouseKeeper/internal/log"
	"github.com/zhangyujiu/HouseKeeper/internal/services"
	"github.com/zhangyujiu/HouseKeeper/internal/storage"
	"github.com/zhangyujiu/HouseKeeper/internal/watch"
)

func main() {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := repo.Seed(ctx); err != nil {
		logger.Error("Failed to seed default categories", "error", err)
		os.Exit(1)
	}

	hub := watch.NewHub()

	var publisher services.ChangePublisher
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The ledger works without the broker; budget alerts just
			// stay local until it comes back.
			logger.Error("Failed to initialize AMQP client, continuing without it", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP change publishing enabled",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(repo, hub, publisher)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:        ":" + cfg.Port,
		RecentLimit: cfg.RecentLimit,
		CacheSize:   cfg.CacheSize,
		CacheTTL:    cfg.CacheTTL,
	}, ledger, hub)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting housekeeper server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		cache.Janitor(ctx, cfg.CleanupInterval, srv.ChartCache())
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
