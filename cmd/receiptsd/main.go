package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sufscan/receipt-processor/internal/auth"
	"github.com/sufscan/receipt-processor/internal/cache"
	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/export"
	"github.com/sufscan/receipt-processor/internal/fetch"
	"github.com/sufscan/receipt-processor/internal/pipeline"
	"github.com/sufscan/receipt-processor/internal/repository"
	"github.com/sufscan/receipt-processor/internal/schema"
	"github.com/sufscan/receipt-processor/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.CreateTables(ctx, pool); err != nil {
		logger.Error("failed to create tables", "error", err)
		os.Exit(1)
	}

	keys, err := auth.LoadKeys(cfg.Auth.KeysFile, logger)
	if err != nil {
		logger.Error("failed to load API keys", "file", cfg.Auth.KeysFile, "error", err)
		os.Exit(1)
	}
	if keys.Len() == 0 {
		logger.Warn("no API keys loaded, every request will be rejected", "file", cfg.Auth.KeysFile)
	}

	store, err := cache.New(cfg.Cache.Dir, logger)
	if err != nil {
		logger.Error("failed to open cache directory", "dir", cfg.Cache.Dir, "error", err)
		os.Exit(1)
	}

	normalizer, err := schema.NewNormalizer()
	if err != nil {
		logger.Error("failed to load field mappings", "error", err)
		os.Exit(1)
	}

	fetcher := fetch.New(cfg.Fetch, store, logger)
	pipe := pipeline.New(logger, store, fetcher, normalizer)

	repo := repository.NewReceiptRepository(pool, logger)
	exporter := export.NewService(repo, logger)
	health := func(ctx context.Context) error {
		return repository.HealthCheck(ctx, pool)
	}

	srv := server.New(pipe, repo, exporter, keys, health, logger)
	if err := srv.ListenAndServe(ctx, cfg.Server); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
