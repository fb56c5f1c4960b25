package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"kafe/backend/internal/config"
	"kafe/backend/internal/logger"
	pgstore "kafe/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL must be set to run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	startedAt := time.Now()
	if err := pgstore.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("schema migrated", zap.Duration("elapsed", time.Since(startedAt)))
}
