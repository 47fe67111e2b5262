// Package main provides a database migration runner.
package main

import (
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/candlelight/internal/config"
	"github.com/cory-johannsen/candlelight/internal/observability"
	"github.com/cory-johannsen/candlelight/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "migrations", "path to the migration files")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	status, err := postgres.Migrate(cfg.Database.DSN(), *dir, *direction, *steps)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	msg := "migrated"
	if !status.Changed {
		msg = "no changes"
	}
	logger.Info(msg,
		zap.String("direction", *direction),
		zap.Uint("version", status.Version),
		zap.Bool("dirty", status.Dirty),
		zap.Duration("elapsed", time.Since(start)),
	)
}
