// Package main loads bestiary YAML content into the database.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/candlelight/internal/config"
	"github.com/cory-johannsen/candlelight/internal/importer"
	"github.com/cory-johannsen/candlelight/internal/observability"
	"github.com/cory-johannsen/candlelight/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	attacksDir := flag.String("attacks", "", "attack directory (defaults to content.attacks_dir)")
	monstersDir := flag.String("monsters", "", "monster directory (defaults to content.monsters_dir)")
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

	if *attacksDir == "" {
		*attacksDir = cfg.Content.AttacksDir
	}
	if *monstersDir == "" {
		*monstersDir = cfg.Content.MonstersDir
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Health(ctx, 5*time.Second); err != nil {
		logger.Fatal("database health check", zap.Error(err))
	}

	repo := postgres.NewBestiaryRepository(pool.DB())
	imp := importer.New(txStore{repo: repo}, observability.Component(logger, "importer"))
	sum, err := imp.Run(ctx, *attacksDir, *monstersDir)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err), zap.Int("attacks_rolled_back", sum.Attacks), zap.Int("templates_rolled_back", sum.Templates))
	}

	stored, err := repo.ListTemplates(ctx)
	if err != nil {
		logger.Fatal("listing stored templates", zap.Error(err))
	}
	for _, t := range stored {
		logger.Debug("stored template", zap.String("id", t.ID), zap.String("name", t.Name), zap.Strings("attacks", t.Attacks))
	}
	logger.Info("import complete",
		zap.Int("attacks", sum.Attacks),
		zap.Int("templates", sum.Templates),
		zap.Int("stored_templates", len(stored)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// txStore runs an import inside one bestiary transaction.
type txStore struct {
	repo *postgres.BestiaryRepository
}

func (s txStore) Atomically(ctx context.Context, fn func(importer.Store) error) error {
	return s.repo.InTx(ctx, func(tx *postgres.BestiaryRepository) error {
		return fn(tx)
	})
}
