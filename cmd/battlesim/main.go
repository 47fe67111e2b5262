// Package main runs headless monster battles from bestiary content.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/candlelight/internal/config"
	"github.com/cory-johannsen/candlelight/internal/game/battle"
	"github.com/cory-johannsen/candlelight/internal/observability"
	"github.com/cory-johannsen/candlelight/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	left := flag.String("left", "greyWolf", "comma-separated monster IDs for the left team")
	right := flag.String("right", "giantRat,giantRat", "comma-separated monster IDs for the right team")
	battles := flag.Int("battles", 1, "number of battles to run")
	record := flag.Bool("record", false, "store results in the database")
	source := flag.String("source", "yaml", "bestiary source: yaml (content directories) or db (imported bestiary)")
	show := flag.String("show", "", "print the recorded battle with this ID and exit")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *postgres.Pool
	connect := func() *postgres.Pool {
		if pool == nil {
			p, err := postgres.NewPool(ctx, cfg.Database, logger)
			if err != nil {
				logger.Fatal("connecting to database", zap.Error(err))
			}
			pool = p
		}
		return pool
	}
	defer func() {
		if pool != nil {
			pool.Close()
		}
	}()

	if *show != "" {
		id, err := uuid.Parse(*show)
		if err != nil {
			logger.Fatal("invalid battle id", zap.String("id", *show), zap.Error(err))
		}
		res, err := postgres.NewBattleRepository(connect().DB()).Get(ctx, id)
		if errors.Is(err, postgres.ErrBattleNotFound) {
			logger.Fatal("no such battle", zap.String("id", *show))
		}
		if err != nil {
			logger.Fatal("reading battle", zap.Error(err))
		}
		logger.Info("recorded battle", describe(res)...)
		return
	}

	if *battles < 1 {
		logger.Fatal("battles must be >= 1", zap.Int("battles", *battles))
	}
	leftIDs, rightIDs := parseLineup(*left), parseLineup(*right)
	if len(leftIDs) == 0 || len(rightIDs) == 0 {
		logger.Fatal("both teams need at least one monster")
	}

	var content bestiary
	switch *source {
	case "yaml":
		content = yamlBestiary{attacksDir: cfg.Content.AttacksDir, monstersDir: cfg.Content.MonstersDir}
	case "db":
		content = dbBestiary{repo: postgres.NewBestiaryRepository(connect().DB())}
	default:
		logger.Fatal("unknown bestiary source", zap.String("source", *source))
	}

	lineup := make([]string, 0, len(leftIDs)+len(rightIDs))
	lineup = append(append(lineup, leftIDs...), rightIDs...)
	spawner, animations, err := loadContent(ctx, cfg, content, lineup)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.String("source", *source),
		zap.Strings("monsters", spawner.Names()),
		zap.Int("animations", animations.Len()),
	)

	sim := &simulator{
		cfg:      cfg,
		spawner:  spawner,
		animator: animations,
		logger:   observability.Component(logger, "battlesim"),
	}

	var results *postgres.BattleRepository
	if *record {
		results = postgres.NewBattleRepository(connect().DB())
		sim.recorder = results
	}

	outcomes := make([]battle.Result, *battles)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < *battles; i++ {
		g.Go(func() error {
			res, err := sim.runBattle(gctx, i, leftIDs, rightIDs)
			outcomes[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("battle failed", zap.Error(err))
	}

	wins := tally(outcomes)
	teams := make([]string, 0, len(wins))
	for team := range wins {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	for _, team := range teams {
		name := team
		if name == "" {
			name = "draw"
		}
		logger.Info("wins", zap.String("team", name), zap.Int("count", wins[team]))
	}

	if results != nil {
		counts, err := results.WinCounts(ctx)
		if err != nil {
			logger.Fatal("reading recorded wins", zap.Error(err))
		}
		logger.Info("recorded totals", zap.Any("wins", counts))
	}

	logger.Info("simulation complete",
		zap.Int("battles", *battles),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// tally counts wins per team. Draws count under the empty string.
func tally(results []battle.Result) map[string]int {
	wins := make(map[string]int)
	for _, r := range results {
		wins[r.Winner]++
	}
	return wins
}
