package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/candlelight/internal/config"
	"github.com/cory-johannsen/candlelight/internal/game/battle"
	"github.com/cory-johannsen/candlelight/internal/game/dice"
	"github.com/cory-johannsen/candlelight/internal/game/monster"
	"github.com/cory-johannsen/candlelight/internal/presentation"
	"github.com/cory-johannsen/candlelight/internal/scripting"
	"github.com/cory-johannsen/candlelight/internal/storage/postgres"
)

// resultRecorder persists finished battles.
type resultRecorder interface {
	Record(ctx context.Context, res battle.Result) error
}

// simulator runs independent battles between two fixed line-ups. Each battle
// owns its dice, suspender, listeners, and Lua VM; only the spawner and the
// animation catalog are shared.
type simulator struct {
	cfg      config.Config
	spawner  *battle.Spawner
	animator monster.Animator
	recorder resultRecorder
	logger   *zap.Logger
}

// bestiary supplies the attacks and templates a simulation spawns from.
type bestiary interface {
	Catalog(ctx context.Context) (monster.AttackCatalog, error)
	// Templates returns at least the templates named by ids.
	Templates(ctx context.Context, ids []string) ([]*monster.Template, error)
}

// yamlBestiary reads content directories. It returns every template on disk
// so an unknown ID surfaces from Spawn.
type yamlBestiary struct {
	attacksDir  string
	monstersDir string
}

func (y yamlBestiary) Catalog(context.Context) (monster.AttackCatalog, error) {
	return monster.LoadAttacks(y.attacksDir)
}

func (y yamlBestiary) Templates(context.Context, []string) ([]*monster.Template, error) {
	return monster.LoadTemplates(y.monstersDir)
}

// templateReader is the read side of postgres.BestiaryRepository.
type templateReader interface {
	Catalog(ctx context.Context) (monster.AttackCatalog, error)
	GetTemplate(ctx context.Context, nameID string) (*monster.Template, error)
}

// dbBestiary reads content written by import-bestiary, fetching only the
// templates a line-up names.
type dbBestiary struct {
	repo templateReader
}

func (d dbBestiary) Catalog(ctx context.Context) (monster.AttackCatalog, error) {
	return d.repo.Catalog(ctx)
}

func (d dbBestiary) Templates(ctx context.Context, ids []string) ([]*monster.Template, error) {
	seen := make(map[string]bool, len(ids))
	var out []*monster.Template
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, err := d.repo.GetTemplate(ctx, id)
		if errors.Is(err, postgres.ErrTemplateNotFound) {
			return nil, fmt.Errorf("%w: %q", battle.ErrUnknownTemplate, id)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// loadContent builds a spawner for ids from b and reads the animation
// catalog named by cfg.
func loadContent(ctx context.Context, cfg config.Config, b bestiary, ids []string) (*battle.Spawner, *presentation.Catalog, error) {
	catalog, err := b.Catalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading attacks: %w", err)
	}
	templates, err := b.Templates(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("loading monsters: %w", err)
	}
	spawner, err := battle.NewSpawner(templates, catalog)
	if err != nil {
		return nil, nil, err
	}
	animations, err := presentation.LoadCatalog(cfg.Content.AnimationsFile, cfg.Battle.AnimationSpeed)
	if err != nil {
		return nil, nil, fmt.Errorf("loading animations: %w", err)
	}
	return spawner, animations, nil
}

// describe renders a recorded battle as log fields.
func describe(res battle.Result) []zap.Field {
	winner := res.Winner
	if winner == "" {
		winner = "draw"
	}
	survivors := make([]string, 0, len(res.Survivors))
	for _, s := range res.Survivors {
		survivors = append(survivors, fmt.Sprintf("%s(%s) %s %d/%d", s.ID, s.NameID, s.Team, s.HP, s.MaxHP))
	}
	return []zap.Field{
		zap.String("id", res.ID.String()),
		zap.String("winner", winner),
		zap.Int("rounds", res.Rounds),
		zap.Int("turns", res.Turns),
		zap.Strings("survivors", survivors),
		zap.Int("presentation_errors", res.PresentationErrors),
		zap.Duration("duration", res.EndedAt.Sub(res.StartedAt)),
	}
}

// parseLineup splits a comma-separated list of template IDs.
func parseLineup(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *simulator) source(n int) dice.Source {
	if s.cfg.Battle.Seed == 0 {
		return dice.NewCryptoSource()
	}
	return dice.NewSeededSource(s.cfg.Battle.Seed + uint64(n))
}

// runBattle fights battle number n between left and right.
func (s *simulator) runBattle(ctx context.Context, n int, left, right []string) (battle.Result, error) {
	logger := s.logger.With(zap.Int("battle", n))
	src := s.source(n)
	roller := dice.NewRoller(src, logger)

	b := battle.New(battle.Config{MaxRounds: s.cfg.Battle.MaxRounds}, roller, logger)
	health := presentation.NewHealthDisplay()
	listeners := &battle.Listeners{}
	listeners.Add(health)

	if s.cfg.Content.ScriptsDir != "" {
		mgr := scripting.NewManager(roller, logger)
		defer mgr.Close()
		if err := mgr.Load(s.cfg.Content.ScriptsDir, s.cfg.Content.ScriptInstructionLimit); err != nil {
			return battle.Result{}, fmt.Errorf("loading scripts: %w", err)
		}
		hooks := battle.NewScriptHooks(mgr, b)
		listeners.Add(hooks)
		b.SetTurnHook(hooks)
	}

	var suspender monster.Suspender
	recorder := &presentation.Recorder{}
	if s.cfg.Battle.Realtime {
		suspender = presentation.RealtimeSuspender{}
	} else {
		suspender = recorder
	}
	deps := monster.Deps{
		Animator:  s.animator,
		Source:    src,
		Suspender: suspender,
		Listener:  listeners,
		Logger:    logger,
	}

	lineups := []struct {
		team string
		ids  []string
	}{{"left", left}, {"right", right}}
	for _, l := range lineups {
		for _, id := range l.ids {
			c, err := s.spawner.Spawn(id, deps)
			if err != nil {
				return battle.Result{}, err
			}
			if err := b.Join(l.team, c); err != nil {
				return battle.Result{}, err
			}
			hp, maxHP := c.HP()
			health.Show(c.ID(), hp, maxHP)
		}
	}

	res, err := b.Run(ctx)
	if err != nil {
		return res, err
	}
	logger.Info("battle finished",
		zap.String("id", res.ID.String()),
		zap.String("winner", res.Winner),
		zap.Int("rounds", res.Rounds),
		zap.Int("turns", res.Turns),
		zap.Int("survivors", len(res.Survivors)),
		zap.Int("presentation_errors", res.PresentationErrors),
		zap.Duration("animation_time", recorder.Elapsed()),
	)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, res); err != nil {
			return res, fmt.Errorf("recording battle %s: %w", res.ID, err)
		}
	}
	return res, nil
}
