package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/candlelight/internal/config"
	"github.com/cory-johannsen/candlelight/internal/game/battle"
	"github.com/cory-johannsen/candlelight/internal/game/monster"
	"github.com/cory-johannsen/candlelight/internal/storage/postgres"
)

type memResults struct {
	mu      sync.Mutex
	results []battle.Result
	err     error
}

func (m *memResults) Record(_ context.Context, res battle.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.results = append(m.results, res)
	return nil
}

// shippedConfig points at the content directory checked into the repository.
func shippedConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadFromViper(config.Defaults())
	require.NoError(t, err)
	root := filepath.Join("..", "..", "content")
	cfg.Content.AttacksDir = filepath.Join(root, "attacks")
	cfg.Content.MonstersDir = filepath.Join(root, "monsters")
	cfg.Content.AnimationsFile = filepath.Join(root, "animations.yaml")
	cfg.Content.ScriptsDir = filepath.Join(root, "scripts")
	cfg.Battle.Seed = 7
	return cfg
}

func shippedBestiary(cfg config.Config) yamlBestiary {
	return yamlBestiary{attacksDir: cfg.Content.AttacksDir, monstersDir: cfg.Content.MonstersDir}
}

// memTemplates serves a fixed bestiary and counts template lookups.
type memTemplates struct {
	catalog   monster.AttackCatalog
	templates map[string]*monster.Template
	lookups   []string
}

func (m *memTemplates) Catalog(context.Context) (monster.AttackCatalog, error) {
	return m.catalog, nil
}

func (m *memTemplates) GetTemplate(_ context.Context, nameID string) (*monster.Template, error) {
	m.lookups = append(m.lookups, nameID)
	t, ok := m.templates[nameID]
	if !ok {
		return nil, postgres.ErrTemplateNotFound
	}
	return t, nil
}

// importedBestiary loads the shipped content into a memTemplates, as
// import-bestiary would have stored it.
func importedBestiary(t *testing.T, cfg config.Config) *memTemplates {
	t.Helper()
	catalog, err := monster.LoadAttacks(cfg.Content.AttacksDir)
	require.NoError(t, err)
	templates, err := monster.LoadTemplates(cfg.Content.MonstersDir)
	require.NoError(t, err)
	m := &memTemplates{catalog: catalog, templates: make(map[string]*monster.Template)}
	for _, tmpl := range templates {
		m.templates[tmpl.ID] = tmpl
	}
	return m
}

func newSim(t *testing.T, cfg config.Config) *simulator {
	t.Helper()
	spawner, animations, err := loadContent(context.Background(), cfg, shippedBestiary(cfg), nil)
	require.NoError(t, err)
	return &simulator{cfg: cfg, spawner: spawner, animator: animations, logger: zap.NewNop()}
}

func TestLoadContent_ShippedContent(t *testing.T) {
	cfg := shippedConfig(t)
	spawner, animations, err := loadContent(context.Background(), cfg, shippedBestiary(cfg), []string{"greyWolf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"caveSlime", "cinderImp", "giantRat", "greyWolf"}, spawner.Names())
	assert.Equal(t, 12, animations.Len())
}

func TestLoadContent_MissingAnimations(t *testing.T) {
	cfg := shippedConfig(t)
	cfg.Content.AnimationsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err := loadContent(context.Background(), cfg, shippedBestiary(cfg), nil)
	assert.Error(t, err)
}

func TestLoadContent_DatabaseFetchesLineupOnly(t *testing.T) {
	cfg := shippedConfig(t)
	repo := importedBestiary(t, cfg)

	spawner, _, err := loadContent(context.Background(), cfg, dbBestiary{repo: repo},
		[]string{"greyWolf", "giantRat", "giantRat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"giantRat", "greyWolf"}, spawner.Names())
	assert.Equal(t, []string{"greyWolf", "giantRat"}, repo.lookups)

	sim := &simulator{cfg: cfg, spawner: spawner, animator: newSim(t, cfg).animator, logger: zap.NewNop()}
	res, err := sim.runBattle(context.Background(), 0, []string{"greyWolf"}, []string{"giantRat", "giantRat"})
	require.NoError(t, err)
	assert.Positive(t, res.Turns)
}

func TestLoadContent_DatabaseUnknownMonster(t *testing.T) {
	cfg := shippedConfig(t)
	_, _, err := loadContent(context.Background(), cfg, dbBestiary{repo: importedBestiary(t, cfg)},
		[]string{"greyWolf", "dragon"})
	assert.ErrorIs(t, err, battle.ErrUnknownTemplate)
	assert.ErrorContains(t, err, "dragon")
}

func TestDescribe(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res := battle.Result{
		ID:        uuid.New(),
		Rounds:    4,
		Turns:     9,
		Survivors: []battle.Survivor{{ID: "m-1", NameID: "greyWolf", Team: "left", HP: 7, MaxHP: 18}},
		StartedAt: start,
		EndedAt:   start.Add(3 * time.Second),
	}
	fields := make(map[string]zap.Field)
	for _, f := range describe(res) {
		fields[f.Key] = f
	}
	assert.Equal(t, zap.String("winner", "draw"), fields["winner"])
	assert.Equal(t, zap.Strings("survivors", []string{"m-1(greyWolf) left 7/18"}), fields["survivors"])
	assert.Equal(t, zap.Duration("duration", 3*time.Second), fields["duration"])

	res.Winner = "left"
	assert.Contains(t, describe(res), zap.String("winner", "left"))
}

func TestRunBattle_RecordsResult(t *testing.T) {
	sim := newSim(t, shippedConfig(t))
	store := &memResults{}
	sim.recorder = store

	res, err := sim.runBattle(context.Background(), 0, []string{"greyWolf"}, []string{"giantRat", "giantRat"})
	require.NoError(t, err)
	assert.Contains(t, []string{"left", "right", ""}, res.Winner)
	assert.Positive(t, res.Turns)
	for _, s := range res.Survivors {
		assert.Equal(t, res.Winner, s.Team)
		assert.Positive(t, s.HP)
	}
	require.Len(t, store.results, 1)
	assert.Equal(t, res.ID, store.results[0].ID)
}

func TestRunBattle_SameSeedSameOutcome(t *testing.T) {
	cfg := shippedConfig(t)
	cfg.Content.ScriptsDir = ""
	sim := newSim(t, cfg)

	left, right := []string{"cinderImp"}, []string{"caveSlime"}
	first, err := sim.runBattle(context.Background(), 3, left, right)
	require.NoError(t, err)
	second, err := sim.runBattle(context.Background(), 3, left, right)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Winner, second.Winner)
	assert.Equal(t, first.Rounds, second.Rounds)
	assert.Equal(t, first.Turns, second.Turns)
}

func TestRunBattle_UnknownMonster(t *testing.T) {
	sim := newSim(t, shippedConfig(t))
	_, err := sim.runBattle(context.Background(), 0, []string{"dragon"}, []string{"giantRat"})
	assert.ErrorIs(t, err, battle.ErrUnknownTemplate)
}

func TestRunBattle_BrokenScripts(t *testing.T) {
	cfg := shippedConfig(t)
	cfg.Content.ScriptsDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Content.ScriptsDir, "bad.lua"), []byte("function on_turn("), 0644))
	sim := newSim(t, cfg)

	_, err := sim.runBattle(context.Background(), 0, []string{"greyWolf"}, []string{"giantRat"})
	assert.Error(t, err)
}

func TestRunBattle_RecorderFailure(t *testing.T) {
	sim := newSim(t, shippedConfig(t))
	sim.recorder = &memResults{err: errors.New("connection reset")}

	_, err := sim.runBattle(context.Background(), 0, []string{"greyWolf"}, []string{"giantRat"})
	assert.ErrorContains(t, err, "connection reset")
}

func TestRunBattle_Cancelled(t *testing.T) {
	sim := newSim(t, shippedConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.runBattle(ctx, 0, []string{"greyWolf"}, []string{"giantRat"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLineup(t *testing.T) {
	assert.Equal(t, []string{"greyWolf", "giantRat"}, parseLineup(" greyWolf, ,giantRat,"))
	assert.Empty(t, parseLineup(""))
}

func TestTally(t *testing.T) {
	wins := tally([]battle.Result{{Winner: "left"}, {Winner: "right"}, {Winner: "left"}, {}})
	assert.Equal(t, map[string]int{"left": 2, "right": 1, "": 1}, wins)
}
