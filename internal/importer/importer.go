// Package importer loads bestiary content from YAML and writes it to a Store.
package importer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/candlelight/internal/game/battle"
	"github.com/cory-johannsen/candlelight/internal/game/monster"
)

// Store persists imported attacks and monster templates.
type Store interface {
	SaveAttack(ctx context.Context, atk monster.Attack) error
	SaveTemplate(ctx context.Context, t *monster.Template) error
}

// Transactor hands fn a Store whose writes commit together when fn returns
// nil and are discarded when it returns an error.
type Transactor interface {
	Atomically(ctx context.Context, fn func(Store) error) error
}

// Summary counts what Run wrote.
type Summary struct {
	Attacks   int
	Templates int
}

// Importer orchestrates a bestiary import from content directories to a Store.
type Importer struct {
	db     Transactor
	logger *zap.Logger
}

// New constructs an Importer writing through db.
//
// Precondition: db and logger must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(db Transactor, logger *zap.Logger) *Importer {
	return &Importer{db: db, logger: logger}
}

// Run loads attacks from attacksDir and templates from monstersDir, checks
// that every template resolves against the loaded attacks, and saves both in
// one transaction.
//
// Postcondition: nothing is written unless all content loads and resolves and
// every save succeeds. Attacks are saved before templates, each in ID order.
// On error the returned Summary counts the saves that were rolled back.
func (imp *Importer) Run(ctx context.Context, attacksDir, monstersDir string) (Summary, error) {
	overall := time.Now()

	t0 := time.Now()
	catalog, err := monster.LoadAttacks(attacksDir)
	if err != nil {
		return Summary{}, fmt.Errorf("loading attacks: %w", err)
	}
	templates, err := monster.LoadTemplates(monstersDir)
	if err != nil {
		return Summary{}, fmt.Errorf("loading templates: %w", err)
	}
	if _, err := battle.NewSpawner(templates, catalog); err != nil {
		return Summary{}, fmt.Errorf("resolving templates: %w", err)
	}
	imp.logger.Info("content loaded",
		zap.Int("attacks", len(catalog)),
		zap.Int("templates", len(templates)),
		zap.Duration("elapsed", time.Since(t0)),
	)

	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sum Summary
	err = imp.db.Atomically(ctx, func(store Store) error {
		for _, id := range ids {
			if err := store.SaveAttack(ctx, catalog[id]); err != nil {
				return fmt.Errorf("saving attack %q: %w", id, err)
			}
			sum.Attacks++
		}
		sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
		for _, t := range templates {
			if err := store.SaveTemplate(ctx, t); err != nil {
				return fmt.Errorf("saving template %q: %w", t.ID, err)
			}
			imp.logger.Debug("template saved", zap.String("id", t.ID), zap.Strings("attacks", t.Attacks))
			sum.Templates++
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	imp.logger.Info("import complete",
		zap.Int("attacks", sum.Attacks),
		zap.Int("templates", sum.Templates),
		zap.Duration("elapsed", time.Since(overall)),
	)
	return sum, nil
}
