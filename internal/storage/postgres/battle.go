package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/candlelight/internal/game/battle"
)

// ErrBattleNotFound is returned when a battle lookup yields no results.
var ErrBattleNotFound = errors.New("battle not found")

// ErrBattleRecorded is returned when a result with the same ID already exists.
var ErrBattleRecorded = errors.New("battle already recorded")

// BattleRepository stores finished battle results.
type BattleRepository struct {
	db DBTX
}

// NewBattleRepository creates a BattleRepository backed by db.
//
// Precondition: db must be open.
func NewBattleRepository(db DBTX) *BattleRepository {
	return &BattleRepository{db: db}
}

// Record stores res and its survivors in one transaction.
//
// Postcondition: Returns ErrBattleRecorded if res.ID was stored before.
func (r *BattleRepository) Record(ctx context.Context, res battle.Result) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after Commit

	_, err = tx.Exec(ctx, `
		INSERT INTO battle_results
			(id, winner, rounds, turns, presentation_errors, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.Winner, res.Rounds, res.Turns, res.PresentationErrors, res.StartedAt, res.EndedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrBattleRecorded
		}
		return fmt.Errorf("inserting battle result: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range res.Survivors {
		batch.Queue(`
			INSERT INTO battle_survivors (battle_id, combatant_id, name_id, team, hp, max_hp)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			res.ID, s.ID, s.NameID, s.Team, s.HP, s.MaxHP,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting survivors: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Get retrieves a recorded battle.
//
// Postcondition: Returns the Result or ErrBattleNotFound.
func (r *BattleRepository) Get(ctx context.Context, id uuid.UUID) (battle.Result, error) {
	res := battle.Result{ID: id}
	err := r.db.QueryRow(ctx, `
		SELECT winner, rounds, turns, presentation_errors, started_at, ended_at
		FROM battle_results WHERE id = $1`, id,
	).Scan(&res.Winner, &res.Rounds, &res.Turns, &res.PresentationErrors, &res.StartedAt, &res.EndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return battle.Result{}, ErrBattleNotFound
		}
		return battle.Result{}, fmt.Errorf("querying battle %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT combatant_id, name_id, team, hp, max_hp
		FROM battle_survivors WHERE battle_id = $1 ORDER BY combatant_id`, id)
	if err != nil {
		return battle.Result{}, fmt.Errorf("listing survivors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s battle.Survivor
		if err := rows.Scan(&s.ID, &s.NameID, &s.Team, &s.HP, &s.MaxHP); err != nil {
			return battle.Result{}, fmt.Errorf("scanning survivor row: %w", err)
		}
		res.Survivors = append(res.Survivors, s)
	}
	return res, rows.Err()
}

// WinCounts returns how many recorded battles each team won. Draws are
// counted under the empty string.
func (r *BattleRepository) WinCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT winner, COUNT(*) FROM battle_results GROUP BY winner`)
	if err != nil {
		return nil, fmt.Errorf("counting wins: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var winner string
		var n int
		if err := rows.Scan(&winner, &n); err != nil {
			return nil, fmt.Errorf("scanning win count: %w", err)
		}
		counts[winner] = n
	}
	return counts, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
