package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/candlelight/internal/game/monster"
)

// ErrTemplateNotFound is returned when a monster template lookup yields no results.
var ErrTemplateNotFound = errors.New("monster template not found")

// BestiaryRepository stores attacks and monster templates.
type BestiaryRepository struct {
	db DBTX
}

// NewBestiaryRepository creates a BestiaryRepository backed by db, usually
// a *pgxpool.Pool.
//
// Precondition: db must be open.
func NewBestiaryRepository(db DBTX) *BestiaryRepository {
	return &BestiaryRepository{db: db}
}

// InTx runs fn against a repository bound to one transaction. Every write fn
// makes commits together, or none does if fn returns an error.
func (r *BestiaryRepository) InTx(ctx context.Context, fn func(tx *BestiaryRepository) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&BestiaryRepository{db: tx})
	})
}

// SaveAttack inserts or replaces an attack.
//
// Precondition: atk passes Validate and is not the empty attack.
func (r *BestiaryRepository) SaveAttack(ctx context.Context, atk monster.Attack) error {
	if atk.IsEmpty() || atk.ID == "" {
		return fmt.Errorf("saving attack %q: %w", atk.ID, monster.ErrConfiguration)
	}
	if err := atk.Validate(); err != nil {
		return fmt.Errorf("saving attack %q: %w", atk.ID, err)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO attacks (id, name, damage, animation, effect)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			damage = EXCLUDED.damage,
			animation = EXCLUDED.animation,
			effect = EXCLUDED.effect,
			updated_at = NOW()`,
		atk.ID, atk.Name, atk.Damage, atk.Animation, atk.Effect,
	)
	if err != nil {
		return fmt.Errorf("upserting attack %q: %w", atk.ID, err)
	}
	return nil
}

// Catalog returns every stored attack.
//
// Postcondition: Returns a catalog (may be empty) or a non-nil error.
func (r *BestiaryRepository) Catalog(ctx context.Context) (monster.AttackCatalog, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, damage, animation, effect FROM attacks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing attacks: %w", err)
	}
	defer rows.Close()

	catalog := make(monster.AttackCatalog)
	for rows.Next() {
		var a monster.Attack
		if err := rows.Scan(&a.ID, &a.Name, &a.Damage, &a.Animation, &a.Effect); err != nil {
			return nil, fmt.Errorf("scanning attack row: %w", err)
		}
		catalog[a.ID] = a
	}
	return catalog, rows.Err()
}

// SaveTemplate inserts or replaces a monster template, keyed by its name ID.
//
// Precondition: t passes Validate.
func (r *BestiaryRepository) SaveTemplate(ctx context.Context, t *monster.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO monster_templates
			(id, name, area, sprite, size, ai, level, max_hp, max_mp,
			 strength, dexterity, intelligence, luck, attacks, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			area = EXCLUDED.area,
			sprite = EXCLUDED.sprite,
			size = EXCLUDED.size,
			ai = EXCLUDED.ai,
			level = EXCLUDED.level,
			max_hp = EXCLUDED.max_hp,
			max_mp = EXCLUDED.max_mp,
			strength = EXCLUDED.strength,
			dexterity = EXCLUDED.dexterity,
			intelligence = EXCLUDED.intelligence,
			luck = EXCLUDED.luck,
			attacks = EXCLUDED.attacks,
			description = EXCLUDED.description,
			updated_at = NOW()`,
		t.ID, t.Name, t.Area, t.Sprite, t.Size, t.AI, t.Level, t.MaxHP, t.MaxMP,
		t.Abilities.Strength, t.Abilities.Dexterity, t.Abilities.Intelligence, t.Abilities.Luck,
		t.Attacks, t.Description,
	)
	if err != nil {
		return fmt.Errorf("upserting monster template %q: %w", t.ID, err)
	}
	return nil
}

const templateColumns = `id, name, area, sprite, size, ai, level, max_hp, max_mp,
	strength, dexterity, intelligence, luck, attacks, description`

func scanTemplate(row pgx.Row) (*monster.Template, error) {
	var t monster.Template
	err := row.Scan(
		&t.ID, &t.Name, &t.Area, &t.Sprite, &t.Size, &t.AI, &t.Level, &t.MaxHP, &t.MaxMP,
		&t.Abilities.Strength, &t.Abilities.Dexterity, &t.Abilities.Intelligence, &t.Abilities.Luck,
		&t.Attacks, &t.Description,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTemplate retrieves a template by name ID.
//
// Postcondition: Returns the Template or ErrTemplateNotFound.
func (r *BestiaryRepository) GetTemplate(ctx context.Context, nameID string) (*monster.Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM monster_templates WHERE id = $1`, nameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("querying monster template %q: %w", nameID, err)
	}
	return t, nil
}

// ListTemplates returns every template ordered by name ID.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *BestiaryRepository) ListTemplates(ctx context.Context) ([]*monster.Template, error) {
	rows, err := r.db.Query(ctx, `SELECT `+templateColumns+` FROM monster_templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing monster templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*monster.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning monster template row: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
