// Package monster implements a single battle combatant: its stats, its
// policy-driven attack selection, and the state machine that sequences its
// attack, hit, and death animations.
package monster

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Definition is the validated-at-construction description of a combatant.
type Definition struct {
	// NameID is the bestiary key the combatant was built from.
	NameID string
	// DisplayName is shown to players.
	DisplayName string
	Level       int
	MaxHP       int
	MaxMP       int
	Abilities   Abilities
	Roster      Roster
	Policy      Policy
	Size        SizeCategory
}

// Deps are the collaborators a combatant needs.
type Deps struct {
	// Animator is required.
	Animator Animator
	// Source is required; it drives attack selection.
	Source Source
	// Suspender waits out animation durations. Nil means no waiting.
	Suspender Suspender
	// Listener receives combat events. Nil means none.
	Listener Listener
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// AttackChoice is the result of a successful Act.
type AttackChoice struct {
	Index  int
	Attack Attack
}

// Combatant is one monster participating in a battle.
//
// A Combatant runs at most one sequence (Act, ReceiveDamage, Destroy) at a
// time; a call that arrives while another sequence is in flight fails with
// ErrInvalidState. All methods are safe for concurrent use.
type Combatant struct {
	id          string
	nameID      string
	displayName string
	size        SizeCategory
	policy      Policy

	mu          sync.Mutex
	stats       *Stats
	roster      Roster
	attackCount int
	selector    Selector
	selected    int
	state       State
	busy        bool
	ready       bool

	animator  Animator
	suspender Suspender
	listener  Listener
	src       Source
	logger    *zap.Logger
}

// New validates def, binds the roster's animation triggers through
// deps.Animator, and returns a ready combatant in StateIdle.
//
// Precondition: id must be non-empty; deps.Animator and deps.Source must be non-nil.
// Postcondition: Returns a Combatant with Ready() == true, or an error
// wrapping ErrConfiguration that describes every violation found.
func New(id string, def Definition, deps Deps) (*Combatant, error) {
	var errs []error
	if id == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	stats, err := NewStats(def.Level, def.MaxHP, def.MaxMP, def.Abilities)
	if err != nil {
		errs = append(errs, err)
	}
	if def.Size < SizeSmall || def.Size > SizeLarge {
		errs = append(errs, fmt.Errorf("unrecognized size category %d", def.Size))
	}
	selector, err := SelectorFor(def.Policy)
	if err != nil {
		errs = append(errs, err)
	}
	if err := def.Roster.Validate(); err != nil {
		errs = append(errs, err)
	}
	if def.Roster.Count() == 0 {
		errs = append(errs, errors.New("attack roster has no attacks"))
	}
	if deps.Animator == nil {
		errs = append(errs, errors.New("animator must not be nil"))
	}
	if deps.Source == nil {
		errs = append(errs, errors.New("random source must not be nil"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("monster %q: %v: %w", def.NameID, errors.Join(errs...), ErrConfiguration)
	}

	if err := bindTriggers(deps.Animator, def.Roster); err != nil {
		return nil, fmt.Errorf("monster %q: %v: %w", def.NameID, err, ErrConfiguration)
	}

	c := &Combatant{
		id:          id,
		nameID:      def.NameID,
		displayName: def.DisplayName,
		size:        def.Size,
		policy:      def.Policy,
		stats:       stats,
		roster:      def.Roster,
		attackCount: def.Roster.Count(),
		selector:    selector,
		selected:    -1,
		state:       StateIdle,
		animator:    deps.Animator,
		suspender:   deps.Suspender,
		listener:    deps.Listener,
		src:         deps.Source,
		logger:      deps.Logger,
	}
	if c.suspender == nil {
		c.suspender = noopSuspender{}
	}
	if c.listener == nil {
		c.listener = noopListener{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("combatant", id), zap.String("name_id", def.NameID))
	c.ready = true
	return c, nil
}

// bindTriggers checks that every trigger the combatant itself will request
// can be resolved. Effect triggers belong to the target's presentation and
// are resolved when the hit lands.
func bindTriggers(a Animator, r Roster) error {
	for i, atk := range r {
		if atk.IsEmpty() {
			continue
		}
		if _, err := a.ResolveTrigger(atk.Animation); err != nil {
			return fmt.Errorf("binding slot %d animation %q: %w", i, atk.Animation, err)
		}
	}
	if _, err := a.ResolveTrigger(TriggerDeath); err != nil {
		return fmt.Errorf("binding %q animation: %w", TriggerDeath, err)
	}
	return nil
}

func (c *Combatant) ID() string           { return c.id }
func (c *Combatant) NameID() string       { return c.nameID }
func (c *Combatant) DisplayName() string  { return c.displayName }
func (c *Combatant) Size() SizeCategory   { return c.size }
func (c *Combatant) Policy() Policy       { return c.policy }
func (c *Combatant) Roster() Roster       { return c.roster }
func (c *Combatant) AttackCount() int     { return c.attackCount }
func (c *Combatant) Abilities() Abilities { return c.stats.Abilities() }
func (c *Combatant) Level() int           { return c.stats.Level() }

// Ready reports whether the combatant finished construction and may act.
func (c *Combatant) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// State returns the current lifecycle state.
func (c *Combatant) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HP returns the current and maximum health.
func (c *Combatant) HP() (current, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.CurrentHP(), c.stats.MaxHP()
}

// MP returns the current and maximum mana.
func (c *Combatant) MP() (current, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.CurrentMP(), c.stats.MaxMP()
}

// IsDead reports whether current health is zero. It has no side effects.
func (c *Combatant) IsDead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.IsDead()
}

// SelectedAttack returns the slot chosen for the turn in flight. ok is false
// outside StateSelectingAttack and StatePlayingAttackAnimation.
func (c *Combatant) SelectedAttack() (index int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSelectingAttack && c.state != StatePlayingAttackAnimation {
		return -1, false
	}
	if c.selected < 0 {
		return -1, false
	}
	return c.selected, true
}
