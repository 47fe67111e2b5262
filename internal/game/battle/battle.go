// Package battle runs monster combatants against each other: it orders them
// by initiative, resolves each turn through the combatant sequencers, and
// removes combatants once their death animation has played.
package battle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/candlelight/internal/game/dice"
	"github.com/cory-johannsen/candlelight/internal/game/monster"
)

var (
	// ErrStarted is returned when the roster is changed after the first turn.
	ErrStarted = errors.New("battle: already started")
	// ErrNotEnoughTeams is returned when fewer than two teams have members.
	ErrNotEnoughTeams = errors.New("battle: at least two teams are required")
	// ErrUnknownCombatant is returned for an ID that is not in the battle.
	ErrUnknownCombatant = errors.New("battle: unknown combatant")
)

// DefaultMaxRounds bounds a battle when no limit is configured.
const DefaultMaxRounds = 100

// TurnHook observes resolved turns.
type TurnHook interface {
	Turn(ev TurnEvent)
}

// TurnEvent records what happened when one combatant took its turn.
type TurnEvent struct {
	Round      int
	ActorID    string
	ActorName  string
	AttackName string
	TargetID   string
	TargetName string
	Roll       dice.RollResult
	Damage     int
	TargetHP   int
	Passed     bool
	Destroyed  bool
	Narrative  string
}

// Survivor is a combatant still standing when the battle ended.
type Survivor struct {
	ID     string
	NameID string
	Team   string
	HP     int
	MaxHP  int
}

// Result summarizes a finished battle.
type Result struct {
	ID uuid.UUID
	// Winner is the last team standing, or empty when the round limit was
	// reached first.
	Winner    string
	Rounds    int
	Turns     int
	Survivors []Survivor
	// PresentationErrors counts animation failures that were logged and skipped.
	PresentationErrors int
	StartedAt          time.Time
	EndedAt            time.Time
}

// Snapshot is a point-in-time view of one participant.
type Snapshot struct {
	ID         string
	NameID     string
	Name       string
	Team       string
	HP         int
	MaxHP      int
	State      monster.State
	Initiative int
}

type entry struct {
	c          *monster.Combatant
	team       string
	initiative int
}

// Config holds battle tuning.
type Config struct {
	// MaxRounds bounds Run; zero means DefaultMaxRounds.
	MaxRounds int
}

// Battle is a single encounter. Turns are resolved by one goroutine at a
// time; Snapshot and Living may be called concurrently.
type Battle struct {
	id        uuid.UUID
	maxRounds int
	roller    *dice.Roller
	logger    *zap.Logger

	mu       sync.Mutex
	hook     TurnHook
	order    []*entry
	byID     map[string]*entry
	started  bool
	round    int
	turns    int
	presErrs int
	events   []TurnEvent
	start    time.Time
}

// New creates an empty battle.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a Battle with a fresh ID and no participants.
func New(cfg Config, roller *dice.Roller, logger *zap.Logger) *Battle {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	id := uuid.New()
	return &Battle{
		id:        id,
		maxRounds: cfg.MaxRounds,
		roller:    roller,
		logger:    logger.With(zap.String("battle", id.String())),
		byID:      make(map[string]*entry),
	}
}

// ID returns the battle's unique identifier.
func (b *Battle) ID() uuid.UUID { return b.id }

// SetTurnHook registers h to observe every resolved turn.
func (b *Battle) SetTurnHook(h TurnHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hook = h
}

// Join adds c to team.
//
// Precondition: the battle has not started; c is ready and not already joined.
func (b *Battle) Join(team string, c *monster.Combatant) error {
	if team == "" {
		return errors.New("battle: team must not be empty")
	}
	if c == nil || !c.Ready() {
		return errors.New("battle: combatant must be ready")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrStarted
	}
	if _, dup := b.byID[c.ID()]; dup {
		return fmt.Errorf("battle: combatant %s already joined", c.ID())
	}
	e := &entry{c: c, team: team}
	b.order = append(b.order, e)
	b.byID[c.ID()] = e
	b.logger.Debug("combatant joined",
		zap.String("combatant", c.ID()),
		zap.String("name_id", c.NameID()),
		zap.String("team", team),
	)
	return nil
}

// Start rolls initiative and freezes the roster. Run calls Start when needed.
//
// Formula: d20 + dexterity modifier; ties keep join order.
func (b *Battle) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrStarted
	}
	if len(b.teamsLocked()) < 2 {
		return ErrNotEnoughTeams
	}
	src := b.roller.Source()
	for _, e := range b.order {
		e.initiative = src.Intn(20) + 1 + monster.AbilityMod(e.c.Abilities().Dexterity)
	}
	sort.SliceStable(b.order, func(i, j int) bool {
		return b.order[i].initiative > b.order[j].initiative
	})
	b.started = true
	b.start = time.Now()
	for _, e := range b.order {
		b.logger.Debug("initiative",
			zap.String("combatant", e.c.ID()),
			zap.Int("initiative", e.initiative),
		)
	}
	return nil
}

// Order returns the combatant IDs still in the battle, in initiative order.
func (b *Battle) Order() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, len(b.order))
	for i, e := range b.order {
		ids[i] = e.c.ID()
	}
	return ids
}

// Snapshot returns the current view of id.
func (b *Battle) Snapshot(id string) (Snapshot, bool) {
	b.mu.Lock()
	e, ok := b.byID[id]
	b.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	hp, maxHP := e.c.HP()
	return Snapshot{
		ID:         id,
		NameID:     e.c.NameID(),
		Name:       e.c.DisplayName(),
		Team:       e.team,
		HP:         hp,
		MaxHP:      maxHP,
		State:      e.c.State(),
		Initiative: e.initiative,
	}, true
}

// Living returns the teams that still have a combatant able to act.
func (b *Battle) Living() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.teamsLocked()
}

// Events returns every resolved turn so far.
func (b *Battle) Events() []TurnEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TurnEvent, len(b.events))
	copy(out, b.events)
	return out
}

func (b *Battle) teamsLocked() []string {
	seen := make(map[string]bool)
	var teams []string
	for _, e := range b.order {
		if !alive(e.c) || seen[e.team] {
			continue
		}
		seen[e.team] = true
		teams = append(teams, e.team)
	}
	return teams
}

func alive(c *monster.Combatant) bool {
	return !c.State().Terminal()
}

// Turn resolves one turn for actorID: it acts, picks a random living
// opponent, rolls the attack's damage, delivers it with the attack's effect,
// and destroys and removes the target if it fell.
//
// A combatant with no usable attack passes. Presentation failures are logged
// and counted but never abort the turn.
//
// Precondition: the battle has started and actorID is a living participant.
func (b *Battle) Turn(actorID string) (TurnEvent, error) {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return TurnEvent{}, errors.New("battle: not started")
	}
	actor, ok := b.byID[actorID]
	round := b.round
	b.mu.Unlock()
	if !ok {
		return TurnEvent{}, fmt.Errorf("%w: %s", ErrUnknownCombatant, actorID)
	}

	ev := TurnEvent{Round: round, ActorID: actorID, ActorName: actor.c.DisplayName()}

	choice, err := actor.c.Act()
	switch {
	case errors.Is(err, monster.ErrNoAvailableAttack):
		ev.Passed = true
		ev.Narrative = fmt.Sprintf("%s has no usable attack and passes.", ev.ActorName)
		b.finishTurn(ev)
		return ev, nil
	case monster.IsPresentation(err):
		b.presentationFailed(actorID, err)
	case err != nil:
		return TurnEvent{}, fmt.Errorf("battle: turn for %s: %w", actorID, err)
	}
	ev.AttackName = choice.Attack.Name

	target := b.pickTarget(actor)
	if target == nil {
		ev.Narrative = fmt.Sprintf("%s uses %s but hits nothing.", ev.ActorName, ev.AttackName)
		b.finishTurn(ev)
		return ev, nil
	}
	ev.TargetID = target.c.ID()
	ev.TargetName = target.c.DisplayName()

	roll, err := b.roller.RollExpr(choice.Attack.Damage)
	if err != nil {
		return TurnEvent{}, fmt.Errorf("battle: rolling %s damage: %w", choice.Attack.Name, err)
	}
	ev.Roll = roll
	ev.Damage = max(roll.Total(), 0)

	hp, err := target.c.ReceiveDamage(ev.Damage, choice.Attack.Effect)
	switch {
	case monster.IsPresentation(err):
		b.presentationFailed(ev.TargetID, err)
	case err != nil:
		return TurnEvent{}, fmt.Errorf("battle: damaging %s: %w", ev.TargetID, err)
	}
	ev.TargetHP = hp
	ev.Narrative = fmt.Sprintf("%s uses %s on %s for %d damage (%s).", ev.ActorName, ev.AttackName, ev.TargetName, ev.Damage, roll)

	if target.c.State() == monster.StateDying {
		if err := target.c.Destroy(); err != nil {
			if !monster.IsPresentation(err) {
				return TurnEvent{}, fmt.Errorf("battle: destroying %s: %w", ev.TargetID, err)
			}
			b.presentationFailed(ev.TargetID, err)
		}
		b.remove(ev.TargetID)
		ev.Destroyed = true
		ev.Narrative += fmt.Sprintf(" %s is destroyed.", ev.TargetName)
	}

	b.finishTurn(ev)
	return ev, nil
}

func (b *Battle) pickTarget(actor *entry) *entry {
	b.mu.Lock()
	var candidates []*entry
	for _, e := range b.order {
		if e.team != actor.team && alive(e.c) {
			candidates = append(candidates, e)
		}
	}
	b.mu.Unlock()
	if len(candidates) == 0 {
		return nil
	}
	return candidates[b.roller.Source().Intn(len(candidates))]
}

func (b *Battle) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byID, id)
	for i, e := range b.order {
		if e.c.ID() == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.logger.Info("combatant removed", zap.String("combatant", id))
}

func (b *Battle) presentationFailed(id string, err error) {
	b.mu.Lock()
	b.presErrs++
	b.mu.Unlock()
	b.logger.Warn("presentation failed",
		zap.String("combatant", id),
		zap.Error(err),
	)
}

func (b *Battle) finishTurn(ev TurnEvent) {
	b.mu.Lock()
	b.turns++
	b.events = append(b.events, ev)
	hook := b.hook
	b.mu.Unlock()
	b.logger.Debug("turn resolved",
		zap.Int("round", ev.Round),
		zap.String("actor", ev.ActorID),
		zap.String("target", ev.TargetID),
		zap.Int("damage", ev.Damage),
		zap.Bool("destroyed", ev.Destroyed),
	)
	if hook != nil {
		hook.Turn(ev)
	}
}

// Run plays rounds until a single team remains or the round limit is hit.
// Cancellation is honored between turns; a turn in flight always completes.
//
// Postcondition: Returns the Result so far, plus ctx.Err() if ctx was
// cancelled before the battle ended.
func (b *Battle) Run(ctx context.Context) (Result, error) {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()
	if !started {
		if err := b.Start(); err != nil {
			return Result{ID: b.id}, err
		}
	}

	for {
		if len(b.Living()) < 2 {
			return b.result(), nil
		}
		b.mu.Lock()
		if b.round >= b.maxRounds {
			b.mu.Unlock()
			b.logger.Info("round limit reached", zap.Int("rounds", b.round))
			return b.result(), nil
		}
		b.round++
		b.mu.Unlock()

		for _, id := range b.Order() {
			if err := ctx.Err(); err != nil {
				return b.result(), err
			}
			snap, ok := b.Snapshot(id)
			if !ok || snap.State != monster.StateIdle {
				continue
			}
			if len(b.Living()) < 2 {
				break
			}
			if _, err := b.Turn(id); err != nil {
				return b.result(), err
			}
		}
	}
}

func (b *Battle) result() Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := Result{
		ID:                 b.id,
		Rounds:             b.round,
		Turns:              b.turns,
		PresentationErrors: b.presErrs,
		StartedAt:          b.start,
		EndedAt:            time.Now(),
	}
	if teams := b.teamsLocked(); len(teams) == 1 {
		r.Winner = teams[0]
	}
	for _, e := range b.order {
		if !alive(e.c) {
			continue
		}
		hp, maxHP := e.c.HP()
		r.Survivors = append(r.Survivors, Survivor{
			ID: e.c.ID(), NameID: e.c.NameID(), Team: e.team, HP: hp, MaxHP: maxHP,
		})
	}
	return r
}
