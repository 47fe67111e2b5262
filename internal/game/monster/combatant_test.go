package monster_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/candlelight/internal/game/dice"
	"github.com/cory-johannsen/candlelight/internal/game/monster"
	"github.com/cory-johannsen/candlelight/internal/presentation"
)

func newCatalog(t require.TestingT) *presentation.Catalog {
	c := presentation.NewCatalog(1)
	for name, d := range map[string]time.Duration{
		"death": 1200 * time.Millisecond,
		"slash": 800 * time.Millisecond,
		"bite":  600 * time.Millisecond,
		"fire":  500 * time.Millisecond,
		"ice":   400 * time.Millisecond,
		"hit":   300 * time.Millisecond,
	} {
		require.NoError(t, c.Register(name, d, 1))
	}
	return c
}

func definition(maxHP int) monster.Definition {
	roster, _ := monster.NewRoster(
		monster.Attack{ID: "slash", Name: "Slash", Damage: "1d6+1", Animation: "slash", Effect: "hit"},
		monster.Attack{ID: "bite", Name: "Bite", Damage: "1d4", Animation: "bite", Effect: "hit"},
	)
	return monster.Definition{
		NameID:      "greyWolf",
		DisplayName: "Grey Wolf",
		Level:       2,
		MaxHP:       maxHP,
		MaxMP:       5,
		Abilities:   monster.Abilities{Strength: 12, Dexterity: 14, Intelligence: 4, Luck: 8},
		Roster:      roster,
		Policy:      monster.PolicyRandom,
		Size:        monster.SizeMedium,
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []monster.Event
}

func (l *eventLog) Notify(e monster.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []monster.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]monster.EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	c        *monster.Combatant
	recorder *presentation.Recorder
	events   *eventLog
}

func newFixture(t require.TestingT, def monster.Definition) fixture {
	rec := &presentation.Recorder{}
	events := &eventLog{}
	c, err := monster.New("m-1", def, monster.Deps{
		Animator:  newCatalog(t),
		Source:    dice.NewSeededSource(3),
		Suspender: rec,
		Listener:  events,
	})
	require.NoError(t, err)
	return fixture{c: c, recorder: rec, events: events}
}

func TestNew_Ready(t *testing.T) {
	f := newFixture(t, definition(100))
	assert.True(t, f.c.Ready())
	assert.Equal(t, monster.StateIdle, f.c.State())
	assert.Equal(t, 2, f.c.AttackCount())
	hp, maxHP := f.c.HP()
	assert.Equal(t, 100, hp)
	assert.Equal(t, 100, maxHP)
	mp, maxMP := f.c.MP()
	assert.Equal(t, 5, mp)
	assert.Equal(t, 5, maxMP)
	_, ok := f.c.SelectedAttack()
	assert.False(t, ok)
}

func TestNew_ConfigurationErrors(t *testing.T) {
	deps := monster.Deps{Animator: newCatalog(t), Source: dice.NewCryptoSource()}

	badSize := definition(10)
	badSize.Size = monster.SizeCategory(99)
	_, err := monster.New("m", badSize, deps)
	assert.ErrorIs(t, err, monster.ErrConfiguration)

	noAttacks := definition(10)
	noAttacks.Roster, _ = monster.NewRoster()
	_, err = monster.New("m", noAttacks, deps)
	assert.ErrorIs(t, err, monster.ErrConfiguration)

	badPolicy := definition(10)
	badPolicy.Policy = monster.PolicyUnknown
	_, err = monster.New("m", badPolicy, deps)
	assert.ErrorIs(t, err, monster.ErrConfiguration)

	badLevel := definition(10)
	badLevel.Level = 0
	_, err = monster.New("m", badLevel, deps)
	assert.ErrorIs(t, err, monster.ErrConfiguration)

	_, err = monster.New("", definition(10), deps)
	assert.ErrorIs(t, err, monster.ErrConfiguration)

	_, err = monster.New("m", definition(10), monster.Deps{Source: dice.NewCryptoSource()})
	assert.ErrorIs(t, err, monster.ErrConfiguration)
}

func TestNew_UnboundAnimationIsConfigurationError(t *testing.T) {
	def := definition(10)
	def.Roster[0].Animation = "missing_clip"
	_, err := monster.New("m", def, monster.Deps{Animator: newCatalog(t), Source: dice.NewCryptoSource()})
	assert.ErrorIs(t, err, monster.ErrConfiguration)
	assert.Contains(t, err.Error(), "missing_clip")
}

// A non-lethal hit leaves the combatant idle with reduced health.
func TestReceiveDamage_NonLethal(t *testing.T) {
	f := newFixture(t, definition(100))
	hp, err := f.c.ReceiveDamage(30, "fire")
	require.NoError(t, err)
	assert.Equal(t, 70, hp)
	assert.False(t, f.c.IsDead())
	assert.Equal(t, monster.StateIdle, f.c.State())
	assert.False(t, f.c.State().Terminal())

	susp := f.recorder.Suspensions()
	require.Len(t, susp, 1)
	assert.Equal(t, monster.SuspendHit, susp[0].Point)
	assert.Equal(t, 500*time.Millisecond, susp[0].Duration)
	assert.Equal(t, []monster.EventType{monster.EventDamaged, monster.EventHealthChanged}, f.events.types())
}

// A lethal hit moves to Dying; Destroy plays the death clip and retires it.
func TestReceiveDamage_LethalThenDestroy(t *testing.T) {
	f := newFixture(t, definition(10))
	hp, err := f.c.ReceiveDamage(15, "ice")
	require.NoError(t, err)
	assert.Equal(t, 0, hp)
	assert.True(t, f.c.IsDead())
	assert.Equal(t, monster.StateDying, f.c.State())
	assert.True(t, f.c.State().Terminal())

	require.NoError(t, f.c.Destroy())
	assert.Equal(t, monster.StateDestroyed, f.c.State())
	assert.True(t, f.c.State().Terminal())

	err = f.c.Destroy()
	assert.ErrorIs(t, err, monster.ErrInvalidState)
	assert.Equal(t, monster.StateDestroyed, f.c.State())

	assert.Equal(t, []monster.EventType{
		monster.EventDamaged, monster.EventHealthChanged, monster.EventDying, monster.EventDestroyed,
	}, f.events.types())

	susp := f.recorder.Suspensions()
	require.Len(t, susp, 2)
	assert.Equal(t, monster.SuspendDeath, susp[1].Point)
	assert.Equal(t, 1200*time.Millisecond, susp[1].Duration)
}

// Negative damage is rejected without touching health or state.
func TestReceiveDamage_NegativeAmount(t *testing.T) {
	f := newFixture(t, definition(100))
	hp, err := f.c.ReceiveDamage(-5, "x")
	assert.ErrorIs(t, err, monster.ErrInvalidArgument)
	assert.Equal(t, 100, hp)
	cur, _ := f.c.HP()
	assert.Equal(t, 100, cur)
	assert.Equal(t, monster.StateIdle, f.c.State())
	assert.Empty(t, f.events.types())
	assert.Empty(t, f.recorder.Suspensions())
}

func TestDestroy_RequiresDying(t *testing.T) {
	f := newFixture(t, definition(100))
	err := f.c.Destroy()
	assert.ErrorIs(t, err, monster.ErrInvalidState)
	assert.Equal(t, monster.StateIdle, f.c.State())
}

func TestTerminalStates_RejectActions(t *testing.T) {
	f := newFixture(t, definition(5))
	_, err := f.c.ReceiveDamage(5, "hit")
	require.NoError(t, err)

	_, err = f.c.Act()
	assert.ErrorIs(t, err, monster.ErrInvalidState, "dying combatant cannot act")
	_, err = f.c.ReceiveDamage(1, "hit")
	assert.ErrorIs(t, err, monster.ErrInvalidState, "dying combatant cannot be damaged")

	require.NoError(t, f.c.Destroy())
	_, err = f.c.Act()
	assert.ErrorIs(t, err, monster.ErrInvalidState)
	_, err = f.c.ReceiveDamage(1, "hit")
	assert.ErrorIs(t, err, monster.ErrInvalidState)
	cur, _ := f.c.HP()
	assert.Equal(t, 0, cur)
}

func TestAct_PlaysSelectedAttack(t *testing.T) {
	f := newFixture(t, definition(100))
	var during []int
	f.recorder.OnSuspend = func(presentation.Suspension) {
		idx, ok := f.c.SelectedAttack()
		require.True(t, ok)
		during = append(during, idx)
		assert.Equal(t, monster.StatePlayingAttackAnimation, f.c.State())
	}

	choice, err := f.c.Act()
	require.NoError(t, err)
	assert.False(t, choice.Attack.IsEmpty())
	assert.Contains(t, []int{0, 1}, choice.Index)
	assert.Equal(t, []int{choice.Index}, during)
	assert.Equal(t, monster.StateIdle, f.c.State())

	_, ok := f.c.SelectedAttack()
	assert.False(t, ok, "selection is only observable while the turn is in flight")

	susp := f.recorder.Suspensions()
	require.Len(t, susp, 1)
	assert.Equal(t, monster.SuspendAttack, susp[0].Point)
}

func TestAct_Property_ChoiceIsNonEmptySlot(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		def := definition(50)
		attacks := make([]monster.Attack, 0, monster.RosterSize)
		for i := 0; i < monster.RosterSize; i++ {
			if rapid.Bool().Draw(rt, "filled") {
				attacks = append(attacks, monster.Attack{ID: "slash", Name: "Slash", Damage: "1d6", Animation: "slash", Effect: "hit"})
			} else {
				attacks = append(attacks, monster.EmptyAttack())
			}
		}
		def.Roster, _ = monster.NewRoster(attacks...)
		if def.Roster.Count() == 0 {
			return
		}
		def.Policy = rapid.SampledFrom([]monster.Policy{monster.PolicyRandom, monster.PolicyWeakHunter}).Draw(rt, "policy")

		f := newFixture(rt, def)
		choice, err := f.c.Act()
		require.NoError(rt, err)
		assert.Less(rt, choice.Index, f.c.AttackCount())
		assert.False(rt, def.Roster[choice.Index].IsEmpty())
	})
}

// Attacks listed around an empty slot are still chosen from the leading slots.
func TestAct_GappedRosterChoosesBelowAttackCount(t *testing.T) {
	def := definition(1000)
	def.Roster, _ = monster.NewRoster(
		monster.Attack{ID: "slash", Name: "Slash", Damage: "1d6", Animation: "slash", Effect: "hit"},
		monster.EmptyAttack(),
		monster.Attack{ID: "bite", Name: "Bite", Damage: "1d4", Animation: "bite", Effect: "hit"},
	)
	f := newFixture(t, def)
	require.Equal(t, 2, f.c.AttackCount())

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		choice, err := f.c.Act()
		require.NoError(t, err)
		require.Less(t, choice.Index, 2)
		seen[choice.Index] = true
	}
	assert.Len(t, seen, 2, "both attacks are selectable")
}

func TestNew_GappedRosterLiteralIsConfigurationError(t *testing.T) {
	def := definition(10)
	def.Roster = monster.Roster{def.Roster[0], monster.EmptyAttack(), def.Roster[1], monster.EmptyAttack()}
	_, err := monster.New("wolf-1", def, monster.Deps{Animator: newCatalog(t), Source: dice.NewSeededSource(1)})
	assert.ErrorIs(t, err, monster.ErrConfiguration)
}

func TestSingleSequenceInFlight(t *testing.T) {
	f := newFixture(t, definition(100))
	var nested []error
	f.recorder.OnSuspend = func(s presentation.Suspension) {
		if s.Point != monster.SuspendHit {
			return
		}
		_, err := f.c.Act()
		nested = append(nested, err)
		_, err = f.c.ReceiveDamage(10, "hit")
		nested = append(nested, err)
	}

	hp, err := f.c.ReceiveDamage(10, "hit")
	require.NoError(t, err)
	assert.Equal(t, 90, hp, "rejected nested damage must not apply")
	require.Len(t, nested, 2)
	for _, err := range nested {
		assert.ErrorIs(t, err, monster.ErrInvalidState)
	}
	assert.Equal(t, monster.StateIdle, f.c.State())
}

func TestConcurrentDamage_NeverExceedsOneInFlight(t *testing.T) {
	rec := &presentation.Recorder{}
	block := make(chan struct{})
	entered := make(chan struct{}, 1)
	rec.OnSuspend = func(presentation.Suspension) {
		entered <- struct{}{}
		<-block
	}
	c, err := monster.New("m-1", definition(100), monster.Deps{
		Animator: newCatalog(t), Source: dice.NewCryptoSource(), Suspender: rec,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.ReceiveDamage(10, "hit")
		done <- err
	}()
	<-entered

	_, err = c.ReceiveDamage(10, "hit")
	assert.ErrorIs(t, err, monster.ErrInvalidState)
	assert.Equal(t, monster.StateReceivingDamage, c.State())

	close(block)
	require.NoError(t, <-done)
	hp, _ := c.HP()
	assert.Equal(t, 90, hp)
}

// flakyAnimator resolves from a catalog until broken is set.
type flakyAnimator struct {
	inner  monster.Animator
	mu     sync.Mutex
	broken map[string]bool
}

func (a *flakyAnimator) ResolveTrigger(name string) (time.Duration, error) {
	a.mu.Lock()
	broken := a.broken[name]
	a.mu.Unlock()
	if broken {
		return 0, errors.Join(errors.New("clip unloaded"), monster.ErrUnknownTrigger)
	}
	return a.inner.ResolveTrigger(name)
}

func (a *flakyAnimator) breakTrigger(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.broken[name] = true
}

func TestPresentationFailure_DoesNotCorruptCombatState(t *testing.T) {
	anim := &flakyAnimator{inner: newCatalog(t), broken: map[string]bool{}}
	c, err := monster.New("m-1", definition(10), monster.Deps{Animator: anim, Source: dice.NewCryptoSource()})
	require.NoError(t, err)

	hp, err := c.ReceiveDamage(4, "unregistered_effect")
	require.Error(t, err)
	assert.ErrorIs(t, err, monster.ErrUnknownTrigger)
	assert.True(t, monster.IsPresentation(err))
	assert.Equal(t, 6, hp)
	assert.Equal(t, monster.StateIdle, c.State())

	anim.breakTrigger("slash")
	anim.breakTrigger("bite")
	choice, err := c.Act()
	assert.ErrorIs(t, err, monster.ErrUnknownTrigger)
	assert.False(t, choice.Attack.IsEmpty(), "selection is still reported")
	assert.Equal(t, monster.StateIdle, c.State())

	hp, err = c.ReceiveDamage(10, "unregistered_effect")
	assert.ErrorIs(t, err, monster.ErrUnknownTrigger)
	assert.Equal(t, 0, hp)
	assert.Equal(t, monster.StateDying, c.State(), "death detection commits before the animation")

	anim.breakTrigger("death")
	err = c.Destroy()
	var pe *monster.PresentationError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, monster.SuspendDeath, pe.Point)
	assert.Equal(t, monster.StateDestroyed, c.State())
	assert.ErrorIs(t, c.Destroy(), monster.ErrInvalidState)
}

func TestZeroValueCombatant_NotReady(t *testing.T) {
	var c monster.Combatant
	_, err := c.Act()
	assert.ErrorIs(t, err, monster.ErrInvalidState)
	_, err = c.ReceiveDamage(1, "hit")
	assert.ErrorIs(t, err, monster.ErrInvalidState)
	assert.ErrorIs(t, c.Destroy(), monster.ErrInvalidState)
}
