package monster

import "time"

// TriggerDeath is the animation trigger played when a combatant dies.
const TriggerDeath = "death"

// Animator resolves a named animation trigger to the time the sequencer must
// wait for it. Implementations perform no combat logic.
type Animator interface {
	// ResolveTrigger returns the playback duration of name, or an error
	// wrapping ErrUnknownTrigger when name is not registered.
	ResolveTrigger(name string) (time.Duration, error)
}

// SuspendPoint names where in a sequence the combatant is waiting.
type SuspendPoint int

const (
	SuspendAttack SuspendPoint = iota
	SuspendHit
	SuspendDeath
)

// String returns the suspension point label.
func (p SuspendPoint) String() string {
	switch p {
	case SuspendAttack:
		return "attack"
	case SuspendHit:
		return "hit"
	case SuspendDeath:
		return "death"
	default:
		return "unknown"
	}
}

// Suspender blocks the calling sequence for an animation's duration. It is
// the scheduler's hook: a realtime implementation sleeps, a headless one
// records and returns. Suspend must always return; there is no cancellation
// of an entered suspension.
type Suspender interface {
	Suspend(point SuspendPoint, d time.Duration)
}

// EventType distinguishes combat events reported to a Listener.
type EventType int

const (
	EventDamaged EventType = iota
	EventHealthChanged
	EventDying
	EventDestroyed
)

// String returns the event label used in logs and script hooks.
func (t EventType) String() string {
	switch t {
	case EventDamaged:
		return "damaged"
	case EventHealthChanged:
		return "health_changed"
	case EventDying:
		return "dying"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event is a combat notification emitted by a combatant.
type Event struct {
	Type        EventType
	CombatantID string
	Amount      int
	HP          int
	MaxHP       int
	Effect      string
}

// Listener receives combat events. Notify is called without the combatant's
// lock held and must not block for long.
type Listener interface {
	Notify(Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// Notify calls f.
func (f ListenerFunc) Notify(e Event) { f(e) }

type noopListener struct{}

func (noopListener) Notify(Event) {}

type noopSuspender struct{}

func (noopSuspender) Suspend(SuspendPoint, time.Duration) {}
