package monster

import "fmt"

// Source is the randomness provider used by attack selection.
type Source interface {
	// Intn returns a value in [0, n). Precondition: n > 0.
	Intn(n int) int
}

// Selector picks an attack slot from a roster.
type Selector interface {
	Select(roster Roster, src Source) (int, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(roster Roster, src Source) (int, error)

// Select calls f.
func (f SelectorFunc) Select(roster Roster, src Source) (int, error) { return f(roster, src) }

// uniform chooses uniformly among the non-empty slots. Rosters built by
// NewRoster are packed, so the slot lies in [0, Count()).
var uniform = SelectorFunc(func(roster Roster, src Source) (int, error) {
	avail := roster.Available()
	if len(avail) == 0 {
		return 0, ErrNoAvailableAttack
	}
	return avail[src.Intn(len(avail))], nil
})

// selectors maps each policy to its strategy. WeakHunter has no distinct
// attack preference yet and shares the uniform strategy with Random.
var selectors = map[Policy]Selector{
	PolicyRandom:     uniform,
	PolicyWeakHunter: uniform,
}

// SelectorFor returns the strategy registered for p.
//
// Postcondition: Returns a non-nil Selector or an error wrapping ErrConfiguration.
func SelectorFor(p Policy) (Selector, error) {
	s, ok := selectors[p]
	if !ok {
		return nil, fmt.Errorf("no selector for policy %s: %w", p, ErrConfiguration)
	}
	return s, nil
}

// SelectAttack picks the slot index to use this turn.
//
// Precondition: src must be non-nil.
// Postcondition: On success the index refers to a non-empty slot of roster;
// for a roster from NewRoster it also lies in [0, roster.Count()).
// Fails with ErrNoAvailableAttack when roster.Count() == 0 and with
// ErrConfiguration for an unknown policy.
func SelectAttack(p Policy, roster Roster, src Source) (int, error) {
	s, err := SelectorFor(p)
	if err != nil {
		return 0, err
	}
	return s.Select(roster, src)
}
