package monster

import (
	"fmt"

	"github.com/cory-johannsen/candlelight/internal/game/dice"
)

// EmptyAttackName marks a roster slot that holds no attack.
const EmptyAttackName = "none"

// RosterSize is the fixed number of attack slots a combatant has.
const RosterSize = 4

// Attack is an immutable attack definition.
type Attack struct {
	// ID is the catalog key.
	ID string `yaml:"id"`
	// Name is the display name; EmptyAttackName marks an empty slot.
	Name string `yaml:"name"`
	// Damage is a dice expression such as "1d6+2".
	Damage string `yaml:"damage"`
	// Animation is the trigger the attacker plays.
	Animation string `yaml:"animation"`
	// Effect is the trigger the target plays when hit.
	Effect string `yaml:"effect"`
}

// EmptyAttack returns the empty-slot marker.
func EmptyAttack() Attack {
	return Attack{ID: EmptyAttackName, Name: EmptyAttackName}
}

// IsEmpty reports whether a is the empty-slot marker.
func (a Attack) IsEmpty() bool {
	return a.Name == EmptyAttackName || a.Name == ""
}

// Validate checks that a usable attack has a name, a parseable damage
// expression, and both trigger names.
func (a Attack) Validate() error {
	if a.IsEmpty() {
		return nil
	}
	if _, err := dice.Parse(a.Damage); err != nil {
		return fmt.Errorf("attack %q: %v: %w", a.Name, err, ErrConfiguration)
	}
	if a.Animation == "" {
		return fmt.Errorf("attack %q: animation must not be empty: %w", a.Name, ErrConfiguration)
	}
	if a.Effect == "" {
		return fmt.Errorf("attack %q: effect must not be empty: %w", a.Name, ErrConfiguration)
	}
	return nil
}

// Roster is the fixed set of attack slots.
type Roster [RosterSize]Attack

// NewRoster builds a roster from up to RosterSize attacks. Non-empty attacks
// keep their relative order and fill the leading slots; every slot from
// Count() onward holds the empty marker.
func NewRoster(attacks ...Attack) (Roster, error) {
	var r Roster
	if len(attacks) > RosterSize {
		return r, fmt.Errorf("roster holds at most %d attacks, got %d: %w", RosterSize, len(attacks), ErrConfiguration)
	}
	n := 0
	for _, a := range attacks {
		if a.IsEmpty() {
			continue
		}
		r[n] = a
		n++
	}
	for i := n; i < RosterSize; i++ {
		r[i] = EmptyAttack()
	}
	return r, nil
}

// Count returns the number of non-empty slots.
func (r Roster) Count() int {
	n := 0
	for _, a := range r {
		if !a.IsEmpty() {
			n++
		}
	}
	return n
}

// Available returns the indices of non-empty slots in ascending order.
func (r Roster) Available() []int {
	out := make([]int, 0, RosterSize)
	for i, a := range r {
		if !a.IsEmpty() {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks every non-empty slot and that the roster is packed: no
// attack may follow an empty slot.
func (r Roster) Validate() error {
	gap := -1
	for i, a := range r {
		if a.IsEmpty() {
			if gap < 0 {
				gap = i
			}
			continue
		}
		if gap >= 0 {
			return fmt.Errorf("slot %d: attack %q follows empty slot %d: %w", i, a.Name, gap, ErrConfiguration)
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return nil
}
