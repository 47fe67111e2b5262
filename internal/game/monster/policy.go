package monster

import (
	"fmt"
	"strings"
)

// Policy identifies how a combatant chooses its attack each turn.
// The zero value is intentionally invalid.
type Policy int

const (
	PolicyUnknown Policy = iota
	PolicyRandom
	PolicyWeakHunter
)

// String returns the content name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyRandom:
		return "random"
	case PolicyWeakHunter:
		return "weakHunter"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a content name to a Policy, case-insensitively.
//
// Postcondition: Returns a valid Policy or an error wrapping ErrConfiguration.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "random":
		return PolicyRandom, nil
	case "weakhunter", "weak_hunter":
		return PolicyWeakHunter, nil
	default:
		return PolicyUnknown, fmt.Errorf("ai policy must be one of [random, weakHunter], got %q: %w", s, ErrConfiguration)
	}
}
