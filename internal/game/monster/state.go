package monster

// State is a combatant's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateSelectingAttack
	StatePlayingAttackAnimation
	StateReceivingDamage
	StateDying
	StateDestroyed
)

// String returns a log-friendly state label.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectingAttack:
		return "selecting_attack"
	case StatePlayingAttackAnimation:
		return "playing_attack_animation"
	case StateReceivingDamage:
		return "receiving_damage"
	case StateDying:
		return "dying"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s permits no further combat actions.
func (s State) Terminal() bool {
	return s == StateDying || s == StateDestroyed
}
