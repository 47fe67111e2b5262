package monster

import "fmt"

// Abilities holds the four ability scores of a combatant.
type Abilities struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Intelligence int `yaml:"intelligence"`
	Luck         int `yaml:"luck"`
}

// Scores returns the ability scores in STR, DEX, INT, LUK order.
func (a Abilities) Scores() [4]int {
	return [4]int{a.Strength, a.Dexterity, a.Intelligence, a.Luck}
}

// AbilityMod computes the ability modifier floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// Stats is the resource and ability state of one combatant.
//
// Invariant: 0 <= CurrentHP() <= MaxHP() and 0 <= CurrentMP() <= MaxMP().
type Stats struct {
	level     int
	maxHP     int
	currentHP int
	maxMP     int
	currentMP int
	abilities Abilities
}

// NewStats creates a Stats block at full health and mana.
//
// Precondition: level >= 1, maxHP >= 1, maxMP >= 0.
// Postcondition: Returns Stats with CurrentHP == maxHP and CurrentMP == maxMP,
// or an error wrapping ErrConfiguration.
func NewStats(level, maxHP, maxMP int, abilities Abilities) (*Stats, error) {
	if level < 1 {
		return nil, fmt.Errorf("level must be >= 1, got %d: %w", level, ErrConfiguration)
	}
	if maxHP < 1 {
		return nil, fmt.Errorf("max_hp must be >= 1, got %d: %w", maxHP, ErrConfiguration)
	}
	if maxMP < 0 {
		return nil, fmt.Errorf("max_mp must be >= 0, got %d: %w", maxMP, ErrConfiguration)
	}
	return &Stats{
		level:     level,
		maxHP:     maxHP,
		currentHP: maxHP,
		maxMP:     maxMP,
		currentMP: maxMP,
		abilities: abilities,
	}, nil
}

func (s *Stats) Level() int           { return s.level }
func (s *Stats) MaxHP() int           { return s.maxHP }
func (s *Stats) CurrentHP() int       { return s.currentHP }
func (s *Stats) MaxMP() int           { return s.maxMP }
func (s *Stats) CurrentMP() int       { return s.currentMP }
func (s *Stats) Abilities() Abilities { return s.abilities }

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount >= 0; a negative amount fails with ErrInvalidArgument
// and leaves the stats unchanged.
// Postcondition: CurrentHP == max(0, old - amount); returns the new CurrentHP.
func (s *Stats) ApplyDamage(amount int) (int, error) {
	if amount < 0 {
		return s.currentHP, fmt.Errorf("damage amount %d: %w", amount, ErrInvalidArgument)
	}
	s.currentHP -= amount
	if s.currentHP < 0 {
		s.currentHP = 0
	}
	return s.currentHP, nil
}

// IsDead reports whether CurrentHP has reached zero.
func (s *Stats) IsDead() bool {
	return s.currentHP == 0
}
