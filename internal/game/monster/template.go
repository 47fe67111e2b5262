package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a bestiary entry loaded from YAML.
type Template struct {
	// ID is the name ID the bestiary references the monster by.
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Area        string    `yaml:"area"`
	Sprite      string    `yaml:"sprite"`
	Size        string    `yaml:"size"`
	AI          string    `yaml:"ai"`
	Level       int       `yaml:"level"`
	MaxHP       int       `yaml:"max_hp"`
	MaxMP       int       `yaml:"max_mp"`
	Abilities   Abilities `yaml:"abilities"`
	Attacks     []string  `yaml:"attacks"`
	Description string    `yaml:"description"`
}

// Validate checks the template's own fields. Attack IDs are checked against
// a catalog by Definition.
//
// Postcondition: Returns nil, or an error wrapping ErrConfiguration listing all violations.
func (t *Template) Validate() error {
	var errs []string
	if t.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if t.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if _, err := ParseSize(t.Size); err != nil {
		errs = append(errs, fmt.Sprintf("size must be one of [small, medium, large], got %q", t.Size))
	}
	if _, err := ParsePolicy(t.AI); err != nil {
		errs = append(errs, fmt.Sprintf("ai must be one of [random, weakHunter], got %q", t.AI))
	}
	if t.Level < 1 {
		errs = append(errs, fmt.Sprintf("level must be >= 1, got %d", t.Level))
	}
	if t.MaxHP < 1 {
		errs = append(errs, fmt.Sprintf("max_hp must be >= 1, got %d", t.MaxHP))
	}
	if t.MaxMP < 0 {
		errs = append(errs, fmt.Sprintf("max_mp must be >= 0, got %d", t.MaxMP))
	}
	if len(t.Attacks) == 0 {
		errs = append(errs, "attacks must not be empty")
	}
	if len(t.Attacks) > RosterSize {
		errs = append(errs, fmt.Sprintf("at most %d attacks, got %d", RosterSize, len(t.Attacks)))
	}
	if len(errs) > 0 {
		return fmt.Errorf("monster template %q: %s: %w", t.ID, strings.Join(errs, "; "), ErrConfiguration)
	}
	return nil
}

// Definition resolves the template against catalog.
//
// Precondition: t has passed Validate.
// Postcondition: Returns a Definition whose roster holds the catalog
// attacks in template order, or an error wrapping ErrConfiguration.
func (t *Template) Definition(catalog AttackCatalog) (Definition, error) {
	size, err := ParseSize(t.Size)
	if err != nil {
		return Definition{}, fmt.Errorf("monster template %q: %w", t.ID, err)
	}
	policy, err := ParsePolicy(t.AI)
	if err != nil {
		return Definition{}, fmt.Errorf("monster template %q: %w", t.ID, err)
	}
	roster, err := catalog.Roster(t.Attacks)
	if err != nil {
		return Definition{}, fmt.Errorf("monster template %q: %w", t.ID, err)
	}
	return Definition{
		NameID:      t.ID,
		DisplayName: t.Name,
		Level:       t.Level,
		MaxHP:       t.MaxHP,
		MaxMP:       t.MaxMP,
		Abilities:   t.Abilities,
		Roster:      roster,
		Policy:      policy,
		Size:        size,
	}, nil
}

// LoadTemplateFromBytes parses and validates a single template.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing monster template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads every *.yaml file in dir as one template.
//
// Postcondition: Returns all templates, or an error on the first failure.
func LoadTemplates(dir string) ([]*Template, error) {
	var out []*Template
	err := eachYAML(dir, func(path string, data []byte) error {
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return err
		}
		out = append(out, tmpl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AttackCatalog indexes attacks by ID.
type AttackCatalog map[string]Attack

// Add registers atk after validating it.
//
// Postcondition: Returns an error wrapping ErrConfiguration on an invalid
// attack, an empty or reserved ID, or a duplicate ID.
func (c AttackCatalog) Add(atk Attack) error {
	if atk.ID == "" || atk.ID == EmptyAttackName {
		return fmt.Errorf("attack id %q is empty or reserved: %w", atk.ID, ErrConfiguration)
	}
	if atk.IsEmpty() {
		return fmt.Errorf("attack %q: name must not be empty or %q: %w", atk.ID, EmptyAttackName, ErrConfiguration)
	}
	if err := atk.Validate(); err != nil {
		return err
	}
	if _, exists := c[atk.ID]; exists {
		return fmt.Errorf("attack %q already registered: %w", atk.ID, ErrConfiguration)
	}
	c[atk.ID] = atk
	return nil
}

// Roster builds a roster from attack IDs. EmptyAttackName is accepted as an
// explicit empty slot; missing trailing slots are padded with it.
func (c AttackCatalog) Roster(ids []string) (Roster, error) {
	if len(ids) > RosterSize {
		return Roster{}, fmt.Errorf("at most %d attacks, got %d: %w", RosterSize, len(ids), ErrConfiguration)
	}
	attacks := make([]Attack, 0, len(ids))
	for _, id := range ids {
		if id == EmptyAttackName {
			attacks = append(attacks, EmptyAttack())
			continue
		}
		atk, ok := c[id]
		if !ok {
			return Roster{}, fmt.Errorf("unknown attack %q: %w", id, ErrConfiguration)
		}
		attacks = append(attacks, atk)
	}
	return NewRoster(attacks...)
}

// LoadAttacksFromBytes parses a YAML list of attacks.
func LoadAttacksFromBytes(data []byte) ([]Attack, error) {
	var attacks []Attack
	if err := yaml.Unmarshal(data, &attacks); err != nil {
		return nil, fmt.Errorf("parsing attack YAML: %w", err)
	}
	return attacks, nil
}

// LoadAttacks reads every *.yaml file in dir as a list of attacks.
//
// Postcondition: Returns a catalog of all attacks, or an error on the first
// parse, validation, or duplicate failure.
func LoadAttacks(dir string) (AttackCatalog, error) {
	catalog := make(AttackCatalog)
	err := eachYAML(dir, func(path string, data []byte) error {
		attacks, err := LoadAttacksFromBytes(data)
		if err != nil {
			return err
		}
		for _, atk := range attacks {
			if err := catalog.Add(atk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

func eachYAML(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		if err := fn(path, data); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return nil
}
