package battle

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/cory-johannsen/candlelight/internal/game/monster"
)

// ErrUnknownTemplate is returned by Spawn for a name ID with no template.
var ErrUnknownTemplate = errors.New("battle: unknown monster template")

// Spawner builds combatants from bestiary templates.
type Spawner struct {
	defs map[string]monster.Definition
}

// NewSpawner resolves every template against catalog up front.
//
// Postcondition: Returns a Spawner, or an error wrapping
// monster.ErrConfiguration naming every template that failed to resolve.
func NewSpawner(templates []*monster.Template, catalog monster.AttackCatalog) (*Spawner, error) {
	defs := make(map[string]monster.Definition, len(templates))
	var errs []error
	for _, t := range templates {
		if _, dup := defs[t.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate monster template %q: %w", t.ID, monster.ErrConfiguration))
			continue
		}
		def, err := t.Definition(catalog)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs[t.ID] = def
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Spawner{defs: defs}, nil
}

// Names returns the known template IDs, sorted.
func (s *Spawner) Names() []string {
	names := make([]string, 0, len(s.defs))
	for n := range s.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Spawn creates a new combatant of template nameID with a fresh UUID.
func (s *Spawner) Spawn(nameID string, deps monster.Deps) (*monster.Combatant, error) {
	def, ok := s.defs[nameID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, nameID)
	}
	return monster.New(uuid.NewString(), def, deps)
}
