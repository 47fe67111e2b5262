package presentation

import (
	"sync"

	"github.com/cory-johannsen/candlelight/internal/game/monster"
)

// Bar is the last health value shown for a combatant.
type Bar struct {
	HP    int
	MaxHP int
}

// HealthDisplay tracks the externally observable health of each combatant.
// It updates only on monster.EventHealthChanged, which a combatant emits
// after its hit animation, and forgets combatants once destroyed.
type HealthDisplay struct {
	mu   sync.RWMutex
	bars map[string]Bar
}

// NewHealthDisplay creates an empty display.
func NewHealthDisplay() *HealthDisplay {
	return &HealthDisplay{bars: make(map[string]Bar)}
}

// Show seeds the bar for a combatant that has just joined.
func (h *HealthDisplay) Show(id string, hp, maxHP int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bars[id] = Bar{HP: hp, MaxHP: maxHP}
}

// Notify implements monster.Listener.
func (h *HealthDisplay) Notify(e monster.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch e.Type {
	case monster.EventHealthChanged:
		h.bars[e.CombatantID] = Bar{HP: e.HP, MaxHP: e.MaxHP}
	case monster.EventDestroyed:
		delete(h.bars, e.CombatantID)
	}
}

// Bar returns the displayed health for id.
func (h *HealthDisplay) Bar(id string) (Bar, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.bars[id]
	return b, ok
}
