package battle

import (
	"sync"

	"github.com/cory-johannsen/candlelight/internal/game/monster"
)

// Listeners fans combat events out to every registered listener in
// registration order. It is safe for concurrent use.
type Listeners struct {
	mu   sync.RWMutex
	list []monster.Listener
}

// Add registers l. Nil listeners are ignored.
func (ls *Listeners) Add(l monster.Listener) {
	if l == nil {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.list = append(ls.list, l)
}

// Notify implements monster.Listener.
func (ls *Listeners) Notify(e monster.Event) {
	ls.mu.RLock()
	list := ls.list
	ls.mu.RUnlock()
	for _, l := range list {
		l.Notify(e)
	}
}
