package presentation

import (
	"sync"
	"time"

	"github.com/cory-johannsen/candlelight/internal/game/monster"
)

// RealtimeSuspender blocks the caller for the full animation duration.
type RealtimeSuspender struct{}

// Suspend waits d. It always runs to completion.
func (RealtimeSuspender) Suspend(_ monster.SuspendPoint, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	<-t.C
}

// Suspension is one recorded wait.
type Suspension struct {
	Point    monster.SuspendPoint
	Duration time.Duration
}

// Recorder records suspensions without waiting. It is used for headless
// simulation, where battle time is accounted rather than slept.
type Recorder struct {
	mu      sync.Mutex
	entries []Suspension
	// OnSuspend, when set, is called synchronously inside Suspend.
	OnSuspend func(Suspension)
}

// Suspend records the wait and returns immediately.
func (r *Recorder) Suspend(point monster.SuspendPoint, d time.Duration) {
	s := Suspension{Point: point, Duration: d}
	r.mu.Lock()
	r.entries = append(r.entries, s)
	hook := r.OnSuspend
	r.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

// Suspensions returns a copy of the recorded waits in order.
func (r *Recorder) Suspensions() []Suspension {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Suspension, len(r.entries))
	copy(out, r.entries)
	return out
}

// Elapsed returns the sum of all recorded durations.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, s := range r.entries {
		total += s.Duration
	}
	return total
}
