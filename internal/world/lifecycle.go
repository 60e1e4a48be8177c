package world

import (
	"log/slog"
	"slices"

	"github.com/udisondev/tankarena/internal/model"
)

// Destroy schedules e for removal delay seconds of simulation time from now.
// A second request for the same entity keeps the earlier deadline.
func (w *World) Destroy(e *model.Entity, delay float64) {
	w.mu.Lock()
	at := w.clock + max(delay, 0)
	if prev, ok := w.pending[e.ObjectID()]; !ok || at < prev {
		w.pending[e.ObjectID()] = at
	}
	w.mu.Unlock()

	slog.Debug("entity scheduled for removal",
		"objectID", e.ObjectID(),
		"name", e.Name(),
		"delay", delay)
}

// Reap advances the simulation clock by dt and removes every entity whose
// removal deadline has passed, in object ID order.
func (w *World) Reap(dt float64) {
	w.mu.Lock()
	w.clock += dt
	var due []uint32
	for id, at := range w.pending {
		if at <= w.clock {
			due = append(due, id)
		}
	}
	w.mu.Unlock()

	slices.Sort(due)
	for _, id := range due {
		w.Remove(id)
	}
}

// Pending returns how many removals are scheduled.
func (w *World) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Clock returns the simulation time in seconds seen by Reap.
func (w *World) Clock() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clock
}
