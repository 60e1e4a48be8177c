package ai

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Phase is a step of the simulation frame that runs after all controllers
// have ticked (physics, projectiles, lifecycle, publishing).
type Phase func(dt float64)

type namedPhase struct {
	name string
	fn   Phase
}

// TickManager drives every registered controller once per frame, then the
// post-tick phases in registration order, all on one goroutine.
type TickManager struct {
	controllers     sync.Map // map[uint32]Controller keyed by objectID
	controllerCount atomic.Int32
	interval        time.Duration
	phases          []namedPhase
	frames          atomic.Uint64
	stopCh          chan struct{}
	stopOnce        sync.Once
}

// NewTickManager creates a manager ticking at the given interval.
func NewTickManager(interval time.Duration) *TickManager {
	return &TickManager{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// AddPhase appends a post-tick phase. Not safe once Start is running.
func (m *TickManager) AddPhase(name string, fn Phase) {
	m.phases = append(m.phases, namedPhase{name: name, fn: fn})
}

// Register registers and starts a controller.
func (m *TickManager) Register(objectID uint32, controller Controller) {
	if _, loaded := m.controllers.LoadOrStore(objectID, controller); loaded {
		slog.Warn("AI controller already registered", "objectID", objectID)
		return
	}
	m.controllerCount.Add(1)
	controller.Start()

	slog.Debug("AI controller registered",
		"objectID", objectID,
		"state", controller.CurrentState())
}

// Unregister stops and removes a controller.
func (m *TickManager) Unregister(objectID uint32) {
	value, ok := m.controllers.LoadAndDelete(objectID)
	if !ok {
		return
	}
	m.controllerCount.Add(-1)
	value.(Controller).Stop()

	slog.Debug("AI controller unregistered", "objectID", objectID)
}

// Start runs the frame loop until ctx is canceled or Stop is called.
// dt of each frame is the measured wall time since the previous frame.
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("AI tick manager started", "interval", m.interval)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("AI tick manager stopping", "frames", m.frames.Load())
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("AI tick manager stopped", "frames", m.frames.Load())
			return nil

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			m.Step(dt)
		}
	}
}

// Stop stops the frame loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Step runs one frame: controllers in objectID order, then phases.
func (m *TickManager) Step(dt float64) {
	m.tickAll(dt)
	for _, p := range m.phases {
		p.fn(dt)
	}
	m.frames.Add(1)
}

// tickAll ticks every controller in ascending objectID order so that a
// seeded run replays identically.
func (m *TickManager) tickAll(dt float64) {
	ids := make([]uint32, 0, m.Count())
	m.controllers.Range(func(key, _ any) bool {
		ids = append(ids, key.(uint32))
		return true
	})
	slices.Sort(ids)

	for _, id := range ids {
		if c, ok := m.controllers.Load(id); ok {
			c.(Controller).Tick(dt)
		}
	}

	if len(ids) > 0 && IsDebugEnabled() {
		slog.Debug("AI tick completed", "controllers", len(ids), "dt", dt)
	}
}

// Frames returns the number of completed frames.
func (m *TickManager) Frames() uint64 {
	return m.frames.Load()
}

// Count returns number of registered controllers.
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// GetController returns controller for objectID.
func (m *TickManager) GetController(objectID uint32) (Controller, error) {
	value, ok := m.controllers.Load(objectID)
	if !ok {
		return nil, fmt.Errorf("controller not found for objectID %d", objectID)
	}
	return value.(Controller), nil
}
