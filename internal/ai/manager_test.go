package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeController records lifecycle calls and the order it was ticked in.
type fakeController struct {
	id      uint32
	log     *[]string
	mu      sync.Mutex
	running bool
	ticks   int
	state   State
}

func (f *fakeController) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

func (f *fakeController) SetState(s State)    { f.state = s }
func (f *fakeController) CurrentState() State { return f.state }

func (f *fakeController) Tick(float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	if f.log != nil {
		*f.log = append(*f.log, string(rune('a'+f.id)))
	}
}

func (f *fakeController) Ticks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks
}

func (f *fakeController) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func TestTickManager_RegisterUnregister(t *testing.T) {
	m := NewTickManager(time.Millisecond)
	c := &fakeController{id: 1}

	m.Register(1, c)
	assert.Equal(t, 1, m.Count())
	assert.True(t, c.Running())

	m.Register(1, &fakeController{id: 1})
	assert.Equal(t, 1, m.Count(), "duplicate register ignored")

	got, err := m.GetController(1)
	require.NoError(t, err)
	assert.Same(t, c, got)

	m.Unregister(1)
	assert.Zero(t, m.Count())
	assert.False(t, c.Running())

	_, err = m.GetController(1)
	assert.Error(t, err)

	m.Unregister(1)
	assert.Zero(t, m.Count())
}

func TestTickManager_StepOrder(t *testing.T) {
	m := NewTickManager(time.Millisecond)

	var log []string
	for _, id := range []uint32{3, 1, 2} {
		m.Register(id, &fakeController{id: id, log: &log})
	}
	m.AddPhase("physics", func(float64) { log = append(log, "physics") })
	m.AddPhase("publish", func(float64) { log = append(log, "publish") })

	m.Step(0.02)

	assert.Equal(t, []string{"b", "c", "d", "physics", "publish"}, log)
	assert.Equal(t, uint64(1), m.Frames())
}

func TestTickManager_PhaseSeesDt(t *testing.T) {
	m := NewTickManager(time.Millisecond)

	var got float64
	m.AddPhase("probe", func(dt float64) { got = dt })
	m.Step(0.25)

	assert.Equal(t, 0.25, got)
}

func TestTickManager_StartStopsOnCancel(t *testing.T) {
	m := NewTickManager(time.Millisecond)
	c := &fakeController{id: 1}
	m.Register(1, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	require.Eventually(t, func() bool { return c.Ticks() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("manager did not stop on cancel")
	}
}

func TestTickManager_Stop(t *testing.T) {
	m := NewTickManager(time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()

	require.Eventually(t, func() bool { return m.Frames() > 0 }, time.Second, time.Millisecond)
	m.Stop()
	m.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
}

func TestTickManager_UnregisterDuringPhase(t *testing.T) {
	m := NewTickManager(time.Millisecond)
	a := &fakeController{id: 1}
	b := &fakeController{id: 2}
	m.Register(1, a)
	m.Register(2, b)

	m.AddPhase("lifecycle", func(float64) { m.Unregister(2) })

	m.Step(0.02)
	m.Step(0.02)

	assert.Equal(t, 2, a.Ticks())
	assert.Equal(t, 1, b.Ticks())
}

func BenchmarkTickManager_Step(b *testing.B) {
	m := NewTickManager(time.Millisecond)
	for id := range uint32(200) {
		m.Register(id, &fakeController{id: id})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		m.Step(0.02)
	}
}
