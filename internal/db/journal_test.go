package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu          sync.Mutex
	transitions []TransitionRecord
	deaths      []DeathRecord
	fail        error
}

func (s *memoryStore) InsertTransitions(_ context.Context, rs []TransitionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.transitions = append(s.transitions, rs...)
	return nil
}

func (s *memoryStore) InsertDeath(_ context.Context, d DeathRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.deaths = append(s.deaths, d)
	return nil
}

func (s *memoryStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transitions), len(s.deaths)
}

func TestJournal_FillsMatchID(t *testing.T) {
	store := &memoryStore{}
	id := uuid.New()
	j := NewJournal(store, id, 8, time.Hour)

	j.RecordTransition(TransitionRecord{Agent: "Tank1"})
	j.RecordDeath(DeathRecord{Agent: "Tank1"})
	j.Flush(context.Background())

	require.Len(t, store.transitions, 1)
	require.Len(t, store.deaths, 1)
	assert.Equal(t, id, store.transitions[0].MatchID)
	assert.Equal(t, id, store.deaths[0].MatchID)
	assert.Equal(t, id, j.MatchID())
}

func TestJournal_DropsWhenFull(t *testing.T) {
	store := &memoryStore{}
	j := NewJournal(store, uuid.New(), 2, time.Hour)

	for range 5 {
		j.RecordTransition(TransitionRecord{Agent: "Tank1"})
	}

	assert.Equal(t, uint64(3), j.Dropped())
	j.Flush(context.Background())
	assert.Len(t, store.transitions, 2)
	assert.Equal(t, uint64(2), j.Written())
}

func TestJournal_StoreErrorIsNotFatal(t *testing.T) {
	store := &memoryStore{fail: errors.New("connection reset")}
	j := NewJournal(store, uuid.New(), 8, time.Hour)

	j.RecordTransition(TransitionRecord{Agent: "Tank1"})
	j.RecordDeath(DeathRecord{Agent: "Tank1"})
	j.Flush(context.Background())

	assert.Zero(t, j.Written())
}

func TestJournal_RunFlushesPeriodicallyAndOnStop(t *testing.T) {
	store := &memoryStore{}
	j := NewJournal(store, uuid.New(), 64, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	j.RecordTransition(TransitionRecord{Agent: "Tank1"})
	require.Eventually(t, func() bool {
		n, _ := store.counts()
		return n == 1
	}, time.Second, time.Millisecond)

	j.RecordDeath(DeathRecord{Agent: "Tank1"})
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("journal did not stop")
	}

	_, deaths := store.counts()
	assert.Equal(t, 1, deaths, "final flush after cancel")
}

func TestJournal_Close(t *testing.T) {
	store := &memoryStore{}
	j := NewJournal(store, uuid.New(), 8, time.Hour)

	done := make(chan error, 1)
	go func() { done <- j.Run(context.Background()) }()

	j.RecordTransition(TransitionRecord{Agent: "Tank1"})
	j.Close()
	j.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("journal did not stop")
	}
	n, _ := store.counts()
	assert.Equal(t, 1, n)
}
