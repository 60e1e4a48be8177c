package db

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// JournalStore is the persistence the Journal flushes into.
// Satisfied by *JournalRepository.
type JournalStore interface {
	InsertTransitions(ctx context.Context, records []TransitionRecord) error
	InsertDeath(ctx context.Context, d DeathRecord) error
}

// shutdownFlushTimeout bounds the final flush after the run context ends.
const shutdownFlushTimeout = 5 * time.Second

// Journal buffers match events from the simulation goroutine and writes
// them in batches from its own goroutine. Recording never blocks: when the
// buffer is full the event is dropped and counted.
type Journal struct {
	store    JournalStore
	matchID  uuid.UUID
	interval time.Duration

	transitions chan TransitionRecord
	deaths      chan DeathRecord

	dropped atomic.Uint64
	written atomic.Uint64

	closeOnce sync.Once
	closed    chan struct{}
}

// NewJournal creates a journal for matchID flushing every interval.
func NewJournal(store JournalStore, matchID uuid.UUID, bufferSize int, interval time.Duration) *Journal {
	return &Journal{
		store:       store,
		matchID:     matchID,
		interval:    interval,
		transitions: make(chan TransitionRecord, bufferSize),
		deaths:      make(chan DeathRecord, bufferSize),
		closed:      make(chan struct{}),
	}
}

// MatchID returns the match this journal writes to.
func (j *Journal) MatchID() uuid.UUID {
	return j.matchID
}

// RecordTransition queues a transition. MatchID is filled in.
func (j *Journal) RecordTransition(r TransitionRecord) {
	r.MatchID = j.matchID
	select {
	case j.transitions <- r:
	default:
		j.drop("transition", r.Agent)
	}
}

// RecordDeath queues a death. MatchID is filled in.
func (j *Journal) RecordDeath(d DeathRecord) {
	d.MatchID = j.matchID
	select {
	case j.deaths <- d:
	default:
		j.drop("death", d.Agent)
	}
}

func (j *Journal) drop(kind, agent string) {
	n := j.dropped.Add(1)
	slog.Warn("journal buffer full, event dropped",
		"kind", kind,
		"agent", agent,
		"dropped", n)
}

// Dropped returns how many events were discarded on a full buffer.
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

// Written returns how many events reached the store.
func (j *Journal) Written() uint64 {
	return j.written.Load()
}

// Close stops Run after a final flush. Safe to call more than once.
func (j *Journal) Close() {
	j.closeOnce.Do(func() { close(j.closed) })
}

// Run flushes on every interval until ctx is canceled or Close is called,
// then flushes whatever is left with a fresh deadline.
func (j *Journal) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	slog.Info("match journal started", "matchID", j.matchID, "interval", j.interval)

	for {
		select {
		case <-ctx.Done():
			j.finalFlush()
			return nil
		case <-j.closed:
			j.finalFlush()
			return nil
		case <-ticker.C:
			j.Flush(ctx)
		}
	}
}

func (j *Journal) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
	defer cancel()
	j.Flush(ctx)
	slog.Info("match journal stopped",
		"matchID", j.matchID,
		"written", j.Written(),
		"dropped", j.Dropped())
}

// Flush drains both buffers into the store. Store errors are logged; the
// failed batch is not retried.
func (j *Journal) Flush(ctx context.Context) {
	batch := drain(j.transitions)
	if len(batch) > 0 {
		if err := j.store.InsertTransitions(ctx, batch); err != nil {
			slog.Error("journal flush failed", "kind", "transition", "count", len(batch), "error", err)
		} else {
			j.written.Add(uint64(len(batch)))
		}
	}

	for _, d := range drain(j.deaths) {
		if err := j.store.InsertDeath(ctx, d); err != nil {
			slog.Error("journal flush failed", "kind", "death", "agent", d.Agent, "error", err)
			continue
		}
		j.written.Add(1)
	}
}

func drain[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}
