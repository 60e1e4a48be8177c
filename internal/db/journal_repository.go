package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRecord is one arena run.
type MatchRecord struct {
	ID        uuid.UUID
	Seed      uint64
	Tanks     int
	StartedAt time.Time
	EndedAt   *time.Time
	Frames    uint64
}

// TransitionRecord is one FSM state change of a tank.
type TransitionRecord struct {
	MatchID    uuid.UUID
	Frame      uint64
	ObjectID   uint32
	Agent      string
	From       string
	To         string
	Reason     string
	Health     int
	X, Y, Z    float64
	RecordedAt time.Time
}

// DeathRecord is the final state of a destroyed tank.
type DeathRecord struct {
	MatchID  uuid.UUID
	ObjectID uint32
	Agent    string
	Frame    uint64
	Health   int
	X, Y, Z  float64
	DiedAt   time.Time
}

// JournalRepository persists matches, transitions and deaths.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new journal repository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// CreateMatch inserts a new match row.
func (r *JournalRepository) CreateMatch(ctx context.Context, m MatchRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO matches (id, seed, tanks, started_at) VALUES ($1, $2, $3, $4)`,
		m.ID, int64(m.Seed), m.Tanks, m.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("creating match %s: %w", m.ID, err)
	}
	return nil
}

// FinishMatch stamps the end time and frame count of a match.
func (r *JournalRepository) FinishMatch(ctx context.Context, id uuid.UUID, endedAt time.Time, frames uint64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE matches SET ended_at = $2, frames = $3 WHERE id = $1`,
		id, endedAt, int64(frames),
	)
	if err != nil {
		return fmt.Errorf("finishing match %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finishing match %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// GetMatch loads a match by id.
// Returns nil, nil if the match does not exist.
func (r *JournalRepository) GetMatch(ctx context.Context, id uuid.UUID) (*MatchRecord, error) {
	var (
		m      MatchRecord
		seed   int64
		frames int64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, seed, tanks, started_at, ended_at, frames FROM matches WHERE id = $1`, id,
	).Scan(&m.ID, &seed, &m.Tanks, &m.StartedAt, &m.EndedAt, &frames)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading match %s: %w", id, err)
	}
	m.Seed = uint64(seed)
	m.Frames = uint64(frames)
	return &m, nil
}

// InsertTransitions bulk-loads transitions with COPY.
func (r *JournalRepository) InsertTransitions(ctx context.Context, records []TransitionRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(records))
	for _, t := range records {
		rows = append(rows, []any{
			t.MatchID, int64(t.Frame), int64(t.ObjectID), t.Agent,
			t.From, t.To, t.Reason, t.Health, t.X, t.Y, t.Z, t.RecordedAt,
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"state_transitions"},
		[]string{"match_id", "frame", "object_id", "agent", "from_state", "to_state", "reason", "health", "x", "y", "z", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("inserting %d transitions: %w", len(records), err)
	}

	slog.Debug("saved state transitions", "count", len(records))
	return nil
}

// InsertDeath records a tank death. A second death for the same tank in the
// same match is ignored.
func (r *JournalRepository) InsertDeath(ctx context.Context, d DeathRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO agent_deaths (match_id, object_id, agent, frame, health, x, y, z, died_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (match_id, object_id) DO NOTHING`,
		d.MatchID, int64(d.ObjectID), d.Agent, int64(d.Frame), d.Health, d.X, d.Y, d.Z, d.DiedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting death of %s: %w", d.Agent, err)
	}
	return nil
}

// TransitionsByMatch returns a match's transitions in recording order.
func (r *JournalRepository) TransitionsByMatch(ctx context.Context, matchID uuid.UUID) ([]TransitionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT match_id, frame, object_id, agent, from_state, to_state, reason, health, x, y, z, recorded_at
		FROM state_transitions
		WHERE match_id = $1
		ORDER BY id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("loading transitions of match %s: %w", matchID, err)
	}
	defer rows.Close()

	var out []TransitionRecord
	for rows.Next() {
		var (
			t        TransitionRecord
			frame    int64
			objectID int64
		)
		if err := rows.Scan(&t.MatchID, &frame, &objectID, &t.Agent, &t.From, &t.To, &t.Reason,
			&t.Health, &t.X, &t.Y, &t.Z, &t.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning transition row: %w", err)
		}
		t.Frame = uint64(frame)
		t.ObjectID = uint32(objectID)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transition rows: %w", err)
	}
	return out, nil
}

// DeathsByMatch returns a match's deaths ordered by frame.
func (r *JournalRepository) DeathsByMatch(ctx context.Context, matchID uuid.UUID) ([]DeathRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT match_id, object_id, agent, frame, health, x, y, z, died_at
		FROM agent_deaths
		WHERE match_id = $1
		ORDER BY frame, object_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("loading deaths of match %s: %w", matchID, err)
	}
	defer rows.Close()

	var out []DeathRecord
	for rows.Next() {
		var (
			d        DeathRecord
			frame    int64
			objectID int64
		)
		if err := rows.Scan(&d.MatchID, &objectID, &d.Agent, &frame, &d.Health, &d.X, &d.Y, &d.Z, &d.DiedAt); err != nil {
			return nil, fmt.Errorf("scanning death row: %w", err)
		}
		d.Frame = uint64(frame)
		d.ObjectID = uint32(objectID)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating death rows: %w", err)
	}
	return out, nil
}
