package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for a single batch writer plus match bookkeeping.
const (
	poolMaxConns        = 4
	poolMaxConnIdleTime = time.Minute
)

// DB holds the pgx pool behind the match journal.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL at dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database dsn: %w", err)
	}
	cfg.MaxConns = poolMaxConns
	cfg.MaxConnIdleTime = poolMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close releases every pooled connection.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool exposes the pool for tests and ad-hoc queries.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// Journal returns a repository over this connection.
func (d *DB) Journal() *JournalRepository {
	return NewJournalRepository(d.pool)
}
