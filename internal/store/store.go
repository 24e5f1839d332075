// Package store is the relational quality model. All SQL lives here;
// upserts are keyed by natural key and atomic at the storage layer, so
// concurrent sync jobs cannot race dimension creation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Store wraps the postgres connection pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to postgres and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing connection, used by tests with sqlmock.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertOutcome reports what a natural-key upsert actually did, so loader
// counts stay honest: a re-load of identical data reports Skipped.
type UpsertOutcome int

const (
	OutcomeInserted UpsertOutcome = iota
	OutcomeUpdated
	OutcomeSkipped
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	default:
		return "skipped"
	}
}
