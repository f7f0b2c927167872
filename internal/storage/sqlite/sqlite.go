// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/lunchtab/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
// Change notifications are delivered in-process through a storage.Hub.
type SQLiteStore struct {
	db  *sql.DB
	hub *storage.Hub
	now func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the clock used for server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers; SQLite would otherwise answer
	// concurrent writes with "database is locked".
	db.SetMaxOpenConns(1)

	store, err := Open(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Open wraps an already opened database and runs migrations on it.
func Open(db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &SQLiteStore{db: db, hub: storage.NewHub(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Subscribe registers for change notifications on the given streams.
func (s *SQLiteStore) Subscribe(ctx context.Context, streams ...storage.Stream) (<-chan storage.Change, error) {
	return s.hub.Subscribe(ctx, streams...), nil
}

func (s *SQLiteStore) publish(stream storage.Stream, key string) {
	s.hub.Publish(storage.Change{Stream: stream, Key: key})
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n)
}
