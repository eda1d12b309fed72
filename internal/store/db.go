package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNoAthleteState is returned when an athlete has no persisted state yet
var ErrNoAthleteState = errors.New("no athlete state stored")

// ErrNoPlan is returned when no week plan exists for the requested week
var ErrNoPlan = errors.New("no week plan stored")

// ErrRaceNotFound is returned when a race doesn't exist
var ErrRaceNotFound = errors.New("race not found")

// ErrNoModel is returned when no performance model has been initialized
var ErrNoModel = errors.New("no performance model stored")

// ErrNoPrediction is returned when a race has no stored prediction
var ErrNoPrediction = errors.New("no prediction stored")

// Store is the application's data access layer over SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path, creating it (and its parent
// directory) if necessary, and runs migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
