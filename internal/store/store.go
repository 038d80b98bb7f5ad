// Package store handles SQLite persistence of analyzed sessions.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session records. Reads used by the
// aggregation queries return sessions ordered by recording time, so the
// grouping fold can run directly on the result.
type Store struct {
	db *sql.DB

	// minKeystrokes filters recordings below this note count out of every
	// read path. The original purpose is dropping "touch fish" noise:
	// recordings where someone brushed the keys or the recorder triggered
	// on room noise. Zero disables the filter.
	minKeystrokes int
}

// Options configures a Store.
type Options struct {
	// MinKeystrokes hides sessions with fewer keystrokes from all reads.
	MinKeystrokes int
}

// PersistenceError reports a storage write failure. It is fatal for the
// file's pipeline run: the source file must stay in the drop folder so a
// later scan can retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Open opens or creates the SQLite database and applies the schema.
func Open(path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, minKeystrokes: opts.MinKeystrokes}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			total_duration REAL NOT NULL,
			active_duration REAL NOT NULL,
			efficiency REAL NOT NULL,
			keystrokes INTEGER NOT NULL,
			intervals_json TEXT NOT NULL,
			envelope_json TEXT NOT NULL,
			midi_reference TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_recorded_at ON sessions(recorded_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
