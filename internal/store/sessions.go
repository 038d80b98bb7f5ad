package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sonatalab/sonata/internal/processor"
	"github.com/sonatalab/sonata/internal/session"
)

// Timestamps persist as UTC RFC3339 with fixed-width nanoseconds so string
// comparison in range queries matches chronological order. RFC3339Nano
// would trim trailing zeros and break the ordering at sub-second precision.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Put inserts one session record. Sessions are immutable, so there is no
// update path; inserting an existing ID is an error.
func (s *Store) Put(ctx context.Context, sess session.Session) error {
	intervals, err := json.Marshal(sess.Intervals)
	if err != nil {
		return &PersistenceError{Op: "encode intervals", Err: err}
	}
	envelope, err := json.Marshal(sess.Envelope)
	if err != nil {
		return &PersistenceError{Op: "encode envelope", Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, filename, recorded_at, total_duration, active_duration, efficiency, keystrokes, intervals_json, envelope_json, midi_reference)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.Filename,
		sess.RecordedAt.UTC().Format(timeLayout),
		sess.TotalDuration,
		sess.ActiveDuration,
		sess.Efficiency,
		sess.Keystrokes,
		string(intervals),
		string(envelope),
		sess.MIDIReference,
	)
	if err != nil {
		return &PersistenceError{Op: "insert session", Err: err}
	}
	return nil
}

// Exists reports whether a session with the given ID is already stored.
// Used for duplicate-recording detection before analysis runs.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListRange returns sessions with start <= recorded_at < end, ordered by
// recording time ascending, with the keystroke floor applied.
func (s *Store) ListRange(ctx context.Context, start, end time.Time) ([]session.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, recorded_at, total_duration, active_duration, efficiency, keystrokes, intervals_json, envelope_json, midi_reference
		 FROM sessions
		 WHERE recorded_at >= ? AND recorded_at < ? AND keystrokes >= ?
		 ORDER BY recorded_at ASC`,
		start.UTC().Format(timeLayout),
		end.UTC().Format(timeLayout),
		s.minKeystrokes,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListDay returns the sessions recorded on the calendar day containing t,
// with day boundaries taken in t's location.
func (s *Store) ListDay(ctx context.Context, t time.Time) ([]session.Session, error) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return s.ListRange(ctx, start, start.AddDate(0, 0, 1))
}

// ListMonth returns the sessions recorded in the given month, with month
// boundaries taken in loc.
func (s *Store) ListMonth(ctx context.Context, year int, month time.Month, loc *time.Location) ([]session.Session, error) {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return s.ListRange(ctx, start, start.AddDate(0, 1, 0))
}

// DeleteAll removes every stored session. Only the reprocess flow uses it.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return &PersistenceError{Op: "delete all", Err: err}
	}
	return nil
}

func scanSession(rows *sql.Rows) (session.Session, error) {
	var (
		sess          session.Session
		recordedAt    string
		intervalsJSON string
		envelopeJSON  string
	)
	if err := rows.Scan(
		&sess.ID,
		&sess.Filename,
		&recordedAt,
		&sess.TotalDuration,
		&sess.ActiveDuration,
		&sess.Efficiency,
		&sess.Keystrokes,
		&intervalsJSON,
		&envelopeJSON,
		&sess.MIDIReference,
	); err != nil {
		return session.Session{}, err
	}

	t, err := time.Parse(timeLayout, recordedAt)
	if err != nil {
		return session.Session{}, fmt.Errorf("parsing recorded_at: %w", err)
	}
	sess.RecordedAt = t

	if err := json.Unmarshal([]byte(intervalsJSON), &sess.Intervals); err != nil {
		return session.Session{}, fmt.Errorf("decoding intervals: %w", err)
	}
	if err := json.Unmarshal([]byte(envelopeJSON), &sess.Envelope); err != nil {
		return session.Session{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if sess.Intervals == nil {
		sess.Intervals = []processor.Interval{}
	}
	return sess, nil
}
