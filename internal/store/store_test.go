package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/sonatalab/sonata/internal/processor"
	"github.com/sonatalab/sonata/internal/session"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "sonata.db"), opts)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testSession(id string, recordedAt time.Time, keystrokes int) session.Session {
	return session.Session{
		ID:             id,
		Filename:       id + ".wav",
		RecordedAt:     recordedAt,
		TotalDuration:  600,
		ActiveDuration: 450,
		Efficiency:     0.75,
		Keystrokes:     keystrokes,
		Intervals:      []processor.Interval{{Start: 10, End: 460}},
		Envelope:       []float64{0, 0.5, 1.0, 0.5, 0},
		MIDIReference:  id + "_basic_pitch.mid",
	}
}

func TestPutAndListRoundtrip(t *testing.T) {
	st := openTestStore(t, Options{})
	ctx := context.Background()

	recordedAt := time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC)
	want := testSession("abc123", recordedAt, 800)
	if err := st.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := st.ListDay(ctx, recordedAt)
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one session, got %d", len(got))
	}

	s := got[0]
	if s.ID != want.ID || s.Filename != want.Filename {
		t.Errorf("identity mismatch: %+v", s)
	}
	if !s.RecordedAt.Equal(want.RecordedAt) {
		t.Errorf("expected recorded_at %v, got %v", want.RecordedAt, s.RecordedAt)
	}
	if s.TotalDuration != want.TotalDuration || s.ActiveDuration != want.ActiveDuration {
		t.Errorf("duration mismatch: %+v", s)
	}
	if len(s.Intervals) != 1 || s.Intervals[0] != want.Intervals[0] {
		t.Errorf("interval mismatch: %v", s.Intervals)
	}
	if len(s.Envelope) != len(want.Envelope) {
		t.Errorf("envelope mismatch: %v", s.Envelope)
	}
	if s.MIDIReference != want.MIDIReference {
		t.Errorf("midi reference mismatch: %s", s.MIDIReference)
	}
}

func TestPutDuplicateIDFails(t *testing.T) {
	st := openTestStore(t, Options{})
	ctx := context.Background()

	sess := testSession("dup", time.Now().UTC(), 100)
	if err := st.Put(ctx, sess); err != nil {
		t.Fatalf("first put: %v", err)
	}

	err := st.Put(ctx, sess)
	if err == nil {
		t.Fatal("expected error inserting duplicate ID")
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Errorf("expected PersistenceError, got %T: %v", err, err)
	}
}

func TestExists(t *testing.T) {
	st := openTestStore(t, Options{})
	ctx := context.Background()

	if ok, err := st.Exists(ctx, "nope"); err != nil || ok {
		t.Errorf("expected not-exists, got ok=%v err=%v", ok, err)
	}

	if err := st.Put(ctx, testSession("yes", time.Now().UTC(), 100)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ok, err := st.Exists(ctx, "yes"); err != nil || !ok {
		t.Errorf("expected exists, got ok=%v err=%v", ok, err)
	}
}

func TestListDayBoundaries(t *testing.T) {
	st := openTestStore(t, Options{})
	ctx := context.Background()

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	inside := []time.Time{
		day,
		day.Add(12 * time.Hour),
		day.Add(24*time.Hour - time.Second),
	}
	outside := []time.Time{
		day.Add(-time.Second),
		day.Add(24 * time.Hour),
	}

	for i, ts := range inside {
		if err := st.Put(ctx, testSession(fmt.Sprintf("in-%d", i), ts, 100)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	for i, ts := range outside {
		if err := st.Put(ctx, testSession(fmt.Sprintf("out-%d", i), ts, 100)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	got, err := st.ListDay(ctx, day.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(got) != len(inside) {
		t.Fatalf("expected %d sessions, got %d", len(inside), len(got))
	}
}

func TestListRangeOrderedByTime(t *testing.T) {
	st := openTestStore(t, Options{})
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	// Insert out of chronological order.
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		id := fmt.Sprintf("s-%d", offset/time.Minute)
		if err := st.Put(ctx, testSession(id, base.Add(offset), 100)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	got, err := st.ListRange(ctx, base, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].RecordedAt.Before(got[i-1].RecordedAt) {
			t.Errorf("sessions out of order: %v before %v", got[i].RecordedAt, got[i-1].RecordedAt)
		}
	}
}

func TestListMonth(t *testing.T) {
	st := openTestStore(t, Options{})
	ctx := context.Background()

	in := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	before := time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)
	after := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for i, ts := range []time.Time{in, before, after} {
		if err := st.Put(ctx, testSession(fmt.Sprintf("m-%d", i), ts, 100)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	got, err := st.ListMonth(ctx, 2026, time.March, time.UTC)
	if err != nil {
		t.Fatalf("list month: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m-0" {
		t.Errorf("expected only the March session, got %v", got)
	}
}

func TestMinKeystrokesFilter(t *testing.T) {
	st := openTestStore(t, Options{MinKeystrokes: 50})
	ctx := context.Background()

	day := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		id         string
		keystrokes int
		visible    bool
	}{
		{"below", 49, false},
		{"at-floor", 50, true},
		{"above", 500, true},
	}
	for _, c := range cases {
		if err := st.Put(ctx, testSession(c.id, day, c.keystrokes)); err != nil {
			t.Fatalf("put: %v", err)
		}
		day = day.Add(time.Minute)
	}

	got, err := st.ListDay(ctx, day)
	if err != nil {
		t.Fatalf("list day: %v", err)
	}

	seen := make(map[string]bool)
	for _, s := range got {
		seen[s.ID] = true
	}
	for _, c := range cases {
		if seen[c.id] != c.visible {
			t.Errorf("session %q visible=%v, want %v", c.id, seen[c.id], c.visible)
		}
	}

	// Filtered sessions are still stored: the filter is a read concern.
	if ok, err := st.Exists(ctx, "below"); err != nil || !ok {
		t.Errorf("expected filtered session to exist, got ok=%v err=%v", ok, err)
	}
}

func TestDeleteAll(t *testing.T) {
	st := openTestStore(t, Options{})
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if err := st.Put(ctx, testSession(fmt.Sprintf("d-%d", i), now.Add(time.Duration(i)*time.Minute), 100)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if err := st.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	got, err := st.ListDay(ctx, now)
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty store after DeleteAll, got %d sessions", len(got))
	}
}

func TestEmptyIntervalsScanAsEmptySlice(t *testing.T) {
	st := openTestStore(t, Options{})
	ctx := context.Background()

	sess := testSession("empty", time.Now().UTC(), 100)
	sess.Intervals = nil
	sess.Envelope = nil
	if err := st.Put(ctx, sess); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := st.ListDay(ctx, sess.RecordedAt)
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one session, got %d", len(got))
	}
	if got[0].Intervals == nil {
		t.Error("expected non-nil intervals slice for JSON serialization")
	}
}
