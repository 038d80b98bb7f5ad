// Package session defines the practice session domain records and the
// derived grouping and aggregation folds. Everything here is pure: a
// Session is immutable once built, and every derived value is a function
// of the Session set it was computed from.
package session

import (
	"time"

	"github.com/sonatalab/sonata/internal/processor"
)

// Session is one analyzed recording. Durations are seconds, Efficiency is
// a [0,1] fraction, and Intervals are sorted and non-overlapping. The ID
// is the SHA-256 hex digest of the source file, which doubles as the
// duplicate-upload check.
type Session struct {
	ID             string               `json:"id"`
	Filename       string               `json:"filename"`
	RecordedAt     time.Time            `json:"recorded_at"`
	TotalDuration  float64              `json:"total_duration"`
	ActiveDuration float64              `json:"active_duration"`
	Efficiency     float64              `json:"efficiency"`
	Keystrokes     int                  `json:"keystrokes"`
	Intervals      []processor.Interval `json:"intervals"`
	Envelope       []float64            `json:"envelope"`
	MIDIReference  string               `json:"midi_reference,omitempty"`
}

// End returns the moment the recording finished.
func (s Session) End() time.Time {
	return s.RecordedAt.Add(secondsToDuration(s.TotalDuration))
}

// Build assembles the immutable Session record from segmentation output
// and the note extractor's result. A failed or skipped note extraction is
// represented by keystrokes 0 and an empty MIDI reference; it never blocks
// the build.
func Build(id, filename string, recordedAt time.Time, analysis *processor.Analysis, keystrokes int, midiRef string) Session {
	if keystrokes < 0 {
		keystrokes = 0
	}
	return Session{
		ID:             id,
		Filename:       filename,
		RecordedAt:     recordedAt,
		TotalDuration:  analysis.TotalDuration,
		ActiveDuration: analysis.ActiveDuration,
		Efficiency:     analysis.Efficiency,
		Keystrokes:     keystrokes,
		Intervals:      analysis.Intervals,
		Envelope:       analysis.Envelope,
		MIDIReference:  midiRef,
	}
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
