// Package notes integrates the external audio-to-MIDI transcription model
// and counts note-onset events from its output. Extraction is best-effort:
// any failure here degrades a session to zero keystrokes and no MIDI
// artifact, it never blocks session metrics.
package notes

import "context"

// Result is the outcome of note extraction for one recording.
type Result struct {
	// Keystrokes is the number of note-onset events detected.
	Keystrokes int
	// MIDIFile is the base name of the generated MIDI artifact inside the
	// output directory, empty when transcription was skipped or failed.
	MIDIFile string
}

// Extractor produces a note count (and optionally a MIDI artifact) for a
// recording. Implementations must be safe to call serially from the
// ingestion pipeline; they are never called concurrently.
type Extractor interface {
	Extract(ctx context.Context, audioPath, outputDir string) (Result, error)
}

// Disabled is the no-op extractor used when no transcriber is configured.
// Sessions built with it carry zero keystrokes.
type Disabled struct{}

func (Disabled) Extract(context.Context, string, string) (Result, error) {
	return Result{}, nil
}
