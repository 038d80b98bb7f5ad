package notes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// writeTestMIDI writes a standard MIDI file with the given number of real
// keystrokes plus one velocity-zero note-on (a running note-off).
func writeTestMIDI(t *testing.T, path string, keystrokes int) {
	t.Helper()

	s := smf.New()
	var tr smf.Track
	for i := 0; i < keystrokes; i++ {
		key := uint8(60 + i%12)
		tr.Add(0, midi.NoteOn(0, key, 90))
		tr.Add(120, midi.NoteOff(0, key))
	}
	// Velocity zero means note-off in running status, not a keystroke.
	tr.Add(0, midi.NoteOn(0, 60, 0))
	tr.Close(0)
	s.Add(tr)
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("writing MIDI file: %v", err)
	}
}

func TestCountNoteOns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec_basic_pitch.mid")
	writeTestMIDI(t, path, 7)

	got, err := CountNoteOns(path)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if got != 7 {
		t.Errorf("expected 7 keystrokes, got %d", got)
	}
}

func TestCountNoteOnsEmptyTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mid")
	writeTestMIDI(t, path, 0)

	got, err := CountNoteOns(path)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0 keystrokes, got %d", got)
	}
}

func TestCountNoteOnsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mid")
	if err := os.WriteFile(path, []byte("not midi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := CountNoteOns(path); err == nil {
		t.Fatal("expected error for corrupt MIDI file")
	}
}

func TestMIDIFileName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/uploads/session.wav", "session_basic_pitch.mid"},
		{"rec.WAV", "rec_basic_pitch.mid"},
		{"/a/b/no-extension", "no-extension_basic_pitch.mid"},
	}
	for _, tt := range tests {
		if got := MIDIFileName(tt.path); got != tt.want {
			t.Errorf("MIDIFileName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDisabledExtractor(t *testing.T) {
	result, err := Disabled{}.Extract(context.Background(), "rec.wav", "midi")
	if err != nil {
		t.Fatalf("disabled extractor must not fail: %v", err)
	}
	if result.Keystrokes != 0 || result.MIDIFile != "" {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestTranscriberExtract(t *testing.T) {
	outputDir := t.TempDir()
	audioPath := filepath.Join(t.TempDir(), "rec.wav")

	// Pre-create the artifact the "transcriber" would write; the command
	// itself is a no-op.
	writeTestMIDI(t, filepath.Join(outputDir, "rec_basic_pitch.mid"), 5)

	tr := &Transcriber{Binary: "true"}
	result, err := tr.Extract(context.Background(), audioPath, outputDir)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if result.Keystrokes != 5 {
		t.Errorf("expected 5 keystrokes, got %d", result.Keystrokes)
	}
	if result.MIDIFile != "rec_basic_pitch.mid" {
		t.Errorf("unexpected MIDI file name: %s", result.MIDIFile)
	}
}

func TestTranscriberExtractCommandFails(t *testing.T) {
	tr := &Transcriber{Binary: "false"}
	_, err := tr.Extract(context.Background(), "rec.wav", t.TempDir())
	if err == nil {
		t.Fatal("expected error when transcriber command fails")
	}
}

func TestTranscriberExtractMissingArtifact(t *testing.T) {
	tr := &Transcriber{Binary: "true"}
	_, err := tr.Extract(context.Background(), "rec.wav", t.TempDir())
	if err == nil {
		t.Fatal("expected error when MIDI artifact is missing")
	}
}
