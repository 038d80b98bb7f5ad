package notes

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// midiSuffix is appended by the transcriber to the input's base name.
const midiSuffix = "_basic_pitch.mid"

// Transcriber runs an external audio-to-symbolic-music model as a child
// process and counts note onsets from the MIDI file it writes. The model
// is CPU and memory heavy, which is why the ingestion pipeline serializes
// all analysis.
type Transcriber struct {
	// Binary is the transcriber command, e.g. "basic-pitch".
	Binary string
	// Args are extra arguments inserted before the output directory and
	// input path.
	Args []string
	// Timeout bounds one transcription run. Zero means no limit.
	Timeout time.Duration
}

// Extract transcribes audioPath into outputDir and counts keystrokes from
// the resulting MIDI file. The command is invoked as:
//
//	binary [args...] <outputDir> <audioPath>
func (t *Transcriber) Extract(ctx context.Context, audioPath, outputDir string) (Result, error) {
	if t.Binary == "" {
		return Result{}, fmt.Errorf("no transcriber binary configured")
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(t.Args)+2)
	args = append(args, t.Args...)
	args = append(args, outputDir, audioPath)

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return Result{}, fmt.Errorf("transcriber failed: %w: %s", err, firstLine(out))
	}

	midiName := MIDIFileName(audioPath)
	midiPath := filepath.Join(outputDir, midiName)
	if _, err := os.Stat(midiPath); err != nil {
		return Result{}, fmt.Errorf("expected MIDI artifact missing: %s", midiPath)
	}

	keystrokes, err := CountNoteOns(midiPath)
	if err != nil {
		return Result{}, fmt.Errorf("counting note onsets: %w", err)
	}

	return Result{Keystrokes: keystrokes, MIDIFile: midiName}, nil
}

// MIDIFileName returns the artifact name the transcriber generates for a
// given input file.
func MIDIFileName(audioPath string) string {
	base := filepath.Base(audioPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return name + midiSuffix
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
