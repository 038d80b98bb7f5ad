// Package ingest runs the per-file analysis pipeline and the drop-folder
// watcher that feeds it.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonatalab/sonata/internal/notes"
	"github.com/sonatalab/sonata/internal/processor"
	"github.com/sonatalab/sonata/internal/session"
	"github.com/sonatalab/sonata/internal/store"
)

// Pipeline processes one recording end to end: hash, duplicate check,
// decode, segment, note extraction, persist, archive. Analysis is
// serialized by the watcher; Pipeline assumes single-caller use.
type Pipeline struct {
	Store     *store.Store
	Extractor notes.Extractor
	Analysis  processor.Config

	// MIDIDir receives transcription artifacts; ArchiveDir receives
	// source files after the session row is durably stored; QuarantineDir
	// receives files that could not be decoded.
	MIDIDir       string
	ArchiveDir    string
	QuarantineDir string

	// Location is the timezone recording timestamps are interpreted in.
	Location *time.Location

	Log *log.Logger
}

// ProcessFile analyzes one dropped recording. The source file is removed
// from the drop folder only on success (archived) or on a duplicate or
// decode failure (removed/quarantined); persistence failures leave it in
// place so the next scan retries.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) error {
	id, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}

	duplicate, err := p.Store.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("duplicate check for %s: %w", path, err)
	}
	if duplicate {
		p.Log.Info("duplicate recording, dropping", "file", filepath.Base(path), "id", shortID(id))
		return os.Remove(path)
	}

	analysis, _, err := processor.AnalyzeFile(path, p.Analysis, nil)
	if err != nil {
		// Unreadable audio is never silently deleted; move it aside so
		// the scan loop stops retrying it.
		if qerr := moveFile(path, p.QuarantineDir, id); qerr != nil {
			p.Log.Error("quarantine failed", "file", filepath.Base(path), "err", qerr)
		}
		return err
	}

	recordedAt := recordingStart(path, analysis.TotalDuration, p.Location)

	// Note extraction is best-effort: any failure degrades to zero
	// keystrokes and no MIDI artifact without blocking the session.
	result, err := p.Extractor.Extract(ctx, path, p.MIDIDir)
	if err != nil {
		p.Log.Warn("note extraction failed, degrading to zero keystrokes",
			"file", filepath.Base(path), "err", err)
		result = notes.Result{}
	}

	sess := session.Build(id, filepath.Base(path), recordedAt, analysis, result.Keystrokes, result.MIDIFile)
	if err := p.Store.Put(ctx, sess); err != nil {
		// Leave the source file in the drop folder for retry.
		return err
	}

	if err := moveFile(path, p.ArchiveDir, id); err != nil {
		// The session is stored; the next scan sees the leftover file as
		// a duplicate and removes it.
		p.Log.Error("archiving failed", "file", filepath.Base(path), "err", err)
	}

	p.Log.Info("session stored",
		"file", filepath.Base(path),
		"id", shortID(id),
		"total_sec", fmt.Sprintf("%.1f", sess.TotalDuration),
		"active_sec", fmt.Sprintf("%.1f", sess.ActiveDuration),
		"keystrokes", sess.Keystrokes,
	)
	return nil
}

// recordingStart derives the session start from the file's modification
// time (the moment the recorder finished writing) minus the audio length.
// Falls back to now if the file cannot be stat'ed.
func recordingStart(path string, totalDuration float64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Now().In(loc)
	}
	end := info.ModTime().In(loc)
	return end.Add(-time.Duration(totalDuration * float64(time.Second)))
}

// HashFile returns the SHA-256 hex digest of the file contents. The
// digest doubles as the session identifier.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// moveFile renames src into dir, suffixing the name with the hash prefix
// when the destination already exists.
func moveFile(src, dir, id string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Base(src)
	dest := filepath.Join(dir, base)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(base)
		dest = filepath.Join(dir, fmt.Sprintf("%s_%s%s", strings.TrimSuffix(base, ext), shortID(id), ext))
	}
	return os.Rename(src, dest)
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
