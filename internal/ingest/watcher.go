package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Watcher polls the drop folder and feeds discovered recordings through
// the pipeline one at a time. The feature-extraction and transcription
// collaborators are CPU and memory heavy, so analysis is strictly
// serialized; arrival-to-dashboard latency is bounded by the poll period,
// not by analysis time.
type Watcher struct {
	Pipeline *Pipeline
	InboxDir string
	Interval time.Duration
	Log      *log.Logger
}

// Run polls until the context is canceled. A failure in one file's
// pipeline is logged and isolated; the loop itself never dies because of
// a bad recording.
func (w *Watcher) Run(ctx context.Context) error {
	w.Log.Info("watching for recordings", "dir", w.InboxDir, "interval", w.Interval)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	// First scan immediately rather than one interval in.
	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	files, err := discoverRecordings(w.InboxDir)
	if err != nil {
		w.Log.Error("scanning drop folder", "dir", w.InboxDir, "err", err)
		return
	}

	for _, path := range files {
		if ctx.Err() != nil {
			return
		}
		if err := w.Pipeline.ProcessFile(ctx, path); err != nil {
			w.Log.Error("processing recording", "file", filepath.Base(path), "err", err)
		}
	}
}

// discoverRecordings lists WAV files in dir, sorted by name so processing
// order is deterministic across scans.
func discoverRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
