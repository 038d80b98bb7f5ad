// Package config loads the TOML configuration and supplies defaults for
// every product-tuning constant the engine exposes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/thlib/go-timezone-local/tzlocal"

	"github.com/sonatalab/sonata/internal/processor"
)

// Config is the full application configuration. Relative paths are
// resolved against DataDir.
type Config struct {
	// DataDir roots the working directories and database.
	DataDir string `toml:"data_dir"`

	// InboxDir is the drop folder the watcher polls for new recordings.
	InboxDir string `toml:"inbox_dir"`
	// ArchiveDir receives source files after successful persistence.
	ArchiveDir string `toml:"archive_dir"`
	// QuarantineDir receives files that failed to decode.
	QuarantineDir string `toml:"quarantine_dir"`
	// MIDIDir receives generated MIDI artifacts.
	MIDIDir string `toml:"midi_dir"`
	// DatabasePath is the SQLite database file.
	DatabasePath string `toml:"database"`

	// ListenAddr is the HTTP query API address for serve mode.
	ListenAddr string `toml:"listen"`

	// Timezone names the IANA zone practice days are counted in. Empty
	// means the machine's local zone.
	Timezone string `toml:"timezone"`

	// PollIntervalSec is the watcher scan period in seconds.
	PollIntervalSec float64 `toml:"poll_interval_sec"`

	// GroupingGapSec is the sitting boundary: sessions separated by this
	// many seconds or more land in different groups.
	GroupingGapSec float64 `toml:"grouping_gap_sec"`

	// MinKeystrokes hides recordings below this note count from all query
	// endpoints. Zero disables the filter.
	MinKeystrokes int `toml:"min_keystrokes"`

	Analysis    Analysis    `toml:"analysis"`
	Transcriber Transcriber `toml:"transcriber"`
}

// Analysis mirrors processor.Config with TOML tags.
type Analysis struct {
	EnvelopeLength       int     `toml:"envelope_length"`
	NoiseFloorPercentile float64 `toml:"noise_floor_percentile"`
	ThresholdMarginDB    float64 `toml:"threshold_margin_db"`
	ThresholdCeilingDB   float64 `toml:"threshold_ceiling_db"`
	ThresholdFallbackDB  float64 `toml:"threshold_fallback_db"`
	MergeGapSec          float64 `toml:"merge_gap_sec"`
	MinIntervalSec       float64 `toml:"min_interval_sec"`
}

// Transcriber configures the external note-extraction command. An empty
// binary disables transcription; sessions then carry zero keystrokes.
type Transcriber struct {
	Binary     string   `toml:"binary"`
	Args       []string `toml:"args"`
	TimeoutSec float64  `toml:"timeout_sec"`
}

// Default returns the shipped configuration.
func Default() Config {
	p := processor.DefaultConfig()
	return Config{
		DataDir:         ".",
		InboxDir:        "uploads",
		ArchiveDir:      "archive",
		QuarantineDir:   "quarantine",
		MIDIDir:         "midi",
		DatabasePath:    "sonata.db",
		ListenAddr:      ":5000",
		PollIntervalSec: 5,
		GroupingGapSec:  1800,
		MinKeystrokes:   50,
		Analysis: Analysis{
			EnvelopeLength:       p.EnvelopeLength,
			NoiseFloorPercentile: p.NoiseFloorPercentile,
			ThresholdMarginDB:    p.ThresholdMarginDB,
			ThresholdCeilingDB:   p.ThresholdCeilingDB,
			ThresholdFallbackDB:  p.ThresholdFallbackDB,
			MergeGapSec:          p.MergeGapSec,
			MinIntervalSec:       p.MinIntervalSec,
		},
		Transcriber: Transcriber{TimeoutSec: 600},
	}
}

// Load reads a TOML config file layered over the defaults. An empty path
// returns the defaults; a missing file is an error (the flag was explicit).
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Processor converts the analysis section to the processor's config type.
func (c Config) Processor() processor.Config {
	return processor.Config{
		EnvelopeLength:       c.Analysis.EnvelopeLength,
		NoiseFloorPercentile: c.Analysis.NoiseFloorPercentile,
		ThresholdMarginDB:    c.Analysis.ThresholdMarginDB,
		ThresholdCeilingDB:   c.Analysis.ThresholdCeilingDB,
		ThresholdFallbackDB:  c.Analysis.ThresholdFallbackDB,
		MergeGapSec:          c.Analysis.MergeGapSec,
		MinIntervalSec:       c.Analysis.MinIntervalSec,
	}
}

// Location resolves the practice-day timezone. Falls back to the runtime
// zone, then to time.Local when detection fails.
func (c Config) Location() *time.Location {
	name := c.Timezone
	if name == "" {
		tz, err := tzlocal.RuntimeTZ()
		if err != nil {
			return time.Local
		}
		name = tz
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// PollInterval returns the watcher scan period as a duration.
func (c Config) PollInterval() time.Duration {
	if c.PollIntervalSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PollIntervalSec * float64(time.Second))
}

// Path resolves a configured path against DataDir.
func (c Config) Path(p string) string {
	if filepath.IsAbs(p) || c.DataDir == "" {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// EnsureDirs creates the working directories.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.Path(c.InboxDir), c.Path(c.ArchiveDir), c.Path(c.QuarantineDir), c.Path(c.MIDIDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
