// Package processor handles practice audio analysis: envelope extraction
// and adaptive activity segmentation.
package processor

// Config holds the tuning constants for segmentation. The exact values are
// product-tuning decisions, so every one of them is configurable; the
// defaults follow what ships in DefaultConfig.
type Config struct {
	// EnvelopeLength is the fixed number of points the amplitude envelope
	// is reduced to, independent of recording length.
	EnvelopeLength int

	// NoiseFloorPercentile selects the envelope dB percentile used as the
	// noise floor estimate, in [0,1]. A low percentile tracks the ambient
	// room level rather than the playing level.
	NoiseFloorPercentile float64

	// ThresholdMarginDB is added to the noise floor to form the activity
	// threshold.
	ThresholdMarginDB float64

	// ThresholdCeilingDB / ThresholdFallbackDB implement the safety
	// ceiling: a computed threshold above the ceiling means the recording
	// is loud throughout (the "noise floor" is actually playing), so the
	// threshold falls back to a fixed level suited to normalized piano
	// recordings.
	ThresholdCeilingDB  float64
	ThresholdFallbackDB float64

	// MergeGapSec merges active runs separated by less than this many
	// seconds, so brief silences between phrases do not fragment one
	// practice interval.
	MergeGapSec float64

	// MinIntervalSec discards active runs shorter than this many seconds,
	// filtering transient clicks and pedal noise.
	MinIntervalSec float64
}

// Default tuning values. Percentile, margin, and the safety ceiling come
// from validation against real practice recordings; merge gap and minimum
// interval are smoothing choices reviewed the same way.
const (
	defaultEnvelopeLength       = 1000
	defaultNoiseFloorPercentile = 0.25
	defaultThresholdMarginDB    = 15.0
	defaultThresholdCeilingDB   = -30.0
	defaultThresholdFallbackDB  = -45.0
	defaultMergeGapSec          = 0.5
	defaultMinIntervalSec       = 0.3
)

// DefaultConfig returns the default segmentation tuning.
func DefaultConfig() Config {
	return Config{
		EnvelopeLength:       defaultEnvelopeLength,
		NoiseFloorPercentile: defaultNoiseFloorPercentile,
		ThresholdMarginDB:    defaultThresholdMarginDB,
		ThresholdCeilingDB:   defaultThresholdCeilingDB,
		ThresholdFallbackDB:  defaultThresholdFallbackDB,
		MergeGapSec:          defaultMergeGapSec,
		MinIntervalSec:       defaultMinIntervalSec,
	}
}

// sanitize fills in zero or out-of-range values with defaults so a partial
// config from file cannot produce degenerate segmentation.
func (c Config) sanitize() Config {
	if c.EnvelopeLength <= 0 {
		c.EnvelopeLength = defaultEnvelopeLength
	}
	if c.NoiseFloorPercentile <= 0 || c.NoiseFloorPercentile >= 1 {
		c.NoiseFloorPercentile = defaultNoiseFloorPercentile
	}
	if c.ThresholdMarginDB <= 0 {
		c.ThresholdMarginDB = defaultThresholdMarginDB
	}
	if c.ThresholdCeilingDB >= 0 {
		c.ThresholdCeilingDB = defaultThresholdCeilingDB
	}
	if c.ThresholdFallbackDB >= 0 {
		c.ThresholdFallbackDB = defaultThresholdFallbackDB
	}
	if c.MergeGapSec < 0 {
		c.MergeGapSec = defaultMergeGapSec
	}
	if c.MinIntervalSec < 0 {
		c.MinIntervalSec = defaultMinIntervalSec
	}
	return c
}
