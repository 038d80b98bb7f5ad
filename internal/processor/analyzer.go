package processor

import (
	"github.com/sonatalab/sonata/internal/audio"
)

// Analysis is the result of analyzing one recording. All durations are
// seconds; Efficiency is a [0,1] fraction. Presentation-layer unit
// conversions (minutes, percentages) do not belong here.
type Analysis struct {
	TotalDuration  float64
	ActiveDuration float64
	Efficiency     float64
	Intervals      []Interval
	Envelope       []float64
}

// ProgressFunc receives coarse progress updates during file analysis.
// progress is in [0,1] within the named stage.
type ProgressFunc func(stage string, progress float64)

// Analysis stage names reported through ProgressFunc.
const (
	StageDecode  = "Decoding"
	StageSegment = "Segmenting"
)

// Analyze runs envelope extraction and segmentation over decoded samples.
// Pure function: same samples and config always yield the same Analysis.
func Analyze(samples []float64, totalDuration float64, cfg Config) *Analysis {
	cfg = cfg.sanitize()

	envelope := ExtractEnvelope(samples, cfg.EnvelopeLength)
	intervals := Segment(envelope, totalDuration, cfg)

	active := TotalActive(intervals)
	if active > totalDuration {
		active = totalDuration
	}

	efficiency := 0.0
	if totalDuration > 0 {
		efficiency = active / totalDuration
	}

	return &Analysis{
		TotalDuration:  totalDuration,
		ActiveDuration: active,
		Efficiency:     efficiency,
		Intervals:      intervals,
		Envelope:       envelope,
	}
}

// AnalyzeFile decodes an audio file and analyzes it. Decode failures
// surface as *audio.DecodeError; analysis itself never fails.
func AnalyzeFile(path string, cfg Config, progress ProgressFunc) (*Analysis, *audio.Metadata, error) {
	report := func(stage string, p float64) {
		if progress != nil {
			progress(stage, p)
		}
	}

	report(StageDecode, 0.0)
	samples, metadata, err := audio.DecodeFile(path)
	if err != nil {
		return nil, nil, err
	}
	report(StageDecode, 1.0)

	report(StageSegment, 0.0)
	analysis := Analyze(samples, metadata.Duration, cfg)
	report(StageSegment, 1.0)

	return analysis, metadata, nil
}
