package processor

import (
	"math"
	"sort"
)

// silenceFloorDB clamps the dB conversion of zero or near-zero envelope
// values. -100 dBFS is below any real recording's noise floor, so clamped
// values never land above an activity threshold.
const silenceFloorDB = -100.0

// Interval is an active time range in seconds, half-open in spirit but
// stored as inclusive floats: 0 <= Start < End <= total duration.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns the interval duration in seconds.
func (iv Interval) Length() float64 { return iv.End - iv.Start }

// TotalActive sums the lengths of all intervals.
func TotalActive(intervals []Interval) float64 {
	total := 0.0
	for _, iv := range intervals {
		total += iv.Length()
	}
	return total
}

// Segment classifies an amplitude envelope into active practice intervals.
//
// The threshold adapts to the recording instead of using a fixed cutoff:
//  1. Convert the envelope to dB relative to its peak.
//  2. Noise floor = a low percentile of the dB curve (tracks room level).
//  3. Threshold = noise floor + margin; equality counts as active so
//     floating-point noise at the boundary cannot flap the classification.
//  4. Safety ceiling: a threshold above ThresholdCeilingDB means the
//     recording is loud nearly throughout and the percentile landed on
//     playing, not silence; fall back to ThresholdFallbackDB.
//  5. Merge runs separated by less than the merge gap, then discard runs
//     shorter than the minimum interval.
//
// Segment never fails: a silent envelope yields no intervals.
func Segment(envelope []float64, totalDuration float64, cfg Config) []Interval {
	cfg = cfg.sanitize()
	if len(envelope) == 0 || totalDuration <= 0 {
		return nil
	}

	peak := 0.0
	for _, v := range envelope {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return nil // silence
	}

	db := make([]float64, len(envelope))
	for i, v := range envelope {
		db[i] = amplitudeToDB(v / peak)
	}

	threshold := activityThresholdDB(db, cfg)
	secPerStep := totalDuration / float64(len(envelope))

	runs := activeRuns(db, threshold)
	runs = mergeRuns(runs, cfg.MergeGapSec/secPerStep)
	runs = dropShortRuns(runs, cfg.MinIntervalSec/secPerStep)

	intervals := make([]Interval, 0, len(runs))
	for _, r := range runs {
		iv := Interval{
			Start: float64(r.start) * secPerStep,
			End:   float64(r.end) * secPerStep,
		}
		if iv.End > totalDuration {
			iv.End = totalDuration
		}
		if iv.End > iv.Start {
			intervals = append(intervals, iv)
		}
	}
	return intervals
}

// activityThresholdDB derives the adaptive threshold from the dB envelope.
func activityThresholdDB(db []float64, cfg Config) float64 {
	noiseFloor := percentile(db, cfg.NoiseFloorPercentile)
	threshold := noiseFloor + cfg.ThresholdMarginDB
	if threshold > cfg.ThresholdCeilingDB {
		threshold = cfg.ThresholdFallbackDB
	}
	return threshold
}

// run is a half-open range of envelope indices [start, end).
type run struct {
	start, end int
}

// activeRuns collapses consecutive above-threshold positions into runs.
// Comparison is inclusive: a value exactly at the threshold is active.
func activeRuns(db []float64, threshold float64) []run {
	var runs []run
	inRun := false
	start := 0
	for i, v := range db {
		active := v >= threshold
		switch {
		case active && !inRun:
			start = i
			inRun = true
		case !active && inRun:
			runs = append(runs, run{start, i})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, run{start, len(db)})
	}
	return runs
}

// mergeRuns joins adjacent runs whose gap is strictly shorter than
// maxGapSteps. A gap exactly equal to the merge gap stays split, which
// keeps re-segmentation of already-merged output idempotent.
func mergeRuns(runs []run, maxGapSteps float64) []run {
	if len(runs) < 2 || maxGapSteps <= 0 {
		return runs
	}
	merged := runs[:1]
	for _, r := range runs[1:] {
		last := &merged[len(merged)-1]
		if float64(r.start-last.end) < maxGapSteps {
			last.end = r.end
		} else {
			merged = append(merged, r)
		}
	}
	return merged
}

// dropShortRuns removes runs strictly shorter than minSteps. A run exactly
// at the minimum survives.
func dropShortRuns(runs []run, minSteps float64) []run {
	if minSteps <= 0 {
		return runs
	}
	kept := runs[:0]
	for _, r := range runs {
		if float64(r.end-r.start) >= minSteps {
			kept = append(kept, r)
		}
	}
	return kept
}

// amplitudeToDB converts a linear amplitude (relative to full scale) to
// dBFS, clamped at silenceFloorDB.
func amplitudeToDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return silenceFloorDB
	}
	db := 20.0 * math.Log10(amplitude)
	if db < silenceFloorDB {
		return silenceFloorDB
	}
	return db
}

// percentile returns the p-th percentile (p in [0,1]) of values using
// linear interpolation between the two nearest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return silenceFloorDB
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
