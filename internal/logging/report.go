// Package logging handles generation of analysis reports for processed recordings
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sonatalab/sonata/internal/audio"
	"github.com/sonatalab/sonata/internal/processor"
)

// ReportData collects everything the plain-text analysis report needs.
type ReportData struct {
	InputPath  string
	StartTime  time.Time
	EndTime    time.Time
	Analysis   *processor.Analysis
	Metadata   *audio.Metadata
	Keystrokes int
	MIDIFile   string
}

// interpretEfficiency describes the active-to-total ratio in practice
// terms. The buckets come from observing real sessions: sustained focused
// practice rarely exceeds 85% once page turns and thinking pauses are
// counted.
func interpretEfficiency(efficiency float64) string {
	switch {
	case efficiency >= 0.85:
		return "continuous playing, almost no pauses"
	case efficiency >= 0.65:
		return "focused practice with normal pauses"
	case efficiency >= 0.4:
		return "fragmented practice, frequent stops"
	case efficiency > 0:
		return "mostly idle, short bursts of playing"
	default:
		return "no activity detected"
	}
}

// interpretIntervalCount describes fragmentation for a given recording
// length. Many short intervals suggest bar-by-bar woodshedding; few long
// ones suggest run-throughs.
func interpretIntervalCount(intervals int, totalDuration float64) string {
	if intervals == 0 {
		return "silence"
	}
	perMinute := float64(intervals) / (totalDuration / 60.0)
	switch {
	case perMinute > 4:
		return "heavily fragmented, bar-by-bar work"
	case perMinute > 1.5:
		return "phrase-level repetition"
	default:
		return "sustained run-throughs"
	}
}

// GenerateReport writes a plain-text analysis report next to the input
// file, named <base>-analysis.log.
func GenerateReport(data ReportData) error {
	base := strings.TrimSuffix(data.InputPath, filepath.Ext(data.InputPath))
	reportPath := base + "-analysis.log"

	var b strings.Builder
	line := strings.Repeat("=", 70)

	fmt.Fprintf(&b, "%s\nSONATA PRACTICE ANALYSIS REPORT\n%s\n\n", line, line)
	fmt.Fprintf(&b, "Input:      %s\n", data.InputPath)
	fmt.Fprintf(&b, "Analyzed:   %s\n", data.StartTime.Format(time.RFC1123))
	fmt.Fprintf(&b, "Wall time:  %.2fs\n\n", data.EndTime.Sub(data.StartTime).Seconds())

	if data.Metadata != nil {
		fmt.Fprintf(&b, "--- Source ---\n")
		fmt.Fprintf(&b, "Duration:    %.1fs\n", data.Metadata.Duration)
		fmt.Fprintf(&b, "Sample rate: %d Hz\n", data.Metadata.SampleRate)
		fmt.Fprintf(&b, "Channels:    %d\n", data.Metadata.Channels)
		fmt.Fprintf(&b, "Bit depth:   %d\n\n", data.Metadata.BitDepth)
	}

	a := data.Analysis
	fmt.Fprintf(&b, "--- Activity ---\n")
	fmt.Fprintf(&b, "Total duration:  %8.1fs\n", a.TotalDuration)
	fmt.Fprintf(&b, "Active duration: %8.1fs\n", a.ActiveDuration)
	fmt.Fprintf(&b, "Efficiency:      %8.1f%%  (%s)\n", a.Efficiency*100, interpretEfficiency(a.Efficiency))
	fmt.Fprintf(&b, "Intervals:       %8d   (%s)\n", len(a.Intervals), interpretIntervalCount(len(a.Intervals), a.TotalDuration))
	fmt.Fprintf(&b, "Keystrokes:      %8d\n", data.Keystrokes)
	if data.MIDIFile != "" {
		fmt.Fprintf(&b, "MIDI artifact:   %s\n", data.MIDIFile)
	}
	b.WriteString("\n")

	if len(a.Intervals) > 0 {
		fmt.Fprintf(&b, "--- Active intervals ---\n")
		for i, iv := range a.Intervals {
			fmt.Fprintf(&b, "%3d. %8.1fs – %8.1fs  (%.1fs)\n", i+1, iv.Start, iv.End, iv.Length())
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\n", line)

	return os.WriteFile(reportPath, []byte(b.String()), 0o644)
}
