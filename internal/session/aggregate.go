package session

import "time"

// DateLayout is the calendar-date key format used by daily aggregation.
const DateLayout = "2006-01-02"

// DailyStat is the per-date total over all sessions recorded on that date.
// Efficiency is computed against the summed audio duration rather than
// averaged per session, so many short sessions cannot skew it.
type DailyStat struct {
	Date           string  `json:"date"`
	ActiveDuration float64 `json:"active_duration"`
	Keystrokes     int     `json:"keystrokes"`
	Efficiency     float64 `json:"efficiency"`
}

// MonthlyReport is the same fold over a full month.
type MonthlyReport struct {
	TotalAudioDuration  float64 `json:"total_audio_duration"`
	TotalActiveDuration float64 `json:"total_active_duration"`
	TotalKeystrokes     int     `json:"total_keystrokes"`
	Efficiency          float64 `json:"efficiency"`
}

// Daily aggregates sessions already filtered to one calendar date. An
// empty session set yields a zero-valued stat, never an error.
func Daily(date time.Time, sessions []Session) DailyStat {
	stat := DailyStat{Date: date.Format(DateLayout)}
	totalAudio := 0.0
	for _, s := range sessions {
		stat.ActiveDuration += s.ActiveDuration
		stat.Keystrokes += s.Keystrokes
		totalAudio += s.TotalDuration
	}
	if totalAudio > 0 {
		stat.Efficiency = stat.ActiveDuration / totalAudio
	}
	return stat
}

// Monthly aggregates a month's sessions into the report plus a
// date → active-seconds map for the calendar heatmap. Dates with no
// sessions are simply absent from the map. loc fixes which timezone a
// "practice day" is counted in.
func Monthly(sessions []Session, loc *time.Location) (MonthlyReport, map[string]float64) {
	if loc == nil {
		loc = time.Local
	}

	var report MonthlyReport
	dailyMap := make(map[string]float64)
	for _, s := range sessions {
		report.TotalAudioDuration += s.TotalDuration
		report.TotalActiveDuration += s.ActiveDuration
		report.TotalKeystrokes += s.Keystrokes

		day := s.RecordedAt.In(loc).Format(DateLayout)
		dailyMap[day] += s.ActiveDuration
	}
	if report.TotalAudioDuration > 0 {
		report.Efficiency = report.TotalActiveDuration / report.TotalAudioDuration
	}
	return report, dailyMap
}
