package session

import "time"

// Group clusters sessions recorded in one sitting for display and
// group-level totals. Groups are derived on every read and never stored.
type Group struct {
	Sessions       []Session `json:"sessions"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ActiveDuration float64   `json:"active_duration"`
	Keystrokes     int       `json:"keystrokes"`
}

// GroupSessions folds a chronologically sorted session list into groups.
// A new group starts whenever the gap between the previous session's end
// (recorded_at + total_duration) and the next session's start reaches
// gapSec: a gap exactly equal to the threshold is a boundary, so joining
// requires gap < gapSec. The fold is deterministic and stateless; the
// same input always produces the same grouping.
func GroupSessions(sessions []Session, gapSec float64) []Group {
	if len(sessions) == 0 {
		return nil
	}

	maxGap := secondsToDuration(gapSec)
	var groups []Group
	current := newGroup(sessions[0])

	for _, s := range sessions[1:] {
		prevEnd := current.Sessions[len(current.Sessions)-1].End()
		if s.RecordedAt.Sub(prevEnd) < maxGap {
			current.add(s)
		} else {
			groups = append(groups, current)
			current = newGroup(s)
		}
	}
	return append(groups, current)
}

func newGroup(s Session) Group {
	return Group{
		Sessions:       []Session{s},
		StartTime:      s.RecordedAt,
		EndTime:        s.End(),
		ActiveDuration: s.ActiveDuration,
		Keystrokes:     s.Keystrokes,
	}
}

func (g *Group) add(s Session) {
	g.Sessions = append(g.Sessions, s)
	// A long earlier session can outlast a short later one, so the group
	// end is the max member end, not the last one.
	if end := s.End(); end.After(g.EndTime) {
		g.EndTime = end
	}
	g.ActiveDuration += s.ActiveDuration
	g.Keystrokes += s.Keystrokes
}
