package notes

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2/smf"
)

// CountNoteOns counts note-on events with non-zero velocity across all
// tracks of a standard MIDI file. Note-ons with velocity zero are running
// note-offs and do not represent a keystroke.
func CountNoteOns(path string) (int, error) {
	file, err := smf.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading MIDI file: %w", err)
	}

	count := 0
	for _, track := range file.Tracks {
		for _, ev := range track {
			var channel, key, velocity uint8
			if ev.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0 {
				count++
			}
		}
	}
	return count, nil
}
