package ui

// ProgressMsg represents a progress update from the analyzer
type ProgressMsg struct {
	Stage    string  // "Decoding", "Segmenting", "Transcribing"
	Progress float64 // 0.0 to 1.0
}

// FileStartMsg indicates a new file has started analysis
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished analysis
type FileCompleteMsg struct {
	FileIndex      int
	TotalDuration  float64 // seconds
	ActiveDuration float64 // seconds
	Efficiency     float64 // [0,1]
	Keystrokes     int
	Intervals      int
	Saved          bool
	Error          error
}

// AllCompleteMsg indicates all files have been analyzed
type AllCompleteMsg struct{}
