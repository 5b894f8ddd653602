package music

import (
	"math"
	"slices"
)

// Note value constants in quarter notes (quarter note = 1).
const (
	Whole      = 4.0
	Half       = 2.0
	Quarter    = 1.0
	Eighth     = 0.5
	Sixteenth  = 0.25
	DotWhole   = 6.0
	DotHalf    = 3.0
	DotQuarter = 1.5
	DotEighth  = 0.75
	Dot16th    = 0.375
)

var dottedDurations = []float64{Dot16th, DotEighth, DotQuarter, DotHalf, DotWhole}

// IsDottedDuration reports whether d is one of the dotted rhythm values.
func IsDottedDuration(d float64) bool {
	return slices.Contains(dottedDurations, d)
}

// ValidDuration reports whether d is a usable duration in quarter notes.
func ValidDuration(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d > 0
}

// Note is one entry of a song's ordered note sequence as supplied by the
// score importers. Phrase, Patterns and Tone are opaque tags attached by the
// lyric analysers; the engine only uses them to filter playback.
type Note struct {
	Pitch    Pitch    `json:"pitch" yaml:"pitch"`
	Duration float64  `json:"duration" yaml:"duration"` // quarter notes; <= 0 or NaN means missing
	Grace    bool     `json:"grace,omitempty" yaml:"grace,omitempty"`
	Dotted   bool     `json:"dotted,omitempty" yaml:"dotted,omitempty"`
	Lyric    string   `json:"lyric,omitempty" yaml:"lyric,omitempty"`
	Phrase   string   `json:"phrase,omitempty" yaml:"phrase,omitempty"`
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Tone     string   `json:"tone,omitempty" yaml:"tone,omitempty"`
}

// IsDotted reports whether the note is flagged dotted or carries a dotted
// duration value.
func (n Note) IsDotted() bool {
	return n.Dotted || IsDottedDuration(n.Duration)
}

// Song is an ordered note sequence with its tuning and tempo.
type Song struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Tuning Tuning  `json:"-" yaml:"-"`
	Tempo  float64 `json:"tempo,omitempty" yaml:"tempo,omitempty"` // BPM, quarter note beats
	Notes  []Note  `json:"notes" yaml:"notes"`
}

// Pitches returns the distinct pitches used by the song in first-seen order.
func (s Song) Pitches() []Pitch {
	seen := make(map[Pitch]bool, len(s.Notes))
	var out []Pitch
	for _, n := range s.Notes {
		if !seen[n.Pitch] {
			seen[n.Pitch] = true
			out = append(out, n.Pitch)
		}
	}
	return out
}

// QuarterMillis converts a tempo in BPM to the length of one quarter note in
// milliseconds.
func QuarterMillis(bpm float64) float64 {
	return 60000 / bpm
}
