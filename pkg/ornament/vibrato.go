package ornament

import (
	"cmp"
	"maps"
	"math"
	"slices"

	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/scene"
	"github.com/haivivi/dantranh/pkg/zoom"
)

const (
	// DecayQuarters is how long a plucked string rings, in quarter notes.
	DecayQuarters = 2.0

	// PxPerCent converts cents to pixels at unit vertical zoom.
	PxPerCent = 0.15

	// SamplesPerCycle is the waveform resolution.
	SamplesPerCycle = 24
)

// Span is one vibrato waveform.
type Span struct {
	NoteIndex int
	NoteID    string
	Class     music.PitchClass
	String    int

	StartX, EndX, Y float64

	AmplitudeCents   float64
	CyclesPerQuarter float64

	AmplitudePx float64 // peak to trough
	Cycles      float64 // may be fractional
	Points      []scene.Point
}

// Vibratos computes the waveforms of every enabled pitch class at zoom z.
//
// Notes of the class are grouped by string and ordered by X. Each waveform
// starts at the marker edge and runs until the next note of the group or
// the string's decay limit, whichever comes first.
func Vibratos(l *layout.Layout, z zoom.State, cfg Config) []Span {
	tr := l.Transform(z)
	decay := DecayQuarters * layout.PxPerQuarter * z.ScaleX
	quarterPx := layout.PxPerQuarter * z.ScaleX
	amplitudePx := cfg.amplitude() * PxPerCent * z.ScaleY

	var out []Span
	for _, pc := range cfg.VibratoClasses() {
		groups := make(map[int][]layout.Note)
		for _, n := range l.Notes {
			if n.Grace || n.Unplaced || n.Pitch.Class != pc {
				continue
			}
			groups[n.String] = append(groups[n.String], n)
		}
		for _, str := range slices.Sorted(maps.Keys(groups)) {
			notes := groups[str]
			slices.SortStableFunc(notes, func(a, b layout.Note) int {
				return cmp.Compare(a.X, b.X)
			})
			for i, n := range notes {
				x := tr.X(n.X)
				reach := decay
				if i+1 < len(notes) {
					reach = min(tr.X(notes[i+1].X)-x, decay)
				}
				start, end := x+n.Radius(), x+reach
				if end <= start {
					continue
				}
				sp := Span{
					NoteIndex:        n.Index,
					NoteID:           n.ID,
					Class:            pc,
					String:           str,
					StartX:           start,
					EndX:             end,
					Y:                tr.Y(n.Y),
					AmplitudeCents:   cfg.amplitude(),
					CyclesPerQuarter: cfg.cycles(),
					AmplitudePx:      amplitudePx,
					Cycles:           (end - start) / quarterPx * cfg.cycles(),
				}
				sp.Points = waveform(sp)
				out = append(out, sp)
			}
		}
	}
	return out
}

func waveform(sp Span) []scene.Point {
	n := max(2, int(math.Ceil(sp.Cycles*SamplesPerCycle))+1)
	half := sp.AmplitudePx / 2
	pts := make([]scene.Point, n)
	for i := range pts {
		t := float64(i) / float64(n-1)
		pts[i] = scene.Point{
			X: sp.StartX + (sp.EndX-sp.StartX)*t,
			Y: sp.Y + half*math.Sin(2*math.Pi*sp.Cycles*t),
		}
	}
	return pts
}

// Shape returns the scene primitive of the waveform.
func (sp Span) Shape() scene.Shape {
	sh := scene.Polyline(sp.Points)
	sh.NoteID = sp.NoteID
	sh.Class = "vibrato"
	sh.Stroke = "#6a1b9a"
	sh.Width = 1.5
	return sh
}
