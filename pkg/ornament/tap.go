package ornament

import (
	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/scene"
	"github.com/haivivi/dantranh/pkg/zoom"
)

const (
	// TapDropCents is the pitch drop a tap mark depicts.
	TapDropCents = 100.0

	// TapHalfWidth is half the width of the V, in screen pixels.
	TapHalfWidth = 4.0
)

// Tap is one tap mark on a dotted note.
type Tap struct {
	NoteIndex int
	NoteID    string

	X    float64 // chevron X
	Y    float64 // note Y
	TipY float64
}

// Taps computes the tap marks of every dotted main note at zoom z. It
// returns nil when the mode is TapNone.
func Taps(l *layout.Layout, z zoom.State, cfg Config) []Tap {
	if cfg.Tap == TapNone {
		return nil
	}
	tr := l.Transform(z)
	frac := cfg.Tap.Fraction()
	// SVG Y grows downward, so the tip is drawn below the note head even
	// though model Y grows with pitch.
	drop := TapDropCents * PxPerCent * z.ScaleY

	var out []Tap
	for _, n := range l.Notes {
		if n.Grace || n.Unplaced || !n.IsDotted() {
			continue
		}
		x, y := tr.X(n.X), tr.Y(n.Y)
		out = append(out, Tap{
			NoteIndex: n.Index,
			NoteID:    n.ID,
			X:         x + n.Quarters*layout.PxPerQuarter*frac*z.ScaleX,
			Y:         y,
			TipY:      y + drop,
		})
	}
	return out
}

// Shape returns the downward V of the tap.
func (t Tap) Shape() scene.Shape {
	sh := scene.Polyline([]scene.Point{
		{X: t.X - TapHalfWidth, Y: t.Y},
		{X: t.X, Y: t.TipY},
		{X: t.X + TapHalfWidth, Y: t.Y},
	})
	sh.NoteID = t.NoteID
	sh.Class = "tap"
	sh.Stroke = "#37474f"
	sh.Width = 1.5
	return sh
}
