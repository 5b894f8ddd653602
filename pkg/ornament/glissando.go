package ornament

import (
	"cmp"
	"math"
	"slices"

	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/scene"
	"github.com/haivivi/dantranh/pkg/zoom"
)

// Chevron path constants, in screen pixels.
const (
	ChevronCount    = 5
	ChevronInterval = 14.0
	ChevronArm      = 6.0
	ChevronWidth    = 2.0
)

// Palette colours glissandos by candidate duration, longest first.
var Palette = []string{"#e53935", "#fb8c00", "#43a047", "#1e88e5", "#8e24aa", "#00897b"}

// Candidate is a main note followed by any note.
type Candidate struct {
	From     int
	To       int
	Dotted   bool
	Duration float64
}

// Candidates returns every note that can start a glissando: each main note
// with an immediate successor. The final note never qualifies.
func Candidates(l *layout.Layout) []Candidate {
	var out []Candidate
	for i := 0; i+1 < l.Len(); i++ {
		n := l.Note(i)
		if n.Grace {
			continue
		}
		out = append(out, Candidate{From: i, To: i + 1, Dotted: n.IsDotted(), Duration: n.Quarters})
	}
	return out
}

// CandidateAt returns the candidate starting at note i.
func CandidateAt(l *layout.Layout, i int) (Candidate, bool) {
	if i < 0 || i+1 >= l.Len() || l.Note(i).Grace {
		return Candidate{}, false
	}
	n := l.Note(i)
	return Candidate{From: i, To: i + 1, Dotted: n.IsDotted(), Duration: n.Quarters}, true
}

// DurationColors maps every distinct candidate duration to a palette colour.
// Durations are sorted longest first and assigned cyclically, so equal
// durations always share a colour within one song.
func DurationColors(cands []Candidate) map[float64]string {
	var durations []float64
	for _, c := range cands {
		if !slices.Contains(durations, c.Duration) {
			durations = append(durations, c.Duration)
		}
	}
	slices.SortFunc(durations, func(a, b float64) int { return cmp.Compare(b, a) })
	colors := make(map[float64]string, len(durations))
	for i, d := range durations {
		colors[d] = Palette[i%len(Palette)]
	}
	return colors
}

// StartX returns where the glide begins between a candidate and its target:
// the midpoint, or one third of the way for dotted candidates.
func StartX(candidateX, targetX float64, dotted bool) float64 {
	if dotted {
		return candidateX + (targetX-candidateX)/3
	}
	return (candidateX + targetX) / 2
}

// Glissando is the projected geometry of one glide.
type Glissando struct {
	Candidate
	NoteID string

	XFrom, YFrom float64
	XTo, YTo     float64
	Color        string

	// Chevrons holds the three points (arm, tip, arm) of each V.
	Chevrons [][]scene.Point
}

// Glissandos computes the enabled glides at zoom z.
func Glissandos(l *layout.Layout, z zoom.State, cfg Config) []Glissando {
	colors := DurationColors(Candidates(l))
	var out []Glissando
	for _, i := range cfg.GlissandoNotes() {
		c, ok := CandidateAt(l, i)
		if !ok {
			continue
		}
		out = append(out, buildGlissando(l, z, c, colors[c.Duration]))
	}
	return out
}

func buildGlissando(l *layout.Layout, z zoom.State, c Candidate, color string) Glissando {
	tr := l.Transform(z)
	from, to := l.Note(c.From), l.Note(c.To)

	g := Glissando{
		Candidate: c,
		NoteID:    from.ID,
		XTo:       tr.X(to.X),
		YTo:       tr.Y(to.Y),
		YFrom:     tr.Y(l.Strings.Nearest(to.Y).Y),
		Color:     color,
	}
	g.XFrom = StartX(tr.X(from.X), g.XTo, c.Dotted)
	g.Chevrons = chevrons(g.XFrom, g.YFrom, g.XTo, g.YTo)
	return g
}

// chevrons lays ChevronCount V marks along the segment, tips pointing toward
// the end, one every ChevronInterval pixels. Marks past the end are omitted.
func chevrons(x0, y0, x1, y1 float64) [][]scene.Point {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux

	var out [][]scene.Point
	for k := 1; k <= ChevronCount; k++ {
		d := float64(k) * ChevronInterval
		if d > length {
			break
		}
		tx, ty := x0+ux*d, y0+uy*d
		bx, by := tx-ux*ChevronArm, ty-uy*ChevronArm
		out = append(out, []scene.Point{
			{X: bx + nx*ChevronArm, Y: by + ny*ChevronArm},
			{X: tx, Y: ty},
			{X: bx - nx*ChevronArm, Y: by - ny*ChevronArm},
		})
	}
	return out
}

// Shapes returns the scene primitives of the glide.
func (g Glissando) Shapes() []scene.Shape {
	shapes := make([]scene.Shape, len(g.Chevrons))
	for i, pts := range g.Chevrons {
		sh := scene.Polyline(pts)
		sh.NoteID = g.NoteID
		sh.Class = "glissando"
		sh.Stroke = g.Color
		sh.Width = ChevronWidth
		shapes[i] = sh
	}
	return shapes
}
