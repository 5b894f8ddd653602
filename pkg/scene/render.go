package scene

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Transform maps model coordinates to screen coordinates by scaling about
// an origin: X' = OriginX + (X-OriginX)*ScaleX, likewise for Y.
type Transform struct {
	OriginX float64
	OriginY float64
	ScaleX  float64
	ScaleY  float64
}

// Identity leaves coordinates unchanged.
var Identity = Transform{ScaleX: 1, ScaleY: 1}

// X projects a model X coordinate.
func (t Transform) X(x float64) float64 {
	return t.OriginX + (x-t.OriginX)*t.ScaleX
}

// Y projects a model Y coordinate.
func (t Transform) Y(y float64) float64 {
	return t.OriginY + (y-t.OriginY)*t.ScaleY
}

// Apply returns a copy of sh in screen coordinates. Radii and stroke widths
// are not scaled.
func (t Transform) Apply(sh Shape) Shape {
	switch sh.Kind {
	case KindLine:
		sh.X1, sh.Y1 = t.X(sh.X1), t.Y(sh.Y1)
		sh.X2, sh.Y2 = t.X(sh.X2), t.Y(sh.Y2)
	case KindPolyline:
		pts := make([]Point, len(sh.Points))
		for i, p := range sh.Points {
			pts[i] = Point{X: t.X(p.X), Y: t.Y(p.Y)}
		}
		sh.Points = pts
	default:
		sh.X, sh.Y = t.X(sh.X), t.Y(sh.Y)
	}
	return sh
}

// Snapshot is the serializable form of a scene.
type Snapshot struct {
	Width  float64         `json:"width" yaml:"width"`
	Height float64         `json:"height" yaml:"height"`
	Layers []LayerSnapshot `json:"layers" yaml:"layers"`
}

// LayerSnapshot is the serializable form of a layer.
type LayerSnapshot struct {
	Name   string  `json:"name" yaml:"name"`
	Shapes []Shape `json:"shapes" yaml:"shapes"`
}

// Snapshot returns the scene projected through t. Layers already in screen
// space are copied unchanged.
func (s *Scene) Snapshot(t Transform) Snapshot {
	snap := Snapshot{
		Width:  t.X(s.Width),
		Height: t.Y(s.Height),
		Layers: make([]LayerSnapshot, 0, len(s.layers)),
	}
	for _, l := range s.layers {
		shapes := l.Shapes()
		if !l.Projected {
			for i := range shapes {
				shapes[i] = t.Apply(shapes[i])
			}
		}
		snap.Layers = append(snap.Layers, LayerSnapshot{Name: l.Name, Shapes: shapes})
	}
	return snap
}

// WriteSVG renders the scene as a standalone SVG document.
func WriteSVG(w io.Writer, s *Scene, t Transform) error {
	snap := s.Snapshot(t)
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(snap.Width), num(snap.Height), num(snap.Width), num(snap.Height))
	for _, l := range snap.Layers {
		fmt.Fprintf(bw, `<g class="%s">`+"\n", html.EscapeString(l.Name))
		for _, sh := range l.Shapes {
			writeShape(bw, sh)
		}
		bw.WriteString("</g>\n")
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeShape(w *bufio.Writer, sh Shape) {
	var b strings.Builder
	switch sh.Kind {
	case KindLine:
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s"`, num(sh.X1), num(sh.Y1), num(sh.X2), num(sh.Y2))
	case KindCircle:
		fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s"`, num(sh.X), num(sh.Y), num(sh.R))
	case KindPolyline:
		pts := make([]string, len(sh.Points))
		for i, p := range sh.Points {
			pts[i] = num(p.X) + "," + num(p.Y)
		}
		fmt.Fprintf(&b, `<polyline points="%s" fill="none"`, strings.Join(pts, " "))
	case KindText:
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle"`, num(sh.X), num(sh.Y))
	default:
		return
	}
	attr(&b, "id", sh.ID)
	attr(&b, "class", sh.Class)
	attr(&b, "data-note", sh.NoteID)
	attr(&b, "stroke", sh.Stroke)
	if sh.Kind != KindPolyline {
		attr(&b, "fill", sh.Fill)
	}
	if sh.Width > 0 {
		attr(&b, "stroke-width", num(sh.Width))
	}
	for _, k := range slices.Sorted(maps.Keys(sh.Meta)) {
		attr(&b, "data-"+k, sh.Meta[k])
	}
	if sh.Kind == KindText {
		fmt.Fprintf(&b, ">%s</text>\n", html.EscapeString(sh.Text))
	} else {
		b.WriteString("/>\n")
	}
	w.WriteString(b.String())
}

func attr(b *strings.Builder, name, val string) {
	if val == "" {
		return
	}
	fmt.Fprintf(b, ` %s="%s"`, name, html.EscapeString(val))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

