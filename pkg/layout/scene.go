package layout

import (
	"strconv"

	"github.com/haivivi/dantranh/pkg/scene"
)

const (
	stringLabelX = 40.0
	rightPadding = 60.0
	bottomPad    = 40.0
)

func buildScene(l *Layout) *scene.Scene {
	s := scene.New()
	for _, name := range []string{LayerStrings, LayerResonance, LayerBent, LayerNotes, LayerLyrics} {
		s.AddLayer(name, false)
	}

	right := l.endX + ResonanceLength + rightPadding
	for _, n := range l.Notes {
		right = max(right, n.X+ResonanceLength+rightPadding)
	}
	entries := l.Strings.Entries()
	top := entries[len(entries)-1].Y

	for _, e := range entries {
		ln := scene.Line(LeftMargin-NoteRadius*3, e.Y, right, e.Y)
		ln.ID = "string-" + strconv.Itoa(e.String)
		ln.Class = "string"
		ln.Stroke = "#888"
		ln.Width = 1
		ln.Meta = map[string]string{"string": strconv.Itoa(e.String), "pitch": e.Pitch.String()}
		label := scene.Text(stringLabelX, e.Y, e.Pitch.String())
		label.Class = "string-label"
		s.Add(LayerStrings, ln, label)
	}

	for _, n := range l.Notes {
		r := n.Radius()

		res := scene.Line(n.X+r, n.Y, n.X+r+ResonanceLength, n.Y)
		res.NoteID = n.ID
		res.Class = "resonance"
		res.Stroke = "#cfd8dc"
		res.Width = 3
		s.Add(LayerResonance, res)

		if n.Bent {
			b := scene.Line(n.X, n.Y, n.X, n.BendFrom)
			b.NoteID = n.ID
			b.Class = "bent"
			b.Stroke = "#c62828"
			b.Width = 1.5
			s.Add(LayerBent, b)
		}

		c := scene.Circle(n.X, n.Y, r)
		c.ID = "note-" + n.ID
		c.NoteID = n.ID
		c.Class = noteClass(n)
		c.Stroke = "#222"
		c.Fill = "#222"
		if n.Grace {
			c.Fill = "#fff"
		}
		c.Meta = noteMeta(n)
		s.Add(LayerNotes, c)

		if n.Lyric != "" {
			t := scene.Text(n.X, top+LyricOffset, n.Lyric)
			t.NoteID = n.ID
			t.Class = "lyric"
			s.Add(LayerLyrics, t)
		}
	}

	s.Width = right
	s.Height = top + LyricOffset + bottomPad
	return s
}

func noteClass(n Note) string {
	switch {
	case n.Unplaced:
		return "note unplaced"
	case n.Grace && n.Bent:
		return "note grace bent"
	case n.Grace:
		return "note grace"
	case n.Bent:
		return "note bent"
	}
	return "note"
}

func noteMeta(n Note) map[string]string {
	m := map[string]string{
		"index":    strconv.Itoa(n.Index),
		"pitch":    n.Pitch.String(),
		"duration": strconv.FormatFloat(n.Quarters, 'f', -1, 64),
		"string":   strconv.Itoa(n.String),
		"grace":    strconv.FormatBool(n.Grace),
		"bent":     strconv.FormatBool(n.Bent),
		"dotted":   strconv.FormatBool(n.IsDotted()),
	}
	if n.DurationDefaulted {
		m["duration_defaulted"] = "true"
	}
	return m
}
