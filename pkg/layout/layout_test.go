package layout

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/stringcfg"
)

func newEngine() *Engine {
	return NewEngine(stringcfg.New(stringcfg.DefaultOptions()), nil)
}

func note(pitch string, d float64) music.Note {
	return music.Note{Pitch: music.MustPitch(pitch), Duration: d}
}

func grace(pitch string, d float64) music.Note {
	n := note(pitch, d)
	n.Grace = true
	return n
}

func layoutSong(t *testing.T, notes ...music.Note) *Layout {
	t.Helper()
	l, err := newEngine().Layout(context.Background(), music.Song{ID: "test", Tuning: music.TuningBac, Notes: notes})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return l
}

func TestMainNoteSpacing(t *testing.T) {
	l := layoutSong(t, note("D4", 1), note("E4", 0.5), note("G4", 2))
	want := []float64{150, 235, 277.5}
	got := l.MainX()
	if len(got) != len(want) {
		t.Fatalf("MainX = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MainX[%d] = %g, want %g", i, got[i], want[i])
		}
	}
	if l.EndX() != 447.5 {
		t.Errorf("EndX = %g, want 447.5", l.EndX())
	}
}

func TestGracePlacement(t *testing.T) {
	notes := []Note{{Quarters: 0.25}}
	notes[0].Grace = true
	placeGraces(notes, []int{0}, 300)
	if got := notes[0].X; got != 294.6875 {
		t.Errorf("grace x = %g, want 294.6875", got)
	}
}

func TestGracesBeforeMain(t *testing.T) {
	l := layoutSong(t,
		note("D4", 1),
		grace("A4", 0.25),
		grace("B4", 0.5),
		note("G4", 1),
	)
	// Main G4 at 235; graces span 0.25*85/4 + 0.5*85/4 = 15.9375.
	tests := []struct {
		i int
		x float64
	}{
		{0, 150},
		{1, 219.0625},
		{2, 224.375},
		{3, 235},
	}
	for _, tt := range tests {
		if got := l.Note(tt.i).X; got != tt.x {
			t.Errorf("note %d x = %g, want %g", tt.i, got, tt.x)
		}
	}
	if last := l.Note(2); last.X+graceWidth(last) != l.Note(3).X {
		t.Error("last grace does not end at the main note")
	}
	if got := l.MainX(); len(got) != 2 {
		t.Errorf("MainX includes graces: %v", got)
	}
}

func TestTrailingGraces(t *testing.T) {
	l := layoutSong(t, note("D4", 2), grace("E4", 0.5))
	// Final cursor 320, grace width 10.625.
	if got := l.Note(1).X; got != 309.375 {
		t.Errorf("trailing grace x = %g, want 309.375", got)
	}
}

func TestMalformedDuration(t *testing.T) {
	l := layoutSong(t, note("D4", math.NaN()), note("E4", 0), note("G4", -2), note("A4", 1))
	want := []float64{150, 235, 320, 405}
	for i, x := range want {
		n := l.Note(i)
		if n.X != x {
			t.Errorf("note %d x = %g, want %g", i, n.X, x)
		}
		if i < 3 && (!n.DurationDefaulted || n.Quarters != 1) {
			t.Errorf("note %d not defaulted: %+v", i, n)
		}
	}
	if l.Note(3).DurationDefaulted {
		t.Error("valid duration flagged as defaulted")
	}
}

func TestBentNotes(t *testing.T) {
	l := layoutSong(t, note("D4", 1), note("E4", 1), note("F4", 1), note("G4", 1), note("D#4", 1))
	// Strings: D4 110, E4 140, G4 185.
	tests := []struct {
		i        int
		y        float64
		bent     bool
		str      int
		bendFrom float64
	}{
		{0, 110, false, 1, 0},
		{1, 140, false, 2, 0},
		{2, 155, true, 2, 140},
		{3, 185, false, 3, 0},
		{4, 125, true, 1, 110},
	}
	for _, tt := range tests {
		n := l.Note(tt.i)
		if math.Abs(n.Y-tt.y) > 1e-9 || n.Bent != tt.bent || n.String != tt.str || n.BendFrom != tt.bendFrom {
			t.Errorf("note %d = y %g bent %v string %d from %g, want y %g bent %v string %d from %g",
				tt.i, n.Y, n.Bent, n.String, n.BendFrom, tt.y, tt.bent, tt.str, tt.bendFrom)
		}
	}
	if got := len(l.Scene.Shapes(LayerBent)); got != 2 {
		t.Errorf("bent markers = %d, want 2", got)
	}
}

func TestUnplacedPitch(t *testing.T) {
	l := layoutSong(t, note("D4", 1), note("C4", 1), note("E4", 1))
	n := l.Note(1)
	if !n.Unplaced || n.Y != 110 || n.String != 0 {
		t.Errorf("C4 = %+v, want unplaced on lowest string", n)
	}
	if l.Note(2).X != 320 {
		t.Error("unplaced note stopped layout")
	}
}

func TestNoOpenPitches(t *testing.T) {
	_, err := newEngine().Layout(context.Background(), music.Song{
		ID: "x", Tuning: music.TuningBac, Notes: []music.Note{note("C#4", 1)},
	})
	if !errors.Is(err, stringcfg.ErrNoOpenPitches) {
		t.Errorf("err = %v, want ErrNoOpenPitches", err)
	}
}

func TestNoteIDsStable(t *testing.T) {
	a := layoutSong(t, note("D4", 1), note("E4", 1))
	b := layoutSong(t, note("G4", 2), note("A4", 1))
	if a.Note(0).ID != b.Note(0).ID {
		t.Error("IDs differ for same song and index")
	}
	if a.Note(0).ID == a.Note(1).ID {
		t.Error("IDs collide within a song")
	}
	other, _ := newEngine().Layout(context.Background(), music.Song{ID: "other", Tuning: music.TuningBac, Notes: []music.Note{note("D4", 1)}})
	if other.Note(0).ID == a.Note(0).ID {
		t.Error("IDs collide across songs")
	}
}

func TestSceneLayers(t *testing.T) {
	n := note("E4", 1)
	n.Lyric = "ơi"
	l := layoutSong(t, note("D4", 1), n, grace("G4", 0.5), note("F#4", 1))

	layers := l.Scene.Layers()
	want := []string{LayerStrings, LayerResonance, LayerBent, LayerNotes, LayerLyrics}
	if len(layers) != len(want) {
		t.Fatalf("layers = %d, want %d", len(layers), len(want))
	}
	for i, name := range want {
		if layers[i].Name != name {
			t.Errorf("layer %d = %s, want %s", i, layers[i].Name, name)
		}
	}

	notes := l.Scene.Shapes(LayerNotes)
	if len(notes) != 4 {
		t.Fatalf("note markers = %d, want 4", len(notes))
	}
	if notes[2].R != GraceRadius || notes[0].R != NoteRadius {
		t.Errorf("radii = %g, %g", notes[2].R, notes[0].R)
	}
	if notes[3].Meta["bent"] != "true" || notes[3].Meta["pitch"] != "F#4" {
		t.Errorf("meta = %v", notes[3].Meta)
	}
	if got := len(l.Scene.Shapes(LayerResonance)); got != 4 {
		t.Errorf("resonance bands = %d, want 4", got)
	}
	res := l.Scene.Shapes(LayerResonance)[0]
	if res.X2-res.X1 != ResonanceLength {
		t.Errorf("resonance length = %g", res.X2-res.X1)
	}
	lyrics := l.Scene.Shapes(LayerLyrics)
	if len(lyrics) != 1 || lyrics[0].Text != "ơi" || lyrics[0].NoteID != l.Note(1).ID {
		t.Errorf("lyrics = %+v", lyrics)
	}
	if got := len(l.Scene.ByNote(l.Note(3).ID)); got != 3 {
		t.Errorf("shapes for bent note = %d, want 3", got)
	}
}
