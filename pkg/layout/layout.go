// Package layout places the notes of a song on the tablature: X along the
// time axis, Y on (or between) the strings, and emits the base scene layers.
package layout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/scene"
	"github.com/haivivi/dantranh/pkg/stringcfg"
	"github.com/haivivi/dantranh/pkg/zoom"
)

// Geometry constants, in unscaled pixels.
const (
	LeftMargin      = 150.0
	PxPerQuarter    = 85.0
	NoteRadius      = 8.0
	GraceRadius     = 5.0
	ResonanceLength = 60.0
	LyricOffset     = 40.0
)

// Base layer names, in drawing order.
const (
	LayerStrings   = "strings"
	LayerResonance = "resonance"
	LayerBent      = "bent"
	LayerNotes     = "notes"
	LayerLyrics    = "lyrics"
)

// songNamespace roots the UUIDv5 note identifiers.
var songNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://dantranh.haivivi.com/song"))

// Note is an input note with its computed placement.
type Note struct {
	music.Note

	Index int    `json:"index"`
	ID    string `json:"id"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	String int     `json:"string"` // matching string, or the lower neighbour when bent; 0 when unplaced
	Bent   bool    `json:"bent"`

	// Quarters is the duration used for spacing and playback: Duration, or
	// one quarter when Duration was missing.
	Quarters float64 `json:"quarters"`

	DurationDefaulted bool `json:"duration_defaulted,omitempty"`
	Unplaced          bool `json:"unplaced,omitempty"`

	// BendFrom is the Y of the open string a bent note is pressed from.
	BendFrom float64 `json:"bend_from,omitempty"`
}

// Radius returns the marker radius.
func (n Note) Radius() float64 {
	if n.Grace {
		return GraceRadius
	}
	return NoteRadius
}

// Layout is a placed song.
type Layout struct {
	SongID  string
	Title   string
	Tuning  music.Tuning
	Strings *stringcfg.Config
	Notes   []Note
	Scene   *scene.Scene

	endX float64
}

// Len returns the number of notes.
func (l *Layout) Len() int { return len(l.Notes) }

// Note returns the i-th note.
func (l *Layout) Note(i int) Note { return l.Notes[i] }

// MainX returns the X of every main note in order.
func (l *Layout) MainX() []float64 {
	var xs []float64
	for _, n := range l.Notes {
		if !n.Grace {
			xs = append(xs, n.X)
		}
	}
	return xs
}

// EndX returns the time-axis position after the last main note.
func (l *Layout) EndX() float64 { return l.endX }

// Width returns the scene width in unscaled pixels.
func (l *Layout) Width() float64 { return l.Scene.Width }

// Origin is the fixed point of zoom scaling: the left margin on the lowest
// string.
func (l *Layout) Origin() (x, y float64) {
	return LeftMargin, l.Strings.Entry(0).Y
}

// Transform returns the projection of the layout at zoom z.
func (l *Layout) Transform(z zoom.State) scene.Transform {
	ox, oy := l.Origin()
	return scene.Transform{OriginX: ox, OriginY: oy, ScaleX: z.ScaleX, ScaleY: z.ScaleY}
}

// Engine lays out songs. Songs with the same open pitches share string
// configurations through the Configurator.
type Engine struct {
	strings *stringcfg.Configurator
	logger  *slog.Logger
}

// NewEngine creates an Engine. A nil logger means slog.Default().
func NewEngine(strings *stringcfg.Configurator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{strings: strings, logger: logger}
}

// Layout places every note of song and builds its base scene.
//
// Per-note problems never fail the layout: a missing duration advances one
// quarter note, an unresolvable pitch is drawn on the lowest string. An
// error is returned only when no string can be configured at all.
func (e *Engine) Layout(ctx context.Context, song music.Song) (*Layout, error) {
	cfg, err := e.strings.Configure(ctx, song.Pitches(), song.Tuning)
	if err != nil {
		return nil, fmt.Errorf("layout %q: %w", song.ID, err)
	}
	log := e.logger.With("song", song.ID)

	ns := uuid.NewSHA1(songNamespace, []byte(song.ID))
	notes := make([]Note, len(song.Notes))
	for i, in := range song.Notes {
		n := Note{
			Note:     in,
			Index:    i,
			ID:       uuid.NewSHA1(ns, []byte(strconv.Itoa(i))).String(),
			Quarters: in.Duration,
		}
		if !music.ValidDuration(in.Duration) {
			log.Warn("layout: missing or malformed duration, using one quarter", "index", i, "duration", in.Duration)
			n.Quarters = music.Quarter
			n.DurationDefaulted = true
		}
		e.place(log, cfg, &n)
		notes[i] = n
	}

	endX := placeX(notes)
	l := &Layout{
		SongID:  song.ID,
		Title:   song.Title,
		Tuning:  song.Tuning,
		Strings: cfg,
		Notes:   notes,
		endX:    endX,
	}
	l.Scene = buildScene(l)
	return l, nil
}

// place resolves Y, string and bending of one note.
func (e *Engine) place(log *slog.Logger, cfg *stringcfg.Config, n *Note) {
	pos, err := cfg.Find(n.Pitch)
	if err != nil {
		log.Warn("layout: pitch cannot be placed, drawing on lowest string", "index", n.Index, "error", err)
		n.Unplaced = true
		n.Y = cfg.Entry(0).Y
		return
	}
	n.Y = pos.Y
	n.String = pos.Lower.String
	if !pos.Exact {
		n.Bent = true
		n.BendFrom = pos.Lower.Y
	}
}

// placeX runs the time axis. Main notes advance the cursor by their
// duration; grace notes are buffered and placed backward from the main note
// that follows them, last grace closest. Returns the final cursor.
func placeX(notes []Note) float64 {
	x := LeftMargin
	var pending []int
	for i := range notes {
		if notes[i].Grace {
			pending = append(pending, i)
			continue
		}
		notes[i].X = x
		placeGraces(notes, pending, x)
		pending = pending[:0]
		x += notes[i].Quarters * PxPerQuarter
	}
	placeGraces(notes, pending, x)
	return x
}

func placeGraces(notes []Note, graces []int, mainX float64) {
	if len(graces) == 0 {
		return
	}
	span := 0.0
	for _, g := range graces {
		span += graceWidth(notes[g])
	}
	x := mainX - span
	for _, g := range graces {
		notes[g].X = x
		x += graceWidth(notes[g])
	}
}

func graceWidth(n Note) float64 {
	return n.Quarters * PxPerQuarter / 4
}
