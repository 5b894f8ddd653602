package tab

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/haivivi/dantranh/pkg/clock"
	"github.com/haivivi/dantranh/pkg/highlight"
	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/ornament"
	"github.com/haivivi/dantranh/pkg/playback"
)

func song(id string) music.Song {
	return music.Song{
		ID:     id,
		Tuning: music.TuningBac,
		Tempo:  120,
		Notes: []music.Note{
			{Pitch: music.MustPitch("D4"), Duration: 1},
			{Pitch: music.MustPitch("E4"), Duration: 1.5},
			{Pitch: music.MustPitch("G4"), Duration: 1},
		},
	}
}

func newEngine(t *testing.T) (*Engine, *clock.Virtual) {
	t.Helper()
	vc := clock.NewVirtual(time.Unix(0, 0))
	opts := DefaultOptions()
	opts.Clock = vc
	opts.Ornaments = ornament.DefaultConfig().WithTap(ornament.TapThird)
	return New(opts), vc
}

func TestOpenSharesStringConfigs(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	a, err := e.Open(ctx, song("s1"), "verse", SessionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := e.Open(ctx, song("s2"), "chorus", SessionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	st := e.Strings().Stats()
	if st.Misses != 1 || st.Hits != 1 {
		t.Errorf("stats = %+v, want one miss and one hit", st)
	}
	if e.Sessions() != 2 {
		t.Errorf("Sessions() = %d", e.Sessions())
	}
}

func TestOpenTwice(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	s, err := e.Open(ctx, song("s1"), "verse", SessionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Open(ctx, song("s1"), "verse", SessionOptions{}); !errors.Is(err, ErrSessionOpen) {
		t.Errorf("second Open err = %v", err)
	}

	s.Close()
	s.Close()
	if e.Sessions() != 0 {
		t.Errorf("Sessions() after Close = %d", e.Sessions())
	}
	if n := e.Zoom().Subscribers("verse"); n != 0 {
		t.Errorf("%d zoom subscribers left", n)
	}
	again, err := e.Open(ctx, song("s1"), "verse", SessionOptions{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestSectionsZoomIndependently(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, _ := e.Open(ctx, song("s1"), "verse", SessionOptions{})
	defer a.Close()
	b, _ := e.Open(ctx, song("s1"), "chorus", SessionOptions{})
	defer b.Close()

	tapA := a.Layout.Scene.Shapes(ornament.LayerTap)[0].Points[1].X
	tapB := b.Layout.Scene.Shapes(ornament.LayerTap)[0].Points[1].X

	if err := e.Zoom().SetX("verse", 2); err != nil {
		t.Fatal(err)
	}
	if got := a.Layout.Scene.Shapes(ornament.LayerTap)[0].Points[1].X; got == tapA {
		t.Error("verse ornaments did not follow zoom")
	}
	if got := b.Layout.Scene.Shapes(ornament.LayerTap)[0].Points[1].X; got != tapB {
		t.Error("chorus ornaments moved with verse zoom")
	}
}

func TestSessionPlayback(t *testing.T) {
	e, vc := newEngine(t)
	rec := highlight.NewRecorder()
	s, err := e.Open(context.Background(), song("s1"), "verse", SessionOptions{
		Highlighters: []playback.Highlighter{rec},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Player.Play(); err != nil {
		t.Fatal(err)
	}
	vc.Advance(600 * time.Millisecond)
	if rec.Current() != 1 {
		t.Errorf("current = %d, want 1", rec.Current())
	}

	s.Close()
	if s.Player.State() != playback.Stopped || rec.Current() != -1 {
		t.Errorf("after Close: state %v, current %d", s.Player.State(), rec.Current())
	}
	vc.Advance(time.Minute)
	if rec.Current() != -1 {
		t.Error("highlight fired after Close")
	}
}

func TestZoomDebounce(t *testing.T) {
	opts := DefaultOptions()
	opts.Clock = clock.NewVirtual(time.Unix(0, 0))
	opts.Ornaments = ornament.DefaultConfig().WithTap(ornament.TapThird)
	opts.ZoomDebounce = 20 * time.Millisecond
	e := New(opts)

	s, err := e.Open(context.Background(), song("s1"), "verse", SessionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	tapX := func() float64 {
		for _, ls := range s.Ornaments.Snapshot().Layers {
			if ls.Name == ornament.LayerTap {
				return ls.Shapes[0].Points[1].X
			}
		}
		t.Fatal("no tap layer")
		return 0
	}
	before := tapX()
	for _, x := range []float64{1.5, 2, 3} {
		e.Zoom().SetX("verse", x)
	}
	l := s.Layout
	want := l.Transform(e.Zoom().Get("verse")).X(l.Notes[1].X) + 1.5*layout.PxPerQuarter/3*3
	deadline := time.Now().Add(2 * time.Second)
	for tapX() == before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := tapX(); math.Abs(got-want) > 1e-9 {
		t.Errorf("tap x = %g, want %g after the burst", got, want)
	}
}
