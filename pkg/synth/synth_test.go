package synth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haivivi/dantranh/pkg/audio/pcm"
	"github.com/haivivi/dantranh/pkg/clock"
	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/playback"
)

func peak(samples []int16) int {
	p := 0
	for _, s := range samples {
		p = max(p, abs(int(s)))
	}
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestPluck(t *testing.T) {
	const rate = 16000
	s := Pluck(293.66, rate, rate, 0.8)
	if len(s) != rate {
		t.Fatalf("len = %d", len(s))
	}
	if s[0] != 0 {
		t.Errorf("first sample = %d, want silence before the attack", s[0])
	}
	head, tail := peak(s[:rate/10]), peak(s[rate*9/10:])
	if head == 0 || tail >= head {
		t.Errorf("peak head %d tail %d, want decaying pluck", head, tail)
	}
	if last := abs(int(s[len(s)-1])); last > head/10 {
		t.Errorf("last sample %d, release did not fade", last)
	}
}

func TestPluckSilence(t *testing.T) {
	for _, tt := range []struct {
		name          string
		freq          float64
		samples, rate int
	}{
		{"rest", 0, 100, 16000},
		{"no samples", 440, 0, 16000},
		{"negative", 440, -5, 16000},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := Pluck(tt.freq, tt.samples, tt.rate, 1)
			if peak(s) != 0 {
				t.Errorf("peak = %d", peak(s))
			}
		})
	}
}

func TestRender(t *testing.T) {
	s := New(Options{Format: pcm.L16Mono16K})
	samples, err := s.Render(music.MustPitch("A4"), 250*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 4000 {
		t.Errorf("len = %d, want 4000", len(samples))
	}
}

func TestRenderResampled(t *testing.T) {
	s := New(Options{Format: pcm.L16Mono16K, RenderRate: 48000})
	samples, err := s.Render(music.MustPitch("A4"), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) == 0 || len(samples) > 16000+1024 {
		t.Errorf("len = %d, want about 16000", len(samples))
	}
}

func schedule() ([]playback.Event, []layout.Note) {
	notes := []layout.Note{
		{Note: music.Note{Pitch: music.MustPitch("D4"), Duration: 1}, Index: 0},
		{Note: music.Note{Pitch: music.MustPitch("A4"), Duration: 1}, Index: 1},
	}
	events := []playback.Event{
		{NoteIndex: 0, FireAtMs: 0, DurationMs: 500},
		{NoteIndex: 1, FireAtMs: 500, DurationMs: 500},
	}
	return events, notes
}

func TestRenderSchedule(t *testing.T) {
	events, notes := schedule()
	s := New(Options{Format: pcm.L16Mono16K, Ring: 200 * time.Millisecond})
	mix, err := s.RenderSchedule(events, notes)
	if err != nil {
		t.Fatal(err)
	}
	if len(mix) != 16000+3200 {
		t.Fatalf("len = %d, want %d", len(mix), 16000+3200)
	}
	if peak(mix[8000:8800]) == 0 {
		t.Error("second pluck missing")
	}

	bad := []playback.Event{{NoteIndex: 5, DurationMs: 10}}
	if _, err := s.RenderSchedule(bad, notes); err == nil {
		t.Error("event for missing note accepted")
	}
}

func TestVoice(t *testing.T) {
	var buf pcm.Buffer
	s := New(Options{Format: pcm.L16Mono16K})
	v := NewVoice(s, &buf)
	_, notes := schedule()
	for _, n := range notes {
		if err := v.Pluck(context.Background(), n, 100*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	v.Close()
	if buf.Chunks() != 2 || len(buf.Bytes()) != 2*1600*2 {
		t.Errorf("chunks %d, bytes %d", buf.Chunks(), len(buf.Bytes()))
	}
	if err := v.Pluck(context.Background(), notes[0], time.Millisecond); !errors.Is(err, ErrVoiceClosed) {
		t.Errorf("Pluck after Close err = %v", err)
	}
	v.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v2 := NewVoice(s, pcm.Discard)
	defer v2.Close()
	if err := v2.Pluck(ctx, notes[0], time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Errorf("Pluck with cancelled context err = %v", err)
	}
}

func TestAlignedVoice(t *testing.T) {
	var buf pcm.Buffer
	vc := clock.NewVirtual(time.Unix(0, 0))
	v := NewAlignedVoice(New(Options{Format: pcm.L16Mono16K}), &buf, vc)
	_, notes := schedule()

	if err := v.Pluck(context.Background(), notes[0], 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	vc.Advance(300 * time.Millisecond)
	if err := v.Pluck(context.Background(), notes[1], 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	v.Close()

	// pluck, 200ms of silence, pluck
	if buf.Chunks() != 3 || len(buf.Bytes()) != 3200+6400+3200 {
		t.Errorf("chunks %d, bytes %d", buf.Chunks(), len(buf.Bytes()))
	}
}

