package synth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/haivivi/dantranh/pkg/audio/pcm"
	"github.com/haivivi/dantranh/pkg/audio/resampler"
	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/playback"
)

// DefaultRing is how long a plucked string keeps sounding after its
// written duration when rendering offline.
const DefaultRing = 400 * time.Millisecond

// Options configures a Synth.
type Options struct {
	// Format of the produced audio.
	Format pcm.Format

	// RenderRate is the synthesis rate. Zero means the Format rate; other
	// rates are resampled to Format.
	RenderRate int

	// Volume 0.0-1.0. Zero means 0.5.
	Volume float64

	// Ring extends each pluck in RenderSchedule. Zero means DefaultRing;
	// negative disables ringing.
	Ring time.Duration

	Logger *slog.Logger
}

// DefaultOptions returns 44.1 kHz mono at half volume.
func DefaultOptions() Options {
	return Options{
		Format: pcm.L16Mono44K1,
		Volume: 0.5,
		Ring:   DefaultRing,
	}
}

// Synth renders plucks. It is stateless and safe for concurrent use.
type Synth struct {
	opts Options
}

// New creates a Synth.
func New(opts Options) *Synth {
	if opts.Volume <= 0 {
		opts.Volume = 0.5
	}
	if opts.RenderRate <= 0 {
		opts.RenderRate = opts.Format.SampleRate()
	}
	if opts.Ring == 0 {
		opts.Ring = DefaultRing
	}
	if opts.Ring < 0 {
		opts.Ring = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Synth{opts: opts}
}

// Format returns the output format.
func (s *Synth) Format() pcm.Format { return s.opts.Format }

// Render synthesizes pitch for d.
func (s *Synth) Render(p music.Pitch, d time.Duration) ([]int16, error) {
	rate := s.opts.RenderRate
	n := int(time.Duration(rate) * d / time.Second)
	samples := Pluck(p.Frequency(), n, rate, s.opts.Volume)
	out := s.opts.Format.SampleRate()
	if rate == out {
		return samples, nil
	}
	resampled, err := resampler.Int16(samples, rate, out)
	if err != nil {
		return nil, fmt.Errorf("synth: render %s: %w", p, err)
	}
	return resampled, nil
}

// RenderSchedule mixes every event of a schedule into one buffer. Plucks
// ring past their written duration and overlap the following notes.
func (s *Synth) RenderSchedule(events []playback.Event, notes []layout.Note) ([]int16, error) {
	rate := s.opts.Format.SampleRate()
	total := playback.Total(events)
	length := int(float64(rate)*total/1000) + int(time.Duration(rate)*s.opts.Ring/time.Second)
	mix := make([]int32, length)

	for _, ev := range events {
		if ev.NoteIndex < 0 || ev.NoteIndex >= len(notes) {
			return nil, fmt.Errorf("synth: event for note %d of %d", ev.NoteIndex, len(notes))
		}
		pluck, err := s.Render(notes[ev.NoteIndex].Pitch, ev.Duration()+s.opts.Ring)
		if err != nil {
			return nil, err
		}
		at := int(float64(rate) * ev.FireAtMs / 1000)
		for i, v := range pluck {
			if at+i >= len(mix) {
				break
			}
			mix[at+i] += int32(v)
		}
	}

	out := make([]int16, len(mix))
	for i, v := range mix {
		out[i] = int16(min(max(v, -32768), 32767))
	}
	s.opts.Logger.Debug("schedule rendered", "events", len(events), "samples", len(out), "rate", rate)
	return out, nil
}
