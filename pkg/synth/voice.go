package synth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/haivivi/dantranh/pkg/audio/pcm"
	"github.com/haivivi/dantranh/pkg/clock"
	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/playback"
)

var (
	// ErrVoiceBusy is returned when plucks arrive faster than they render.
	ErrVoiceBusy = errors.New("synth: voice queue full")

	// ErrVoiceClosed is returned by Pluck after Close.
	ErrVoiceClosed = errors.New("synth: voice closed")
)

var _ playback.AudioSink = (*Voice)(nil)

const voiceQueue = 32

type pluckReq struct {
	note layout.Note
	d    time.Duration
	at   time.Time
}

// Voice is a playback.AudioSink that renders plucks on its own goroutine
// and writes them to a pcm.Writer. Pluck never blocks.
type Voice struct {
	synth *Synth
	out   pcm.Writer
	clock clock.Clock // nil when plucks are written back to back

	mu     sync.Mutex
	closed bool
	queue  chan pluckReq
	done   chan struct{}
}

// NewVoice starts a voice writing plucks to out back to back.
func NewVoice(s *Synth, out pcm.Writer) *Voice {
	return newVoice(s, out, nil)
}

// NewAlignedVoice starts a voice that keeps out aligned with clk: the gap
// between the end of one pluck and the arrival of the next is written as
// silence.
func NewAlignedVoice(s *Synth, out pcm.Writer, clk clock.Clock) *Voice {
	return newVoice(s, out, clk)
}

func newVoice(s *Synth, out pcm.Writer, clk clock.Clock) *Voice {
	v := &Voice{
		synth: s,
		out:   out,
		clock: clk,
		queue: make(chan pluckReq, voiceQueue),
		done:  make(chan struct{}),
	}
	go v.loop()
	return v
}

func (v *Voice) Pluck(ctx context.Context, n layout.Note, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrVoiceClosed
	}
	req := pluckReq{note: n, d: d}
	if v.clock != nil {
		req.at = v.clock.Now()
	}
	select {
	case v.queue <- req:
		return nil
	default:
		return ErrVoiceBusy
	}
}

func (v *Voice) loop() {
	defer close(v.done)
	var (
		logger  = v.synth.opts.Logger
		format  = v.synth.Format()
		start   time.Time
		written time.Duration // stream length so far
	)
	for req := range v.queue {
		samples, err := v.synth.Render(req.note.Pitch, req.d)
		if err != nil {
			logger.Warn("pluck render failed", "index", req.note.Index, "error", err)
			continue
		}
		if v.clock != nil {
			if start.IsZero() {
				start = req.at
			}
			if gap := req.at.Sub(start) - written; gap > 0 {
				if err := v.out.Write(format.SilenceChunk(gap)); err != nil {
					logger.Debug("pluck output failed", "index", req.note.Index, "error", err)
				}
				written += gap
			}
		}
		chunk := pcm.Int16Chunk(format, samples)
		if err := v.out.Write(chunk); err != nil {
			logger.Debug("pluck output failed", "index", req.note.Index, "error", err)
		}
		written += format.Duration(chunk.Len())
	}
}

// Close renders what is queued and stops the voice.
func (v *Voice) Close() error {
	v.mu.Lock()
	if !v.closed {
		v.closed = true
		close(v.queue)
	}
	v.mu.Unlock()
	<-v.done
	return nil
}
