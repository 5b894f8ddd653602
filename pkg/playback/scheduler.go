// Package playback turns a laid-out song into timed pluck and highlight
// events and runs them against a clock with total cancellation.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/haivivi/dantranh/pkg/clock"
	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
)

var (
	// ErrInvalidTempo is returned for tempos that are not positive.
	ErrInvalidTempo = errors.New("playback: tempo must be positive")

	// ErrIndexRange is returned by PlayFrom for an index outside the song.
	ErrIndexRange = errors.New("playback: note index out of range")

	// ErrNothingToPlay is returned when a filter selects no notes.
	ErrNothingToPlay = errors.New("playback: no notes selected")
)

// DefaultTempo is used when no tempo is set.
const DefaultTempo = 120.0

// DefaultLoopPause separates the repetitions of a looped selection.
const DefaultLoopPause = 300 * time.Millisecond

// State is the scheduler state.
type State int

const (
	Idle State = iota
	Scheduled
	Playing
	Stopped
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Highlighter shows which note is sounding in one rendering of the song.
type Highlighter interface {
	Highlight(n layout.Note)
	Clear()
}

// AudioSink synthesizes one pluck.
type AudioSink interface {
	Pluck(ctx context.Context, n layout.Note, d time.Duration) error
}

// Event is one scheduled note. Times are milliseconds from the start of the
// schedule.
type Event struct {
	NoteIndex  int     `json:"note_index"`
	FireAtMs   float64 `json:"fire_at_ms"`
	DurationMs float64 `json:"duration_ms"`
}

// FireAt returns the fire time as a duration.
func (e Event) FireAt() time.Duration { return millis(e.FireAtMs) }

// Duration returns the note length as a duration.
func (e Event) Duration() time.Duration { return millis(e.DurationMs) }

// EndMs returns when the note stops sounding.
func (e Event) EndMs() float64 { return e.FireAtMs + e.DurationMs }

func millis(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

// Schedule computes the events for notes[from:] kept by filter (nil keeps
// all) at bpm. Fire times are the running sum of the preceding selected
// durations; grace notes sound for a quarter of their written length.
func Schedule(notes []layout.Note, from int, filter Filter, bpm float64) []Event {
	quarter := music.QuarterMillis(bpm)
	var (
		events []Event
		at     float64
	)
	for _, n := range notes[min(max(from, 0), len(notes)):] {
		if filter != nil && !filter(n) {
			continue
		}
		d := quarter * n.Quarters
		if n.Grace {
			d /= 4
		}
		events = append(events, Event{NoteIndex: n.Index, FireAtMs: at, DurationMs: d})
		at += d
	}
	return events
}

// Total returns the length of a schedule in milliseconds.
func Total(events []Event) float64 {
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].EndMs()
}

// Options configures a Scheduler.
type Options struct {
	// Clock defaults to clock.Real.
	Clock clock.Clock

	// Highlighters are updated on every event. Each is called with the
	// scheduler lock held and must not block or call back into the
	// scheduler.
	Highlighters []Highlighter

	// Audio plucks each note. Optional: without it playback is silent but
	// highlighting still runs.
	Audio AudioSink

	// Tempo in quarter-note BPM. Zero means DefaultTempo.
	Tempo float64

	// LoopPause separates loop repetitions. Zero means DefaultLoopPause.
	LoopPause time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Scheduler plays one laid-out song. It is safe for concurrent use.
type Scheduler struct {
	notes  []layout.Note
	clock  clock.Clock
	hls    []Highlighter
	audio  AudioSink
	pause  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	tempo   float64
	gen     uint64
	timers  []clock.Timer
	events  []Event
	current int
	run     run
}

// run remembers what is being played so a loop can reschedule it.
type run struct {
	from   int
	filter Filter
	loop   bool
}

// New creates a Scheduler for notes.
func New(notes []layout.Note, opts Options) *Scheduler {
	s := &Scheduler{
		notes:   notes,
		clock:   opts.Clock,
		hls:     opts.Highlighters,
		audio:   opts.Audio,
		pause:   opts.LoopPause,
		logger:  opts.Logger,
		tempo:   opts.Tempo,
		current: -1,
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.pause <= 0 {
		s.pause = DefaultLoopPause
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if !(s.tempo > 0) {
		s.tempo = DefaultTempo
	}
	return s
}

// Play plays the whole song from the start. An empty song returns
// ErrNothingToPlay.
func (s *Scheduler) Play() error {
	if len(s.notes) == 0 {
		return s.start(run{})
	}
	return s.PlayFrom(0)
}

// PlayFrom plays from note i to the end.
func (s *Scheduler) PlayFrom(i int) error {
	if i < 0 || i >= len(s.notes) {
		return fmt.Errorf("%w: %d of %d", ErrIndexRange, i, len(s.notes))
	}
	return s.start(run{from: i})
}

// PlayFiltered plays the notes kept by f, repeating after a short pause
// while loop is set.
func (s *Scheduler) PlayFiltered(f Filter, loop bool) error {
	return s.start(run{filter: f, loop: loop})
}

// Stop cancels every pending event and clears the highlight. It is safe to
// call in any state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Scheduled || s.state == Playing {
		s.state = Stopped
	}
	s.cancelLocked()
}

// SetTempo changes the tempo used by the next scheduling. A running
// schedule keeps its timing.
func (s *Scheduler) SetTempo(bpm float64) error {
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidTempo, bpm)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempo = bpm
	return nil
}

// Tempo returns the current tempo.
func (s *Scheduler) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the index of the highlighted note.
func (s *Scheduler) Current() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current >= 0
}

// Events returns a copy of the active schedule.
func (s *Scheduler) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Scheduler) start(r run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.run = r
	return s.scheduleLocked()
}

// scheduleLocked computes a fresh schedule for s.run under a new generation
// and arms one timer per event plus a completion timer.
func (s *Scheduler) scheduleLocked() error {
	events := Schedule(s.notes, s.run.from, s.run.filter, s.tempo)
	if len(events) == 0 {
		s.state = Idle
		return ErrNothingToPlay
	}
	s.gen++
	gen := s.gen
	s.state = Scheduled
	s.events = events
	s.timers = s.timers[:0]
	for _, ev := range events {
		s.timers = append(s.timers, s.clock.AfterFunc(ev.FireAt(), func() { s.fire(gen, ev) }))
	}
	s.timers = append(s.timers, s.clock.AfterFunc(millis(Total(events)), func() { s.complete(gen) }))
	s.state = Playing
	s.logger.Debug("playback scheduled", "events", len(events), "total_ms", Total(events), "tempo", s.tempo, "loop", s.run.loop)
	return nil
}

// cancelLocked invalidates every pending callback of the current
// generation and removes the highlight.
func (s *Scheduler) cancelLocked() {
	s.gen++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = s.timers[:0]
	s.events = nil
	s.clearLocked()
}

func (s *Scheduler) clearLocked() {
	if s.current < 0 {
		return
	}
	for _, h := range s.hls {
		h.Clear()
	}
	s.current = -1
}

func (s *Scheduler) live(gen uint64) bool {
	return gen == s.gen && s.state == Playing
}

func (s *Scheduler) fire(gen uint64, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live(gen) {
		return
	}
	n := s.notes[ev.NoteIndex]
	s.clearLocked()
	s.current = ev.NoteIndex
	for _, h := range s.hls {
		h.Highlight(n)
	}
	if s.audio == nil {
		return
	}
	if err := s.audio.Pluck(context.Background(), n, ev.Duration()); err != nil {
		s.logger.Debug("playback: audio unavailable, continuing silently", "index", ev.NoteIndex, "error", err)
	}
}

func (s *Scheduler) complete(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live(gen) {
		return
	}
	s.clearLocked()
	if !s.run.loop {
		s.state = Completed
		s.timers = s.timers[:0]
		return
	}
	s.timers = append(s.timers[:0], s.clock.AfterFunc(s.pause, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.live(gen) {
			return
		}
		if err := s.scheduleLocked(); err != nil {
			s.logger.Warn("playback: loop reschedule failed", "error", err)
		}
	}))
}
