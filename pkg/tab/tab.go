// Package tab wires the tablature engine together: one shared string
// configurator and zoom controller, and per-section sessions that own a
// layout, its ornament overlays and a playback scheduler.
package tab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haivivi/dantranh/pkg/clock"
	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/ornament"
	"github.com/haivivi/dantranh/pkg/playback"
	"github.com/haivivi/dantranh/pkg/stringcfg"
	"github.com/haivivi/dantranh/pkg/zoom"
)

// ErrSessionOpen is returned when a section already shows the same song.
var ErrSessionOpen = errors.New("tab: session already open")

// Options configures an Engine.
type Options struct {
	Strings   stringcfg.Options
	Ornaments ornament.Config

	// Clock drives playback. Defaults to clock.Real.
	Clock clock.Clock

	// Tempo in BPM; zero uses the song's tempo, then playback.DefaultTempo.
	Tempo     float64
	LoopPause time.Duration

	// ZoomDebounce coalesces bursts of zoom changes before ornaments are
	// regenerated. Zero regenerates on every change.
	ZoomDebounce time.Duration

	Logger *slog.Logger
}

// DefaultOptions returns the default string layout with no ornaments.
func DefaultOptions() Options {
	return Options{
		Strings:   stringcfg.DefaultOptions(),
		Ornaments: ornament.DefaultConfig(),
	}
}

// Engine owns the instances shared by every open section.
type Engine struct {
	opts    Options
	logger  *slog.Logger
	strings *stringcfg.Configurator
	zoom    *zoom.Controller
	layouts *layout.Engine

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

type sessionKey struct{ section, song string }

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Strings.Logger == nil {
		opts.Strings.Logger = opts.Logger
	}
	strings := stringcfg.New(opts.Strings)
	return &Engine{
		opts:     opts,
		logger:   opts.Logger,
		strings:  strings,
		zoom:     zoom.NewController(opts.Logger),
		layouts:  layout.NewEngine(strings, opts.Logger),
		sessions: make(map[sessionKey]*Session),
	}
}

// Zoom returns the shared zoom controller.
func (e *Engine) Zoom() *zoom.Controller { return e.zoom }

// Strings returns the shared string configurator.
func (e *Engine) Strings() *stringcfg.Configurator { return e.strings }

// SessionOptions are the per-section playback sinks.
type SessionOptions struct {
	Highlighters []playback.Highlighter
	Audio        playback.AudioSink
}

// Session is one song rendered in one section.
type Session struct {
	Section   string
	Layout    *layout.Layout
	Ornaments *ornament.Manager
	Player    *playback.Scheduler

	engine *Engine
	once   sync.Once
}

// Open lays out song in section and wires its ornaments and playback.
func (e *Engine) Open(ctx context.Context, song music.Song, section string, so SessionOptions) (*Session, error) {
	key := sessionKey{section, song.ID}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.sessions[key]; exists {
		return nil, fmt.Errorf("%w: %s in %s", ErrSessionOpen, song.ID, section)
	}

	l, err := e.layouts.Layout(ctx, song)
	if err != nil {
		return nil, err
	}

	tempo := e.opts.Tempo
	if tempo <= 0 {
		tempo = song.Tempo
	}
	logger := e.logger.With("section", section)
	orn, err := ornament.NewManager(l, e.zoom, section, e.opts.Ornaments, ornament.ManagerOptions{
		Debounce: e.opts.ZoomDebounce,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	s := &Session{
		Section:   section,
		Layout:    l,
		Ornaments: orn,
		Player: playback.New(l.Notes, playback.Options{
			Clock:        e.opts.Clock,
			Highlighters: so.Highlighters,
			Audio:        so.Audio,
			Tempo:        tempo,
			LoopPause:    e.opts.LoopPause,
			Logger:       logger,
		}),
		engine: e,
	}
	e.sessions[key] = s
	logger.Info("session opened", "song", song.ID, "notes", l.Len(), "strings", l.Strings.Len())
	return s, nil
}

// Sessions returns how many sessions are open.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Close stops playback, removes the ornaments and releases the section.
func (s *Session) Close() {
	s.once.Do(func() {
		s.Player.Stop()
		s.Ornaments.Close()
		e := s.engine
		e.mu.Lock()
		delete(e.sessions, sessionKey{s.Section, s.Layout.SongID})
		e.mu.Unlock()
	})
}
