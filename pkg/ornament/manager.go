package ornament

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/scene"
	"github.com/haivivi/dantranh/pkg/zoom"
)

// Ornament layer names. They hold screen-space geometry.
const (
	LayerGlissando = "glissando"
	LayerVibrato   = "vibrato"
	LayerTap       = "tap"
)

// ErrManagerExists is returned when a section already has a manager for
// the same song.
var ErrManagerExists = errors.New("ornament: song already managed in section")

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Debounce coalesces a burst of zoom changes into one redraw at the
	// latest zoom. Zero redraws on every change.
	Debounce time.Duration

	Logger *slog.Logger
}

// Manager keeps the ornament layers of one rendered section in step with
// its Config and zoom. Every change clears and regenerates the affected
// geometry; nothing is patched in place.
type Manager struct {
	layout  *layout.Layout
	zoom    *zoom.Controller
	section string
	logger  *slog.Logger

	mu      sync.Mutex
	cfg     Config
	sub     *zoom.Subscription
	closed  bool
	redraws int
}

// NewManager binds a layout's scene to a zoom section and draws cfg. A
// (section, song) pair has at most one manager; a second one fails with
// ErrManagerExists until the first is closed.
func NewManager(l *layout.Layout, zc *zoom.Controller, section string, cfg Config, opts ManagerOptions) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		layout:  l,
		zoom:    zc,
		section: section,
		logger:  logger.With("section", section, "song", l.SongID),
		cfg:     cfg,
	}
	var onZoom zoom.Listener = func(string, zoom.State) { m.zoomed() }
	if opts.Debounce > 0 {
		onZoom = zoom.Debounced(opts.Debounce, onZoom)
	}
	sub, err := zc.SubscribeOnce(section, "ornament:"+l.SongID, onZoom)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManagerExists, err)
	}
	m.sub = sub
	for _, name := range []string{LayerGlissando, LayerVibrato, LayerTap} {
		l.Scene.AddLayer(name, true)
	}
	m.Redraw()
	return m, nil
}

// Config returns the current configuration.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// SetConfig replaces the configuration and redraws everything.
func (m *Manager) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.redrawLocked()
}

// Redraw regenerates every ornament layer at the current zoom.
func (m *Manager) Redraw() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redrawLocked()
}

// zoomed redraws after a zoom change unless the manager was closed while
// the change was pending.
func (m *Manager) zoomed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.redrawLocked()
	m.logger.Debug("ornaments redrawn on zoom", "redraws", m.redraws)
}

func (m *Manager) redrawLocked() {
	m.redraws++
	z := m.zoom.Get(m.section)
	m.drawGlissandos(z)
	m.drawVibratos(z)
	m.drawTaps(z)
}

// ToggleGlissando flips the glide starting at note i and reports whether it
// is now shown. Notes that cannot start a glide are left alone.
func (m *Manager) ToggleGlissando(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := CandidateAt(m.layout, i)
	if !ok {
		m.logger.Warn("ornament: no glissando target after note", "index", i)
		return false
	}
	key := strconv.Itoa(i)
	if m.cfg.Glissando(i) {
		m.cfg = m.cfg.WithGlissando(i, false)
		m.layout.Scene.RemoveGroup(LayerGlissando, key)
		return false
	}
	m.cfg = m.cfg.WithGlissando(i, true)
	colors := DurationColors(Candidates(m.layout))
	g := buildGlissando(m.layout, m.zoom.Get(m.section), c, colors[c.Duration])
	m.layout.Scene.ReplaceGroup(LayerGlissando, key, g.Shapes())
	return true
}

// SetVibrato enables or disables vibrato for every note of a pitch class.
func (m *Manager) SetVibrato(pc music.PitchClass, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = m.cfg.WithVibrato(pc, on)
	m.drawVibratos(m.zoom.Get(m.section))
}

// SetVibratoParams changes amplitude and speed and redraws all vibrato.
func (m *Manager) SetVibratoParams(amplitudeCents, cyclesPerQuarter float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, err := m.cfg.WithVibratoParams(amplitudeCents, cyclesPerQuarter)
	if err != nil {
		return err
	}
	m.cfg = cfg
	m.drawVibratos(m.zoom.Get(m.section))
	return nil
}

// SetTapMode switches the tap position, clearing marks of the old mode.
func (m *Manager) SetTapMode(mode TapMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = m.cfg.WithTap(mode)
	m.drawTaps(m.zoom.Get(m.section))
}

// Snapshot returns the section's scene at the current zoom.
func (m *Manager) Snapshot() scene.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layout.Scene.Snapshot(m.layout.Transform(m.zoom.Get(m.section)))
}

// WriteSVG renders the section's scene at the current zoom.
func (m *Manager) WriteSVG(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return scene.WriteSVG(w, m.layout.Scene, m.layout.Transform(m.zoom.Get(m.section)))
}

// Close unsubscribes from zoom changes and removes all ornament geometry.
func (m *Manager) Close() {
	m.sub.Unsubscribe()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, name := range []string{LayerGlissando, LayerVibrato, LayerTap} {
		m.layout.Scene.Clear(name)
	}
}

func (m *Manager) drawGlissandos(z zoom.State) {
	s := m.layout.Scene
	s.Clear(LayerGlissando)
	for _, g := range Glissandos(m.layout, z, m.cfg) {
		s.ReplaceGroup(LayerGlissando, strconv.Itoa(g.From), g.Shapes())
	}
}

func (m *Manager) drawVibratos(z zoom.State) {
	s := m.layout.Scene
	s.Clear(LayerVibrato)
	groups := make(map[music.PitchClass][]scene.Shape)
	for _, sp := range Vibratos(m.layout, z, m.cfg) {
		groups[sp.Class] = append(groups[sp.Class], sp.Shape())
	}
	for _, pc := range m.cfg.VibratoClasses() {
		s.ReplaceGroup(LayerVibrato, pc.String(), groups[pc])
	}
}

func (m *Manager) drawTaps(z zoom.State) {
	s := m.layout.Scene
	s.Clear(LayerTap)
	for _, t := range Taps(m.layout, z, m.cfg) {
		s.ReplaceGroup(LayerTap, strconv.Itoa(t.NoteIndex), []scene.Shape{t.Shape()})
	}
}
