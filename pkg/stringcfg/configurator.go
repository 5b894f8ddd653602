// Package stringcfg assigns the open pitches of a song to zither strings and
// vertical positions, and resolves every other pitch to a bent position
// between (or beyond) those strings.
//
// Configurations are cached by pitch signature: two songs using the same set
// of open pitches share one immutable *Config. The in-process cache is a
// bounded LRU; an optional kv.Store keeps built configurations across runs.
package stringcfg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/haivivi/dantranh/pkg/kv"
	"github.com/haivivi/dantranh/pkg/music"
)

// ErrNoOpenPitches is returned when none of the song's pitches belong to the
// tuning, so no string can be drawn.
var ErrNoOpenPitches = errors.New("stringcfg: no open-string pitches")

// DefaultCacheSize bounds the in-process cache.
const DefaultCacheSize = 1024

// Options configures string spacing and caching.
type Options struct {
	TopY                     float64 // Y of the lowest string
	PxPerSemitone            float64 // spacing per semitone of interval
	MinSpacing               float64 // lower clamp of a single gap
	MaxSpacing               float64 // upper clamp of a single gap
	OctaveBonus              float64 // added to gaps of an octave or more
	ExtrapolatePxPerSemitone float64 // bending above the highest string

	// FillGaps draws every tuning pitch between the lowest and highest used
	// open pitch, not only those the song plays.
	FillGaps bool

	// CacheSize bounds the LRU. Zero means DefaultCacheSize.
	CacheSize int

	// Store persists built configs. Optional.
	Store kv.Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the standard tablature spacing.
func DefaultOptions() Options {
	return Options{
		TopY:                     110,
		PxPerSemitone:            15,
		MinSpacing:               30,
		MaxSpacing:               120,
		OctaveBonus:              20,
		ExtrapolatePxPerSemitone: 15,
		CacheSize:                DefaultCacheSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopY == 0 {
		o.TopY = d.TopY
	}
	if o.PxPerSemitone <= 0 {
		o.PxPerSemitone = d.PxPerSemitone
	}
	if o.MinSpacing <= 0 {
		o.MinSpacing = d.MinSpacing
	}
	if o.MaxSpacing < o.MinSpacing {
		o.MaxSpacing = max(d.MaxSpacing, o.MinSpacing)
	}
	if o.OctaveBonus < 0 {
		o.OctaveBonus = 0
	}
	if o.ExtrapolatePxPerSemitone <= 0 {
		o.ExtrapolatePxPerSemitone = d.ExtrapolatePxPerSemitone
	}
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Stats counts cache outcomes.
type Stats struct {
	Hits      int `json:"hits"`
	StoreHits int `json:"store_hits"`
	Misses    int `json:"misses"`
	Evictions int `json:"evictions"`
	Size      int `json:"size"`
}

// Configurator builds and caches string configurations. It is safe for
// concurrent use.
type Configurator struct {
	opts Options

	mu    sync.Mutex
	cache *lru[string, *Config]
	stats Stats
}

// New creates a Configurator. Zero option fields take their defaults.
func New(opts Options) *Configurator {
	opts = opts.withDefaults()
	return &Configurator{
		opts:  opts,
		cache: newLRU[string, *Config](opts.CacheSize),
	}
}

// Signature returns the cache key for a pitch set: distinct canonical
// names sorted by height and joined with commas.
func Signature(pitches []music.Pitch) string {
	sorted := sortedDistinct(pitches)
	names := make([]string, len(sorted))
	for i, p := range sorted {
		names[i] = p.String()
	}
	return strings.Join(names, ",")
}

// Configure returns the string configuration for the open pitches among
// pitches. Input order and duplicates do not matter.
func (c *Configurator) Configure(ctx context.Context, pitches []music.Pitch, tuning music.Tuning) (*Config, error) {
	open := c.openPitches(pitches, tuning)
	if len(open) == 0 {
		return nil, fmt.Errorf("%w in tuning %s", ErrNoOpenPitches, tuning)
	}
	sig := Signature(open)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg, ok := c.cache.get(sig); ok {
		c.stats.Hits++
		return cfg, nil
	}

	cfg, ok := c.load(ctx, sig)
	if ok {
		c.stats.StoreHits++
	} else {
		c.stats.Misses++
		cfg = c.build(sig, open)
		c.save(ctx, cfg)
	}
	if c.cache.add(sig, cfg) {
		c.stats.Evictions++
		c.opts.Logger.Debug("stringcfg: evicted least recently used config", "size", c.cache.len())
	}
	return cfg, nil
}

// Stats returns a snapshot of the cache counters.
func (c *Configurator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.cache.len()
	return s
}

// openPitches returns the sorted distinct open pitches, filled across the
// used range when FillGaps is set.
func (c *Configurator) openPitches(pitches []music.Pitch, tuning music.Tuning) []music.Pitch {
	var open []music.Pitch
	for _, p := range pitches {
		if tuning.IsOpen(p) {
			open = append(open, p)
		}
	}
	open = sortedDistinct(open)
	if c.opts.FillGaps && len(open) > 1 {
		open = tuning.Strings(open[0], open[len(open)-1])
	}
	return open
}

// build lays out strings top to bottom. Each gap is proportional to the
// interval, clamped, with a flat bonus once the interval reaches an octave.
func (c *Configurator) build(sig string, open []music.Pitch) *Config {
	o := c.opts
	entries := make([]Entry, len(open))
	y := o.TopY
	for i, p := range open {
		if i > 0 {
			semis := float64(p.ScaleValue() - open[i-1].ScaleValue())
			gap := min(max(semis*o.PxPerSemitone, o.MinSpacing), o.MaxSpacing)
			if semis >= 12 {
				gap += o.OctaveBonus
			}
			y += gap
		}
		entries[i] = Entry{String: i + 1, Pitch: p, ScaleValue: p.ScaleValue(), Y: y}
	}
	return &Config{signature: sig, entries: entries, extrapolatePx: o.ExtrapolatePxPerSemitone}
}

func sortedDistinct(pitches []music.Pitch) []music.Pitch {
	out := slices.Clone(pitches)
	slices.SortFunc(out, func(a, b music.Pitch) int {
		return a.TotalCents() - b.TotalCents()
	})
	return slices.CompactFunc(out, func(a, b music.Pitch) bool {
		return a.TotalCents() == b.TotalCents()
	})
}
