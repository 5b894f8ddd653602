// Package ornament computes the zoom-dependent overlays of a laid-out song:
// glissando chevrons, vibrato waveforms and tap marks.
//
// Geometry is produced by pure functions of (layout, zoom state, Config) in
// screen coordinates. A Manager binds them to a scene and a zoom controller
// and regenerates the affected layers on every change.
package ornament

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/haivivi/dantranh/pkg/music"
)

// ErrInvalidParams is returned for non-positive vibrato parameters.
var ErrInvalidParams = errors.New("ornament: vibrato amplitude and speed must be positive")

// TapMode selects where in a dotted note the tap mark is drawn. Modes are
// mutually exclusive.
type TapMode int

const (
	TapNone TapMode = iota
	TapStart
	TapThird
	TapTwoThirds
)

// Fraction returns the position within the note, from 0 to 1.
func (m TapMode) Fraction() float64 {
	switch m {
	case TapThird:
		return 1.0 / 3
	case TapTwoThirds:
		return 2.0 / 3
	}
	return 0
}

func (m TapMode) String() string {
	switch m {
	case TapStart:
		return "start"
	case TapThird:
		return "third"
	case TapTwoThirds:
		return "two-thirds"
	}
	return "none"
}

// ParseTapMode parses the String form of a mode.
func ParseTapMode(s string) (TapMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return TapNone, nil
	case "start":
		return TapStart, nil
	case "third", "1/3":
		return TapThird, nil
	case "two-thirds", "2/3":
		return TapTwoThirds, nil
	}
	return TapNone, fmt.Errorf("ornament: unknown tap mode %q", s)
}

// Default vibrato parameters.
const (
	DefaultVibratoAmplitudeCents   = 40.0
	DefaultVibratoCyclesPerQuarter = 3.0
)

// Config selects which ornaments are drawn. It is an immutable value: the
// With methods return modified copies and never touch the receiver.
type Config struct {
	glissando map[int]bool
	vibrato   map[music.PitchClass]bool

	VibratoAmplitudeCents   float64
	VibratoCyclesPerQuarter float64
	Tap                     TapMode
}

// DefaultConfig has no ornaments enabled and default vibrato parameters.
func DefaultConfig() Config {
	return Config{
		VibratoAmplitudeCents:   DefaultVibratoAmplitudeCents,
		VibratoCyclesPerQuarter: DefaultVibratoCyclesPerQuarter,
	}
}

// Glissando reports whether a glissando starts at note i.
func (c Config) Glissando(i int) bool { return c.glissando[i] }

// GlissandoNotes returns the enabled glissando note indices, ascending.
func (c Config) GlissandoNotes() []int {
	return slices.Sorted(maps.Keys(c.glissando))
}

// WithGlissando enables or disables the glissando starting at note i.
func (c Config) WithGlissando(i int, on bool) Config {
	c.glissando = maps.Clone(c.glissando)
	if on {
		if c.glissando == nil {
			c.glissando = make(map[int]bool)
		}
		c.glissando[i] = true
	} else {
		delete(c.glissando, i)
	}
	return c
}

// Vibrato reports whether vibrato is enabled for every octave of pc.
func (c Config) Vibrato(pc music.PitchClass) bool { return c.vibrato[pc] }

// VibratoClasses returns the enabled pitch classes, ascending.
func (c Config) VibratoClasses() []music.PitchClass {
	return slices.Sorted(maps.Keys(c.vibrato))
}

// WithVibrato enables or disables vibrato for a pitch class.
func (c Config) WithVibrato(pc music.PitchClass, on bool) Config {
	c.vibrato = maps.Clone(c.vibrato)
	if on {
		if c.vibrato == nil {
			c.vibrato = make(map[music.PitchClass]bool)
		}
		c.vibrato[pc] = true
	} else {
		delete(c.vibrato, pc)
	}
	return c
}

// WithVibratoParams sets amplitude (cents, peak to trough) and speed
// (cycles per quarter note).
func (c Config) WithVibratoParams(amplitudeCents, cyclesPerQuarter float64) (Config, error) {
	if !(amplitudeCents > 0) || !(cyclesPerQuarter > 0) {
		return c, fmt.Errorf("%w: amplitude %g, cycles %g", ErrInvalidParams, amplitudeCents, cyclesPerQuarter)
	}
	c.VibratoAmplitudeCents = amplitudeCents
	c.VibratoCyclesPerQuarter = cyclesPerQuarter
	return c, nil
}

// WithTap selects the tap mode.
func (c Config) WithTap(m TapMode) Config {
	c.Tap = m
	return c
}

func (c Config) amplitude() float64 {
	if c.VibratoAmplitudeCents > 0 {
		return c.VibratoAmplitudeCents
	}
	return DefaultVibratoAmplitudeCents
}

func (c Config) cycles() float64 {
	if c.VibratoCyclesPerQuarter > 0 {
		return c.VibratoCyclesPerQuarter
	}
	return DefaultVibratoCyclesPerQuarter
}
