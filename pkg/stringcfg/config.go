package stringcfg

import (
	"errors"
	"fmt"

	"github.com/haivivi/dantranh/pkg/music"
)

// ErrUnresolvable is returned by Config.Find for pitches below the lowest
// open string; such notes cannot be reached by pressing a string.
var ErrUnresolvable = errors.New("stringcfg: pitch below lowest open string")

// ResolveError reports a pitch that Find could not place.
type ResolveError struct {
	Pitch  music.Pitch
	Lowest music.Pitch
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("stringcfg: %s is below the lowest open string %s", e.Pitch, e.Lowest)
}

func (e *ResolveError) Unwrap() error {
	return ErrUnresolvable
}

// Entry is one open string.
type Entry struct {
	String     int         `json:"string"`
	Pitch      music.Pitch `json:"pitch"`
	ScaleValue int         `json:"scale_value"`
	Y          float64     `json:"y"`
}

// Config is the ordered set of open strings of one song. It is immutable
// once built and shared by every song with the same pitch signature.
type Config struct {
	signature     string
	entries       []Entry
	extrapolatePx float64
}

// Signature returns the cache key the config was built for.
func (c *Config) Signature() string {
	return c.signature
}

// Len returns the number of strings.
func (c *Config) Len() int {
	return len(c.entries)
}

// Entry returns the i-th string, lowest first.
func (c *Config) Entry(i int) Entry {
	return c.entries[i]
}

// Entries returns a copy of all strings, lowest first.
func (c *Config) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ByString returns the entry with the given string number.
func (c *Config) ByString(n int) (Entry, bool) {
	if n < 1 || n > len(c.entries) {
		return Entry{}, false
	}
	return c.entries[n-1], true
}

// Nearest returns the string whose Y is closest to y. Ties go to the lower
// string.
func (c *Config) Nearest(y float64) Entry {
	best := c.entries[0]
	for _, e := range c.entries[1:] {
		if abs(e.Y-y) < abs(best.Y-y) {
			best = e
		}
	}
	return best
}

// Position is the resolved vertical placement of a pitch.
type Position struct {
	Y float64

	// Exact is set when the pitch is an open string. Otherwise the note is
	// bent from Lower.
	Exact bool

	// Lower is the matching string for exact pitches, or the nearest lower
	// open string for bent ones.
	Lower Entry

	// Upper is the nearest higher open string. Zero when HasUpper is false,
	// in which case Y was extrapolated above the highest string.
	Upper    Entry
	HasUpper bool
}

// Extrapolated reports whether the pitch lies above the highest string.
func (p Position) Extrapolated() bool {
	return !p.Exact && !p.HasUpper
}

// Find resolves the Y position of any pitch against the open strings.
//
// Open pitches return their string. Pitches between two strings interpolate
// linearly on cents between the bounding strings. Pitches above the highest
// string extrapolate at a fixed pixels-per-semitone rate, capped at one
// octave. Pitches below the lowest string return a *ResolveError.
func (c *Config) Find(p music.Pitch) (Position, error) {
	cents := p.TotalCents()
	lo, hi := -1, -1
	for i, e := range c.entries {
		ec := e.Pitch.TotalCents()
		switch {
		case ec == cents:
			return Position{Y: e.Y, Exact: true, Lower: e}, nil
		case ec < cents:
			lo = i
		case hi < 0:
			hi = i
		}
	}
	if lo < 0 {
		return Position{}, &ResolveError{Pitch: p, Lowest: c.entries[0].Pitch}
	}

	lower := c.entries[lo]
	lc := float64(lower.Pitch.TotalCents())
	if hi < 0 {
		semis := min((float64(cents)-lc)/100, 12)
		return Position{Y: lower.Y + semis*c.extrapolatePx, Lower: lower}, nil
	}

	upper := c.entries[hi]
	ratio := (float64(cents) - lc) / (float64(upper.Pitch.TotalCents()) - lc)
	return Position{
		Y:        lower.Y + ratio*(upper.Y-lower.Y),
		Lower:    lower,
		Upper:    upper,
		HasUpper: true,
	}, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
