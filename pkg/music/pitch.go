// Package music defines the pitch, tuning and note model shared by the
// tablature layout, ornament and playback packages.
//
// Pitches are spelled as a letter, optional accidentals, an octave and an
// optional cents offset:
//
//	D4      // open D above middle C
//	F#3     // sharp
//	Bb4-25  // flat, 25 cents low
//	A4+50   // quarter tone high
//
// Every pitch converts to a monotonic integer scale value (MIDI numbering,
// C4 = 60) and to total cents (1 semitone = 100 cents) for sub-semitone
// vertical placement.
package music

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPitch is returned when a pitch or pitch class cannot be parsed.
var ErrInvalidPitch = errors.New("music: invalid pitch")

// PitchClass is a note name without octave, stored as a semitone 0..11.
// Enharmonic spellings (C#, Db) are the same PitchClass.
type PitchClass int

var classNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// ParsePitchClass parses a pitch class name such as "F", "F#" or "Bb".
func ParsePitchClass(s string) (PitchClass, error) {
	semis, rest, err := parseClass(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if rest != "" {
		return 0, fmt.Errorf("%w: trailing %q in pitch class %q", ErrInvalidPitch, rest, s)
	}
	return PitchClass(mod12(semis)), nil
}

// MustPitchClass is like ParsePitchClass but panics on error. It is meant for
// tables and tests.
func MustPitchClass(s string) PitchClass {
	pc, err := ParsePitchClass(s)
	if err != nil {
		panic(err)
	}
	return pc
}

// String returns the sharp spelling of the pitch class.
func (pc PitchClass) String() string {
	return classNames[mod12(int(pc))]
}

// MarshalText implements encoding.TextMarshaler.
func (pc PitchClass) MarshalText() ([]byte, error) {
	return []byte(pc.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pc *PitchClass) UnmarshalText(b []byte) error {
	v, err := ParsePitchClass(string(b))
	if err != nil {
		return err
	}
	*pc = v
	return nil
}

// parseClass reads the letter and accidentals at the start of s and returns
// the unnormalized semitone offset (B# is 12, Cb is -1) plus the remainder.
func parseClass(s string) (int, string, error) {
	if s == "" {
		return 0, "", fmt.Errorf("%w: empty", ErrInvalidPitch)
	}
	letter := s[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	semis, ok := letterSemitones[letter]
	if !ok {
		return 0, "", fmt.Errorf("%w: unknown letter in %q", ErrInvalidPitch, s)
	}
	i := 1
	for i < len(s) {
		switch s[i] {
		case '#':
			semis++
		case 'b':
			semis--
		default:
			return semis, s[i:], nil
		}
		i++
	}
	return semis, "", nil
}

// Pitch is a pitch class in a given octave, optionally detuned in cents.
type Pitch struct {
	Class  PitchClass
	Octave int
	Cents  int
}

// ParsePitch parses a pitch such as "D4", "F#3", "Bb4-25" or "A4+50".
func ParsePitch(s string) (Pitch, error) {
	s = strings.TrimSpace(s)
	semis, rest, err := parseClass(s)
	if err != nil {
		return Pitch{}, err
	}

	// Octave digits run until an optional +/- cents suffix.
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return Pitch{}, fmt.Errorf("%w: missing octave in %q", ErrInvalidPitch, s)
	}
	octave, err := strconv.Atoi(rest[:end])
	if err != nil {
		return Pitch{}, fmt.Errorf("%w: octave in %q: %v", ErrInvalidPitch, s, err)
	}

	cents := 0
	if suffix := rest[end:]; suffix != "" {
		if suffix[0] != '+' && suffix[0] != '-' {
			return Pitch{}, fmt.Errorf("%w: trailing %q in %q", ErrInvalidPitch, suffix, s)
		}
		cents, err = strconv.Atoi(suffix)
		if err != nil {
			return Pitch{}, fmt.Errorf("%w: cents in %q: %v", ErrInvalidPitch, s, err)
		}
		if cents <= -100 || cents >= 100 {
			return Pitch{}, fmt.Errorf("%w: cents offset %d out of range in %q", ErrInvalidPitch, cents, s)
		}
	}

	octave += floorDiv(semis, 12)
	return Pitch{Class: PitchClass(mod12(semis)), Octave: octave, Cents: cents}, nil
}

// MustPitch is like ParsePitch but panics on error.
func MustPitch(s string) Pitch {
	p, err := ParsePitch(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ScaleValue returns the MIDI-like semitone number of the pitch, ignoring the
// cents offset. C4 is 60.
func (p Pitch) ScaleValue() int {
	return (p.Octave+1)*12 + int(p.Class)
}

// TotalCents returns the pitch height in cents, including the cents offset.
func (p Pitch) TotalCents() int {
	return p.ScaleValue()*100 + p.Cents
}

// Frequency returns the equal-tempered frequency in Hz (A4 = 440).
func (p Pitch) Frequency() float64 {
	return 440 * math.Pow(2, (float64(p.TotalCents())/100-69)/12)
}

// Less reports whether p sounds lower than q.
func (p Pitch) Less(q Pitch) bool {
	return p.TotalCents() < q.TotalCents()
}

// String returns the canonical spelling, e.g. "F#3" or "A4+50".
func (p Pitch) String() string {
	s := p.Class.String() + strconv.Itoa(p.Octave)
	switch {
	case p.Cents > 0:
		s += "+" + strconv.Itoa(p.Cents)
	case p.Cents < 0:
		s += strconv.Itoa(p.Cents)
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (p Pitch) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pitch) UnmarshalText(b []byte) error {
	v, err := ParsePitch(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func mod12(n int) int {
	n %= 12
	if n < 0 {
		n += 12
	}
	return n
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
