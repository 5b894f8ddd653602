package music

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownTuning is returned by TuningByName for unregistered names.
var ErrUnknownTuning = errors.New("music: unknown tuning")

// Tuning is the ordered pitch-class cycle the open strings repeat across
// octaves, e.g. a pentatonic set.
type Tuning struct {
	Name    string
	Classes []PitchClass
}

// Common Dan Tranh tunings.
var (
	// TuningBac is the standard northern pentatonic D E G A B.
	TuningBac = mustTuning("bac", "D", "E", "G", "A", "B")
	// TuningNam is the southern pentatonic D F G A C.
	TuningNam = mustTuning("nam", "D", "F", "G", "A", "C")
	// TuningCDFGA is the C-based pentatonic C D F G A.
	TuningCDFGA = mustTuning("cdfga", "C", "D", "F", "G", "A")
)

var tunings = map[string]Tuning{
	TuningBac.Name:   TuningBac,
	TuningNam.Name:   TuningNam,
	TuningCDFGA.Name: TuningCDFGA,
}

// TuningByName returns a registered tuning. Names are case-insensitive.
func TuningByName(name string) (Tuning, error) {
	t, ok := tunings[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Tuning{}, fmt.Errorf("%w: %q", ErrUnknownTuning, name)
	}
	return t, nil
}

// NewTuning builds a tuning from pitch class names. Duplicate classes are
// rejected since each open string in a cycle must be distinct.
func NewTuning(name string, classes ...string) (Tuning, error) {
	if len(classes) == 0 {
		return Tuning{}, fmt.Errorf("music: tuning %q has no pitch classes", name)
	}
	t := Tuning{Name: name, Classes: make([]PitchClass, 0, len(classes))}
	for _, c := range classes {
		pc, err := ParsePitchClass(c)
		if err != nil {
			return Tuning{}, fmt.Errorf("music: tuning %q: %w", name, err)
		}
		if slices.Contains(t.Classes, pc) {
			return Tuning{}, fmt.Errorf("music: tuning %q repeats %s", name, pc)
		}
		t.Classes = append(t.Classes, pc)
	}
	return t, nil
}

func mustTuning(name string, classes ...string) Tuning {
	t, err := NewTuning(name, classes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Has reports whether the pitch class belongs to the open-string cycle.
func (t Tuning) Has(pc PitchClass) bool {
	return slices.Contains(t.Classes, pc)
}

// IsOpen reports whether p can be played on an open string of this tuning.
// Detuned pitches are never open.
func (t Tuning) IsOpen(p Pitch) bool {
	return p.Cents == 0 && t.Has(p.Class)
}

// Strings enumerates every open pitch from low to high inclusive, ascending.
func (t Tuning) Strings(low, high Pitch) []Pitch {
	var out []Pitch
	for sv := low.ScaleValue(); sv <= high.ScaleValue(); sv++ {
		pc := PitchClass(mod12(sv))
		if !t.Has(pc) {
			continue
		}
		out = append(out, Pitch{Class: pc, Octave: floorDiv(sv, 12) - 1})
	}
	return out
}

// String returns "name(C D F G A)".
func (t Tuning) String() string {
	names := make([]string, len(t.Classes))
	for i, c := range t.Classes {
		names[i] = c.String()
	}
	return t.Name + "(" + strings.Join(names, " ") + ")"
}
