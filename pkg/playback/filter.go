package playback

import (
	"fmt"
	"slices"

	"github.com/itchyny/gojq"

	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
)

// Filter selects the notes of a filtered playback.
type Filter func(n layout.Note) bool

// ByPitchClass keeps notes of any of the given pitch classes, in every
// octave.
func ByPitchClass(pcs ...music.PitchClass) Filter {
	return func(n layout.Note) bool { return slices.Contains(pcs, n.Pitch.Class) }
}

// ByString keeps notes played on any of the given strings. Bent notes count
// for the string they are pressed from.
func ByString(strings ...int) Filter {
	return func(n layout.Note) bool { return slices.Contains(strings, n.String) }
}

// ByPhrase keeps notes of one phrase.
func ByPhrase(id string) Filter {
	return func(n layout.Note) bool { return n.Phrase == id }
}

// ByPattern keeps notes tagged with the pattern.
func ByPattern(id string) Filter {
	return func(n layout.Note) bool { return slices.Contains(n.Patterns, id) }
}

// ByTone keeps notes whose lyric carries the given tone.
func ByTone(tone string) Filter {
	return func(n layout.Note) bool { return n.Tone == tone }
}

// GraceOnly keeps grace notes.
func GraceOnly() Filter {
	return func(n layout.Note) bool { return n.Grace }
}

// MainOnly keeps main notes.
func MainOnly() Filter {
	return func(n layout.Note) bool { return !n.Grace }
}

// IndexRange keeps notes with from <= index < to.
func IndexRange(from, to int) Filter {
	return func(n layout.Note) bool { return n.Index >= from && n.Index < to }
}

// All keeps notes every filter keeps.
func All(fs ...Filter) Filter {
	return func(n layout.Note) bool {
		for _, f := range fs {
			if !f(n) {
				return false
			}
		}
		return true
	}
}

// Any keeps notes at least one filter keeps.
func Any(fs ...Filter) Filter {
	return func(n layout.Note) bool {
		for _, f := range fs {
			if f(n) {
				return true
			}
		}
		return false
	}
}

// Not inverts a filter.
func Not(f Filter) Filter {
	return func(n layout.Note) bool { return !f(n) }
}

// JQ compiles a jq expression into a Filter. The expression runs against
// an object with the fields index, id, pitch, class, octave, cents,
// duration, grace, dotted, bent, string, x, y, lyric, phrase, patterns and
// tone; a note is kept when the first result is truthy.
//
//	.class == "D" and .duration >= 1
//	.patterns | any(. == "ru")
func JQ(expr string) (Filter, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("playback: invalid jq filter %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("playback: compile jq filter %q: %w", expr, err)
	}
	return func(n layout.Note) bool {
		iter := code.Run(noteObject(n))
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if _, isErr := v.(error); isErr {
			return false
		}
		return v != nil && v != false
	}, nil
}

// noteObject is the jq view of a note. It is built by hand because gojq
// only accepts plain maps, slices and scalars.
func noteObject(n layout.Note) map[string]any {
	patterns := make([]any, len(n.Patterns))
	for i, p := range n.Patterns {
		patterns[i] = p
	}
	return map[string]any{
		"index":    n.Index,
		"id":       n.ID,
		"pitch":    n.Pitch.String(),
		"class":    n.Pitch.Class.String(),
		"octave":   n.Pitch.Octave,
		"cents":    n.Pitch.Cents,
		"duration": n.Quarters,
		"grace":    n.Grace,
		"dotted":   n.IsDotted(),
		"bent":     n.Bent,
		"string":   n.String,
		"x":        n.X,
		"y":        n.Y,
		"lyric":    n.Lyric,
		"phrase":   n.Phrase,
		"patterns": patterns,
		"tone":     n.Tone,
	}
}
