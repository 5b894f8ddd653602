package export

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/playback"
)

// TicksPerQuarter is the SMF resolution.
const TicksPerQuarter = 960

// bendRange is the pitch-bend sensitivity assumed by players, in cents.
const bendRange = 200

// MIDIOptions configures MIDI.
type MIDIOptions struct {
	Title    string
	Channel  uint8 // 0-15
	Velocity uint8 // zero means 100
}

// MIDI writes a schedule as a two-track Standard MIDI File: a tempo track
// and one note track. Detuned pitches get a pitch bend around their note.
func MIDI(w io.Writer, events []playback.Event, notes []layout.Note, bpm float64, opts MIDIOptions) error {
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		return fmt.Errorf("export: %w: %g", playback.ErrInvalidTempo, bpm)
	}
	if opts.Velocity == 0 {
		opts.Velocity = 100
	}
	ch := opts.Channel & 0x0f
	quarter := music.QuarterMillis(bpm)
	ticks := func(ms float64) uint32 {
		return uint32(math.Round(ms / quarter * TicksPerQuarter))
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tempo smf.Track
	if opts.Title != "" {
		tempo.Add(0, smf.MetaTrackSequenceName(opts.Title))
	}
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(bpm))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return fmt.Errorf("export: add tempo track: %w", err)
	}

	var track smf.Track
	var last uint32
	at := func(tick uint32) uint32 {
		delta := tick - min(last, tick)
		last = max(last, tick)
		return delta
	}
	for _, ev := range events {
		if ev.NoteIndex < 0 || ev.NoteIndex >= len(notes) {
			return fmt.Errorf("export: event for note %d of %d", ev.NoteIndex, len(notes))
		}
		p := notes[ev.NoteIndex].Pitch
		key := uint8(min(max(p.ScaleValue(), 0), 127))
		on, off := ticks(ev.FireAtMs), ticks(ev.EndMs())
		if p.Cents != 0 {
			track.Add(at(on), midi.Pitchbend(ch, bend(p.Cents)))
		}
		track.Add(at(on), midi.NoteOn(ch, key, opts.Velocity))
		track.Add(at(off), midi.NoteOff(ch, key))
		if p.Cents != 0 {
			track.Add(at(off), midi.Pitchbend(ch, 0))
		}
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return fmt.Errorf("export: add note track: %w", err)
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("export: write midi: %w", err)
	}
	return nil
}

func bend(cents int) int16 {
	v := float64(cents) / bendRange * 8191
	return int16(math.Round(min(max(v, -8192), 8191)))
}
