package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/haivivi/dantranh/pkg/export"
	"github.com/haivivi/dantranh/pkg/playback"
)

var (
	midiOutput  string
	midiFrom    int
	midiFilter  string
	midiTempo   float64
	midiChannel uint8
)

var midiCmd = &cobra.Command{
	Use:   "midi <song.yaml>",
	Short: "Export the playback schedule as a MIDI file",
	Long: `Export the schedule as a Standard MIDI File. Notes between semitones
are played with a pitch bend.

Examples:
  tranh midi song.yaml -o song.mid
  tranh midi song.yaml --filter '.grace | not' -o melody.mid`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if midiChannel > 15 {
			return fmt.Errorf("invalid MIDI channel %d", midiChannel)
		}
		filter, err := parseFilter(midiFilter)
		if err != nil {
			return err
		}
		ws, err := openWorkspace(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		defer ws.Close()

		notes := ws.session.Layout.Notes
		if midiFrom < 0 || midiFrom >= len(notes) {
			return fmt.Errorf("%w: %d of %d", playback.ErrIndexRange, midiFrom, len(notes))
		}
		bpm := ws.tempo(midiTempo)
		events := playback.Schedule(notes, midiFrom, filter, bpm)
		if len(events) == 0 {
			return playback.ErrNothingToPlay
		}
		opts := export.MIDIOptions{Title: ws.song.Title, Channel: midiChannel}
		return writeTo(cmd.OutOrStdout(), midiOutput, func(w io.Writer) error {
			return export.MIDI(w, events, notes, bpm, opts)
		})
	},
}

func init() {
	f := midiCmd.Flags()
	f.StringVarP(&midiOutput, "output", "o", "", "output file (default stdout)")
	f.IntVar(&midiFrom, "from", 0, "first note index")
	f.StringVar(&midiFilter, "filter", "", "jq expression selecting notes")
	f.Float64Var(&midiTempo, "tempo", 0, "tempo in BPM (default from config or song)")
	f.Uint8Var(&midiChannel, "channel", 0, "MIDI channel 0-15")
	rootCmd.AddCommand(midiCmd)
}
