package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/dantranh/pkg/cli"
	"github.com/haivivi/dantranh/pkg/playback"
)

var (
	scheduleFrom   int
	scheduleFilter string
	scheduleTempo  float64
	scheduleFormat string
)

// scheduleRow is one event joined with its note.
type scheduleRow struct {
	Index      int     `json:"index" yaml:"index"`
	Pitch      string  `json:"pitch" yaml:"pitch"`
	String     int     `json:"string" yaml:"string"`
	Grace      bool    `json:"grace,omitempty" yaml:"grace,omitempty"`
	FireAtMs   float64 `json:"fire_at_ms" yaml:"fire_at_ms"`
	DurationMs float64 `json:"duration_ms" yaml:"duration_ms"`
	Lyric      string  `json:"lyric,omitempty" yaml:"lyric,omitempty"`
}

// scheduleTable is the table form of a schedule. Grace notes are marked.
type scheduleTable struct {
	title string
	rows  []scheduleRow
}

func (s scheduleTable) Table() cli.Table {
	t := cli.Table{
		Styles:  cli.NewStyles(cli.DefaultTheme),
		Title:   s.title,
		Headers: []string{"#", "PITCH", "STRING", "AT (ms)", "LENGTH (ms)", "LYRIC"},
		Marked:  func(row int) bool { return s.rows[row].Grace },
	}
	for _, r := range s.rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Index),
			r.Pitch,
			strconv.Itoa(r.String),
			strconv.FormatFloat(r.FireAtMs, 'f', 0, 64),
			strconv.FormatFloat(r.DurationMs, 'f', 0, 64),
			r.Lyric,
		})
	}
	return t
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <song.yaml>",
	Short: "Print the playback schedule",
	Long: `Print when every note fires and how long it sounds.

Grace notes are marked in the table. --filter takes a jq expression over
each note (see 'tranh play --help').

Examples:
  tranh schedule song.yaml --tempo 90
  tranh schedule song.yaml --from 8 --format json
  tranh schedule song.yaml --filter '.class == "D"'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(scheduleFilter)
		if err != nil {
			return err
		}
		ws, err := openWorkspace(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		defer ws.Close()

		notes := ws.session.Layout.Notes
		if scheduleFrom < 0 || scheduleFrom >= len(notes) {
			return fmt.Errorf("%w: %d of %d", playback.ErrIndexRange, scheduleFrom, len(notes))
		}
		bpm := ws.tempo(scheduleTempo)
		events := playback.Schedule(notes, scheduleFrom, filter, bpm)
		if len(events) == 0 {
			return playback.ErrNothingToPlay
		}

		rows := make([]scheduleRow, len(events))
		for i, ev := range events {
			n := notes[ev.NoteIndex]
			rows[i] = scheduleRow{
				Index:      n.Index,
				Pitch:      n.Pitch.String(),
				String:     n.String,
				Grace:      n.Grace,
				FireAtMs:   ev.FireAtMs,
				DurationMs: ev.DurationMs,
				Lyric:      n.Lyric,
			}
		}

		var result any = rows
		if scheduleFormat == string(cli.FormatTable) {
			title := fmt.Sprintf("%s  %g bpm  %.0f ms", ws.song.ID, bpm, playback.Total(events))
			result = scheduleTable{title: title, rows: rows}
		}
		return cli.Output(result, cli.OutputOptions{
			Format: cli.OutputFormat(scheduleFormat),
			Writer: cmd.OutOrStdout(),
		})
	},
}

func init() {
	f := scheduleCmd.Flags()
	f.IntVar(&scheduleFrom, "from", 0, "first note index")
	f.StringVar(&scheduleFilter, "filter", "", "jq expression selecting notes")
	f.Float64Var(&scheduleTempo, "tempo", 0, "tempo in BPM (default from config or song)")
	f.StringVar(&scheduleFormat, "format", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(scheduleCmd)
}
