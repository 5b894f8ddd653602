package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/dantranh/pkg/cli"
	"github.com/haivivi/dantranh/pkg/stringcfg"
)

var stringsFormat string

// stringsResult is the machine-readable form of 'tranh strings'.
type stringsResult struct {
	Signature string            `json:"signature" yaml:"signature"`
	Strings   []stringcfg.Entry `json:"strings" yaml:"strings"`
	Cache     stringcfg.Stats   `json:"cache" yaml:"cache"`

	title  string
	played map[int]bool
}

// Table lists one row per string; strings played open are marked.
func (r stringsResult) Table() cli.Table {
	t := cli.Table{
		Styles:  cli.NewStyles(cli.DefaultTheme),
		Title:   r.title,
		Headers: []string{"STRING", "PITCH", "SCALE", "Y"},
		Marked:  func(row int) bool { return r.played[r.Strings[row].String] },
	}
	for _, e := range r.Strings {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(e.String),
			e.Pitch.String(),
			strconv.Itoa(e.ScaleValue),
			strconv.FormatFloat(e.Y, 'f', 1, 64),
		})
	}
	return t
}

var stringsCmd = &cobra.Command{
	Use:   "strings <song.yaml>",
	Short: "Show the open strings a song is laid out on",
	Long: `Show the string configuration built for a song: one row per open
string with its pitch and vertical position. Strings the song plays on
directly are marked.

With cache_dir set in the config, configurations are reused across runs
and the cache line reports a store hit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		defer ws.Close()

		l := ws.session.Layout
		res := stringsResult{
			Signature: l.Strings.Signature(),
			Strings:   l.Strings.Entries(),
			Cache:     ws.engine.Strings().Stats(),
			title:     fmt.Sprintf("%s  %s", ws.song.ID, ws.song.Tuning),
			played:    make(map[int]bool),
		}
		for _, n := range l.Notes {
			if !n.Bent && !n.Unplaced {
				res.played[n.String] = true
			}
		}
		out := cmd.OutOrStdout()
		if err := cli.Output(res, cli.OutputOptions{Format: cli.OutputFormat(stringsFormat), Writer: out}); err != nil {
			return err
		}
		if stringsFormat == string(cli.FormatTable) {
			c := res.Cache
			fmt.Fprintf(out, "cache: %d hits, %d store hits, %d misses\n", c.Hits, c.StoreHits, c.Misses)
		}
		return nil
	},
}

func init() {
	stringsCmd.Flags().StringVar(&stringsFormat, "format", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(stringsCmd)
}
