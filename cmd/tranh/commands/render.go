package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/dantranh/pkg/cli"
	"github.com/haivivi/dantranh/pkg/ornament"
	"github.com/haivivi/dantranh/pkg/zoom"
)

var (
	renderFormat    string
	renderOutput    string
	renderSection   string
	renderZoomX     float64
	renderZoomY     float64
	renderVibrato   string
	renderTap       string
	renderGliss     string
	renderAmplitude float64
	renderCycles    float64
)

var renderCmd = &cobra.Command{
	Use:   "render <song.yaml>",
	Short: "Render a song as tablature",
	Long: `Render a song with its strings, notes and ornaments.

The default output is SVG. json and yaml print the scene snapshot: every
layer with its shapes in screen coordinates.

Examples:
  tranh render song.yaml -o song.svg
  tranh render song.yaml --glissando all --vibrato D,A --tap third
  tranh render song.yaml --zoom-x 1.5 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context(), args[0], renderSection)
		if err != nil {
			return err
		}
		defer ws.Close()

		if err := applyRenderFlags(cmd, ws); err != nil {
			return err
		}

		m := ws.session.Ornaments
		if renderFormat == "svg" {
			return writeTo(cmd.OutOrStdout(), renderOutput, m.WriteSVG)
		}
		return cli.Output(m.Snapshot(), cli.OutputOptions{
			Format: cli.OutputFormat(renderFormat),
			File:   renderOutput,
			Writer: writerUnlessFile(cmd.OutOrStdout(), renderOutput),
		})
	},
}

func applyRenderFlags(cmd *cobra.Command, ws *workspace) error {
	section := ws.session.Section
	if cmd.Flags().Changed("zoom-x") || cmd.Flags().Changed("zoom-y") {
		if err := ws.engine.Zoom().Set(section, zoom.State{ScaleX: renderZoomX, ScaleY: renderZoomY}); err != nil {
			return err
		}
	}

	m := ws.session.Ornaments
	if renderTap != "" {
		mode, err := ornament.ParseTapMode(renderTap)
		if err != nil {
			return err
		}
		m.SetTapMode(mode)
	}
	if cmd.Flags().Changed("amplitude") || cmd.Flags().Changed("cycles") {
		cfg := m.Config()
		amp, cyc := renderAmplitude, renderCycles
		if !cmd.Flags().Changed("amplitude") {
			amp = cfg.VibratoAmplitudeCents
		}
		if !cmd.Flags().Changed("cycles") {
			cyc = cfg.VibratoCyclesPerQuarter
		}
		if err := m.SetVibratoParams(amp, cyc); err != nil {
			return err
		}
	}
	classes, err := parseClasses(renderVibrato)
	if err != nil {
		return err
	}
	for _, pc := range classes {
		m.SetVibrato(pc, true)
	}

	switch renderGliss {
	case "":
	case "all":
		for _, c := range ornament.Candidates(ws.session.Layout) {
			if !m.Config().Glissando(c.From) {
				m.ToggleGlissando(c.From)
			}
		}
	default:
		idx, err := parseIndices(renderGliss)
		if err != nil {
			return err
		}
		for _, i := range idx {
			if _, ok := ornament.CandidateAt(ws.session.Layout, i); !ok {
				return fmt.Errorf("note %d cannot start a glissando", i)
			}
			if !m.Config().Glissando(i) {
				m.ToggleGlissando(i)
			}
		}
	}
	return nil
}

// writeTo runs write against the file at path, or against out when path
// is empty.
func writeTo(out io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(out)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writerUnlessFile(out io.Writer, path string) io.Writer {
	if path != "" {
		return nil
	}
	return out
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFormat, "format", "svg", "output format: svg, json or yaml")
	f.StringVarP(&renderOutput, "output", "o", "", "output file (default stdout)")
	f.StringVar(&renderSection, "section", defaultSection, "section name")
	f.Float64Var(&renderZoomX, "zoom-x", 1, "horizontal zoom")
	f.Float64Var(&renderZoomY, "zoom-y", 1, "vertical zoom")
	f.StringVar(&renderVibrato, "vibrato", "", "pitch classes with vibrato, comma separated (e.g. D,A)")
	f.StringVar(&renderTap, "tap", "", "tap mode: none, start, third or two-thirds")
	f.StringVar(&renderGliss, "glissando", "", "glissandos: all, or note indices comma separated")
	f.Float64Var(&renderAmplitude, "amplitude", ornament.DefaultVibratoAmplitudeCents, "vibrato amplitude in cents")
	f.Float64Var(&renderCycles, "cycles", ornament.DefaultVibratoCyclesPerQuarter, "vibrato cycles per quarter note")
	rootCmd.AddCommand(renderCmd)
}
