package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/haivivi/dantranh/cmd/tranh/internal/build"
	"github.com/haivivi/dantranh/pkg/cli"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionFormat != "" {
			return cli.Output(build.Get(), cli.OutputOptions{
				Format: cli.OutputFormat(versionFormat),
				Writer: out,
			})
		}
		fmt.Fprintln(out, build.String())
		if IsVerbose() {
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
			if cfg, err := GetConfig(); err != nil {
				fmt.Fprintf(out, "  config: (unavailable: %v)\n", err)
			} else if cfg.Path != "" {
				fmt.Fprintf(out, "  config: %s\n", cfg.Path)
			} else {
				fmt.Fprintln(out, "  config: (defaults)")
			}
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "", "output format: json or yaml")
	rootCmd.AddCommand(versionCmd)
}
