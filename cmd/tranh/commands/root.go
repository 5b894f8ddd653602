package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/dantranh/cmd/tranh/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Global configuration (loaded on first use)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tranh",
	Short: "Dan Tranh tablature renderer and player",
	Long: `tranh - lays out songs for the 16-string Dan Tranh zither.

Songs are YAML files with one entry per note. tranh places every note on
its string, draws glissando, vibrato and tap ornaments, and plays the song
back with synchronized highlighting.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/dantranh/
  Linux:   ~/.config/dantranh/
  Windows: %AppData%/dantranh/

Examples:
  # Render a song with vibrato on every D and A
  tranh render song.yaml --vibrato D,A -o song.svg

  # List the schedule of the grace notes only
  tranh schedule song.yaml --filter '.grace'

  # Play with highlighting and stream it to browsers
  tranh play song.yaml --live :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the OS config directory)")
}

// GetConfig returns the global configuration, loading it on first use so
// commands like 'tranh version' work without a readable config.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
