// Package main is the entry point for the tranh CLI.
//
// Usage:
//
//	tranh [flags] <command> [args]
//
// Commands:
//
//	render    - Render a song as SVG tablature or a scene snapshot
//	schedule  - Print the playback schedule
//	play      - Play with highlighting, live WebSocket output and audio
//	midi      - Export the schedule as a MIDI file
//	strings   - Show the string configuration of a song
//	version   - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/dantranh/cmd/tranh/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
