package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/dantranh/pkg/audio/pcm"
	"github.com/haivivi/dantranh/pkg/clock"
	"github.com/haivivi/dantranh/pkg/export"
	"github.com/haivivi/dantranh/pkg/highlight"
	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/playback"
	"github.com/haivivi/dantranh/pkg/synth"
	"github.com/haivivi/dantranh/pkg/tab"
)

var (
	playFrom   int
	playFilter string
	playTempo  float64
	playLoop   bool
	playWAV    string
	playPCM    string
	playLive   string
)

// pollInterval is how often play checks whether the schedule finished.
const pollInterval = 20 * time.Millisecond

var playCmd = &cobra.Command{
	Use:   "play <song.yaml>",
	Short: "Play a song with synchronized highlighting",
	Long: `Play a song in real time, printing each note as it sounds.

--filter takes a jq expression over each note with the fields index, id,
pitch, class, octave, cents, duration, grace, dotted, bent, string, x, y,
lyric, phrase, patterns and tone. A note plays when the result is truthy.

--live serves the highlights over a WebSocket at ws://<addr>/ws.
--pcm streams the plucked audio as raw 16-bit mono PCM to a file.
--wav renders the whole schedule to a WAV file without waiting.

Examples:
  tranh play song.yaml --tempo 80
  tranh play song.yaml --filter '.phrase == "p2"' --loop
  tranh play song.yaml --live :8080 --pcm out.pcm
  tranh play song.yaml --wav song.wav`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(playFilter)
		if err != nil {
			return err
		}
		ws, err := loadWorkspace(args[0])
		if err != nil {
			return err
		}
		defer ws.Close()

		if playWAV != "" {
			return renderWAV(cmd, ws, filter)
		}
		return playLiveSession(cmd, ws, filter)
	},
}

// renderWAV synthesizes the schedule offline.
func renderWAV(cmd *cobra.Command, ws *workspace, filter playback.Filter) error {
	if err := ws.open(cmd.Context(), "", tab.SessionOptions{}); err != nil {
		return err
	}
	notes := ws.session.Layout.Notes
	if playFrom < 0 || playFrom >= len(notes) {
		return fmt.Errorf("%w: %d of %d", playback.ErrIndexRange, playFrom, len(notes))
	}
	events := playback.Schedule(notes, playFrom, filter, ws.tempo(playTempo))
	if len(events) == 0 {
		return playback.ErrNothingToPlay
	}
	syn, err := newSynth(ws.cfg)
	if err != nil {
		return err
	}
	samples, err := syn.RenderSchedule(events, notes)
	if err != nil {
		return err
	}
	rate := syn.Format().SampleRate()
	if err := export.WAVFile(playWAV, samples, rate, ws.song.Title); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d notes, %.1fs)\n",
		playWAV, len(events), float64(len(samples))/float64(rate))
	return nil
}

func playLiveSession(cmd *cobra.Command, ws *workspace, filter playback.Filter) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := &syncWriter{w: cmd.OutOrStdout()}
	hls := []playback.Highlighter{highlight.Func{
		OnHighlight: func(n layout.Note) {
			fmt.Fprintf(out, "%4d  %-8s string %-2d %s\n", n.Index, n.Pitch, n.String, n.Lyric)
		},
	}}

	var so tab.SessionOptions
	if playLive != "" {
		hub, shutdown, err := serveHighlights(ctx, out, ws.song.ID)
		if err != nil {
			return err
		}
		defer shutdown()
		hls = append(hls, hub)
	}
	so.Highlighters = hls

	if playPCM != "" {
		f, err := os.Create(playPCM)
		if err != nil {
			return fmt.Errorf("failed to create pcm file: %w", err)
		}
		defer f.Close()
		syn, err := newSynth(ws.cfg)
		if err != nil {
			return err
		}
		voice := synth.NewAlignedVoice(syn, pcm.ChunkWriter(f), clock.Real{})
		defer voice.Close()
		so.Audio = voice
	}

	if err := ws.open(ctx, "", so); err != nil {
		return err
	}
	// Stop before the sinks above are torn down.
	defer ws.session.Close()

	p := ws.session.Player
	if playTempo > 0 {
		if err := p.SetTempo(playTempo); err != nil {
			return err
		}
	}
	if err := startPlayback(p, len(ws.session.Layout.Notes), filter); err != nil {
		return err
	}
	slog.Debug("playing", "song", ws.song.ID, "tempo", p.Tempo(), "loop", playLoop)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return nil
		case <-ticker.C:
			switch p.State() {
			case playback.Completed, playback.Stopped, playback.Idle:
				return nil
			}
		}
	}
}

func startPlayback(p *playback.Scheduler, n int, filter playback.Filter) error {
	if filter == nil && !playLoop {
		if playFrom == 0 {
			return p.Play()
		}
		return p.PlayFrom(playFrom)
	}
	var fs []playback.Filter
	if playFrom > 0 {
		fs = append(fs, playback.IndexRange(playFrom, n))
	}
	if filter != nil {
		fs = append(fs, filter)
	}
	return p.PlayFiltered(playback.All(fs...), playLoop)
}

// serveHighlights starts a WebSocket hub on playLive.
func serveHighlights(ctx context.Context, out io.Writer, songID string) (*highlight.Hub, func(), error) {
	ln, err := net.Listen("tcp", playLive)
	if err != nil {
		return nil, nil, fmt.Errorf("listen %s: %w", playLive, err)
	}
	hub := highlight.NewHub(songID, slog.Default())
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("highlight server", "error", err)
		}
	}()
	fmt.Fprintf(out, "live highlights on ws://%s/ws\n", ln.Addr())

	return hub, func() {
		hub.Close()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}, nil
}

func init() {
	f := playCmd.Flags()
	f.IntVar(&playFrom, "from", 0, "first note index")
	f.StringVar(&playFilter, "filter", "", "jq expression selecting notes")
	f.Float64Var(&playTempo, "tempo", 0, "tempo in BPM (default from config or song)")
	f.BoolVar(&playLoop, "loop", false, "repeat until interrupted")
	f.StringVar(&playWAV, "wav", "", "render to a WAV file instead of playing")
	f.StringVar(&playPCM, "pcm", "", "stream raw PCM audio to a file")
	f.StringVar(&playLive, "live", "", "serve highlights over WebSocket on this address")
	rootCmd.AddCommand(playCmd)
}
