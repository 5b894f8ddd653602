package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/haivivi/dantranh/cmd/tranh/internal/config"
	"github.com/haivivi/dantranh/cmd/tranh/internal/songfile"
	"github.com/haivivi/dantranh/pkg/audio/pcm"
	"github.com/haivivi/dantranh/pkg/kv"
	"github.com/haivivi/dantranh/pkg/music"
	"github.com/haivivi/dantranh/pkg/playback"
	"github.com/haivivi/dantranh/pkg/synth"
	"github.com/haivivi/dantranh/pkg/tab"
)

// defaultSection names the single section a CLI invocation renders into.
const defaultSection = "main"

// workspace is one loaded song inside an engine.
type workspace struct {
	cfg     *config.Config
	song    music.Song
	engine  *tab.Engine
	session *tab.Session
	store   kv.Store
}

// openWorkspace loads the song at path and opens it in section with no
// playback sinks.
func openWorkspace(ctx context.Context, path, section string) (*workspace, error) {
	ws, err := loadWorkspace(path)
	if err != nil {
		return nil, err
	}
	if err := ws.open(ctx, section, tab.SessionOptions{}); err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

// loadWorkspace loads the song at path into a fresh engine. The
// string-configuration cache is persisted when cache_dir is set.
func loadWorkspace(path string) (*workspace, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	song, err := songfile.Load(path, cfg.Tuning)
	if err != nil {
		return nil, err
	}
	oc, err := cfg.OrnamentConfig()
	if err != nil {
		return nil, err
	}

	opts := tab.DefaultOptions()
	opts.Strings = cfg.StringOptions()
	opts.Ornaments = oc
	opts.Tempo = cfg.Tempo
	opts.Logger = slog.Default()

	ws := &workspace{cfg: cfg, song: song}
	if cfg.CacheDir != "" {
		store, err := kv.NewBadger(kv.BadgerOptions{Dir: cfg.CacheDir, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		ws.store = store
		opts.Strings.Store = store
	}
	ws.engine = tab.New(opts)
	return ws, nil
}

// open lays the song out in section.
func (ws *workspace) open(ctx context.Context, section string, so tab.SessionOptions) error {
	if section == "" {
		section = defaultSection
	}
	s, err := ws.engine.Open(ctx, ws.song, section, so)
	if err != nil {
		return err
	}
	ws.session = s
	return nil
}

// tempo resolves a tempo flag against the config and the song.
func (ws *workspace) tempo(flag float64) float64 {
	for _, t := range []float64{flag, ws.cfg.Tempo, ws.song.Tempo} {
		if t > 0 {
			return t
		}
	}
	return playback.DefaultTempo
}

func (ws *workspace) Close() {
	if ws.session != nil {
		ws.session.Close()
	}
	if ws.store != nil {
		if err := ws.store.Close(); err != nil {
			slog.Warn("close cache", "error", err)
		}
	}
}

// newSynth builds a synthesizer from the audio section of the config.
func newSynth(cfg *config.Config) (*synth.Synth, error) {
	opts := synth.DefaultOptions()
	if cfg.Audio.SampleRate > 0 {
		f, ok := pcm.FormatForRate(cfg.Audio.SampleRate)
		if !ok {
			return nil, fmt.Errorf("unsupported sample rate %d", cfg.Audio.SampleRate)
		}
		opts.Format = f
	}
	if cfg.Audio.RenderRate > 0 {
		opts.RenderRate = cfg.Audio.RenderRate
	}
	if cfg.Audio.Volume > 0 {
		opts.Volume = cfg.Audio.Volume
	}
	opts.Logger = slog.Default()
	return synth.New(opts), nil
}

// parseFilter compiles a jq filter flag; empty keeps every note.
func parseFilter(expr string) (playback.Filter, error) {
	if expr == "" {
		return nil, nil
	}
	return playback.JQ(expr)
}

// parseIndices parses a comma-separated list of note indices.
func parseIndices(s string) ([]int, error) {
	var out []int
	for _, f := range splitList(s) {
		i, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid note index %q", f)
		}
		out = append(out, i)
	}
	return out, nil
}

// parseClasses parses a comma-separated list of pitch classes.
func parseClasses(s string) ([]music.PitchClass, error) {
	var out []music.PitchClass
	for _, f := range splitList(s) {
		pc, err := music.ParsePitchClass(f)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// syncWriter serializes writes from playback callbacks and the command.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
