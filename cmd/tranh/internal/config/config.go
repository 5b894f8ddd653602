// Package config loads the tranh CLI configuration.
//
// The file lives under os.UserConfigDir():
//
//	~/Library/Application Support/dantranh/config.yaml   (macOS)
//	~/.config/dantranh/config.yaml                       (Linux)
//	%AppData%/dantranh/config.yaml                       (Windows)
//
// Example:
//
//	tuning: bac
//	tempo: 96
//	strings:
//	  fill_gaps: true
//	ornaments:
//	  tap: third
//	audio:
//	  sample_rate: 44100
//	cache_dir: ~/.cache/dantranh
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/dantranh/pkg/cli"
	"github.com/haivivi/dantranh/pkg/ornament"
	"github.com/haivivi/dantranh/pkg/stringcfg"
)

// AppName is the directory name under os.UserConfigDir().
const AppName = "dantranh"

// Config is the CLI configuration. Zero fields fall back to library
// defaults.
type Config struct {
	// Path the config was loaded from; empty when none existed.
	Path string `yaml:"-"`

	Tuning    string    `yaml:"tuning,omitempty"`
	Tempo     float64   `yaml:"tempo,omitempty"`
	Strings   Strings   `yaml:"strings,omitempty"`
	Ornaments Ornaments `yaml:"ornaments,omitempty"`
	Audio     Audio     `yaml:"audio,omitempty"`

	// CacheDir holds the persistent string-configuration cache. Empty
	// keeps the cache in memory only.
	CacheDir string `yaml:"cache_dir,omitempty"`
}

// Strings mirrors stringcfg.Options.
type Strings struct {
	TopY          float64 `yaml:"top_y,omitempty"`
	PxPerSemitone float64 `yaml:"px_per_semitone,omitempty"`
	MinSpacing    float64 `yaml:"min_spacing,omitempty"`
	MaxSpacing    float64 `yaml:"max_spacing,omitempty"`
	OctaveBonus   float64 `yaml:"octave_bonus,omitempty"`
	FillGaps      bool    `yaml:"fill_gaps,omitempty"`
	CacheSize     int     `yaml:"cache_size,omitempty"`
}

// Ornaments holds the default ornament parameters.
type Ornaments struct {
	VibratoAmplitudeCents   float64 `yaml:"vibrato_amplitude_cents,omitempty"`
	VibratoCyclesPerQuarter float64 `yaml:"vibrato_cycles_per_quarter,omitempty"`
	Tap                     string  `yaml:"tap,omitempty"`
}

// Audio configures synthesis.
type Audio struct {
	SampleRate int     `yaml:"sample_rate,omitempty"`
	RenderRate int     `yaml:"render_rate,omitempty"`
	Volume     float64 `yaml:"volume,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tuning: "bac",
		Audio:  Audio{SampleRate: 44100, Volume: 0.5},
	}
}

// DefaultPath returns the config file location for this user.
func DefaultPath() (string, error) {
	p, err := cli.NewPaths(AppName)
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return p.ConfigFile(), nil
}

// Load reads the config at path, or at DefaultPath when path is empty. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path
	cfg.CacheDir = expandHome(cfg.CacheDir)
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StringOptions converts the strings section.
func (c *Config) StringOptions() stringcfg.Options {
	o := stringcfg.DefaultOptions()
	s := c.Strings
	if s.TopY != 0 {
		o.TopY = s.TopY
	}
	if s.PxPerSemitone > 0 {
		o.PxPerSemitone = s.PxPerSemitone
	}
	if s.MinSpacing > 0 {
		o.MinSpacing = s.MinSpacing
	}
	if s.MaxSpacing > 0 {
		o.MaxSpacing = s.MaxSpacing
	}
	if s.OctaveBonus > 0 {
		o.OctaveBonus = s.OctaveBonus
	}
	if s.CacheSize > 0 {
		o.CacheSize = s.CacheSize
	}
	o.FillGaps = s.FillGaps
	return o
}

// OrnamentConfig converts the ornaments section.
func (c *Config) OrnamentConfig() (ornament.Config, error) {
	cfg := ornament.DefaultConfig()
	o := c.Ornaments
	if o.VibratoAmplitudeCents != 0 || o.VibratoCyclesPerQuarter != 0 {
		amp, cyc := o.VibratoAmplitudeCents, o.VibratoCyclesPerQuarter
		if amp == 0 {
			amp = ornament.DefaultVibratoAmplitudeCents
		}
		if cyc == 0 {
			cyc = ornament.DefaultVibratoCyclesPerQuarter
		}
		var err error
		if cfg, err = cfg.WithVibratoParams(amp, cyc); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}
	if o.Tap != "" {
		mode, err := ornament.ParseTapMode(o.Tap)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		cfg = cfg.WithTap(mode)
	}
	return cfg, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
