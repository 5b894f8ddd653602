package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/dantranh/pkg/ornament"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
tuning: nam
tempo: 96
strings:
  min_spacing: 40
  fill_gaps: true
ornaments:
  vibrato_amplitude_cents: 60
  tap: two-thirds
audio:
  sample_rate: 16000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tuning != "nam" || cfg.Tempo != 96 || cfg.Path != path {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Volume != 0.5 {
		t.Errorf("audio = %+v, want defaults kept for unset fields", cfg.Audio)
	}

	so := cfg.StringOptions()
	if so.MinSpacing != 40 || !so.FillGaps || so.PxPerSemitone != 15 {
		t.Errorf("string options = %+v", so)
	}

	oc, err := cfg.OrnamentConfig()
	if err != nil {
		t.Fatal(err)
	}
	if oc.Tap != ornament.TapTwoThirds || oc.VibratoAmplitudeCents != 60 || oc.VibratoCyclesPerQuarter != ornament.DefaultVibratoCyclesPerQuarter {
		t.Errorf("ornament config = %+v", oc)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing path accepted")
	}
	if _, err := Load(write(t, "tempo: [1, 2")); err == nil {
		t.Error("malformed yaml accepted")
	}

	cfg, err := Load(write(t, "ornaments:\n  tap: sideways\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.OrnamentConfig(); err == nil {
		t.Error("unknown tap mode accepted")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Tempo = 72
	cfg.CacheDir = "/tmp/dantranh-cache"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tempo != 72 || got.Tuning != "bac" || got.CacheDir != "/tmp/dantranh-cache" {
		t.Errorf("round trip = %+v", got)
	}
}
