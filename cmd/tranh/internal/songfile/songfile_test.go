package songfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/dantranh/pkg/music"
)

const sample = `
title: Lý ngựa ô
tempo: 96
notes:
  - {pitch: D4, duration: 1, lyric: "Khớp", phrase: p1}
  - {pitch: A4, duration: 0.25, grace: true}
  - {pitch: F4+50, duration: 1.5, patterns: [ru, ho], tone: sac}
  - {pitch: G4}
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ly-ngua-o.yaml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	song, err := Load(path, "bac")
	if err != nil {
		t.Fatal(err)
	}
	if song.ID != "ly-ngua-o" || song.Title != "Lý ngựa ô" || song.Tempo != 96 {
		t.Errorf("song = %+v", song)
	}
	if song.Tuning.Name != "bac" {
		t.Errorf("tuning = %s", song.Tuning)
	}
	if len(song.Notes) != 4 {
		t.Fatalf("notes = %d", len(song.Notes))
	}
	bent := song.Notes[2]
	if bent.Pitch != music.MustPitch("F4+50") || len(bent.Patterns) != 2 || bent.Tone != "sac" {
		t.Errorf("note 2 = %+v", bent)
	}
	if !song.Notes[1].Grace || song.Notes[0].Lyric != "Khớp" {
		t.Errorf("flags lost: %+v", song.Notes[:2])
	}
	if song.Notes[3].Duration != 0 {
		t.Errorf("missing duration = %g, want 0 for the layout to default", song.Notes[3].Duration)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "title: x\n"},
		{"bad pitch", "notes:\n  - {pitch: H9, duration: 1}\n"},
		{"bad tuning", "tuning: lydian\nnotes:\n  - {pitch: D4}\n"},
		{"bad yaml", "notes: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), tt.name, "bac"); err == nil {
				t.Error("Parse succeeded")
			}
		})
	}
	_, err := Parse([]byte("id: x\n"), "x", "bac")
	if !errors.Is(err, ErrEmptySong) {
		t.Errorf("err = %v, want ErrEmptySong", err)
	}
}
