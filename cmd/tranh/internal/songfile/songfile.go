// Package songfile reads songs written as YAML:
//
//	id: ly-ngua-o
//	title: Lý ngựa ô
//	tuning: bac
//	tempo: 96
//	notes:
//	  - {pitch: D4, duration: 1, lyric: "Khớp"}
//	  - {pitch: A4, duration: 0.25, grace: true}
//	  - {pitch: F4+50, duration: 1.5}
package songfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/dantranh/pkg/music"
)

// ErrEmptySong is returned for a file with no notes.
var ErrEmptySong = errors.New("songfile: song has no notes")

type file struct {
	ID     string  `yaml:"id"`
	Title  string  `yaml:"title"`
	Tuning string  `yaml:"tuning"`
	Tempo  float64 `yaml:"tempo"`
	Notes  []note  `yaml:"notes"`
}

type note struct {
	Pitch    string   `yaml:"pitch"`
	Duration float64  `yaml:"duration"`
	Grace    bool     `yaml:"grace"`
	Dotted   bool     `yaml:"dotted"`
	Lyric    string   `yaml:"lyric"`
	Phrase   string   `yaml:"phrase"`
	Patterns []string `yaml:"patterns"`
	Tone     string   `yaml:"tone"`
}

// Parse decodes a song. The tuning falls back to defaultTuning and the id
// to name.
func Parse(data []byte, name, defaultTuning string) (music.Song, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return music.Song{}, fmt.Errorf("songfile: %s: %w", name, err)
	}
	if len(f.Notes) == 0 {
		return music.Song{}, fmt.Errorf("%w: %s", ErrEmptySong, name)
	}

	tuningName := f.Tuning
	if tuningName == "" {
		tuningName = defaultTuning
	}
	tuning, err := music.TuningByName(tuningName)
	if err != nil {
		return music.Song{}, fmt.Errorf("songfile: %s: %w", name, err)
	}

	song := music.Song{
		ID:     f.ID,
		Title:  f.Title,
		Tuning: tuning,
		Tempo:  f.Tempo,
		Notes:  make([]music.Note, 0, len(f.Notes)),
	}
	if song.ID == "" {
		song.ID = name
	}
	for i, n := range f.Notes {
		p, err := music.ParsePitch(n.Pitch)
		if err != nil {
			return music.Song{}, fmt.Errorf("songfile: %s: note %d: %w", name, i, err)
		}
		song.Notes = append(song.Notes, music.Note{
			Pitch:    p,
			Duration: n.Duration,
			Grace:    n.Grace,
			Dotted:   n.Dotted,
			Lyric:    n.Lyric,
			Phrase:   n.Phrase,
			Patterns: n.Patterns,
			Tone:     n.Tone,
		})
	}
	return song, nil
}

// Load reads and parses the song at path. The file name without extension
// is the default id.
func Load(path, defaultTuning string) (music.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return music.Song{}, fmt.Errorf("songfile: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(data, name, defaultTuning)
}
