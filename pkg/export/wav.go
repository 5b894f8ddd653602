// Package export writes rendered songs as WAV audio and Standard MIDI
// Files.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when decoding something that is not a WAV file.
var ErrInvalidWAV = errors.New("export: invalid wav file")

// WAV writes mono 16-bit samples to w. A non-empty title is stored in the
// INFO chunk.
func WAV(w io.WriteSeeker, samples []int16, rate int, title string) error {
	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	if title != "" {
		enc.Metadata = &wav.Metadata{Title: title, Software: "tranh"}
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  rate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("export: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: finish wav: %w", err)
	}
	return nil
}

// WAVFile writes samples to a new file at path.
func WAVFile(path string, samples []int16, rate int, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WAV(f, samples, rate, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadWAV decodes a mono 16-bit WAV file.
func ReadWAV(r io.ReadSeeker) ([]int16, int, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, 0, ErrInvalidWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("export: read wav: %w", err)
	}
	if d.NumChans != 1 || d.BitDepth != 16 {
		return nil, 0, fmt.Errorf("%w: %d channels, %d bits", ErrInvalidWAV, d.NumChans, d.BitDepth)
	}
	out := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = int16(v)
	}
	return out, int(d.SampleRate), nil
}
