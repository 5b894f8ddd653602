// Package pcm holds 16-bit little-endian PCM audio in chunks.
//
//	format := pcm.L16Mono44K1
//	tail := format.SilenceChunk(300 * time.Millisecond)
//	pluck := pcm.Int16Chunk(format, samples)
package pcm

import (
	"encoding/binary"
	"io"
	"time"
)

const (
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K Format = iota
	// L16Mono24K represents audio/L16; rate=24000; channels=1
	L16Mono24K
	// L16Mono44K1 represents audio/L16; rate=44100; channels=1
	L16Mono44K1
	// L16Mono48K represents audio/L16; rate=48000; channels=1
	L16Mono48K
)

// Chunk is a chunk of audio data.
type Chunk interface {
	Len() int64
	Format() Format
	WriteTo(w io.Writer) (int64, error)
}

// Format is a mono 16-bit PCM format.
type Format int

// SampleRate returns the sample rate in Hz.
func (f Format) SampleRate() int {
	switch f {
	case L16Mono16K:
		return 16000
	case L16Mono24K:
		return 24000
	case L16Mono44K1:
		return 44100
	case L16Mono48K:
		return 48000
	}
	panic("pcm: invalid audio type")
}

// Channels returns the number of audio channels.
func (f Format) Channels() int { return 1 }

// Depth returns the bit depth.
func (f Format) Depth() int { return 16 }

// Samples returns the number of samples in the given number of bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.Channels()) / int64(f.Depth())
}

// SamplesInDuration returns the number of samples in d.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns the number of bytes in d.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.Channels()) * int64(f.Depth()) / 8
}

// Duration returns the playing time of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// SilenceChunk returns a silence chunk of the given duration.
func (f Format) SilenceChunk(d time.Duration) Chunk {
	return &SilenceChunk{Duration: d, len: f.BytesInDuration(d), fmt: f}
}

// DataChunk wraps raw PCM bytes.
func (f Format) DataChunk(data []byte) *DataChunk {
	return &DataChunk{Data: data, fmt: f}
}

// FormatForRate returns the format with the given sample rate.
func FormatForRate(rate int) (Format, bool) {
	for _, f := range []Format{L16Mono16K, L16Mono24K, L16Mono44K1, L16Mono48K} {
		if f.SampleRate() == rate {
			return f, true
		}
	}
	return 0, false
}

func (f Format) String() string {
	switch f {
	case L16Mono16K:
		return "audio/L16; rate=16000; channels=1"
	case L16Mono24K:
		return "audio/L16; rate=24000; channels=1"
	case L16Mono44K1:
		return "audio/L16; rate=44100; channels=1"
	case L16Mono48K:
		return "audio/L16; rate=48000; channels=1"
	}
	panic("pcm: invalid audio type")
}

// DataChunk is a chunk of audio data.
type DataChunk struct {
	Data []byte
	fmt  Format
}

// Int16Chunk encodes samples as a DataChunk.
func Int16Chunk(f Format, samples []int16) *DataChunk {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return f.DataChunk(data)
}

func (c *DataChunk) Len() int64     { return int64(len(c.Data)) }
func (c *DataChunk) Format() Format { return c.fmt }

// Int16s decodes the chunk into samples.
func (c *DataChunk) Int16s() []int16 {
	out := make([]int16, len(c.Data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(c.Data[i*2:]))
	}
	return out
}

func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}

// SilenceChunk is a chunk of silence.
type SilenceChunk struct {
	Duration time.Duration
	len      int64
	fmt      Format
}

func (c *SilenceChunk) Len() int64     { return c.len }
func (c *SilenceChunk) Format() Format { return c.fmt }

var emptyBytes [32000]byte

// WriteTo writes zero bytes to w.
func (c *SilenceChunk) WriteTo(w io.Writer) (int64, error) {
	var wn int64
	for tw := c.len; tw > 0; {
		silence := emptyBytes[:min(tw, int64(len(emptyBytes)))]
		tw -= int64(len(silence))
		n, err := w.Write(silence)
		wn += int64(n)
		if err != nil {
			return wn, err
		}
	}
	return wn, nil
}
