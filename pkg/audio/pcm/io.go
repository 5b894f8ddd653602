package pcm

import (
	"bytes"
	"io"
	"sync"
)

// Writer receives rendered audio chunks.
type Writer interface {
	Write(Chunk) error
}

// Discard is a Writer that discards all written chunks.
var Discard Writer = discard{}

type discard struct{}

func (discard) Write(Chunk) error { return nil }

// ChunkWriter writes the raw bytes of every chunk to w.
func ChunkWriter(w io.Writer) Writer {
	return &chunkWriter{w: w}
}

type chunkWriter struct {
	w io.Writer
}

func (w *chunkWriter) Write(c Chunk) error {
	_, err := c.WriteTo(w.w)
	return err
}

// Buffer collects written chunks. It is safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	chunks int
}

func (b *Buffer) Write(c Chunk) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks++
	_, err := c.WriteTo(&b.buf)
	return err
}

// Chunks returns how many chunks were written.
func (b *Buffer) Chunks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chunks
}

// Bytes returns a copy of everything written.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
