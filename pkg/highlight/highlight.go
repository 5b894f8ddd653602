// Package highlight provides playback.Highlighter implementations that keep
// every linked rendering of a song in step with playback.
package highlight

import (
	"sync"

	"github.com/haivivi/dantranh/pkg/layout"
	"github.com/haivivi/dantranh/pkg/playback"
)

// Fanout forwards to several highlighters in order.
type Fanout []playback.Highlighter

func (f Fanout) Highlight(n layout.Note) {
	for _, h := range f {
		h.Highlight(n)
	}
}

func (f Fanout) Clear() {
	for _, h := range f {
		h.Clear()
	}
}

// Mark is one recorded highlight change. Index is -1 for a clear.
type Mark struct {
	Index  int    `json:"index"`
	NoteID string `json:"note,omitempty"`
}

// Recorder remembers every highlight change.
type Recorder struct {
	mu    sync.Mutex
	marks []Mark
	cur   int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{cur: -1}
}

func (r *Recorder) Highlight(n layout.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks = append(r.marks, Mark{Index: n.Index, NoteID: n.ID})
	r.cur = n.Index
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks = append(r.marks, Mark{Index: -1})
	r.cur = -1
}

// Marks returns a copy of the recorded changes.
func (r *Recorder) Marks() []Mark {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Mark, len(r.marks))
	copy(out, r.marks)
	return out
}

// Current returns the highlighted note index, or -1.
func (r *Recorder) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

// Func adapts a pair of functions to a Highlighter. Either may be nil.
type Func struct {
	OnHighlight func(n layout.Note)
	OnClear     func()
}

func (f Func) Highlight(n layout.Note) {
	if f.OnHighlight != nil {
		f.OnHighlight(n)
	}
}

func (f Func) Clear() {
	if f.OnClear != nil {
		f.OnClear()
	}
}
