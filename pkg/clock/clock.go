// Package clock abstracts delayed callbacks so schedulers can run against
// wall time in production and against a manually advanced clock in tests.
package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop cancels the callback and reports whether it was still pending.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Virtual is a clock that only moves when Advance is called. Due callbacks
// run synchronously inside Advance, ordered by due time and then by
// scheduling order.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks taskHeap
}

// NewVirtual returns a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &task{v: v, at: v.now.Add(max(d, 0)), seq: v.seq, fn: fn}
	heap.Push(&v.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every callback that falls
// due. Callbacks may schedule further callbacks; those due within the
// window run in the same call.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	for len(v.tasks) > 0 && !v.tasks[0].at.After(target) {
		t := heap.Pop(&v.tasks).(*task)
		v.now = t.at
		v.mu.Unlock()
		t.fn()
		v.mu.Lock()
	}
	v.now = target
	v.mu.Unlock()
}

// Pending returns the number of callbacks not yet run or stopped.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tasks)
}

// Next returns the due time of the earliest pending callback.
func (v *Virtual) Next() (time.Time, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.tasks) == 0 {
		return time.Time{}, false
	}
	return v.tasks[0].at, true
}

type task struct {
	v     *Virtual
	at    time.Time
	seq   uint64
	fn    func()
	index int
}

func (t *task) Stop() bool {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()
	if t.index < 0 {
		return false
	}
	heap.Remove(&t.v.tasks, t.index)
	return true
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
