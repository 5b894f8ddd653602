package zoom

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func TestDefaultsToUnit(t *testing.T) {
	c := NewController(nil)
	if got := c.Get("verse"); got != Unit {
		t.Errorf("Get = %+v, want Unit", got)
	}
	if c.ZoomX("verse") != 1 || c.ZoomY("verse") != 1 {
		t.Error("ZoomX/ZoomY not 1")
	}
}

func TestSetNotifiesOnChangeOnly(t *testing.T) {
	c := NewController(nil)
	var got []State
	c.Subscribe("a", "glissando", func(_ string, s State) { got = append(got, s) })

	if err := c.SetX("a", 2); err != nil {
		t.Fatal(err)
	}
	c.SetX("a", 2) // unchanged
	c.SetY("a", 1) // unchanged
	c.SetY("a", 1.5)
	c.SetX("b", 3) // other section

	want := []State{{2, 1}, {2, 1.5}}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	c := NewController(nil)
	calls := 0
	first := c.Subscribe("s", "vibrato", func(string, State) { calls++ })
	second := c.Subscribe("s", "vibrato", func(string, State) { calls += 100 })
	if first != second {
		t.Error("second Subscribe returned a new handle")
	}
	if n := c.Subscribers("s"); n != 1 {
		t.Errorf("Subscribers = %d, want 1", n)
	}
	c.SetX("s", 2)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	first.Unsubscribe()
	first.Unsubscribe()
	c.SetX("s", 3)
	if calls != 1 {
		t.Errorf("listener called after Unsubscribe")
	}
}

func TestSubscribeOnce(t *testing.T) {
	c := NewController(nil)
	calls := 0
	sub, err := c.SubscribeOnce("s", "ornament:a", func(string, State) { calls++ })
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SubscribeOnce("s", "ornament:a", func(string, State) { calls += 100 }); !errors.Is(err, ErrSubscribed) {
		t.Fatalf("second SubscribeOnce err = %v, want ErrSubscribed", err)
	}
	if _, err := c.SubscribeOnce("t", "ornament:a", func(string, State) {}); err != nil {
		t.Errorf("same key in another section: %v", err)
	}
	c.SetX("s", 2)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	sub.Unsubscribe()
	if _, err := c.SubscribeOnce("s", "ornament:a", func(string, State) {}); err != nil {
		t.Errorf("SubscribeOnce after Unsubscribe: %v", err)
	}
}

func TestInvalidScale(t *testing.T) {
	c := NewController(nil)
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := c.SetX("s", v); !errors.Is(err, ErrInvalidScale) {
			t.Errorf("SetX(%g) err = %v, want ErrInvalidScale", v, err)
		}
	}
	if got := c.Get("s"); got != Unit {
		t.Errorf("state changed by rejected scale: %+v", got)
	}
}

func TestListenerMayReadController(t *testing.T) {
	c := NewController(nil)
	var seen float64
	c.Subscribe("s", "k", func(sec string, _ State) { seen = c.ZoomX(sec) })
	c.SetX("s", 4)
	if seen != 4 {
		t.Errorf("listener saw %g, want 4", seen)
	}
}

func TestDebounced(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
		last  State
		done  = make(chan struct{}, 1)
	)
	fn := Debounced(20*time.Millisecond, func(_ string, s State) {
		mu.Lock()
		calls++
		last = s
		mu.Unlock()
		done <- struct{}{}
	})
	for i := 1; i <= 5; i++ {
		fn("s", State{ScaleX: float64(i), ScaleY: 1})
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced listener never fired")
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if last.ScaleX != 5 {
		t.Errorf("last = %+v, want ScaleX 5", last)
	}
}
