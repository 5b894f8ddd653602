// Package zoom holds the per-section horizontal and vertical scale of a
// rendered tablature and notifies subscribers when it changes.
package zoom

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/bep/debounce"
)

var (
	// ErrInvalidScale is returned for scales that are not finite and positive.
	ErrInvalidScale = errors.New("zoom: scale must be a positive finite number")

	// ErrSubscribed is returned by SubscribeOnce when the key is taken.
	ErrSubscribed = errors.New("zoom: key already subscribed")
)

// State is the zoom of one section.
type State struct {
	ScaleX float64 `json:"scale_x" yaml:"scale_x"`
	ScaleY float64 `json:"scale_y" yaml:"scale_y"`
}

// Unit is the unscaled state.
var Unit = State{ScaleX: 1, ScaleY: 1}

// Validate checks both scales.
func (s State) Validate() error {
	if !validScale(s.ScaleX) || !validScale(s.ScaleY) {
		return fmt.Errorf("%w: got %gx%g", ErrInvalidScale, s.ScaleX, s.ScaleY)
	}
	return nil
}

func validScale(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Listener receives the new state of a section.
type Listener func(section string, s State)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	c       *Controller
	section string
	key     string
}

// Key returns the key the subscription was registered under.
func (s *Subscription) Key() string { return s.key }

// Unsubscribe removes the listener. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.c.Unsubscribe(s.section, s.key)
}

type subscriber struct {
	sub *Subscription
	fn  Listener
}

// Controller stores the zoom of every section. It is safe for concurrent
// use; listeners are invoked outside the lock, in subscription order.
type Controller struct {
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]State
	subs   map[string][]subscriber
}

// NewController returns a controller where every section starts at Unit.
// A nil logger means slog.Default().
func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		logger: logger,
		states: make(map[string]State),
		subs:   make(map[string][]subscriber),
	}
}

// Get returns the zoom of a section.
func (c *Controller) Get(section string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(section)
}

func (c *Controller) get(section string) State {
	if s, ok := c.states[section]; ok {
		return s
	}
	return Unit
}

// ZoomX returns the horizontal scale of a section.
func (c *Controller) ZoomX(section string) float64 { return c.Get(section).ScaleX }

// ZoomY returns the vertical scale of a section.
func (c *Controller) ZoomY(section string) float64 { return c.Get(section).ScaleY }

// Set replaces the zoom of a section. Subscribers are notified only when
// the state actually changes.
func (c *Controller) Set(section string, s State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.get(section) == s {
		c.mu.Unlock()
		return nil
	}
	c.states[section] = s
	subs := slices.Clone(c.subs[section])
	c.mu.Unlock()

	c.logger.Debug("zoom changed", "section", section, "scale_x", s.ScaleX, "scale_y", s.ScaleY, "listeners", len(subs))
	for _, sb := range subs {
		sb.fn(section, s)
	}
	return nil
}

// SetX changes only the horizontal scale.
func (c *Controller) SetX(section string, x float64) error {
	s := c.Get(section)
	s.ScaleX = x
	return c.Set(section, s)
}

// SetY changes only the vertical scale.
func (c *Controller) SetY(section string, y float64) error {
	s := c.Get(section)
	s.ScaleY = y
	return c.Set(section, s)
}

// Subscribe registers fn for changes of section under key. Registration is
// idempotent: if key is already subscribed to section, the existing handle
// is returned and fn is ignored.
func (c *Controller) Subscribe(section, key string, fn Listener) *Subscription {
	sub, existed := c.subscribe(section, key, fn)
	if existed {
		c.logger.Debug("zoom: already subscribed", "section", section, "key", key)
	}
	return sub
}

// SubscribeOnce registers fn like Subscribe but fails with ErrSubscribed
// when key already holds a listener on section. Owners whose Unsubscribe
// must not affect anyone else use it.
func (c *Controller) SubscribeOnce(section, key string, fn Listener) (*Subscription, error) {
	sub, existed := c.subscribe(section, key, fn)
	if existed {
		return nil, fmt.Errorf("%w: %s in %s", ErrSubscribed, key, section)
	}
	return sub, nil
}

func (c *Controller) subscribe(section, key string, fn Listener) (*Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sb := range c.subs[section] {
		if sb.sub.key == key {
			return sb.sub, true
		}
	}
	sub := &Subscription{c: c, section: section, key: key}
	c.subs[section] = append(c.subs[section], subscriber{sub: sub, fn: fn})
	return sub, false
}

// Unsubscribe removes a listener by key and reports whether it existed.
func (c *Controller) Unsubscribe(section, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.subs[section]
	i := slices.IndexFunc(subs, func(sb subscriber) bool { return sb.sub.key == key })
	if i < 0 {
		return false
	}
	c.subs[section] = slices.Delete(subs, i, i+1)
	return true
}

// Subscribers returns the number of listeners on a section.
func (c *Controller) Subscribers(section string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[section])
}

// Debounced wraps fn so that a burst of changes within d produces a single
// call carrying the latest state.
func Debounced(d time.Duration, fn Listener) Listener {
	var (
		mu      sync.Mutex
		section string
		state   State
	)
	debounced := debounce.New(d)
	return func(sec string, s State) {
		mu.Lock()
		section, state = sec, s
		mu.Unlock()
		debounced(func() {
			mu.Lock()
			sec, s := section, state
			mu.Unlock()
			fn(sec, s)
		})
	}
}
