package authstate

import (
	"sync"
	"time"

	"github.com/csea-nits/authstate/identity"
)

// coalescer holds incoming auth events for a short window so the
// provider's burst emissions of the same kind collapse into one
// delivery. Within the window the latest event of each kind wins;
// distinct kinds preserve their first-seen order.
//
// A zero window delivers synchronously on the caller's goroutine.
type coalescer struct {
	window  time.Duration
	deliver func(identity.AuthEvent)
	onDrop  func(identity.EventKind)

	mu      sync.Mutex
	pending map[identity.EventKind]identity.AuthEvent
	order   []identity.EventKind
	timer   *time.Timer
	stopped bool
}

func newCoalescer(window time.Duration, deliver func(identity.AuthEvent), onDrop func(identity.EventKind)) *coalescer {
	return &coalescer{
		window:  window,
		deliver: deliver,
		onDrop:  onDrop,
		pending: make(map[identity.EventKind]identity.AuthEvent),
	}
}

// enqueue accepts an event for delivery after the window elapses.
func (c *coalescer) enqueue(ev identity.AuthEvent) {
	if c.window <= 0 {
		c.deliver(ev)
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	if _, seen := c.pending[ev.Kind]; seen {
		if c.onDrop != nil {
			c.onDrop(ev.Kind)
		}
	} else {
		c.order = append(c.order, ev.Kind)
	}
	c.pending[ev.Kind] = ev

	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.flush)
	}
	c.mu.Unlock()
}

func (c *coalescer) flush() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	batch := make([]identity.AuthEvent, 0, len(c.order))
	for _, kind := range c.order {
		batch = append(batch, c.pending[kind])
	}
	c.pending = map[identity.EventKind]identity.AuthEvent{}
	c.order = c.order[:0]
	c.timer = nil
	c.mu.Unlock()

	for _, ev := range batch {
		c.deliver(ev)
	}
}

// stop discards pending events and prevents further delivery.
func (c *coalescer) stop() {
	c.mu.Lock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = map[identity.EventKind]identity.AuthEvent{}
	c.order = nil
	c.mu.Unlock()
}
