package authstate

import (
	"sync"
	"testing"
	"time"

	"github.com/csea-nits/authstate/identity"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []identity.AuthEvent
	drops  []identity.EventKind
	wake   chan struct{}
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{wake: make(chan struct{}, 64)}
}

func (r *eventRecorder) deliver(ev identity.AuthEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.wake <- struct{}{}
}

func (r *eventRecorder) drop(kind identity.EventKind) {
	r.mu.Lock()
	r.drops = append(r.drops, kind)
	r.mu.Unlock()
}

func (r *eventRecorder) delivered() []identity.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.AuthEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) waitDeliveries(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.wake:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestCoalescerZeroWindowIsSynchronous(t *testing.T) {
	rec := newEventRecorder()
	c := newCoalescer(0, rec.deliver, rec.drop)
	defer c.stop()

	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedIn})
	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedIn})

	got := rec.delivered()
	if len(got) != 2 {
		t.Fatalf("expected immediate delivery of both events, got %d", len(got))
	}
	if len(rec.drops) != 0 {
		t.Fatal("zero window must not coalesce")
	}
}

func TestCoalescerLatestOfKindWins(t *testing.T) {
	rec := newEventRecorder()
	c := newCoalescer(10*time.Millisecond, rec.deliver, rec.drop)
	defer c.stop()

	first := testSession("u1", "first@example.com")
	second := testSession("u1", "second@example.com")

	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedIn, Session: first})
	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedIn, Session: second})

	rec.waitDeliveries(t, 1)

	got := rec.delivered()
	if len(got) != 1 {
		t.Fatalf("expected one coalesced delivery, got %d", len(got))
	}
	if got[0].Session.User.Email != "second@example.com" {
		t.Fatalf("expected the later event to win, got %q", got[0].Session.User.Email)
	}
	if len(rec.drops) != 1 || rec.drops[0] != identity.EventSignedIn {
		t.Fatalf("expected one recorded coalesce, got %v", rec.drops)
	}
}

func TestCoalescerPreservesKindOrder(t *testing.T) {
	rec := newEventRecorder()
	c := newCoalescer(10*time.Millisecond, rec.deliver, rec.drop)
	defer c.stop()

	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedIn, Session: testSession("u1", "a@example.com")})
	c.enqueue(identity.AuthEvent{Kind: identity.EventUserUpdated, Session: testSession("u1", "a@example.com")})
	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedIn, Session: testSession("u1", "b@example.com")})

	rec.waitDeliveries(t, 2)

	got := rec.delivered()
	if len(got) != 2 {
		t.Fatalf("expected two deliveries, got %d", len(got))
	}
	if got[0].Kind != identity.EventSignedIn || got[1].Kind != identity.EventUserUpdated {
		t.Fatalf("expected first-seen kind order, got %v then %v", got[0].Kind, got[1].Kind)
	}
	if got[0].Session.User.Email != "b@example.com" {
		t.Fatal("expected latest signed-in payload")
	}
}

func TestCoalescerWindowReopensAfterFlush(t *testing.T) {
	rec := newEventRecorder()
	c := newCoalescer(5*time.Millisecond, rec.deliver, rec.drop)
	defer c.stop()

	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedIn, Session: testSession("u1", "a@example.com")})
	rec.waitDeliveries(t, 1)

	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedOut})
	rec.waitDeliveries(t, 1)

	got := rec.delivered()
	if len(got) != 2 {
		t.Fatalf("expected both windows to deliver, got %d", len(got))
	}
}

func TestCoalescerStopDiscardsPending(t *testing.T) {
	rec := newEventRecorder()
	c := newCoalescer(50*time.Millisecond, rec.deliver, rec.drop)

	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedIn, Session: testSession("u1", "a@example.com")})
	c.stop()

	time.Sleep(80 * time.Millisecond)

	if got := rec.delivered(); len(got) != 0 {
		t.Fatalf("expected no deliveries after stop, got %d", len(got))
	}

	// Enqueue after stop is a no-op.
	c.enqueue(identity.AuthEvent{Kind: identity.EventSignedOut})
	if got := rec.delivered(); len(got) != 0 {
		t.Fatal("expected enqueue after stop to be ignored")
	}
}
