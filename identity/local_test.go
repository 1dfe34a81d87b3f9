package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBackend(t *testing.T) *LocalBackend {
	t.Helper()

	verifier, err := NewTokenVerifier(TokenConfig{Secret: []byte("test-secret")})
	if err != nil {
		t.Fatalf("NewTokenVerifier failed: %v", err)
	}
	return NewLocalBackend(verifier, time.Hour)
}

func TestLocalBackendSignInFlow(t *testing.T) {
	b := newTestBackend(t)
	id := b.RegisterUser("alice@example.com", "hunter2")

	var events []AuthEvent
	sub, err := b.OnAuthStateChange(func(ev AuthEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("OnAuthStateChange failed: %v", err)
	}
	defer sub.Unsubscribe()

	if _, err := b.SignInWithPassword(context.Background(), "alice@example.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}

	sess, err := b.SignInWithPassword(context.Background(), "Alice@Example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if sess.User.ID != id {
		t.Fatalf("expected user id %s, got %s", id, sess.User.ID)
	}
	if sess.AccessToken == "" {
		t.Fatal("expected minted access token")
	}

	got, err := b.GetSession(context.Background())
	if err != nil || got == nil || got.User.ID != id {
		t.Fatalf("expected current session for %s, got %+v err %v", id, got, err)
	}

	if err := b.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if got, _ := b.GetSession(context.Background()); got != nil {
		t.Fatal("expected nil session after sign-out")
	}

	if len(events) != 2 {
		t.Fatalf("expected signed_in and signed_out events, got %d", len(events))
	}
	if events[0].Kind != EventSignedIn || events[1].Kind != EventSignedOut {
		t.Fatalf("unexpected event order: %v, %v", events[0].Kind, events[1].Kind)
	}
}

func TestLocalBackendRotateToken(t *testing.T) {
	b := newTestBackend(t)
	b.RegisterUser("alice@example.com", "hunter2")

	if err := b.RotateToken(); err == nil {
		t.Fatal("expected rotate without a session to fail")
	}

	first, err := b.SignInWithPassword(context.Background(), "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}

	var refreshed *AuthEvent
	sub, _ := b.OnAuthStateChange(func(ev AuthEvent) {
		if ev.Kind == EventTokenRefreshed {
			e := ev
			refreshed = &e
		}
	})
	defer sub.Unsubscribe()

	// Token claims carry second precision; step past the issue instant.
	time.Sleep(1100 * time.Millisecond)

	if err := b.RotateToken(); err != nil {
		t.Fatalf("RotateToken failed: %v", err)
	}
	if refreshed == nil {
		t.Fatal("expected token_refreshed event")
	}
	if refreshed.Session.AccessToken == first.AccessToken {
		t.Fatal("expected a rotated token")
	}
	if refreshed.Session.User.ID != first.User.ID {
		t.Fatal("rotation must keep the same user")
	}
}

func TestLocalBackendUnsubscribeStopsDelivery(t *testing.T) {
	b := newTestBackend(t)
	b.RegisterUser("alice@example.com", "hunter2")

	count := 0
	sub, _ := b.OnAuthStateChange(func(AuthEvent) { count++ })

	b.Emit(AuthEvent{Kind: EventSignedOut})
	sub.Unsubscribe()
	sub.Unsubscribe()
	b.Emit(AuthEvent{Kind: EventSignedOut})

	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}
}
