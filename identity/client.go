package identity

import (
	"context"
	"time"
)

// EventKind identifies a session-change notification pushed by the
// backend. Kinds outside the constants below are ignored by consumers.
type EventKind string

const (
	// EventSignedIn is emitted after a successful sign-in.
	EventSignedIn EventKind = "signed_in"
	// EventSignedOut is emitted after sign-out or session expiry.
	EventSignedOut EventKind = "signed_out"
	// EventUserUpdated is emitted when the backend mutates the user
	// record (profile completion, admin toggle, email change).
	EventUserUpdated EventKind = "user_updated"
	// EventTokenRefreshed is emitted on access-token rotation. It never
	// implies a profile change.
	EventTokenRefreshed EventKind = "token_refreshed"
	// EventInitial is a synthetic kind used for the startup session
	// check. The backend never emits it.
	EventInitial EventKind = "initial"
)

// UserIdentity is the opaque identity record carried by a session.
type UserIdentity struct {
	ID    string
	Email string
}

// Session is the backend's view of an authenticated session. User may be
// zero-valued on token-refresh notifications that carry only the rotated
// token; callers recover the identity via [TokenVerifier].
type Session struct {
	User        UserIdentity
	AccessToken string
	ExpiresAt   time.Time
}

// AuthEvent is a single push notification. Session is nil for
// signed-out events.
type AuthEvent struct {
	Kind    EventKind
	Session *Session
}

// Subscription is the handle returned by [Client.OnAuthStateChange].
// Unsubscribe must be called on teardown; it is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Client is the surface of the hosted identity backend that authstate
// depends on. Implementations wrap the vendor SDK; tests use scripted
// fakes.
//
// Sign-in operations resolve to a Session but callers must not mutate
// local state from the return value directly — the backend also emits a
// notification for the same transition, and the notification path is the
// single writer.
type Client interface {
	// GetSession returns the current session, or nil when no session
	// exists. A nil session with a nil error is the normal signed-out
	// answer, not a failure.
	GetSession(ctx context.Context) (*Session, error)

	// OnAuthStateChange registers a callback for push notifications.
	// The callback may be invoked from the provider's own goroutine and
	// may fire synchronous duplicates; consumers are expected to
	// debounce.
	OnAuthStateChange(fn func(AuthEvent)) (Subscription, error)

	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignInWithOAuth starts the provider redirect flow and returns the
	// URL the caller should send the browser to.
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error)

	SignOut(ctx context.Context) error

	// VerifyOTP confirms an emailed one-time code (college email
	// verification uses this). otpType follows the backend's vocabulary,
	// e.g. "email" or "magiclink".
	VerifyOTP(ctx context.Context, email, token, otpType string) (*Session, error)
}
