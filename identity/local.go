package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBadCredentials is returned by LocalBackend sign-in with a wrong
// email or password.
var ErrBadCredentials = errors.New("invalid email or password")

// LocalBackend is an in-process [Client] for the simulator, the runnable
// example, and tests that need a provider with real notification
// behavior: it tracks one current session, mints signed tokens, and
// pushes events to subscribers, including duplicate bursts on demand.
//
// It is not a real identity provider and must never back production
// traffic.
type LocalBackend struct {
	verifier *TokenVerifier
	tokenTTL time.Duration

	mu      sync.Mutex
	users   map[string]localUser
	current *Session
	subs    map[int]func(AuthEvent)
	nextSub int
}

type localUser struct {
	id       string
	email    string
	password string
}

// NewLocalBackend creates an empty backend. verifier may be nil, in
// which case sessions carry no access token.
func NewLocalBackend(verifier *TokenVerifier, tokenTTL time.Duration) *LocalBackend {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &LocalBackend{
		verifier: verifier,
		tokenTTL: tokenTTL,
		users:    make(map[string]localUser),
		subs:     make(map[int]func(AuthEvent)),
	}
}

// RegisterUser seeds a user and returns its generated id.
func (b *LocalBackend) RegisterUser(email, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.users[strings.ToLower(email)] = localUser{
		id:       id,
		email:    email,
		password: password,
	}
	return id
}

// GetSession implements [Client].
func (b *LocalBackend) GetSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return copySession(b.current), nil
}

// OnAuthStateChange implements [Client]. Callbacks run synchronously on
// the goroutine that triggers the event.
func (b *LocalBackend) OnAuthStateChange(fn func(AuthEvent)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	return &localSubscription{backend: b, id: id}, nil
}

// SignInWithPassword implements [Client]. On success it stores the
// session and emits a signed_in notification.
func (b *LocalBackend) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	u, ok := b.users[strings.ToLower(email)]
	if !ok || u.password != password {
		b.mu.Unlock()
		return nil, ErrBadCredentials
	}
	sess, err := b.startSessionLocked(u)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	b.Emit(AuthEvent{Kind: EventSignedIn, Session: copySession(sess)})
	return copySession(sess), nil
}

// SignUp implements [Client]: registers the user and signs in.
func (b *LocalBackend) SignUp(ctx context.Context, email, password string) (*Session, error) {
	b.mu.Lock()
	if _, exists := b.users[strings.ToLower(email)]; exists {
		b.mu.Unlock()
		return nil, errors.New("email already registered")
	}
	b.mu.Unlock()

	b.RegisterUser(email, password)
	return b.SignInWithPassword(ctx, email, password)
}

// SignInWithOAuth implements [Client]. The local backend has no real
// provider; it returns a placeholder URL.
func (b *LocalBackend) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://local.invalid/oauth/%s?redirect_to=%s", provider, redirectTo), nil
}

// SignOut implements [Client]: clears the session and notifies.
func (b *LocalBackend) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()

	b.Emit(AuthEvent{Kind: EventSignedOut})
	return nil
}

// VerifyOTP implements [Client]. The local backend accepts any code for
// a known email and reports the change as user_updated.
func (b *LocalBackend) VerifyOTP(ctx context.Context, email, token, otpType string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	_, ok := b.users[strings.ToLower(email)]
	sess := copySession(b.current)
	b.mu.Unlock()

	if !ok {
		return nil, ErrBadCredentials
	}

	b.Emit(AuthEvent{Kind: EventUserUpdated, Session: sess})
	return sess, nil
}

// RotateToken mints a fresh token for the current session and emits a
// token_refreshed notification, mimicking the provider's refresh timer.
func (b *LocalBackend) RotateToken() error {
	b.mu.Lock()
	if b.current == nil {
		b.mu.Unlock()
		return errors.New("no session to rotate")
	}

	sess := *b.current
	if b.verifier != nil {
		tok, err := b.verifier.MintToken(sess.User, b.tokenTTL)
		if err != nil {
			b.mu.Unlock()
			return err
		}
		sess.AccessToken = tok
	}
	sess.ExpiresAt = time.Now().Add(b.tokenTTL)
	b.current = &sess
	b.mu.Unlock()

	b.Emit(AuthEvent{Kind: EventTokenRefreshed, Session: copySession(&sess)})
	return nil
}

// Emit pushes an event to every subscriber. Exposed so simulations can
// replay pathological sequences (duplicate bursts, stale events).
func (b *LocalBackend) Emit(ev AuthEvent) {
	b.mu.Lock()
	fns := make([]func(AuthEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (b *LocalBackend) startSessionLocked(u localUser) (*Session, error) {
	sess := &Session{
		User:      UserIdentity{ID: u.id, Email: u.email},
		ExpiresAt: time.Now().Add(b.tokenTTL),
	}
	if b.verifier != nil {
		tok, err := b.verifier.MintToken(sess.User, b.tokenTTL)
		if err != nil {
			return nil, err
		}
		sess.AccessToken = tok
	}
	b.current = sess
	return sess, nil
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

type localSubscription struct {
	backend *LocalBackend
	id      int
	once    sync.Once
}

func (s *localSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.backend.mu.Lock()
		delete(s.backend.subs, s.id)
		s.backend.mu.Unlock()
	})
}
