package authstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/csea-nits/authstate/identity"
	"github.com/csea-nits/authstate/profile"
)

// Manager owns the authenticated-session state machine: it resolves the
// session at startup, reacts to backend auth notifications, loads the
// matching profile, and exposes immutable snapshots plus a derived
// authorization view.
//
// All exported methods are safe for concurrent use. State writes happen
// on at most one goroutine at a time; overlapping session resolutions
// are dropped, not queued.
type Manager struct {
	config   Config
	client   identity.Client
	profiles profile.Store
	verifier *identity.TokenVerifier
	logger   *zap.Logger
	listener StateListener

	audit   *auditDispatcher
	metrics *Metrics
	events  *coalescer

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	state State

	sub       identity.Subscription
	inFlight  atomic.Bool
	initOnce  sync.Once
	initErr   error
	closed    atomic.Bool
	closeOnce sync.Once
}

// Initialize resolves the current session and subscribes to auth state
// notifications. Idempotent: repeat calls return the first outcome
// without re-running the startup sequence.
//
// A failing session check is treated as signed out rather than an
// error; only a failed subscription makes Initialize fail.
func (m *Manager) Initialize(ctx context.Context) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}

	m.initOnce.Do(func() {
		m.metrics.Inc(MetricInitialize)

		checkCtx, cancel := context.WithTimeout(ctx, m.config.Fetch.SessionTimeout)
		sess, err := m.client.GetSession(checkCtx)
		cancel()
		if err != nil {
			m.logger.Warn("session check failed, treating as signed out",
				zap.Error(err))
			m.emitAudit(ctx, AuditEvent{
				EventType: AuditSessionCheckFailed,
				Success:   false,
				Error:     err.Error(),
			})
			sess = nil
		}

		m.processSession(ctx, identity.AuthEvent{
			Kind:    identity.EventInitial,
			Session: sess,
		})

		sub, err := m.client.OnAuthStateChange(m.HandleAuthEvent)
		if err != nil {
			m.initErr = err
			return
		}
		m.sub = sub
	})

	return m.initErr
}

// HandleAuthEvent accepts a backend auth notification. Known kinds are
// debounced and dispatched; unknown kinds are counted and ignored.
// Exposed so custom identity clients and tests can inject events.
func (m *Manager) HandleAuthEvent(ev identity.AuthEvent) {
	if m.closed.Load() {
		return
	}

	switch ev.Kind {
	case identity.EventSignedIn, identity.EventSignedOut,
		identity.EventUserUpdated, identity.EventTokenRefreshed,
		identity.EventInitial:
	default:
		m.metrics.Inc(MetricAuthEventIgnored)
		return
	}

	m.metrics.Inc(MetricAuthEventReceived)
	m.events.enqueue(ev)
}

func (m *Manager) dispatch(ev identity.AuthEvent) {
	if m.closed.Load() {
		return
	}

	if ev.Kind == identity.EventTokenRefreshed {
		m.applyTokenRefresh(ev)
		return
	}

	m.processSession(m.ctx, ev)
}

// processSession settles the state for a session notification. Guarded
// by a compare-and-swap: a resolution arriving while another is running
// is dropped, and the running one settles the final state.
func (m *Manager) processSession(ctx context.Context, ev identity.AuthEvent) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.metrics.Inc(MetricAuthEventDropped)
		m.emitAudit(ctx, AuditEvent{
			EventType: AuditAuthEventDropped,
			Success:   true,
			Metadata:  map[string]string{"kind": string(ev.Kind)},
		})
		return
	}
	start := time.Now()
	defer func() {
		m.inFlight.Store(false)
		m.metrics.Observe(MetricProcessLatency, time.Since(start))
	}()

	if ev.Session == nil || ev.Session.User.ID == "" {
		m.setSignedOut(ctx, ev.Kind)
		return
	}

	user := ev.Session.User

	fetchCtx, cancel := context.WithTimeout(ctx, m.config.Fetch.ProfileTimeout)
	p, err := m.profiles.GetByUserID(fetchCtx, user.ID)
	cancel()

	// The manager shut down mid-fetch; do not publish a stale state.
	if m.ctx.Err() != nil {
		return
	}

	switch {
	case err == nil:
		m.metrics.Inc(MetricProfileFetchSuccess)
	case errors.Is(err, profile.ErrNotFound):
		// First login: the row does not exist yet. The user stays
		// signed in and gets routed to profile completion.
		p = nil
		m.metrics.Inc(MetricProfileFetchMiss)
		m.emitAudit(ctx, AuditEvent{
			EventType: AuditProfileMissing,
			UserID:    user.ID,
			Success:   true,
		})
	default:
		p = nil
		m.metrics.Inc(MetricProfileFetchFailure)
		m.logger.Error("profile fetch failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
		m.emitAudit(ctx, AuditEvent{
			EventType: AuditProfileFetchFailed,
			UserID:    user.ID,
			Success:   false,
			Error:     err.Error(),
		})
	}

	next := State{
		User:                      &user,
		Profile:                   p,
		Loading:                   false,
		RequiresProfileCompletion: profile.RequiresCompletion(p),
		LastEvent:                 ev.Kind,
	}

	m.publish(next)
	m.metrics.Inc(MetricSessionEstablished)
	m.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionEstablished,
		UserID:    user.ID,
		Success:   true,
		Metadata:  map[string]string{"kind": string(ev.Kind)},
	})
}

func (m *Manager) setSignedOut(ctx context.Context, kind identity.EventKind) {
	next := State{
		Loading:                   false,
		RequiresProfileCompletion: true,
		LastEvent:                 kind,
	}

	m.publish(next)
	m.metrics.Inc(MetricSessionCleared)
	m.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionCleared,
		Success:   true,
		Metadata:  map[string]string{"kind": string(kind)},
	})
}

// applyTokenRefresh updates the identity from a refreshed token without
// touching the profile. Refreshes fire on a timer; re-fetching the
// profile for each one would hammer the store for no new information.
func (m *Manager) applyTokenRefresh(ev identity.AuthEvent) {
	if ev.Session == nil {
		return
	}

	user := ev.Session.User
	if user.ID == "" && m.verifier != nil && ev.Session.AccessToken != "" {
		parsed, err := m.verifier.ParseIdentity(ev.Session.AccessToken)
		if err != nil {
			m.logger.Warn("refreshed token did not parse", zap.Error(err))
			return
		}
		user = parsed
	}
	if user.ID == "" {
		return
	}

	m.mu.Lock()
	next := m.state
	next.User = &user
	next.LastEvent = identity.EventTokenRefreshed
	m.state = next
	m.mu.Unlock()

	m.metrics.Inc(MetricTokenRefreshed)
	m.emitAudit(m.ctx, AuditEvent{
		EventType: AuditTokenRefreshed,
		UserID:    user.ID,
		Success:   true,
	})
	m.notify(next)
}

// RefreshProfile re-fetches the signed-in user's profile on demand,
// typically after the user edits it. Unlike session resolution it is
// not single-flight and it surfaces transient store errors to the
// caller instead of settling a degraded state.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}

	m.mu.RLock()
	cur := m.state
	m.mu.RUnlock()

	if cur.Loading {
		return ErrNotInitialized
	}
	if !cur.SignedIn() {
		return ErrNoSession
	}
	userID := cur.User.ID

	fetchCtx, cancel := context.WithTimeout(ctx, m.config.Fetch.ProfileTimeout)
	p, err := m.profiles.GetByUserID(fetchCtx, userID)
	cancel()

	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		m.metrics.Inc(MetricProfileFetchFailure)
		return err
	}
	if errors.Is(err, profile.ErrNotFound) {
		p = nil
		m.metrics.Inc(MetricProfileFetchMiss)
	} else {
		m.metrics.Inc(MetricProfileFetchSuccess)
	}

	m.mu.Lock()
	// The session may have changed underneath the fetch; only apply the
	// result if it still belongs to the signed-in user.
	if m.state.User == nil || m.state.User.ID != userID {
		m.mu.Unlock()
		return nil
	}
	next := m.state
	next.Profile = p
	next.RequiresProfileCompletion = profile.RequiresCompletion(p)
	m.state = next
	m.mu.Unlock()

	m.metrics.Inc(MetricProfileRefreshed)
	m.emitAudit(ctx, AuditEvent{
		EventType: AuditProfileRefreshed,
		UserID:    userID,
		Success:   true,
	})
	m.notify(next)

	return nil
}

func (m *Manager) publish(next State) {
	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
	m.notify(next)
}

func (m *Manager) notify(s State) {
	if m.listener == nil {
		return
	}
	m.listener(snapshotOf(s))
}

// Snapshot returns a deep copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	s := m.state
	m.mu.RUnlock()
	return snapshotOf(s)
}

func snapshotOf(s State) State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.Profile != nil {
		p := *s.Profile
		s.Profile = &p
	}
	return s
}

// Authorization derives the current admin view. Loading covers both the
// initial resolution and any in-flight session processing, and IsAdmin
// is false whenever Loading is true.
func (m *Manager) Authorization() Authorization {
	m.mu.RLock()
	s := m.state
	m.mu.RUnlock()

	s.Loading = s.Loading || m.inFlight.Load()
	return Authorize(s, m.config.Admin)
}

// DecideRoute evaluates route requirements against the current state.
// Redirect decisions are counted and audited; the route path and client
// IP travel via [WithRoutePath] and [WithClientIP].
func (m *Manager) DecideRoute(ctx context.Context, req RouteRequirements) GuardDecision {
	s := m.Snapshot()
	s.Loading = s.Loading || m.inFlight.Load()
	a := Authorize(s, m.config.Admin)

	d := Decide(s, a, req)

	switch d {
	case DecisionRender:
		m.metrics.Inc(MetricGuardRender)
	case DecisionLoading:
		m.metrics.Inc(MetricGuardLoading)
	case DecisionRedirectLogin:
		m.metrics.Inc(MetricGuardRedirectLogin)
	case DecisionRedirectCompleteProfile:
		m.metrics.Inc(MetricGuardRedirectCompleteProfile)
	case DecisionRedirectCollegeVerification:
		m.metrics.Inc(MetricGuardRedirectCollegeVerification)
	case DecisionRedirectDashboard:
		m.metrics.Inc(MetricGuardRedirectDashboard)
	}

	if d != DecisionRender && d != DecisionLoading {
		var userID string
		if s.User != nil {
			userID = s.User.ID
		}
		m.emitAudit(ctx, AuditEvent{
			EventType: AuditGuardRedirect,
			UserID:    userID,
			Success:   true,
			Metadata: map[string]string{
				"decision": d.String(),
				"route":    routePathFromContext(ctx),
			},
		})
	}

	return d
}

/*
====================================
SIGN-IN DELEGATION
====================================
*/

// The manager never mutates state from these calls directly; the
// backend confirms the outcome through OnAuthStateChange and the
// notification drives the state machine.

func (m *Manager) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	return m.client.SignInWithPassword(ctx, email, password)
}

func (m *Manager) SignUp(ctx context.Context, email, password string) (*identity.Session, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	return m.client.SignUp(ctx, email, password)
}

func (m *Manager) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	if m.closed.Load() {
		return "", ErrManagerClosed
	}
	return m.client.SignInWithOAuth(ctx, provider, redirectTo)
}

func (m *Manager) SignOut(ctx context.Context) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}
	return m.client.SignOut(ctx)
}

func (m *Manager) VerifyOTP(ctx context.Context, email, token, otpType string) (*identity.Session, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	return m.client.VerifyOTP(ctx, email, token, otpType)
}

/*
====================================
LIFECYCLE AND OBSERVABILITY
====================================
*/

// Close tears the manager down: unsubscribes from auth notifications,
// cancels in-flight fetches, discards pending debounced events, and
// drains the audit queue. Safe to call more than once.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.cancel()
		if m.sub != nil {
			m.sub.Unsubscribe()
		}
		m.events.stop()
		m.audit.Close()
	})
	return nil
}

// MetricsSnapshot deep-copies the metrics registry for exporters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped reports how many audit events a full buffer discarded.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.Dropped()
}

func (m *Manager) emitAudit(ctx context.Context, ev AuditEvent) {
	if m.audit == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	ev.Source = "authstate"
	if ev.IP == "" {
		ev.IP = clientIPFromContext(ctx)
	}
	m.audit.Emit(ctx, ev)
}
