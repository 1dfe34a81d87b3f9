package authstate

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/csea-nits/authstate/identity"
	"github.com/csea-nits/authstate/profile"
)

// Builder assembles a Manager. Configure it during initialization and
// call Build once; the resulting Manager owns its dependencies for its
// lifetime.
type Builder struct {
	config Config

	client   identity.Client
	profiles profile.Store
	verifier *identity.TokenVerifier
	logger   *zap.Logger

	auditSink AuditSink
	listener  StateListener

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithIdentityClient sets the backend auth client. Required.
func (b *Builder) WithIdentityClient(c identity.Client) *Builder {
	b.client = c
	return b
}

// WithProfileStore sets the profile store. Required.
func (b *Builder) WithProfileStore(s profile.Store) *Builder {
	b.profiles = s
	return b
}

// WithTokenVerifier enables local access-token parsing as a fallback
// identity source on token-refresh notifications. Optional.
func (b *Builder) WithTokenVerifier(v *identity.TokenVerifier) *Builder {
	b.verifier = v
	return b
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the destination for audit events. Only consulted
// when auditing is enabled in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithStateListener registers the callback invoked on every settled
// state transition.
func (b *Builder) WithStateListener(fn StateListener) *Builder {
	b.listener = fn
	return b
}

// WithMetricsEnabled toggles the metrics registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the session-resolution latency
// histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the Manager. The
// manager starts in the loading state; call Initialize to resolve the
// first session and subscribe to auth notifications.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.client == nil {
		return nil, errors.New("identity client required")
	}
	if b.profiles == nil {
		return nil, errors.New("profile store required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:   b.config,
		client:   b.client,
		profiles: b.profiles,
		verifier: b.verifier,
		logger:   logger,
		listener: b.listener,
		audit:    newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:  NewMetrics(b.config.Metrics),
		ctx:      ctx,
		cancel:   cancel,
		state: State{
			Loading:                   true,
			RequiresProfileCompletion: true,
		},
	}
	m.events = newCoalescer(b.config.Events.DebounceWindow, m.dispatch, func(identity.EventKind) {
		m.metrics.Inc(MetricAuthEventCoalesced)
	})

	b.built = true

	return m, nil
}
