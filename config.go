package authstate

import (
	"errors"
	"time"
)

// Config defines the tunables of the session manager. Instances are
// configured during initialization and treated as immutable afterwards.
type Config struct {
	Events  EventsConfig
	Fetch   FetchConfig
	Admin   AdminConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
EVENTS CONFIG
====================================
*/

// EventsConfig controls notification handling.
type EventsConfig struct {
	// DebounceWindow is how long a notification is held so the
	// provider's synchronous duplicate emissions collapse into one
	// logical event. Zero disables debouncing (events dispatch on the
	// caller's goroutine); useful in tests.
	DebounceWindow time.Duration
}

/*
====================================
FETCH CONFIG
====================================
*/

// FetchConfig bounds the backend I/O issued by the manager.
type FetchConfig struct {
	// SessionTimeout bounds the startup GetSession call.
	SessionTimeout time.Duration
	// ProfileTimeout bounds each profile fetch.
	ProfileTimeout time.Duration
}

/*
====================================
ADMIN CONFIG
====================================
*/

// AdminConfig controls how administrator status is derived from the
// session and profile.
type AdminConfig struct {
	// RoleName is the profile role value that grants admin. Defaults
	// to "admin".
	RoleName string

	// AllowEmailHeuristic additionally grants admin when the session or
	// profile email contains EmailHeuristicNeedle. Off by default: the
	// explicit role/flag fields are authoritative, and substring
	// matching on an email is a migration aid for rows created before
	// the role column existed, not an access-control mechanism.
	AllowEmailHeuristic  bool
	EmailHeuristicNeedle string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the emitter when the
	// buffer is full. Dropped counts are observable via
	// [Manager.AuditDropped].
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metrics registry.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: a 25ms debounce window,
// 5s fetch timeouts, explicit-role admin derivation, audit off, metrics
// on.
func DefaultConfig() Config {
	return Config{
		Events: EventsConfig{
			DebounceWindow: 25 * time.Millisecond,
		},
		Fetch: FetchConfig{
			SessionTimeout: 5 * time.Second,
			ProfileTimeout: 5 * time.Second,
		},
		Admin: AdminConfig{
			RoleName:             "admin",
			AllowEmailHeuristic:  false,
			EmailHeuristicNeedle: "admin",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate rejects configurations that would misbehave at runtime.
func (c Config) Validate() error {
	if c.Events.DebounceWindow < 0 || c.Events.DebounceWindow > 2*time.Second {
		return errors.New("events: debounce window must be in [0, 2s]")
	}
	if c.Fetch.SessionTimeout <= 0 || c.Fetch.SessionTimeout > time.Minute {
		return errors.New("fetch: session timeout must be in (0, 1m]")
	}
	if c.Fetch.ProfileTimeout <= 0 || c.Fetch.ProfileTimeout > time.Minute {
		return errors.New("fetch: profile timeout must be in (0, 1m]")
	}
	if c.Admin.RoleName == "" {
		return errors.New("admin: role name must not be empty")
	}
	if c.Admin.AllowEmailHeuristic && c.Admin.EmailHeuristicNeedle == "" {
		return errors.New("admin: email heuristic enabled without a needle")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit: buffer size must be positive when enabled")
	}
	return nil
}
