package authstate

import (
	"github.com/csea-nits/authstate/identity"
	"github.com/csea-nits/authstate/profile"
)

// State is an immutable snapshot of the session manager's view. User and
// Profile point at copies; mutating them does not affect the manager.
//
// Loading is true from construction until the first session resolution
// settles. RequiresProfileCompletion follows the completeness law: true
// iff Profile is absent or misses FullName/ScholarID.
type State struct {
	User                      *identity.UserIdentity
	Profile                   *profile.Profile
	Loading                   bool
	RequiresProfileCompletion bool
	LastEvent                 identity.EventKind
}

// SignedIn reports whether an authenticated user is present.
func (s State) SignedIn() bool {
	return s.User != nil && s.User.ID != ""
}

// Authorization is the derived admin view. It is recomputed on every
// call and never stored; a stale IsAdmin cannot outlive the state that
// produced it.
//
// Loading covers both the initial session resolution and any in-flight
// profile resolution. Callers gating admin routes must check Loading
// before trusting IsAdmin (fail closed).
type Authorization struct {
	IsAdmin                   bool
	RequiresProfileCompletion bool
	Loading                   bool
}

// StateListener receives each settled state transition. Invoked
// synchronously on the manager's processing goroutine; implementations
// must not block and must not call back into the Manager's write path.
type StateListener func(State)
