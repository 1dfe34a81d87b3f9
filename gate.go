package authstate

import "strings"

// IsAdmin derives administrator status from a settled state.
//
// The explicit profile fields are authoritative: the IsAdmin flag or a
// role matching cfg.RoleName grants admin. The legacy email-substring
// check runs only when cfg.AllowEmailHeuristic is set.
//
// A state with no signed-in user is never admin, regardless of what the
// profile says.
func IsAdmin(s State, cfg AdminConfig) bool {
	if !s.SignedIn() {
		return false
	}

	if s.Profile != nil {
		if s.Profile.IsAdmin {
			return true
		}
		role := cfg.RoleName
		if role == "" {
			role = "admin"
		}
		if strings.EqualFold(strings.TrimSpace(s.Profile.Role), role) {
			return true
		}
	}

	if cfg.AllowEmailHeuristic && cfg.EmailHeuristicNeedle != "" {
		needle := strings.ToLower(cfg.EmailHeuristicNeedle)
		if strings.Contains(strings.ToLower(s.User.Email), needle) {
			return true
		}
		if s.Profile != nil && strings.Contains(strings.ToLower(s.Profile.Email), needle) {
			return true
		}
	}

	return false
}

// Authorize computes the derived authorization view for a state.
// IsAdmin is forced false while loading so callers that forget to check
// Loading still fail closed.
func Authorize(s State, cfg AdminConfig) Authorization {
	a := Authorization{
		RequiresProfileCompletion: s.RequiresProfileCompletion,
		Loading:                   s.Loading,
	}
	if !s.Loading {
		a.IsAdmin = IsAdmin(s, cfg)
	}
	return a
}
