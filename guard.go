package authstate

// RouteRequirements declares what a route demands of the visitor.
// Zero value means a public route: always rendered.
type RouteRequirements struct {
	// RequireAuth demands a signed-in user.
	RequireAuth bool
	// RequireProfileCompletion demands a complete profile. Implies
	// RequireAuth.
	RequireProfileCompletion bool
	// RequireCollegeVerification demands a verified institute email.
	// Implies RequireAuth and RequireProfileCompletion.
	RequireCollegeVerification bool
	// RequireAdmin demands administrator status. Implies RequireAuth.
	RequireAdmin bool
	// GuestOnly inverts the auth check: signed-in visitors are sent to
	// the dashboard instead. Mutually exclusive with the Require fields.
	GuestOnly bool
}

// GuardDecision is the outcome of evaluating a route against the
// current state.
type GuardDecision int

const (
	// DecisionLoading defers: the session is still resolving and no
	// redirect may be issued yet.
	DecisionLoading GuardDecision = iota
	// DecisionRender lets the route render.
	DecisionRender
	// DecisionRedirectLogin sends an unauthenticated visitor to login.
	DecisionRedirectLogin
	// DecisionRedirectCompleteProfile sends a user with an incomplete
	// profile to the complete-profile page.
	DecisionRedirectCompleteProfile
	// DecisionRedirectCollegeVerification sends a user without a
	// verified institute email to the verification page.
	DecisionRedirectCollegeVerification
	// DecisionRedirectDashboard sends the visitor to the dashboard:
	// signed-in users on guest-only routes and non-admins on admin
	// routes.
	DecisionRedirectDashboard
)

func (d GuardDecision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRender:
		return "render"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectCompleteProfile:
		return "redirect_complete_profile"
	case DecisionRedirectCollegeVerification:
		return "redirect_college_verification"
	case DecisionRedirectDashboard:
		return "redirect_dashboard"
	default:
		return "unknown"
	}
}

// Decide evaluates route requirements against a state snapshot and its
// derived authorization. Checks run in a fixed order so a visitor is
// never bounced to a later page while an earlier requirement is unmet:
//
//  1. loading defers everything
//  2. guest-only inversion
//  3. authentication
//  4. profile completion
//  5. college verification
//  6. admin
//
// Pure function: no I/O, no clock, deterministic for given inputs.
func Decide(s State, a Authorization, req RouteRequirements) GuardDecision {
	needsAuth := req.RequireAuth || req.RequireProfileCompletion ||
		req.RequireCollegeVerification || req.RequireAdmin

	if a.Loading && (needsAuth || req.GuestOnly) {
		return DecisionLoading
	}

	if req.GuestOnly {
		if s.SignedIn() {
			return DecisionRedirectDashboard
		}
		return DecisionRender
	}

	if needsAuth && !s.SignedIn() {
		return DecisionRedirectLogin
	}

	if (req.RequireProfileCompletion || req.RequireCollegeVerification) &&
		a.RequiresProfileCompletion {
		return DecisionRedirectCompleteProfile
	}

	if req.RequireCollegeVerification {
		if s.Profile == nil || !s.Profile.CollegeEmailVerified {
			return DecisionRedirectCollegeVerification
		}
	}

	if req.RequireAdmin && !a.IsAdmin {
		return DecisionRedirectDashboard
	}

	return DecisionRender
}
