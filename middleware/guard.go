package middleware

import (
	"net"
	"net/http"

	authstate "github.com/csea-nits/authstate"
)

// Paths names the redirect targets for each guard outcome.
type Paths struct {
	Login               string
	CompleteProfile     string
	CollegeVerification string
	Dashboard           string
}

// DefaultPaths matches the site's route layout.
func DefaultPaths() Paths {
	return Paths{
		Login:               "/login",
		CompleteProfile:     "/complete-profile",
		CollegeVerification: "/verify-college-email",
		Dashboard:           "/dashboard",
	}
}

// Protect wraps a handler with a guard decision. Redirect decisions
// answer 302 to the matching path; a still-loading session answers 503
// with a Retry-After so clients poll instead of caching a redirect.
func Protect(m *authstate.Manager, req authstate.RouteRequirements, paths Paths) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authstate.WithRoutePath(r.Context(), r.URL.Path)
			if ip := clientIP(r); ip != "" {
				ctx = authstate.WithClientIP(ctx, ip)
			}

			switch m.DecideRoute(ctx, req) {
			case authstate.DecisionRender:
				next.ServeHTTP(w, r.WithContext(ctx))
			case authstate.DecisionLoading:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session resolving", http.StatusServiceUnavailable)
			case authstate.DecisionRedirectLogin:
				http.Redirect(w, r, paths.Login, http.StatusFound)
			case authstate.DecisionRedirectCompleteProfile:
				http.Redirect(w, r, paths.CompleteProfile, http.StatusFound)
			case authstate.DecisionRedirectCollegeVerification:
				http.Redirect(w, r, paths.CollegeVerification, http.StatusFound)
			case authstate.DecisionRedirectDashboard:
				http.Redirect(w, r, paths.Dashboard, http.StatusFound)
			default:
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			}
		})
	}
}

// RequireAuth protects a route that only needs a signed-in user.
func RequireAuth(m *authstate.Manager, paths Paths) func(http.Handler) http.Handler {
	return Protect(m, authstate.RouteRequirements{RequireAuth: true}, paths)
}

// RequireAdmin protects an admin route.
func RequireAdmin(m *authstate.Manager, paths Paths) func(http.Handler) http.Handler {
	return Protect(m, authstate.RouteRequirements{RequireAuth: true, RequireAdmin: true}, paths)
}

// GuestOnly protects routes like login that signed-in users should skip.
func GuestOnly(m *authstate.Manager, paths Paths) func(http.Handler) http.Handler {
	return Protect(m, authstate.RouteRequirements{GuestOnly: true}, paths)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
