package authstate

import "context"

type clientIPContextKey struct{}
type routePathContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Audit events
// emitted while handling that request carry it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRoutePath attaches the requested route to ctx so guard-decision
// audit events name the route they protected.
func WithRoutePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, routePathContextKey{}, path)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func routePathFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	path, _ := ctx.Value(routePathContextKey{}).(string)
	return path
}
