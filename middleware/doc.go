// Package middleware exposes HTTP adapters for route protection built on
// top of authstate.Manager guard decisions.
//
// # Guards
//
//   - [Protect] — evaluates route requirements and redirects or renders.
//   - [RequireAuth], [RequireAdmin], [GuestOnly] — common presets.
//
// # Architecture boundaries
//
// This package translates guard decisions into HTTP semantics. It does
// NOT make authorization decisions itself — those are delegated to
// Manager.DecideRoute.
//
// # What this package must NOT do
//
//   - Read or verify tokens (the identity backend owns credentials).
//   - Fetch profiles (the Manager owns profile I/O).
//   - Override a decision: a loading state answers 503, never a redirect.
package middleware
