// Package authstate maintains a single consistent view of the signed-in
// user for the society website: who is authenticated, whether their
// profile is complete, and whether they are an administrator.
//
// The package sits between an external identity-and-data backend and the
// route layer. The backend pushes auth-state notifications; [Manager]
// serializes them, resolves the matching profile, and exposes an
// immutable [State] snapshot. [Decide] turns a snapshot plus a route's
// requirements into a render/redirect decision.
//
// # Architecture boundaries
//
// authstate is the public surface. It exposes [Manager], [Builder],
// [Config], and value types (State, Authorization, GuardDecision).
// Backend contracts live in the identity and profile subpackages; the
// manager never reaches around them.
//
// # What this package must NOT do
//
//   - Store credentials or verify passwords. Sign-in operations delegate
//     to the backend; the manager only observes their outcome.
//   - Surface raw errors from the notification path. Every failure
//     degrades to a well-defined state (signed out, profile incomplete,
//     non-admin) and is visible through logs, audit events, and metrics.
//   - Queue overlapping session resolutions. At most one processSession
//     runs at a time; stragglers are dropped and the next notification
//     re-derives the state they would have produced.
//
// # Concurrency contract
//
// Manager methods are safe for concurrent use after [Builder.Build].
// Reads (Snapshot, Authorization) take a short mutex and copy; the write
// path is serialized by a single-flight guard plus a debounce window that
// collapses the backend's duplicate notifications.
package authstate
