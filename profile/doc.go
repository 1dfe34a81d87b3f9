// Package profile holds the durable member-profile record and its store
// contracts: the completeness law, a Postgres-backed store, a
// read-through Redis cache, and an in-memory store for tests and demos.
//
// A profile row is created server-side at sign-up and is only meaningful
// alongside a live session. A missing row is the expected state before
// profile completion, reported as [ErrNotFound] rather than a failure.
package profile
