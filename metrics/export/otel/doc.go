// Package otel bridges authstate metrics into an OpenTelemetry meter via
// observable instruments. A registered callback reads a fresh snapshot
// on every collection; nothing is pushed.
package otel
