// Package internaldefs holds the shared metric name table used by the
// Prometheus and OTel exporters, so both render identical names.
package internaldefs
