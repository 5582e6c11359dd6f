// Package telemetry bundles structured logging, Prometheus metrics and
// OpenTelemetry tracing for pwdrift.
//
// The three concerns are initialized together from one Config via
// NewTelemetry and carried through the process in a context. Metrics are
// exposed on a dedicated HTTP listener; traces export to stdout during
// development and OTLP in production.
package telemetry
