// Package instrumentation provides OpenTelemetry metrics, tracing and
// audit logging for the server.
//
// A Provider owns the meter and tracer providers and their exporters
// (Prometheus, OTLP or stdout). Metrics is the typed recording surface
// the rest of the codebase calls; it is nil-safe so code paths work
// unchanged when instrumentation is disabled. AuditLogger emits the
// structured per-invocation audit trail.
package instrumentation
