// Package logging provides structured logging helpers shared across the
// server.
//
// It centralizes slog attribute naming so that fetcher, middleware and
// tool code emit consistent fields, and it sanitizes sensitive values
// before they reach a log sink: user emails are hashed for correlation
// without PII exposure, and tokens are reduced to a length indicator.
package logging
