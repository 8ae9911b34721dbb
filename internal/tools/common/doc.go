// Package common provides the shared handler plumbing for MCP tools:
// account resolution, and a middleware chain for instrumentation,
// scope-based authorization and transient-error retry.
package common
