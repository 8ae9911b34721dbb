// Package server holds the shared runtime of the MCP server: the
// ServerContext with its per-account Google API client caches, the
// health and metrics endpoints, and the OAuth 2.1 HTTP transport that
// protects the streamable-http MCP endpoint.
//
// Configuration is carried by the Config struct passed into
// NewServerContext; there are no package-level mutable settings.
package server
