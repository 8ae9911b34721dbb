// Package google provides OAuth2 authentication, token management and
// scope authorization for Google APIs.
//
// This package handles both file-based token storage (for STDIO transport)
// and store-backed token management (for HTTP transports with OAuth
// authentication). The TokenProvider interface allows different token
// sources to be plugged in.
//
// It also owns the OAuth scope model: the scope URI constants, the
// broad-to-narrow ScopeHierarchy table, and HasRequiredScopes, which
// authorization checks throughout the server go through.
package google
