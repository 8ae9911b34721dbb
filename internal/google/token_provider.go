package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Google APIs.
// This abstraction allows different token sources (file-based for STDIO
// transport, OAuth store-based for HTTP transports) to be plugged in.
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool

	// GrantedScopes returns the scopes granted to the specified account.
	// Used to decide up front whether an operation is authorized.
	GrantedScopes(ctx context.Context, account string) ([]string, error)
}

// FileTokenProvider provides tokens from disk files (for STDIO transport).
type FileTokenProvider struct{}

// NewFileTokenProvider creates a new file-based token provider.
func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{}
}

// GetTokenForAccount retrieves a token from disk for the specified account.
func (p *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	ts, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token from file: %w", err)
	}

	return token, nil
}

// HasTokenForAccount checks if a token file exists for the specified account.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return HasTokenForAccount(account)
}

// GrantedScopes returns the scopes recorded when the account authorized.
func (p *FileTokenProvider) GrantedScopes(ctx context.Context, account string) ([]string, error) {
	return GrantedScopesForAccount(account)
}

// StaticTokenProvider serves a fixed token and scope set. Used for HTTP
// transports where the token arrives with the request, and in tests.
type StaticTokenProvider struct {
	Token      *oauth2.Token
	ScopeGrant []string
}

// GetTokenForAccount returns the fixed token regardless of account.
func (p *StaticTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	if p.Token == nil {
		return nil, fmt.Errorf("no token configured")
	}
	return p.Token, nil
}

// HasTokenForAccount reports whether a token is configured.
func (p *StaticTokenProvider) HasTokenForAccount(account string) bool {
	return p.Token != nil
}

// GrantedScopes returns the configured scope grant.
func (p *StaticTokenProvider) GrantedScopes(ctx context.Context, account string) ([]string, error) {
	return p.ScopeGrant, nil
}
