package server

import (
	"context"
	"strings"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"

	"workspacemcp/internal/google"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// accountContextKey carries the authenticated account (email) through
// the request context so tool handlers can resolve the caller without
// an explicit argument.
const accountContextKey contextKey = "workspace_account"

// ContextWithAccount returns a context carrying the authenticated
// account name.
func ContextWithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

// AccountFromContext retrieves the authenticated account from the
// context. Returns empty string and false when no OAuth user is bound
// to the request (STDIO transport).
func AccountFromContext(ctx context.Context) (string, bool) {
	account, ok := ctx.Value(accountContextKey).(string)
	return account, ok && account != ""
}

// UserInfoFromContext retrieves the OAuth user info set by the
// ValidateToken middleware.
func UserInfoFromContext(ctx context.Context) (*providers.UserInfo, bool) {
	return mcpoauth.UserInfoFromContext(ctx)
}

// StoreTokenProvider implements google.TokenProvider on top of the
// OAuth server's token store. Accounts are user email addresses; the
// Google token stored at authorization time is handed to the API
// clients.
type StoreTokenProvider struct {
	store storage.TokenStore

	// requestedScopes is the scope set the OAuth server asks Google
	// for. Used as the granted set when a stored token carries no
	// scope field of its own.
	requestedScopes []string
}

// NewStoreTokenProvider creates a token provider backed by an OAuth
// token store.
func NewStoreTokenProvider(store storage.TokenStore, requestedScopes []string) *StoreTokenProvider {
	return &StoreTokenProvider{
		store:           store,
		requestedScopes: requestedScopes,
	}
}

// GetTokenForAccount retrieves the stored Google OAuth token for the
// account.
func (p *StoreTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	return p.store.GetToken(ctx, account)
}

// HasTokenForAccount checks whether a token exists for the account.
func (p *StoreTokenProvider) HasTokenForAccount(account string) bool {
	token, err := p.store.GetToken(context.Background(), account)
	return err == nil && token != nil
}

// GrantedScopes returns the scopes granted to the account's token. The
// token's own scope field wins; absent that, the scopes requested at
// authorization time are assumed granted.
func (p *StoreTokenProvider) GrantedScopes(ctx context.Context, account string) ([]string, error) {
	token, err := p.store.GetToken(ctx, account)
	if err != nil {
		return nil, err
	}
	if token != nil {
		if scope, ok := token.Extra("scope").(string); ok && scope != "" {
			return strings.Fields(scope), nil
		}
	}
	return p.requestedScopes, nil
}

// SaveToken stores a Google OAuth token for the account, used when a
// token is refreshed.
func (p *StoreTokenProvider) SaveToken(ctx context.Context, account string, token *oauth2.Token) error {
	return p.store.SaveToken(ctx, account, token)
}

var _ google.TokenProvider = (*StoreTokenProvider)(nil)
