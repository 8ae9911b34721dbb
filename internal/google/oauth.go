package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultAccount is the account name used when the caller does not
// qualify requests with a specific account.
const DefaultAccount = "default"

// OAuthClientID and OAuthClientSecret configure the OAuth client used
// for the authorization flow. They are read from the environment so
// deployments can use their own Google Cloud project.
var (
	OAuthClientID     = os.Getenv("GOOGLE_OAUTH_CLIENT_ID")
	OAuthClientSecret = os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET")
)

// storedToken is the on-disk token format. The granted scopes are
// persisted alongside the token because oauth2.Token does not carry them
// through a JSON round trip.
type storedToken struct {
	Token  *oauth2.Token `json:"token"`
	Scopes []string      `json:"scopes,omitempty"`
}

// GetOAuthConfig returns the OAuth2 configuration for all Google services.
func GetOAuthConfig() *oauth2.Config {
	const oob = "urn:ietf:wg:oauth:2.0:oob"
	return &oauth2.Config{
		ClientID:     OAuthClientID,
		ClientSecret: OAuthClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  oob,
		Scopes:       DefaultOAuthScopes,
	}
}

// HasTokenForAccount checks if a stored OAuth token exists for the account.
func HasTokenForAccount(account string) bool {
	_, err := os.Stat(tokenFileForAccount(account))
	return err == nil
}

// HasToken checks if a stored OAuth token exists for the default account.
func HasToken() bool {
	return HasTokenForAccount(DefaultAccount)
}

// GetAuthURLForAccount returns the OAuth URL for user authorization.
func GetAuthURLForAccount(account string) string {
	conf := GetOAuthConfig()
	return conf.AuthCodeURL("state-" + account)
}

// GetAuthURL returns the OAuth URL for the default account.
func GetAuthURL() string {
	return GetAuthURLForAccount(DefaultAccount)
}

// SaveTokenForAccount exchanges an authorization code for tokens and
// saves them for the specified account.
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	conf := GetOAuthConfig()

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	// The token endpoint reports the scopes actually granted, which may
	// be a subset of what was requested if the user unchecked some.
	var scopes []string
	if granted, ok := t.Extra("scope").(string); ok && granted != "" {
		scopes = strings.Fields(granted)
	} else {
		scopes = conf.Scopes
	}

	return writeTokenForAccount(account, &storedToken{Token: t, Scopes: scopes})
}

// SaveToken exchanges an authorization code and saves the token for the
// default account.
func SaveToken(ctx context.Context, authCode string) error {
	return SaveTokenForAccount(ctx, DefaultAccount, authCode)
}

// GrantedScopesForAccount returns the scopes the user granted during
// authorization for the account.
func GrantedScopesForAccount(account string) ([]string, error) {
	st, err := readTokenForAccount(account)
	if err != nil {
		return nil, err
	}
	return st.Scopes, nil
}

// GetTokenSourceForAccount returns an auto-refreshing token source backed
// by the stored token for the account.
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	st, err := readTokenForAccount(account)
	if err != nil {
		return nil, err
	}

	conf := GetOAuthConfig()
	ts := conf.TokenSource(ctx, st.Token)

	// Validate (and refresh if expired) before handing it out.
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("cached token for account %s is invalid: %w", account, err)
	}
	if fresh.AccessToken != st.Token.AccessToken {
		// Refresh happened; persist so the next process start reuses it.
		st.Token = fresh
		if err := writeTokenForAccount(account, st); err != nil {
			return nil, err
		}
	}

	return ts, nil
}

// GetHTTPClientForAccount returns an HTTP client with OAuth2 authentication
// for the account. The client uses HTTP/1.1 to avoid HTTP/2 protocol
// errors seen against some Google API endpoints.
func GetHTTPClientForAccount(ctx context.Context, account string) (*http.Client, error) {
	ts, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client, nil
}

// GetHTTPClient returns an authenticated HTTP client for the default account.
func GetHTTPClient(ctx context.Context) (*http.Client, error) {
	return GetHTTPClientForAccount(ctx, DefaultAccount)
}

func readTokenForAccount(account string) (*storedToken, error) {
	data, err := os.ReadFile(tokenFileForAccount(account))
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s", account)
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil || st.Token == nil {
		return nil, fmt.Errorf("invalid token file for account %s", account)
	}
	return &st, nil
}

func writeTokenForAccount(account string, st *storedToken) error {
	cacheDir := filepath.Join(userCacheDir(), "workspacemcp")
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(tokenFileForAccount(account), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func tokenFileForAccount(account string) string {
	return filepath.Join(userCacheDir(), "workspacemcp", "google-"+account+".token")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		panic("No Windows TEMP or TMP environment variables found")
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
