package server

import (
	"context"
	"testing"

	"workspacemcp/internal/google"
	"workspacemcp/internal/safefetch"
)

func newTestContext(t *testing.T, cfg Config) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), cfg, &google.StaticTokenProvider{})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestConfigServiceEnabled(t *testing.T) {
	tests := []struct {
		name    string
		enabled []string
		service string
		want    bool
	}{
		{"empty list enables all", nil, "gmail", true},
		{"listed service", []string{"gmail", "drive"}, "drive", true},
		{"unlisted service", []string{"gmail"}, "chat", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{EnabledServices: tt.enabled}
			if got := cfg.ServiceEnabled(tt.service); got != tt.want {
				t.Errorf("ServiceEnabled(%q) = %v, want %v", tt.service, got, tt.want)
			}
		})
	}
}

func TestServerContextReadOnly(t *testing.T) {
	sc := newTestContext(t, Config{ReadOnly: true})
	if !sc.ReadOnly() {
		t.Error("ReadOnly() = false for read-only config")
	}
}

func TestServerContextShutdown(t *testing.T) {
	sc := newTestContext(t, Config{})

	if sc.IsShutdown() {
		t.Error("new context should not be shut down")
	}

	if err := sc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("IsShutdown() = false after Shutdown()")
	}

	select {
	case <-sc.Context().Done():
	default:
		t.Error("context should be canceled after Shutdown()")
	}

	// Second shutdown is a no-op.
	if err := sc.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestClientsNilWithoutToken(t *testing.T) {
	// StaticTokenProvider with no token reports no account as
	// authorized, so client creation short-circuits to nil.
	sc := newTestContext(t, Config{})

	if c := sc.GmailClient(); c != nil {
		t.Error("GmailClient() should be nil without a token")
	}
	if c := sc.DriveClientForAccount("alice@example.com"); c != nil {
		t.Error("DriveClientForAccount() should be nil without a token")
	}
	if c := sc.DocsClient(); c != nil {
		t.Error("DocsClient() should be nil without a token")
	}
	if c := sc.ChatClient(); c != nil {
		t.Error("ChatClient() should be nil without a token")
	}
}

func TestServerContextOptions(t *testing.T) {
	fetcher := safefetch.New()
	sc, err := NewServerContext(context.Background(), Config{}, &google.StaticTokenProvider{},
		WithFetcher(fetcher))
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer func() { _ = sc.Shutdown() }()

	if sc.Fetcher() != fetcher {
		t.Error("Fetcher() should return the configured fetcher")
	}
	if sc.Metrics() != nil {
		t.Error("Metrics() should be nil when not configured")
	}
	if sc.Logger() == nil {
		t.Error("Logger() should default to a non-nil logger")
	}
}
