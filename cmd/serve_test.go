package cmd

import (
	"context"
	"io"
	"log/slog"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/server"
)

func TestNewServeCmdDefaults(t *testing.T) {
	cmd := newServeCmd()

	tests := []struct {
		flag string
		want string
	}{
		{"transport", "stdio"},
		{"http-addr", ":8080"},
		{"yolo", "false"},
		{"debug", "false"},
		{"metrics-addr", server.DefaultMetricsAddr},
	}
	for _, tt := range tests {
		f := cmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Fatalf("flag %q not registered", tt.flag)
		}
		if f.DefValue != tt.want {
			t.Errorf("flag %q default = %q, want %q", tt.flag, f.DefValue, tt.want)
		}
	}
}

func TestApplyEnvFallbacks(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "env-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-secret")
	t.Setenv("MCP_BASE_URL", "https://mcp.example.com")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("METRICS_ADDR", ":9999")

	opts := &serveOptions{metricsAddr: server.DefaultMetricsAddr}
	applyEnvFallbacks(opts)

	if opts.googleClientID != "env-id" {
		t.Errorf("googleClientID = %q, want %q", opts.googleClientID, "env-id")
	}
	if opts.googleClientSecret != "env-secret" {
		t.Errorf("googleClientSecret = %q, want %q", opts.googleClientSecret, "env-secret")
	}
	if opts.baseURL != "https://mcp.example.com" {
		t.Errorf("baseURL = %q, want %q", opts.baseURL, "https://mcp.example.com")
	}
	if !opts.metricsEnabled {
		t.Error("metricsEnabled = false, want true")
	}
	if opts.metricsAddr != ":9999" {
		t.Errorf("metricsAddr = %q, want %q", opts.metricsAddr, ":9999")
	}
}

func TestApplyEnvFallbacksFlagsWin(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "env-id")
	t.Setenv("MCP_BASE_URL", "https://env.example.com")

	opts := &serveOptions{
		googleClientID: "flag-id",
		baseURL:        "https://flag.example.com",
	}
	applyEnvFallbacks(opts)

	if opts.googleClientID != "flag-id" {
		t.Errorf("googleClientID = %q, want flag value to win", opts.googleClientID)
	}
	if opts.baseURL != "https://flag.example.com" {
		t.Errorf("baseURL = %q, want flag value to win", opts.baseURL)
	}
}

func TestRegisterAllToolsServiceFilter(t *testing.T) {
	tests := []struct {
		name     string
		services []string
	}{
		{"all services", nil},
		{"gmail only", []string{"gmail"}},
		{"drive and docs", []string{"drive", "docs"}},
		{"chat only", []string{"chat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := server.NewServerContext(context.Background(), server.Config{
				EnabledServices: tt.services,
			}, &google.StaticTokenProvider{})
			if err != nil {
				t.Fatalf("NewServerContext() error = %v", err)
			}
			t.Cleanup(func() { _ = sc.Shutdown() })

			s := mcpserver.NewMCPServer("test", "0.0.1")
			if err := registerAllTools(s, sc); err != nil {
				t.Fatalf("registerAllTools() error = %v", err)
			}
		})
	}
}

func TestRunServeInvalidTransport(t *testing.T) {
	err := runServe(context.Background(), &serveOptions{transport: "websocket"})
	if err == nil {
		t.Fatal("runServe() with invalid transport, want error")
	}
}

func TestRunStreamableHTTPRequiresCredentials(t *testing.T) {
	opts := &serveOptions{
		transport: transportStreamableHTTP,
		httpAddr:  ":0",
	}
	err := runStreamableHTTPServer(context.Background(), opts, server.Config{}, nil, disabledProvider(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("runStreamableHTTPServer() without credentials, want error")
	}
}

// disabledProvider returns an instrumentation provider with metrics and
// tracing off, suitable for wiring tests.
func disabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	p, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestNormalizeAddrForURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", ":8080"},
		{"0.0.0.0:8080", ":8080"},
		{"localhost", ""},
	}
	for _, tt := range tests {
		if got := normalizeAddrForURL(tt.addr); got != tt.want {
			t.Errorf("normalizeAddrForURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestEnabledServicesLabel(t *testing.T) {
	if got := enabledServicesLabel(server.Config{}); got != "all" {
		t.Errorf("enabledServicesLabel(empty) = %q, want %q", got, "all")
	}
	if got := enabledServicesLabel(server.Config{EnabledServices: []string{"gmail", "drive"}}); got != "gmail,drive" {
		t.Errorf("enabledServicesLabel() = %q, want %q", got, "gmail,drive")
	}
}
