package docs_tools

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/google"
	"workspacemcp/internal/server"
)

func newTestServerContext(t *testing.T, cfg server.Config) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), cfg, &google.StaticTokenProvider{})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestRegisterDocsTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestServerContext(t, server.Config{})

	if err := RegisterDocsTools(s, sc); err != nil {
		t.Fatalf("RegisterDocsTools() error = %v", err)
	}
}

func TestRegisterDocsToolsReadOnly(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestServerContext(t, server.Config{ReadOnly: true})

	if err := RegisterDocsTools(s, sc); err != nil {
		t.Fatalf("RegisterDocsTools() error = %v", err)
	}
}
