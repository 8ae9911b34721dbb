package chat_tools

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

func TestRegisterChatTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestServerContext(t, server.Config{})

	if err := RegisterChatTools(s, sc); err != nil {
		t.Fatalf("RegisterChatTools() error = %v", err)
	}
}

func TestRegisterChatToolsReadOnly(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestServerContext(t, server.Config{ReadOnly: true})

	if err := RegisterChatTools(s, sc); err != nil {
		t.Fatalf("RegisterChatTools() error = %v", err)
	}
}
