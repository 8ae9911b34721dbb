package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"google.golang.org/api/googleapi"

	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/safefetch"
	"workspacemcp/internal/server"
)

func newGuardContext(t *testing.T, granted []string) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Config{},
		&google.StaticTokenProvider{ScopeGrant: granted})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func okHandler(calls *int) ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		*calls++
		return mcp.NewToolResultText("ok"), nil
	}
}

func TestWithInstrumentationAuditOnly(t *testing.T) {
	// Audit logging can be enabled without metrics; the middleware must
	// still run the handler instead of dereferencing a nil recorder.
	sc, err := server.NewServerContext(context.Background(), server.Config{},
		&google.StaticTokenProvider{},
		server.WithAuditLogger(instrumentation.NewAuditLogger(nil)))
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })

	calls := 0
	handler := Chain(okHandler(&calls), WithInstrumentation("gmail_search", "gmail", "search", sc))

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result == nil || result.IsError {
		t.Fatalf("result = %+v, want success", result)
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next ToolHandlerFunc) ToolHandlerFunc {
			return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				order = append(order, name)
				return next(ctx, request)
			}
		}
	}

	handler := Chain(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		order = append(order, "handler")
		return nil, nil
	}, mw("outer"), mw("inner"))

	if _, err := handler(context.Background(), mcp.CallToolRequest{}); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestScopeGuardAllowsCoveredScopes(t *testing.T) {
	// gmail.modify implies gmail.send through the hierarchy.
	sc := newGuardContext(t, []string{google.ScopeGmailModify})

	calls := 0
	handler := Chain(okHandler(&calls), WithScopeGuard(sc, google.ScopeGmailSend))

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Fatal("covered scope should not be rejected")
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestScopeGuardRejectsMissingScope(t *testing.T) {
	sc := newGuardContext(t, []string{google.ScopeGmailReadonly})

	calls := 0
	handler := Chain(okHandler(&calls), WithScopeGuard(sc, google.ScopeGmailSend))

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("scope rejection should be a tool error, not a transport error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("missing scope should produce an error result")
	}
	if calls != 0 {
		t.Errorf("handler should not run, got %d calls", calls)
	}
}

func TestScopeGuardNoRequirements(t *testing.T) {
	sc := newGuardContext(t, nil)

	calls := 0
	handler := Chain(okHandler(&calls), WithScopeGuard(sc))
	if _, err := handler(context.Background(), mcp.CallToolRequest{}); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestWithRetryRetriesTransient(t *testing.T) {
	attempts := 0
	handler := Chain(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attempts++
		if attempts < 3 {
			return nil, &googleapi.Error{Code: 503, Message: "backend unavailable"}
		}
		return mcp.NewToolResultText("ok"), nil
	}, WithRetry(3))

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Error("third attempt should have succeeded")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryStopsAtMaxAttempts(t *testing.T) {
	attempts := 0
	handler := Chain(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attempts++
		return nil, &googleapi.Error{Code: 500}
	}, WithRetry(2))

	if _, err := handler(context.Background(), mcp.CallToolRequest{}); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestWithRetryNeverRetriesFetchPolicyErrors(t *testing.T) {
	policyErrors := []error{
		&safefetch.InvalidURLError{URL: "ftp://x", Reason: "scheme"},
		&safefetch.PrivateNetworkError{Host: "localhost"},
		&safefetch.BadRedirectError{Location: "file:///etc/passwd"},
		&safefetch.TooManyRedirectsError{Max: 10},
		&safefetch.FetchExhaustedError{Host: "example.com", Attempts: 2},
	}

	for _, policyErr := range policyErrors {
		attempts := 0
		handler := Chain(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			attempts++
			return nil, fmt.Errorf("fetch failed: %w", policyErr)
		}, WithRetry(3))

		if _, err := handler(context.Background(), mcp.CallToolRequest{}); err == nil {
			t.Fatalf("%T: expected error", policyErr)
		}
		if attempts != 1 {
			t.Errorf("%T: attempts = %d, want 1 (no retry)", policyErr, attempts)
		}
	}
}

func TestWithRetryNonRetryableAPIError(t *testing.T) {
	attempts := 0
	handler := Chain(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attempts++
		return nil, &googleapi.Error{Code: 404, Message: "not found"}
	}, WithRetry(3))

	if _, err := handler(context.Background(), mcp.CallToolRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestIsTransient(t *testing.T) {
	if isTransient(errors.New("plain error")) {
		t.Error("plain errors are not transient")
	}
	if !isTransient(&googleapi.Error{Code: 401}) {
		t.Error("401 should be transient (token refresh race)")
	}
	if isTransient(&googleapi.Error{Code: 403}) {
		t.Error("403 is a permission failure, not transient")
	}
}
