package common

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"

	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/safefetch"
	"workspacemcp/internal/server"
)

// ToolHandlerFunc is the handler signature mcp-go expects for tools.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Middleware wraps a tool handler with additional behavior.
type Middleware func(ToolHandlerFunc) ToolHandlerFunc

// Chain composes middlewares around a handler. The first middleware in
// the list is the outermost: Chain(h, a, b) runs a, then b, then h.
func Chain(handler ToolHandlerFunc, middlewares ...Middleware) ToolHandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// WithInstrumentation records a span, timing, tool and Google API
// metrics and an audit log entry for every invocation.
func WithInstrumentation(toolName, serviceName, operation string, sc *server.ServerContext) Middleware {
	return func(next ToolHandlerFunc) ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			metrics := sc.Metrics()
			auditLogger := sc.Audit()
			if metrics == nil && auditLogger == nil {
				return next(ctx, request)
			}

			ctx, span := instrumentation.StartToolSpan(ctx, toolName)
			defer span.End()

			start := time.Now()
			invocation := instrumentation.NewToolInvocation(toolName).
				WithSpanContext(ctx).
				WithService(serviceName, operation)

			account := GetAccountFromArgs(ctx, request.GetArguments())
			invocation.WithAccount(account)
			if email, ok := server.AccountFromContext(ctx); ok {
				invocation.WithUser(email)
			}

			result, err := next(ctx, request)
			duration := time.Since(start)

			status := instrumentation.StatusSuccess
			if err != nil || (result != nil && result.IsError) {
				status = instrumentation.StatusError
				invocation.Complete(false, err)
				instrumentation.SetSpanError(span, err)
			} else {
				invocation.Complete(true, nil)
				instrumentation.SetSpanSuccess(span)
			}

			metrics.RecordToolInvocation(ctx, toolName, status, account, duration)
			metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, duration)
			if auditLogger != nil {
				auditLogger.LogToolInvocation(invocation)
			}

			return result, err
		}
	}
}

// WithScopeGuard rejects an invocation up front when the acting
// account's granted OAuth scopes do not cover the required ones. The
// rejection is a tool error naming the missing authorization, not a
// transport failure.
func WithScopeGuard(sc *server.ServerContext, required ...string) Middleware {
	return func(next ToolHandlerFunc) ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if len(required) == 0 {
				return next(ctx, request)
			}

			account := GetAccountFromArgs(ctx, request.GetArguments())
			granted, err := sc.TokenProvider().GrantedScopes(ctx, account)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf(
					"account %q is not authorized; complete the OAuth flow first (%v)", account, err)), nil
			}

			if !google.HasRequiredScopes(granted, required) {
				return mcp.NewToolResultError(fmt.Sprintf(
					"account %q lacks the required OAuth scopes for this operation; re-authorize with: %s",
					account, strings.Join(required, " "))), nil
			}

			return next(ctx, request)
		}
	}
}

// FetchSpan opens a span for an outbound URL fetch. Only the host is
// attached; full URLs may carry sensitive query strings.
func FetchSpan(ctx context.Context, rawURL string) (context.Context, trace.Span) {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Hostname()
	}
	return instrumentation.StartFetchSpan(ctx, host)
}

const retryBaseDelay = 500 * time.Millisecond

// WithRetry retries a handler on transient Google API failures (401
// refresh races, 429, 5xx) with exponential backoff. Outbound fetch
// policy violations are never retried: the target is rejected, not
// flaky.
func WithRetry(maxAttempts int) Middleware {
	return func(next ToolHandlerFunc) ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if maxAttempts < 2 {
				return next(ctx, request)
			}

			var result *mcp.CallToolResult
			var err error
			for attempt := 1; attempt <= maxAttempts; attempt++ {
				result, err = next(ctx, request)
				if err == nil || !isTransient(err) {
					return result, err
				}
				if attempt == maxAttempts {
					break
				}

				delay := retryBaseDelay << (attempt - 1)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
			}
			return result, err
		}
	}
}

// isTransient reports whether an error is worth retrying. Fetch policy
// errors carry a deliberate rejection and always fail fast.
func isTransient(err error) bool {
	var invalidURL *safefetch.InvalidURLError
	var privateNet *safefetch.PrivateNetworkError
	var badRedirect *safefetch.BadRedirectError
	var tooMany *safefetch.TooManyRedirectsError
	var exhausted *safefetch.FetchExhaustedError
	if errors.As(err, &invalidURL) || errors.As(err, &privateNet) ||
		errors.As(err, &badRedirect) || errors.As(err, &tooMany) ||
		errors.As(err, &exhausted) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 408, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	return false
}
