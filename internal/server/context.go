package server

import (
	"context"
	"log/slog"
	"sync"

	"workspacemcp/internal/chat"
	"workspacemcp/internal/docs"
	"workspacemcp/internal/drive"
	"workspacemcp/internal/gmail"
	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/safefetch"
)

// Config carries the server-wide settings that tool handlers consult.
// It is passed into NewServerContext once; there is no package-level
// mutable state.
type Config struct {
	// ReadOnly disables all tools that modify remote state
	// (send message, upload, delete, modify labels).
	ReadOnly bool

	// EnabledServices lists the Workspace services whose tools are
	// registered ("gmail", "drive", "docs", "chat"). Empty means all.
	EnabledServices []string
}

// ServiceEnabled reports whether tools for the named service should be
// registered.
func (c Config) ServiceEnabled(name string) bool {
	if len(c.EnabledServices) == 0 {
		return true
	}
	for _, s := range c.EnabledServices {
		if s == name {
			return true
		}
	}
	return false
}

// ServerContext holds the shared dependencies for the MCP server: the
// token provider, per-account Google API client caches, the outbound
// fetcher and the instrumentation sinks.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	config        Config
	tokenProvider google.TokenProvider
	fetcher       *safefetch.Fetcher
	metrics       *instrumentation.Metrics
	audit         *instrumentation.AuditLogger
	logger        *slog.Logger

	// Client caches keyed by account name, created lazily on first use.
	gmailClients map[string]*gmail.Client
	driveClients map[string]*drive.Client
	docsClients  map[string]*docs.Client
	chatClients  map[string]*chat.Client

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. The token provider is
// required; fetcher, metrics, audit and logger may be nil (metrics and
// audit calls are nil-safe, the logger defaults to slog.Default).
func NewServerContext(ctx context.Context, config Config, tokenProvider google.TokenProvider, opts ...ContextOption) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:           shutdownCtx,
		cancel:        cancel,
		config:        config,
		tokenProvider: tokenProvider,
		logger:        slog.Default(),
		gmailClients:  make(map[string]*gmail.Client),
		driveClients:  make(map[string]*drive.Client),
		docsClients:   make(map[string]*docs.Client),
		chatClients:   make(map[string]*chat.Client),
	}

	for _, opt := range opts {
		opt(sc)
	}

	return sc, nil
}

// ContextOption configures optional ServerContext dependencies.
type ContextOption func(*ServerContext)

// WithFetcher sets the SSRF-safe fetcher used by upload/import tools.
func WithFetcher(f *safefetch.Fetcher) ContextOption {
	return func(sc *ServerContext) { sc.fetcher = f }
}

// WithMetrics sets the metrics sink for tool instrumentation.
func WithMetrics(m *instrumentation.Metrics) ContextOption {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the audit logger for tool invocations.
func WithAuditLogger(a *instrumentation.AuditLogger) ContextOption {
	return func(sc *ServerContext) { sc.audit = a }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ContextOption {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// Context returns the server lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the server configuration.
func (sc *ServerContext) Config() Config {
	return sc.config
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.config.ReadOnly
}

// TokenProvider returns the configured token provider.
func (sc *ServerContext) TokenProvider() google.TokenProvider {
	return sc.tokenProvider
}

// Fetcher returns the SSRF-safe fetcher, or nil if none was configured.
func (sc *ServerContext) Fetcher() *safefetch.Fetcher {
	return sc.fetcher
}

// Metrics returns the metrics sink, or nil. All Metrics methods are
// nil-safe, so callers may use the result without checking.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Audit returns the audit logger, or nil.
func (sc *ServerContext) Audit() *instrumentation.AuditLogger {
	return sc.audit
}

// Logger returns the structured logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// GmailClientForAccount returns the Gmail client for a specific account,
// creating and caching it on first use. Returns nil if the account has
// no token.
func (sc *ServerContext) GmailClientForAccount(account string) *gmail.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[account]; ok {
		return client
	}

	if !sc.tokenProvider.HasTokenForAccount(account) {
		return nil
	}

	client, err := gmail.NewClientForAccount(sc.ctx, account, sc.tokenProvider)
	if err != nil {
		sc.logger.Warn("failed to create Gmail client", "account", account, "error", err)
		return nil
	}

	sc.gmailClients[account] = client
	return client
}

// GmailClient returns the Gmail client for the default account.
func (sc *ServerContext) GmailClient() *gmail.Client {
	return sc.GmailClientForAccount(google.DefaultAccount)
}

// DriveClientForAccount returns the Drive client for a specific account,
// creating and caching it on first use. Returns nil if the account has
// no token.
func (sc *ServerContext) DriveClientForAccount(account string) *drive.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.driveClients[account]; ok {
		return client
	}

	if !sc.tokenProvider.HasTokenForAccount(account) {
		return nil
	}

	client, err := drive.NewClientForAccount(sc.ctx, account, sc.tokenProvider)
	if err != nil {
		sc.logger.Warn("failed to create Drive client", "account", account, "error", err)
		return nil
	}

	sc.driveClients[account] = client
	return client
}

// DriveClient returns the Drive client for the default account.
func (sc *ServerContext) DriveClient() *drive.Client {
	return sc.DriveClientForAccount(google.DefaultAccount)
}

// DocsClientForAccount returns the Docs client for a specific account,
// creating and caching it on first use. Returns nil if the account has
// no token.
func (sc *ServerContext) DocsClientForAccount(account string) *docs.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.docsClients[account]; ok {
		return client
	}

	if !sc.tokenProvider.HasTokenForAccount(account) {
		return nil
	}

	client, err := docs.NewClientForAccount(sc.ctx, account, sc.tokenProvider)
	if err != nil {
		sc.logger.Warn("failed to create Docs client", "account", account, "error", err)
		return nil
	}

	sc.docsClients[account] = client
	return client
}

// DocsClient returns the Docs client for the default account.
func (sc *ServerContext) DocsClient() *docs.Client {
	return sc.DocsClientForAccount(google.DefaultAccount)
}

// ChatClientForAccount returns the Chat client for a specific account,
// creating and caching it on first use. Returns nil if the account has
// no token.
func (sc *ServerContext) ChatClientForAccount(account string) *chat.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.chatClients[account]; ok {
		return client
	}

	if !sc.tokenProvider.HasTokenForAccount(account) {
		return nil
	}

	client, err := chat.NewClientForAccount(sc.ctx, account, sc.tokenProvider)
	if err != nil {
		sc.logger.Warn("failed to create Chat client", "account", account, "error", err)
		return nil
	}

	sc.chatClients[account] = client
	return client
}

// ChatClient returns the Chat client for the default account.
func (sc *ServerContext) ChatClient() *chat.Client {
	return sc.ChatClientForAccount(google.DefaultAccount)
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
