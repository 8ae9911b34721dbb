package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	oauth "github.com/giantswarm/mcp-oauth"
	googleprovider "github.com/giantswarm/mcp-oauth/providers/google"
	"github.com/giantswarm/mcp-oauth/security"
	oauthserver "github.com/giantswarm/mcp-oauth/server"
	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
)

const (
	// DefaultRefreshTokenTTL is the TTL for refresh tokens (90 days).
	DefaultRefreshTokenTTL = 90 * 24 * time.Hour

	// DefaultIPRateLimit is the per-IP request rate (requests/second).
	DefaultIPRateLimit = 10
	// DefaultIPBurst is the per-IP burst size.
	DefaultIPBurst = 20

	// DefaultUserRateLimit is the per-user request rate (requests/second).
	DefaultUserRateLimit = 100
	// DefaultUserBurst is the per-user burst size.
	DefaultUserBurst = 200

	// DefaultMaxClientsPerIP caps dynamic client registrations per IP.
	DefaultMaxClientsPerIP = 10

	// DefaultReadHeaderTimeout is the request header read timeout.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the response write timeout. Streaming
	// responses need generous headroom.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the keepalive idle timeout.
	DefaultIdleTimeout = 120 * time.Second
)

// OAuthConfig holds the settings for the OAuth 2.1 HTTP transport.
type OAuthConfig struct {
	// BaseURL is the externally reachable URL of this server, used as
	// the OAuth issuer and the base for the callback URL.
	BaseURL string

	// GoogleClientID and GoogleClientSecret identify this server to
	// Google's authorization endpoint.
	GoogleClientID     string
	GoogleClientSecret string

	// AllowPublicClientRegistration permits unauthenticated dynamic
	// client registration (RFC 7591).
	AllowPublicClientRegistration bool

	// RegistrationAccessToken, when set, is required for client
	// registration requests.
	RegistrationAccessToken string

	// MaxClientsPerIP caps registrations per IP; 0 uses the default.
	MaxClientsPerIP int

	// DisableStreaming turns off chunked streaming on the MCP endpoint.
	DisableStreaming bool
}

// OAuthHTTPServer wraps the MCP streamable-http endpoint with an OAuth
// 2.1 authorization server and token validation middleware. Google acts
// as the identity provider; validated users are mapped to accounts by
// email and their Google tokens stored for the API clients.
type OAuthHTTPServer struct {
	config        OAuthConfig
	oauthServer   *oauth.Server
	oauthHandler  *oauth.Handler
	tokenStore    storage.TokenStore
	tokenProvider *StoreTokenProvider
	mcpServer     *mcpserver.MCPServer
	httpServer    *http.Server
	health        *HealthChecker
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
}

// NewOAuthHTTPServer creates an OAuth-enabled HTTP server for the MCP
// endpoint.
func NewOAuthHTTPServer(mcpServer *mcpserver.MCPServer, config OAuthConfig, logger *slog.Logger) (*OAuthHTTPServer, error) {
	if err := validateHTTPSRequirement(config.BaseURL); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	oauthSrv, tokenStore, err := newOAuthServer(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	return &OAuthHTTPServer{
		config:        config,
		oauthServer:   oauthSrv,
		oauthHandler:  oauth.NewHandler(oauthSrv, oauthSrv.Logger),
		tokenStore:    tokenStore,
		tokenProvider: NewStoreTokenProvider(tokenStore, google.DefaultOAuthScopes),
		mcpServer:     mcpServer,
		logger:        logger,
	}, nil
}

// TokenProvider returns the token provider backed by the OAuth token
// store, for injection into the ServerContext.
func (s *OAuthHTTPServer) TokenProvider() *StoreTokenProvider {
	return s.tokenProvider
}

// SetHealthChecker attaches the health checker so /healthz and /readyz
// are served alongside the OAuth and MCP endpoints. Must be called
// before Start.
func (s *OAuthHTTPServer) SetHealthChecker(h *HealthChecker) {
	s.health = h
}

// SetMetrics attaches the request metrics recorder. Must be called
// before Start.
func (s *OAuthHTTPServer) SetMetrics(m *instrumentation.Metrics) {
	s.metrics = m
}

// CreateMux builds the HTTP mux with the OAuth endpoints and the
// protected MCP endpoint.
func (s *OAuthHTTPServer) CreateMux() http.Handler {
	mux := http.NewServeMux()

	// Protected Resource Metadata (RFC 9728) and Authorization Server
	// Metadata (RFC 8414) let MCP clients discover the flow.
	mux.HandleFunc("/.well-known/oauth-protected-resource", s.oauthHandler.ServeProtectedResourceMetadata)
	mux.HandleFunc("/.well-known/oauth-authorization-server", s.oauthHandler.ServeAuthorizationServerMetadata)

	// Dynamic Client Registration (RFC 7591)
	mux.HandleFunc("/oauth/register", s.oauthHandler.ServeClientRegistration)

	mux.HandleFunc("/oauth/authorize", s.oauthHandler.ServeAuthorization)
	mux.HandleFunc("/oauth/token", s.oauthHandler.ServeToken)
	mux.HandleFunc("/oauth/callback", s.oauthHandler.ServeCallback)

	// Token Revocation (RFC 7009) and Introspection (RFC 7662)
	mux.HandleFunc("/oauth/revoke", s.oauthHandler.ServeTokenRevocation)
	mux.HandleFunc("/oauth/introspect", s.oauthHandler.ServeTokenIntrospection)

	// MCP endpoint, token-validated, with the account bound into the
	// request context for the tool handlers.
	streamOpts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath("/mcp"),
	}
	if s.config.DisableStreaming {
		streamOpts = append(streamOpts, mcpserver.WithDisableStreaming(true))
	}
	streamServer := mcpserver.NewStreamableHTTPServer(s.mcpServer, streamOpts...)
	mux.Handle("/mcp", s.oauthHandler.ValidateToken(s.accountInjector(streamServer)))

	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
	}

	return s.withRequestMetrics(mux)
}

// withRequestMetrics records method/path/status and latency for every
// request on the listener.
func (s *OAuthHTTPServer) withRequestMetrics(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush passes through so streaming responses keep working behind the
// metrics wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// accountInjector copies the validated user's email into the request
// context as the account name. Handlers resolve the acting account from
// there before falling back to explicit arguments.
func (s *OAuthHTTPServer) accountInjector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if userInfo, ok := oauth.UserInfoFromContext(ctx); ok && userInfo != nil && userInfo.Email != "" {
			r = r.WithContext(ContextWithAccount(ctx, userInfo.Email))
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the OAuth-enabled HTTP server and blocks until it stops.
func (s *OAuthHTTPServer) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.CreateMux(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.logger.Info("starting OAuth HTTP server", "addr", addr, "issuer", s.config.BaseURL)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the OAuth server and the HTTP server.
func (s *OAuthHTTPServer) Shutdown(ctx context.Context) error {
	if s.oauthServer != nil {
		if err := s.oauthServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown OAuth server: %w", err)
		}
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// newOAuthServer wires the mcp-oauth server: Google as the identity
// provider, in-memory token/client/flow storage, audit logging and
// rate limiting.
func newOAuthServer(config OAuthConfig, logger *slog.Logger) (*oauth.Server, storage.TokenStore, error) {
	provider, err := googleprovider.NewProvider(&googleprovider.Config{
		ClientID:     config.GoogleClientID,
		ClientSecret: config.GoogleClientSecret,
		RedirectURL:  config.BaseURL + "/oauth/callback",
		Scopes:       google.DefaultOAuthScopes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Google provider: %w", err)
	}

	memStore := memory.New()

	maxClientsPerIP := config.MaxClientsPerIP
	if maxClientsPerIP <= 0 {
		maxClientsPerIP = DefaultMaxClientsPerIP
	}

	serverConfig := &oauthserver.Config{
		Issuer:                        config.BaseURL,
		RefreshTokenTTL:               int64(DefaultRefreshTokenTTL.Seconds()),
		AllowRefreshTokenRotation:     true,
		RequirePKCE:                   true,
		AllowPKCEPlain:                false,
		AllowPublicClientRegistration: config.AllowPublicClientRegistration,
		RegistrationAccessToken:       config.RegistrationAccessToken,
		MaxClientsPerIP:               maxClientsPerIP,
	}

	oauthSrv, err := oauth.NewServer(provider, memStore, memStore, memStore, serverConfig, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	oauthSrv.SetAuditor(security.NewAuditor(logger, true))
	oauthSrv.SetRateLimiter(security.NewRateLimiter(DefaultIPRateLimit, DefaultIPBurst, logger))
	oauthSrv.SetUserRateLimiter(security.NewRateLimiter(DefaultUserRateLimit, DefaultUserBurst, logger))

	return oauthSrv, memStore, nil
}

// validateHTTPSRequirement ensures OAuth 2.1 HTTPS compliance. HTTP is
// allowed only for loopback addresses.
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for production (got: %s); use HTTPS or localhost for development", baseURL)
		}
		return nil
	default:
		return fmt.Errorf("invalid URL scheme: %s; must be http (localhost only) or https", u.Scheme)
	}
}
