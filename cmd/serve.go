package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/safefetch"
	"workspacemcp/internal/server"
	"workspacemcp/internal/tools/chat_tools"
	"workspacemcp/internal/tools/docs_tools"
	"workspacemcp/internal/tools/drive_tools"
	"workspacemcp/internal/tools/gmail_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// serveOptions collects every serve flag. HTTP/OAuth settings fall back
// to environment variables so the binary works in containers without a
// long argv.
type serveOptions struct {
	debug     bool
	transport string
	httpAddr  string

	// yolo enables write operations; the default is read-only.
	yolo     bool
	services []string

	baseURL              string
	googleClientID       string
	googleClientSecret   string
	disableStreaming     bool
	allowPublicClientReg bool
	registrationToken    string
	oauthMaxClientsPerIP int

	metricsEnabled bool
	metricsAddr    string

	fetchMaxRedirects int
	fetchMaxBodySize  int64
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Google Workspace MCP server",
		Long: `Start the MCP server exposing Gmail, Drive, Docs and Chat tools.

Transports:
  stdio            local clients; tokens come from the on-disk store
                   populated by the auth command
  streamable-http  remote clients; an OAuth 2.1 authorization server
                   protects the /mcp endpoint and Google tokens are
                   held per authenticated user

The server starts read-only. Pass --yolo to also register the tools
that send mail, upload files and delete content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvFallbacks(opts)
			return runServe(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&opts.transport, "transport", transportStdio, "Transport: stdio or streamable-http")
	flags.StringVar(&opts.httpAddr, "http-addr", ":8080", "Listen address for the streamable-http transport")
	flags.BoolVar(&opts.yolo, "yolo", false, "Register write tools (send, upload, delete); default is read-only")
	flags.StringSliceVar(&opts.services, "services", nil, "Services to enable (gmail,drive,docs,chat); empty enables all")

	flags.StringVar(&opts.baseURL, "base-url", "", "Externally reachable base URL, used as OAuth issuer (env: MCP_BASE_URL)")
	flags.StringVar(&opts.googleClientID, "google-client-id", "", "Google OAuth client ID (env: GOOGLE_CLIENT_ID)")
	flags.StringVar(&opts.googleClientSecret, "google-client-secret", "", "Google OAuth client secret (env: GOOGLE_CLIENT_SECRET)")
	flags.BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable chunked streaming on the MCP endpoint")
	flags.BoolVar(&opts.allowPublicClientReg, "oauth-allow-public-registration", false, "Allow unauthenticated dynamic client registration")
	flags.StringVar(&opts.registrationToken, "oauth-registration-token", "", "Access token required for client registration (env: OAUTH_REGISTRATION_TOKEN)")
	flags.IntVar(&opts.oauthMaxClientsPerIP, "oauth-max-clients-per-ip", 0, "Max dynamic client registrations per IP (0 = default)")

	flags.BoolVar(&opts.metricsEnabled, "metrics-enabled", false, "Serve Prometheus metrics on a dedicated port (env: METRICS_ENABLED)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Listen address for the metrics server (env: METRICS_ADDR)")

	flags.IntVar(&opts.fetchMaxRedirects, "fetch-max-redirects", 0, "Max redirect hops for URL imports (0 = default)")
	flags.Int64Var(&opts.fetchMaxBodySize, "fetch-max-body-size", 0, "Max response body size in bytes for URL imports (0 = default)")

	return cmd
}

// applyEnvFallbacks fills unset flags from the environment. Flags win.
func applyEnvFallbacks(opts *serveOptions) {
	if opts.baseURL == "" {
		opts.baseURL = os.Getenv("MCP_BASE_URL")
	}
	if opts.googleClientID == "" {
		opts.googleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if opts.googleClientSecret == "" {
		opts.googleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if opts.registrationToken == "" {
		opts.registrationToken = os.Getenv("OAUTH_REGISTRATION_TOKEN")
	}
	if !opts.metricsEnabled {
		if v := os.Getenv("METRICS_ENABLED"); v == "true" || v == "1" {
			opts.metricsEnabled = true
		}
	}
	if opts.metricsAddr == server.DefaultMetricsAddr {
		if v := os.Getenv("METRICS_ADDR"); v != "" {
			opts.metricsAddr = v
		}
	}
}

func runServe(ctx context.Context, opts *serveOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(opts)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize instrumentation: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	var metricsServer *server.MetricsServer
	if opts.metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(opts.metricsAddr, provider)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	fetchOpts := []safefetch.Option{
		safefetch.WithLogger(logger),
	}
	if provider.Enabled() {
		fetchOpts = append(fetchOpts, safefetch.WithMetrics(provider.Metrics()))
	}
	if opts.fetchMaxRedirects > 0 {
		fetchOpts = append(fetchOpts, safefetch.WithMaxRedirects(opts.fetchMaxRedirects))
	}
	if opts.fetchMaxBodySize > 0 {
		fetchOpts = append(fetchOpts, safefetch.WithMaxBodySize(opts.fetchMaxBodySize))
	}
	fetcher := safefetch.New(fetchOpts...)

	config := server.Config{
		ReadOnly:        !opts.yolo,
		EnabledServices: opts.services,
	}

	switch opts.transport {
	case transportStdio:
		return runStdioServer(ctx, opts, config, fetcher, provider, logger)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(ctx, opts, config, fetcher, provider, logger)
	default:
		return fmt.Errorf("invalid transport %q: must be %q or %q", opts.transport, transportStdio, transportStreamableHTTP)
	}
}

// newLogger builds the process logger. The stdio transport owns stdout
// for the MCP protocol, so logs always go to stderr.
func newLogger(opts *serveOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer(
		"workspacemcp",
		version,
		mcpserver.WithToolCapabilities(true),
	)
}

func newServerContext(ctx context.Context, config server.Config, tokenProvider google.TokenProvider, fetcher *safefetch.Fetcher, provider *instrumentation.Provider, logger *slog.Logger) (*server.ServerContext, error) {
	ctxOpts := []server.ContextOption{
		server.WithFetcher(fetcher),
		server.WithLogger(logger),
	}
	if provider.Enabled() {
		ctxOpts = append(ctxOpts,
			server.WithMetrics(provider.Metrics()),
			server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.DefaultConfig().AuditLogging)),
		)
	}
	return server.NewServerContext(ctx, config, tokenProvider, ctxOpts...)
}

// registerAllTools registers the tools for every enabled service.
func registerAllTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	cfg := sc.Config()

	if cfg.ServiceEnabled(instrumentation.ServiceGmail) {
		if err := gmail_tools.RegisterGmailTools(s, sc); err != nil {
			return fmt.Errorf("failed to register Gmail tools: %w", err)
		}
	}
	if cfg.ServiceEnabled(instrumentation.ServiceDrive) {
		if err := drive_tools.RegisterDriveTools(s, sc); err != nil {
			return fmt.Errorf("failed to register Drive tools: %w", err)
		}
	}
	if cfg.ServiceEnabled(instrumentation.ServiceDocs) {
		if err := docs_tools.RegisterDocsTools(s, sc); err != nil {
			return fmt.Errorf("failed to register Docs tools: %w", err)
		}
	}
	if cfg.ServiceEnabled(instrumentation.ServiceChat) {
		if err := chat_tools.RegisterChatTools(s, sc); err != nil {
			return fmt.Errorf("failed to register Chat tools: %w", err)
		}
	}
	return nil
}

// runStdioServer serves MCP over stdin/stdout using the on-disk token
// store.
func runStdioServer(ctx context.Context, opts *serveOptions, config server.Config, fetcher *safefetch.Fetcher, provider *instrumentation.Provider, logger *slog.Logger) error {
	sc, err := newServerContext(ctx, config, google.NewFileTokenProvider(), fetcher, provider, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = sc.Shutdown() }()

	s := newMCPServer()
	if err := registerAllTools(s, sc); err != nil {
		return err
	}

	logger.Info("starting MCP server",
		"transport", transportStdio,
		"read_only", config.ReadOnly,
		"services", enabledServicesLabel(config),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- mcpserver.ServeStdio(s)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server error: %w", err)
		}
		return nil
	}
}

// runStreamableHTTPServer serves MCP over HTTP behind the OAuth 2.1
// authorization server. Google tokens for the API clients come from the
// OAuth token store, keyed by the authenticated user's email.
func runStreamableHTTPServer(ctx context.Context, opts *serveOptions, config server.Config, fetcher *safefetch.Fetcher, provider *instrumentation.Provider, logger *slog.Logger) error {
	if opts.googleClientID == "" || opts.googleClientSecret == "" {
		return fmt.Errorf("streamable-http transport requires --google-client-id and --google-client-secret (or GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET)")
	}
	if opts.baseURL == "" {
		opts.baseURL = "http://localhost" + normalizeAddrForURL(opts.httpAddr)
	}

	s := newMCPServer()

	httpServer, err := server.NewOAuthHTTPServer(s, server.OAuthConfig{
		BaseURL:                       opts.baseURL,
		GoogleClientID:                opts.googleClientID,
		GoogleClientSecret:            opts.googleClientSecret,
		AllowPublicClientRegistration: opts.allowPublicClientReg,
		RegistrationAccessToken:       opts.registrationToken,
		MaxClientsPerIP:               opts.oauthMaxClientsPerIP,
		DisableStreaming:              opts.disableStreaming,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create OAuth HTTP server: %w", err)
	}

	sc, err := newServerContext(ctx, config, httpServer.TokenProvider(), fetcher, provider, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = sc.Shutdown() }()

	if err := registerAllTools(s, sc); err != nil {
		return err
	}

	health := server.NewHealthChecker(sc)
	httpServer.SetHealthChecker(health)
	if provider.Enabled() {
		httpServer.SetMetrics(provider.Metrics())
	}

	logger.Info("starting MCP server",
		"transport", transportStreamableHTTP,
		"addr", opts.httpAddr,
		"base_url", opts.baseURL,
		"read_only", config.ReadOnly,
		"services", enabledServicesLabel(config),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(opts.httpAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	}
}

// normalizeAddrForURL turns a listen address like ":8080" into a URL
// port suffix.
func normalizeAddrForURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return addr
	}
	if _, port, ok := strings.Cut(addr, ":"); ok {
		return ":" + port
	}
	return ""
}

func enabledServicesLabel(config server.Config) string {
	if len(config.EnabledServices) == 0 {
		return "all"
	}
	return strings.Join(config.EnabledServices, ",")
}
