package safefetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"sync"
	"time"

	"workspacemcp/internal/logging"
)

const (
	// DefaultMaxRedirects caps the number of redirects followed in one
	// chain. A chain needing more hops fails, never silently truncates.
	DefaultMaxRedirects = 10

	// DefaultMaxBodyBytes caps the buffered body returned by Fetch.
	// Streaming callers are not subject to it.
	DefaultMaxBodyBytes = 50 << 20 // 50 MiB

	// drainLimit bounds how much of a redirect body is drained before the
	// connection is closed.
	drainLimit = 4 << 10
)

// MetricsRecorder receives the outcome of completed fetch chains.
// *instrumentation.Metrics satisfies it.
type MetricsRecorder interface {
	RecordOutboundFetch(ctx context.Context, status string, redirects int, duration time.Duration)
}

// Fetcher retrieves URLs with per-hop host validation and IP pinning.
// The zero value is not usable; construct with New. A Fetcher is safe for
// concurrent use: it holds no per-call state and no DNS cache.
type Fetcher struct {
	logger       *slog.Logger
	lookup       LookupFunc
	routable     func(netip.Addr) bool
	metrics      MetricsRecorder
	maxRedirects int
	maxBodyBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for non-fatal per-candidate failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithLookup replaces the DNS resolution primitive. Used by tests.
func WithLookup(lookup LookupFunc) Option {
	return func(f *Fetcher) { f.lookup = lookup }
}

// WithMetrics attaches a recorder for fetch outcome metrics.
func WithMetrics(m MetricsRecorder) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithMaxRedirects overrides the redirect hop cap.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) { f.maxRedirects = n }
}

// WithMaxBodySize overrides the buffered-body size cap used by Fetch.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) { f.maxBodyBytes = n }
}

// New creates a Fetcher with the default resolver and limits.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		logger:       slog.Default(),
		lookup:       defaultLookup,
		routable:     isGloballyRoutable,
		maxRedirects: DefaultMaxRedirects,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Response is a fully buffered fetch result.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StreamResponse is a fetch result whose body is still attached to the
// network. The caller must close it; Close also releases the connection
// held for the final hop.
type StreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Close closes the response body and releases the underlying connection.
func (r *StreamResponse) Close() error {
	return r.Body.Close()
}

// Fetch retrieves url with full SSRF validation on every redirect hop and
// returns the final response buffered in memory. Intended for small
// control responses; bodies larger than the configured cap fail, and are
// recorded as failed fetches.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	start := time.Now()

	stream, redirects, err := f.stream(ctx, rawURL, start)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	body, err := io.ReadAll(io.LimitReader(stream.Body, f.maxBodyBytes+1))
	if err != nil {
		f.record(ctx, logging.StatusError, redirects, start)
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		f.record(ctx, logging.StatusError, redirects, start)
		return nil, fmt.Errorf("response body exceeds %d byte limit", f.maxBodyBytes)
	}

	f.record(ctx, logging.StatusSuccess, redirects, start)
	return &Response{
		StatusCode: stream.StatusCode,
		Header:     stream.Header,
		Body:       body,
	}, nil
}

// FetchStream retrieves url with full SSRF validation on every redirect
// hop and returns the final response as a live stream. Resources opened
// for intermediate hops are released before the next hop starts, on every
// exit path; only the final hop's resources survive, owned by the caller.
func (f *Fetcher) FetchStream(ctx context.Context, rawURL string) (*StreamResponse, error) {
	start := time.Now()

	stream, redirects, err := f.stream(ctx, rawURL, start)
	if err != nil {
		return nil, err
	}
	f.record(ctx, logging.StatusSuccess, redirects, start)
	return stream, nil
}

// stream walks the redirect chain. Error outcomes are recorded here; the
// success outcome is left to the caller, which may still fail the fetch
// (the buffered path enforces its size cap after the chain completes).
func (f *Fetcher) stream(ctx context.Context, rawURL string, start time.Time) (*StreamResponse, int, error) {
	current := rawURL
	redirects := 0
	for {
		// Each hop validates its own host, so a redirect landing on an
		// internal address is caught even when the first hop was external.
		resp, release, err := f.fetchPinned(ctx, current)
		if err != nil {
			f.record(ctx, logging.StatusError, redirects, start)
			return nil, redirects, err
		}

		if !isRedirectStatus(resp.StatusCode) {
			return &StreamResponse{
				StatusCode: resp.StatusCode,
				Header:     resp.Header,
				Body:       &releaseOnClose{ReadCloser: resp.Body, release: release},
			}, redirects, nil
		}

		location := resp.Header.Get("Location")
		discardBody(resp.Body)
		release()

		next, err := f.resolveRedirect(current, location)
		if err != nil {
			f.record(ctx, logging.StatusError, redirects, start)
			return nil, redirects, err
		}

		redirects++
		if redirects > f.maxRedirects {
			f.record(ctx, logging.StatusError, redirects, start)
			return nil, redirects, &TooManyRedirectsError{URL: rawURL, Max: f.maxRedirects}
		}

		f.logger.Debug("following redirect",
			slog.Int("hop", redirects),
			logging.URL(next))
		current = next
	}
}

// resolveRedirect turns a Location header into the next hop's absolute
// URL, rejecting missing, malformed, or scheme-changing targets.
func (f *Fetcher) resolveRedirect(current, location string) (string, error) {
	if location == "" {
		return "", &BadRedirectError{URL: current, Reason: "redirect response has no Location header"}
	}

	base, err := url.Parse(current)
	if err != nil {
		return "", &BadRedirectError{URL: current, Location: location, Reason: "current URL is malformed"}
	}
	next, err := base.Parse(location)
	if err != nil {
		return "", &BadRedirectError{URL: current, Location: location, Reason: "malformed Location header"}
	}
	// Scheme-changing redirects (file://, javascript:, ...) are rejected
	// the same way the initial URL would be.
	if next.Scheme != "http" && next.Scheme != "https" {
		return "", &BadRedirectError{
			URL:      current,
			Location: location,
			Reason:   fmt.Sprintf("redirect to disallowed scheme %q", next.Scheme),
		}
	}
	return next.String(), nil
}

func (f *Fetcher) record(ctx context.Context, status string, redirects int, start time.Time) {
	if f.metrics == nil {
		return
	}
	f.metrics.RecordOutboundFetch(ctx, status, redirects, time.Since(start))
}

func isRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently, // 301
		http.StatusFound,             // 302
		http.StatusSeeOther,          // 303
		http.StatusTemporaryRedirect, // 307
		http.StatusPermanentRedirect: // 308
		return true
	}
	return false
}

// discardBody drains a bounded amount of a response body and closes it,
// releasing the connection for the redirect hop being abandoned.
func discardBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, drainLimit))
	_ = body.Close()
}

// releaseOnClose ties the final hop's transport lifetime to the body the
// caller holds.
type releaseOnClose struct {
	io.ReadCloser
	release func()
	once    sync.Once
}

func (r *releaseOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.once.Do(r.release)
	return err
}
