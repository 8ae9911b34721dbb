package safefetch

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"workspacemcp/internal/logging"
)

const (
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 30 * time.Second
)

// fetchPinned performs a single hop: it validates the URL's host, then
// connects to one of the validated literal addresses while presenting the
// original hostname in the Host header and the TLS handshake. The bytes
// that were validated are the bytes that are dialed; the hostname is never
// resolved a second time.
//
// The returned release func closes the transport used for the hop. It must
// be called after the response body is no longer needed.
func (f *Fetcher) fetchPinned(ctx context.Context, rawURL string) (*http.Response, func(), error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, &InvalidURLError{URL: rawURL, Reason: "malformed URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, nil, &InvalidURLError{URL: rawURL, Reason: "only http and https are supported"}
	}
	hostname := u.Hostname()
	if hostname == "" {
		return nil, nil, &InvalidURLError{URL: rawURL, Reason: "missing hostname"}
	}

	ips, err := f.resolveAndValidateHost(ctx, hostname)
	if err != nil {
		return nil, nil, err
	}

	hostHeader := formatHostHeader(hostname, u.Scheme, u.Port())

	var lastErr error
	for _, ip := range ips {
		resp, release, err := f.doPinnedRequest(ctx, u, ip, hostname, hostHeader)
		if err != nil {
			lastErr = err
			f.logger.Warn("request via pinned address failed",
				logging.Host(hostname),
				logging.Addr(ip),
				logging.Err(err))
			continue
		}
		return resp, release, nil
	}

	return nil, nil, &FetchExhaustedError{Host: hostname, Attempts: len(ips), Err: lastErr}
}

// doPinnedRequest issues one request against one validated literal address.
func (f *Fetcher) doPinnedRequest(ctx context.Context, u *url.URL, ip, serverName, hostHeader string) (*http.Response, func(), error) {
	transport := &http.Transport{
		// Ambient proxy configuration would route the request through an
		// unvalidated intermediary.
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout: dialTimeout,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			// Certificate verification runs against the real domain even
			// though the socket targets a raw IP.
			ServerName: serverName,
			MinVersion: tls.VersionTLS12,
		},
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
	}
	client := &http.Client{
		Transport: transport,
		// Redirects are walked by the orchestrator so every hop gets
		// re-validated; the transport must never follow them on its own.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildPinnedURL(u, ip), nil)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, nil, err
	}
	req.Host = hostHeader

	resp, err := client.Do(req)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, nil, err
	}
	return resp, transport.CloseIdleConnections, nil
}

// formatHostHeader builds the Host header value for the original hostname:
// bracketed for IPv6 literals, with the port appended only when it is not
// the scheme default.
func formatHostHeader(hostname, scheme, port string) string {
	host := hostname
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	if port == "" {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return host
	}
	return host + ":" + port
}

// buildPinnedURL swaps the URL's host for a validated literal address while
// preserving scheme, userinfo, port, path and query.
func buildPinnedURL(u *url.URL, ip string) string {
	pinned := *u
	host := ip
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	pinned.Host = host
	if pinned.Path == "" {
		pinned.Path = "/"
	}
	return pinned.String()
}
