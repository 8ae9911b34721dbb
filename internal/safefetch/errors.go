package safefetch

import "fmt"

// InvalidURLError reports a URL that cannot be fetched at all: it failed to
// parse, uses a scheme other than http/https, or has no hostname.
// Never retried.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.URL, e.Reason)
}

// PrivateNetworkError reports a hostname that is, or resolves to, a
// private/internal address, or whose DNS resolution failed. Resolution
// errors fail closed on purpose: an unresolvable host is never treated as
// unrestricted. This is a policy rejection, not a transient fault.
type PrivateNetworkError struct {
	Host string
	// Addr is the offending address, if one was resolved.
	Addr string
	// Err is the underlying resolution error, if resolution failed.
	Err error
}

func (e *PrivateNetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("cannot resolve host %q: %v (refusing request, fail-closed)", e.Host, e.Err)
	case e.Addr != "" && e.Addr != e.Host:
		return fmt.Sprintf("URLs pointing to private/internal networks are not allowed: %s resolves to %s", e.Host, e.Addr)
	default:
		return fmt.Sprintf("URLs pointing to private/internal networks are not allowed: %s", e.Host)
	}
}

func (e *PrivateNetworkError) Unwrap() error { return e.Err }

// FetchExhaustedError reports that every validated address for a host
// failed at the transport level. The per-address attempts are the only
// retries the fetcher performs; the decision to retry the whole fetch
// belongs to the caller.
type FetchExhaustedError struct {
	Host     string
	Attempts int
	// Err is the last transport error observed.
	Err error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("failed to fetch from %q after trying %d validated address(es)", e.Host, e.Attempts)
}

func (e *FetchExhaustedError) Unwrap() error { return e.Err }

// BadRedirectError reports a redirect response that cannot be followed
// safely: no Location header, a malformed Location, or a Location with a
// disallowed scheme. The whole chain fails; there is no partial success.
type BadRedirectError struct {
	// URL is the URL whose response redirected.
	URL      string
	Location string
	Reason   string
}

func (e *BadRedirectError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("unusable redirect from %q: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("unusable redirect from %q to %q: %s", e.URL, e.Location, e.Reason)
}

// TooManyRedirectsError reports a redirect chain that exceeded the hop cap.
type TooManyRedirectsError struct {
	URL string
	Max int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("too many redirects (max %d) fetching %q", e.Max, e.URL)
}
