// Package safefetch retrieves user-supplied URLs with SSRF protection.
//
// Tools that accept a URL from the caller (import from URL, upload by URL)
// must never be usable to reach private or internal networks. This package
// enforces that boundary:
//
//   - Every hostname is resolved and all of its addresses are checked for
//     global routability before a connection is made. DNS failures reject
//     the request (fail-closed).
//   - The connection is pinned to a validated literal address. The Host
//     header and the TLS server name still carry the original hostname, so
//     there is no second resolution between validation and connect (DNS
//     rebinding).
//   - Redirects are never followed by the transport. The fetcher walks the
//     chain itself, re-validating every hop, up to a fixed hop cap.
//
// Two entry points share the hop logic: Fetch buffers the final body up to
// a size cap, FetchStream hands the final body to the caller as a live
// stream. Intermediate hop resources are always released by the fetcher;
// the caller owns only the final stream.
//
// Rejections are reported as typed errors (PrivateNetworkError,
// InvalidURLError, BadRedirectError, TooManyRedirectsError,
// FetchExhaustedError) so callers can tell a policy rejection from a
// network fault. Results are never cached across calls; stale DNS data
// masking a rebinding attempt would defeat the validation.
package safefetch
