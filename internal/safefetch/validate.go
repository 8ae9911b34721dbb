package safefetch

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strings"
)

// LookupFunc resolves a hostname to its IPv4 and IPv6 addresses. The
// default implementation uses net.DefaultResolver; tests inject their own.
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

func defaultLookup(ctx context.Context, host string) ([]netip.Addr, error) {
	ipAddrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	addrs := make([]netip.Addr, 0, len(ipAddrs))
	for _, ia := range ipAddrs {
		if addr, ok := netip.AddrFromSlice(ia.IP); ok {
			addrs = append(addrs, addr)
		}
	}
	return addrs, nil
}

// localhostAliases are rejected before any DNS lookup happens.
var localhostAliases = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
	"0.0.0.0":   {},
}

var errNoAddresses = errors.New("no addresses found")

// resolveAndValidateHost resolves hostname and verifies every resolved
// address is globally routable. It returns all distinct validated literal
// addresses in first-seen order, so the caller can fall back across them
// within a single hop. Results are computed fresh per call, never cached.
func (f *Fetcher) resolveAndValidateHost(ctx context.Context, hostname string) ([]string, error) {
	if hostname == "" {
		return nil, &PrivateNetworkError{Host: hostname, Err: errors.New("empty hostname")}
	}

	if _, blocked := localhostAliases[strings.ToLower(hostname)]; blocked {
		return nil, &PrivateNetworkError{Host: hostname}
	}

	addrs, err := f.lookup(ctx, hostname)
	if err != nil {
		return nil, &PrivateNetworkError{Host: hostname, Err: err}
	}
	if len(addrs) == 0 {
		return nil, &PrivateNetworkError{Host: hostname, Err: errNoAddresses}
	}

	ips := make([]string, 0, len(addrs))
	seen := make(map[string]struct{}, len(addrs))
	for _, addr := range addrs {
		addr = addr.Unmap()
		if !f.routable(addr) {
			return nil, &PrivateNetworkError{Host: hostname, Addr: addr.String()}
		}
		literal := addr.String()
		if _, dup := seen[literal]; dup {
			continue
		}
		seen[literal] = struct{}{}
		ips = append(ips, literal)
	}
	return ips, nil
}

// specialV4Ranges are IPv4 ranges that net/netip does not classify but are
// not globally routable either (RFC 6890 and friends).
var specialV4Ranges = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),   // carrier-grade NAT, RFC 6598
	netip.MustParsePrefix("192.0.0.0/24"),    // IETF protocol assignments
	netip.MustParsePrefix("192.0.2.0/24"),    // TEST-NET-1
	netip.MustParsePrefix("198.18.0.0/15"),   // benchmarking
	netip.MustParsePrefix("198.51.100.0/24"), // TEST-NET-2
	netip.MustParsePrefix("203.0.113.0/24"),  // TEST-NET-3
	netip.MustParsePrefix("240.0.0.0/4"),     // reserved, includes broadcast
}

var specialV6Ranges = []netip.Prefix{
	netip.MustParsePrefix("2001:db8::/32"), // documentation
	netip.MustParsePrefix("100::/64"),      // discard-only
}

// isGloballyRoutable reports whether addr may be dialed by an outbound
// fetch. Loopback, private, link-local, multicast, unspecified and
// reserved/documentation ranges are all rejected.
func isGloballyRoutable(addr netip.Addr) bool {
	addr = addr.Unmap()

	if !addr.IsValid() ||
		addr.IsUnspecified() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsMulticast() {
		return false
	}

	ranges := specialV6Ranges
	if addr.Is4() {
		ranges = specialV4Ranges
	}
	for _, p := range ranges {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}
