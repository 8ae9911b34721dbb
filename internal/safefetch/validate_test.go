package safefetch

import (
	"context"
	"errors"
	"net/netip"
	"testing"
)

func fetcherWithLookup(lookup LookupFunc) *Fetcher {
	return New(WithLookup(lookup))
}

func staticLookup(addrs ...string) LookupFunc {
	return func(ctx context.Context, host string) ([]netip.Addr, error) {
		out := make([]netip.Addr, len(addrs))
		for i, a := range addrs {
			out[i] = netip.MustParseAddr(a)
		}
		return out, nil
	}
}

func TestResolveAndValidateHostLocalhostAliases(t *testing.T) {
	looked := false
	f := fetcherWithLookup(func(ctx context.Context, host string) ([]netip.Addr, error) {
		looked = true
		return []netip.Addr{netip.MustParseAddr("8.8.8.8")}, nil
	})

	for _, host := range []string{"localhost", "LOCALHOST", "127.0.0.1", "::1", "0.0.0.0"} {
		t.Run(host, func(t *testing.T) {
			_, err := f.resolveAndValidateHost(context.Background(), host)
			var pne *PrivateNetworkError
			if !errors.As(err, &pne) {
				t.Fatalf("err = %v, want PrivateNetworkError", err)
			}
		})
	}
	if looked {
		t.Error("localhost aliases must be rejected before any DNS lookup")
	}
}

func TestResolveAndValidateHostEmptyHostname(t *testing.T) {
	f := fetcherWithLookup(staticLookup("8.8.8.8"))
	_, err := f.resolveAndValidateHost(context.Background(), "")
	var pne *PrivateNetworkError
	if !errors.As(err, &pne) {
		t.Fatalf("err = %v, want PrivateNetworkError", err)
	}
}

func TestResolveAndValidateHostLookupFailureFailsClosed(t *testing.T) {
	lookupErr := errors.New("dns timeout")
	f := fetcherWithLookup(func(ctx context.Context, host string) ([]netip.Addr, error) {
		return nil, lookupErr
	})

	_, err := f.resolveAndValidateHost(context.Background(), "example.com")
	var pne *PrivateNetworkError
	if !errors.As(err, &pne) {
		t.Fatalf("err = %v, want PrivateNetworkError", err)
	}
	if !errors.Is(err, lookupErr) {
		t.Errorf("error should wrap the lookup error, got %v", err)
	}
}

func TestResolveAndValidateHostEmptyResolution(t *testing.T) {
	f := fetcherWithLookup(staticLookup())
	_, err := f.resolveAndValidateHost(context.Background(), "example.com")
	var pne *PrivateNetworkError
	if !errors.As(err, &pne) {
		t.Fatalf("err = %v, want PrivateNetworkError", err)
	}
}

func TestResolveAndValidateHostRejectsPrivateAddress(t *testing.T) {
	f := fetcherWithLookup(staticLookup("10.0.0.5"))
	_, err := f.resolveAndValidateHost(context.Background(), "internal.example.com")
	var pne *PrivateNetworkError
	if !errors.As(err, &pne) {
		t.Fatalf("err = %v, want PrivateNetworkError", err)
	}
	if pne.Addr != "10.0.0.5" {
		t.Errorf("PrivateNetworkError.Addr = %q, want %q", pne.Addr, "10.0.0.5")
	}
}

func TestResolveAndValidateHostRejectsMixedResolution(t *testing.T) {
	// One bad address poisons the whole set, even if global addresses
	// come first.
	f := fetcherWithLookup(staticLookup("93.184.215.14", "192.168.1.10"))
	_, err := f.resolveAndValidateHost(context.Background(), "example.com")
	var pne *PrivateNetworkError
	if !errors.As(err, &pne) {
		t.Fatalf("err = %v, want PrivateNetworkError", err)
	}
}

func TestResolveAndValidateHostDedupesPreservingOrder(t *testing.T) {
	f := fetcherWithLookup(staticLookup("1.2.3.4", "5.6.7.8", "1.2.3.4"))
	ips, err := f.resolveAndValidateHost(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1.2.3.4", "5.6.7.8"}
	if len(ips) != len(want) {
		t.Fatalf("got %v, want %v", ips, want)
	}
	for i := range want {
		if ips[i] != want[i] {
			t.Errorf("ips[%d] = %q, want %q", i, ips[i], want[i])
		}
	}
}

func TestResolveAndValidateHostUnmapsV4InV6(t *testing.T) {
	f := fetcherWithLookup(staticLookup("::ffff:127.0.0.1"))
	_, err := f.resolveAndValidateHost(context.Background(), "example.com")
	var pne *PrivateNetworkError
	if !errors.As(err, &pne) {
		t.Fatalf("mapped loopback must be rejected, got err = %v", err)
	}
}

func TestIsGloballyRoutable(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1", false},
		{"127.8.8.8", false},
		{"0.0.0.0", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"172.31.255.255", false},
		{"192.168.0.1", false},
		{"169.254.169.254", false}, // cloud metadata endpoint
		{"100.64.0.1", false},      // carrier-grade NAT
		{"192.0.0.1", false},
		{"192.0.2.1", false},      // TEST-NET-1
		{"198.18.0.1", false},     // benchmarking
		{"198.51.100.1", false},   // TEST-NET-2
		{"203.0.113.1", false},    // TEST-NET-3
		{"240.0.0.1", false},      // reserved
		{"255.255.255.255", false},
		{"224.0.0.1", false}, // multicast
		{"::", false},
		{"::1", false},
		{"fe80::1", false},
		{"fc00::1", false}, // unique local
		{"fd12:3456::1", false},
		{"2001:db8::1", false}, // documentation
		{"100::1", false},      // discard-only
		{"ff02::1", false},     // multicast

		{"8.8.8.8", true},
		{"93.184.215.14", true},
		{"1.1.1.1", true},
		{"172.32.0.1", true}, // just past the private /12
		{"2607:f8b0:4004:c07::65", true},
		{"::ffff:8.8.8.8", true}, // mapped global unmaps to global
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := isGloballyRoutable(netip.MustParseAddr(tt.addr)); got != tt.want {
				t.Errorf("isGloballyRoutable(%s) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}
