package dns

import (
	"context"
	"net"
	"slices"
	"strings"
)

// MockResolver is a Resolver used for testing. Maps are keyed by domain
// without a trailing dot.
type MockResolver struct {
	A  map[string][]string
	MX map[string][]*net.MX

	// Fail contains lookups that return ErrDNSServFail, formatted as
	// "type name", e.g. "mx example.com".
	Fail []string

	// Unavailable makes every lookup fail with ErrResolverUnavailable.
	Unavailable bool
}

var _ Resolver = MockResolver{}

func (r MockResolver) check(ctx context.Context, qtype, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Unavailable {
		return ErrResolverUnavailable
	}
	if slices.Contains(r.Fail, qtype+" "+name) {
		return ErrDNSServFail
	}
	return nil
}

func (r MockResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	name = strings.TrimSuffix(name, ".")
	if err := r.check(ctx, "mx", name); err != nil {
		return nil, err
	}
	records := r.MX[name]
	if len(records) == 0 {
		return nil, ErrDNSNotFound
	}
	return records, nil
}

func (r MockResolver) LookupIP(ctx context.Context, name string) ([]net.IP, error) {
	name = strings.TrimSuffix(name, ".")
	if err := r.check(ctx, "a", name); err != nil {
		return nil, err
	}
	var ips []net.IP
	for _, ip := range r.A[name] {
		ips = append(ips, net.ParseIP(ip))
	}
	if len(ips) == 0 {
		return nil, ErrDNSNotFound
	}
	return ips, nil
}
