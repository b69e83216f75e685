// Package dns answers whether an email domain can receive mail.
package dns

import (
	"context"
	"errors"
	"net"
)

var (
	ErrDNSNotFound         = errors.New("dns: record not found")
	ErrDNSServFail         = errors.New("dns: server failure")
	ErrDNSRefused          = errors.New("dns: query refused")
	ErrResolverUnavailable = errors.New("dns: no nameservers available")
)

// Resolver looks up the records used for mail reachability.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupIP(ctx context.Context, name string) ([]net.IP, error)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrDNSNotFound)
}

// Reachable reports whether domain publishes MX records or, failing that,
// address records. A false result with a nil error means the domain does not
// resolve. Any other lookup failure is returned so the caller can decide how
// to degrade.
func Reachable(ctx context.Context, r Resolver, domain string) (bool, error) {
	mx, mxErr := r.LookupMX(ctx, domain)
	if mxErr == nil && len(mx) > 0 {
		return true, nil
	}
	if errors.Is(mxErr, ErrResolverUnavailable) {
		return false, mxErr
	}

	ips, ipErr := r.LookupIP(ctx, domain)
	if ipErr == nil && len(ips) > 0 {
		return true, nil
	}

	if ipErr != nil && !IsNotFound(ipErr) {
		return false, ipErr
	}
	if mxErr != nil && !IsNotFound(mxErr) {
		return false, mxErr
	}
	return false, nil
}
