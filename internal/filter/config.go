package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruxstack/email-trust-filter-go/internal/cache"
	"github.com/cruxstack/email-trust-filter-go/internal/config"
	"github.com/cruxstack/email-trust-filter-go/internal/dns"
	"github.com/cruxstack/email-trust-filter-go/internal/opa"
	"github.com/cruxstack/email-trust-filter-go/internal/providers"
	"github.com/cruxstack/email-trust-filter-go/internal/verifier"
)

// NewFromConfig builds a Filter with live providers, a DNS resolver and a
// cache backend selected by cfg. The policy is compiled once here.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Filter, error) {
	opts := Options{
		TLDs:       verifier.ParseTLDs(cfg.AppEmailFilterTLD),
		Disposable: verifier.DefaultDisposableDomains(cfg.AppEmailFilterDisposableDomains...),
		Resolver:   dns.NewResolver(dns.ResolverConfig{Nameservers: cfg.AppDNSNameservers}),
		Providers:  providers.NewScoreProviders(cfg.AppEmailFilterCredentials),
		Blacklists: providers.NewBlacklistCheckers(cfg.AppEmailFilterCredentials),
		CacheTTL:   cfg.AppCacheTTL,
		Logger:     slog.Default(),
	}

	if cfg.AppCacheRedisURL != "" {
		rc := cache.NewRedisCacheFromURL(cfg.AppCacheRedisURL)
		if err := rc.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "redis cache unreachable at startup, continuing", "error", err)
		}
		opts.Cache = rc
	} else {
		opts.Cache = cache.NewMemoryCache()
	}

	if cfg.AppEmailFilterPolicyPath != "" {
		pp, err := opa.LoadPolicy(ctx, cfg.AppEmailFilterPolicyPath, cfg.AppEmailFilterPolicyQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to load policy: %w", err)
		}
		opts.Policy = pp
	}

	names := make([]string, 0, len(opts.Providers)+len(opts.Blacklists))
	for _, p := range opts.Providers {
		names = append(names, p.Name())
	}
	for _, b := range opts.Blacklists {
		names = append(names, b.Name())
	}
	slog.DebugContext(ctx, "email filter configured",
		"tld", opts.TLDs.Labels(),
		"providers", names,
		"redis", cfg.AppCacheRedisURL != "",
		"policy", cfg.AppEmailFilterPolicyPath != "",
	)

	return New(opts), nil
}
