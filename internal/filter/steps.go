package filter

import (
	"context"
	"fmt"

	"github.com/cruxstack/email-trust-filter-go/internal/cache"
	"github.com/cruxstack/email-trust-filter-go/internal/dns"
	"github.com/cruxstack/email-trust-filter-go/internal/verifier"
)

type step struct {
	name string
	run  func(ctx context.Context, e *evaluation) (verdict, error)
}

// pipeline lists the evaluation steps in execution order.
func (f *Filter) pipeline() []step {
	return []step{
		{"address", f.checkAddress},
		{"username", f.checkUsername},
		{"domain_policy", f.checkDomainPolicy},
		{"idna", f.normalizeDomain},
		{"tld", f.checkTLD},
		{"disposable", f.checkDisposable},
		{"dns", f.checkDNS},
		{"cache_lookup", f.lookupCache},
		{"providers", f.scoreProviders},
		{"fraud_score", f.finalizeFraudScore},
		{"blacklist", f.checkBlacklists},
		{"policy", f.applyPolicy},
		{"cache_store", f.storeCache},
	}
}

func (f *Filter) checkAddress(ctx context.Context, e *evaluation) (verdict, error) {
	if !verifier.ValidFormat(e.result.Query) {
		e.reject(ReasonInvalidFormat)
	}

	local, domain, err := verifier.SplitAddress(e.result.Query)
	if err != nil {
		e.reject(ReasonInvalidFormat)
		return stop, fmt.Errorf("%w: %w", ErrMalformedAddress, err)
	}
	e.local, e.domain = local, domain

	if !e.result.Recommend {
		return e.halt(), nil
	}
	return next, nil
}

func (f *Filter) checkUsername(ctx context.Context, e *evaluation) (verdict, error) {
	if !verifier.CleanUsername(e.local) {
		e.result.Trustable.Username = false
		e.reject(ReasonDirtyUsername)
		return stop, nil
	}
	return next, nil
}

// checkDomainPolicy runs on the raw domain so punycode digits do not trip it.
func (f *Filter) checkDomainPolicy(ctx context.Context, e *evaluation) (verdict, error) {
	if !verifier.DomainPolicyAllows(e.domain) {
		e.result.Trustable.DomainTrust = false
		e.reject(ReasonDefaultPolicy)
		return stop, nil
	}
	return next, nil
}

func (f *Filter) normalizeDomain(ctx context.Context, e *evaluation) (verdict, error) {
	e.domain = verifier.ToASCII(e.domain)
	return next, nil
}

func (f *Filter) checkTLD(ctx context.Context, e *evaluation) (verdict, error) {
	if !f.verifier.AllowsTLD(e.domain) {
		e.result.Trustable.DomainTrust = false
		e.reject(ReasonDefaultPolicy)
		return stop, nil
	}
	return next, nil
}

func (f *Filter) checkDisposable(ctx context.Context, e *evaluation) (verdict, error) {
	if f.verifier.IsDisposable(e.domain) {
		e.result.Trustable.Disposable = true
		e.reject(ReasonDisposable)
		return e.halt(), nil
	}
	return next, nil
}

func (f *Filter) checkDNS(ctx context.Context, e *evaluation) (verdict, error) {
	if f.resolver == nil {
		return next, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.mode.timeout())
	defer cancel()

	ok, err := dns.Reachable(ctx, f.resolver, e.domain)
	if err != nil {
		e.log.WarnContext(ctx, "dns check failed, assuming reachable",
			"domain", e.domain,
			"error", err,
		)
		return next, nil
	}
	if !ok {
		e.result.Trustable.DNSValid = false
		e.result.Trustable.DomainTrust = false
		e.reject(ReasonDNSInvalid)
		return e.halt(), nil
	}
	return next, nil
}

func (f *Filter) cacheKey(e *evaluation) string {
	return cache.Key(e.result.Query, !e.mode.Full, e.mode.EnforceScore, f.TLDPolicy())
}

func (f *Filter) lookupCache(ctx context.Context, e *evaluation) (verdict, error) {
	if f.cache == nil || e.mode.Full {
		return next, nil
	}

	cached, ok, err := f.cache.Get(ctx, f.cacheKey(e))
	if err != nil {
		e.log.WarnContext(ctx, "cache lookup failed", "error", err)
		return next, nil
	}
	if !ok {
		return next, nil
	}

	e.log.DebugContext(ctx, "cache hit")
	e.result = *cached
	return stop, nil
}

func (f *Filter) scoreProviders(ctx context.Context, e *evaluation) (verdict, error) {
	for _, p := range f.providers {
		sig, err := f.score(ctx, e, p)
		if err != nil {
			e.log.WarnContext(ctx, "score provider failed, skipping",
				"provider", p.Name(),
				"error", err,
			)
			continue
		}
		if e.merge(sig) == stop {
			return stop, nil
		}
	}
	return next, nil
}

func (f *Filter) finalizeFraudScore(ctx context.Context, e *evaluation) (verdict, error) {
	t := &e.result.Trustable
	t.FraudScore = min(max(t.FraudScore, 0), 100)

	// a final score over the threshold overrides any earlier reason
	if e.mode.EnforceScore && t.FraudScore >= FraudThreshold {
		e.result.Recommend = false
		e.result.Reason = ReasonFraudulent
	}
	return next, nil
}

func (f *Filter) checkBlacklists(ctx context.Context, e *evaluation) (verdict, error) {
	e.result.Trustable.Blacklist = f.blacklistPercentage(ctx, e)

	// full mode only reports the percentage
	if !e.mode.Full && e.result.Trustable.Blacklist >= BlacklistThreshold {
		e.reject(ReasonBlacklisted)
		return stop, nil
	}
	return next, nil
}

func (f *Filter) storeCache(ctx context.Context, e *evaluation) (verdict, error) {
	if f.cache == nil || e.mode.Full {
		return next, nil
	}

	if err := f.cache.Set(ctx, f.cacheKey(e), e.result, f.cacheTTL); err != nil {
		e.log.WarnContext(ctx, "cache store failed", "error", err)
	}
	return next, nil
}
