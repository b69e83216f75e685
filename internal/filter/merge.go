package filter

import (
	"context"

	"github.com/cruxstack/email-trust-filter-go/internal/providers"
)

// score queries one provider under the mode's timeout.
func (f *Filter) score(ctx context.Context, e *evaluation, p providers.ScoreProvider) (*providers.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, e.mode.timeout())
	defer cancel()

	return p.Score(ctx, e.result.Query, e.domain)
}

// flagRule folds one optional provider flag into a result field. bad is the
// polarity that disqualifies.
type flagRule struct {
	field  *bool
	value  *bool
	bad    bool
	reason string
}

// applyFlags merges rules in order. A flag can only move its field toward
// bad; a good value never clears an earlier bad one.
func (e *evaluation) applyFlags(rules ...flagRule) verdict {
	for _, r := range rules {
		if r.value == nil || *r.value != r.bad {
			continue
		}
		*r.field = r.bad
		e.reject(r.reason)
		if e.halt() == stop {
			return stop
		}
	}
	return next
}

// merge folds a provider signal into the running result.
func (e *evaluation) merge(s *providers.Signal) verdict {
	if s.Empty() {
		return next
	}
	t := &e.result.Trustable

	if s.LeadingFraudScore != nil && e.mergeFraudScore(*s.LeadingFraudScore) == stop {
		return stop
	}

	if e.applyFlags(
		flagRule{&t.Exist, s.Exist, false, ReasonNonExistent},
		flagRule{&t.Disposable, s.Disposable, true, ReasonDisposable},
		flagRule{&t.HighRisk, s.HighRisk, true, ReasonHighRisk},
		flagRule{&t.Suspicious, s.Suspicious, true, ReasonSuspicious},
		flagRule{&t.Suspicious, s.Honeypot, true, ReasonSuspiciousSpam},
	) == stop {
		return stop
	}

	if s.DomainType != "" {
		t.DomainType = s.DomainType
	}

	if e.applyFlags(flagRule{&t.DomainTrust, s.DomainTrust, false, ReasonDomainSuspect}) == stop {
		return stop
	}

	if s.DomainAge != "" {
		t.DomainAge = s.DomainAge
	}

	// should_block has no result field of its own
	var shouldBlock bool
	if e.applyFlags(
		flagRule{&t.Username, s.Username, false, ReasonDirtyUsername},
		flagRule{&t.DNSValid, s.DNSValid, false, ReasonDNSInvalid},
		flagRule{&shouldBlock, s.ShouldBlock, true, ReasonShouldBlock},
	) == stop {
		return stop
	}

	if s.FraudScore != nil {
		return e.mergeFraudScore(*s.FraudScore)
	}
	return next
}

// mergeFraudScore raises the running fraud score and applies enforcement.
func (e *evaluation) mergeFraudScore(score int) verdict {
	t := &e.result.Trustable
	t.FraudScore = max(t.FraudScore, score)
	if e.mode.EnforceScore && t.FraudScore >= FraudThreshold {
		e.reject(ReasonFraudulent)
		return e.halt()
	}
	return next
}
