package filter

import (
	"context"
	"math"

	"github.com/cruxstack/email-trust-filter-go/internal/providers"
)

// blacklistPercentage sums listings over every checker that answered and
// returns the listed share of all lists checked, rounded to two decimals.
func (f *Filter) blacklistPercentage(ctx context.Context, e *evaluation) float64 {
	var total providers.Listing
	for _, c := range f.blacklists {
		l, err := f.check(ctx, e, c)
		if err != nil {
			e.log.WarnContext(ctx, "blacklist checker failed, skipping",
				"checker", c.Name(),
				"error", err,
			)
			continue
		}
		total.Listed += l.Listed
		total.Total += l.Total
	}
	return percentage(total)
}

func (f *Filter) check(ctx context.Context, e *evaluation, c providers.BlacklistChecker) (providers.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, e.mode.timeout())
	defer cancel()

	return c.Check(ctx, e.domain)
}

func percentage(l providers.Listing) float64 {
	if l.Total <= 0 || l.Listed <= 0 {
		return 0
	}
	p := math.Round(float64(l.Listed)/float64(l.Total)*100*100) / 100
	return min(max(p, 0), 100)
}
