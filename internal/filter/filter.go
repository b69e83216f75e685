// package filter evaluates whether an email address should be trusted
package filter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cruxstack/email-trust-filter-go/internal/cache"
	"github.com/cruxstack/email-trust-filter-go/internal/dns"
	"github.com/cruxstack/email-trust-filter-go/internal/opa"
	"github.com/cruxstack/email-trust-filter-go/internal/providers"
	"github.com/cruxstack/email-trust-filter-go/internal/types"
	"github.com/cruxstack/email-trust-filter-go/internal/verifier"
)

// ErrMalformedAddress is returned when an address has no local/domain split.
var ErrMalformedAddress = errors.New("malformed email address")

const (
	ReasonInvalidFormat  = "Invalid email format"
	ReasonDirtyUsername  = "This email username was marked as dirty"
	ReasonDefaultPolicy  = "This email domain was blocked by default policy"
	ReasonDisposable     = "This email was marked as disposable"
	ReasonDNSInvalid     = "This email domain was marked as DNS invalid"
	ReasonHighRisk       = "This email was marked as high risk"
	ReasonNonExistent    = "This email was marked as non-existent"
	ReasonFraudulent     = "This email was marked as fraudulent"
	ReasonSuspicious     = "This email was marked as suspicious"
	ReasonSuspiciousSpam = "This email domain was marked as suspicious or spam"
	ReasonDomainSuspect  = "This email domain was marked as suspicious"
	ReasonShouldBlock    = "This email was marked as should be blocked"
	ReasonBlacklisted    = "This email was marked as blacklisted"
	ReasonPolicyDenied   = "This email was denied by policy"
)

const (
	FastTimeout = 3 * time.Second
	FullTimeout = 10 * time.Second

	// FraudThreshold is the fraud score at which enforcement disqualifies.
	FraudThreshold = 75
	// BlacklistThreshold is the listed percentage that disqualifies.
	BlacklistThreshold = 30.0
)

// Mode selects how an evaluation runs. The zero value is fast mode without
// fraud score enforcement.
type Mode struct {
	// Full runs every check even after the address is disqualified.
	Full bool
	// EnforceScore disqualifies addresses whose fraud score reaches
	// FraudThreshold.
	EnforceScore bool
}

func (m Mode) timeout() time.Duration {
	if m.Full {
		return FullTimeout
	}
	return FastTimeout
}

type Options struct {
	TLDs       verifier.TLDSet
	Disposable verifier.DomainSet

	// Resolver is used for the MX/A reachability check. A nil resolver skips
	// the check.
	Resolver dns.Resolver

	Providers  []providers.ScoreProvider
	Blacklists []providers.BlacklistChecker

	// Cache absorbs repeated fast-mode evaluations. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Policy is an optional rego policy run after all signals are merged.
	Policy *opa.PreparedPolicy

	Logger *slog.Logger
}

// Filter runs the evaluation pipeline. It holds no per-call state and is safe
// for concurrent use.
type Filter struct {
	verifier   *verifier.OfflineEmailVerifier
	resolver   dns.Resolver
	providers  []providers.ScoreProvider
	blacklists []providers.BlacklistChecker
	cache      cache.Cache
	cacheTTL   time.Duration
	policy     *opa.PreparedPolicy
	logger     *slog.Logger
	steps      []step
}

func New(opts Options) *Filter {
	disposable := opts.Disposable
	if disposable.Len() == 0 {
		disposable = verifier.DefaultDisposableDomains()
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f := &Filter{
		verifier:   verifier.NewOfflineVerifier(opts.TLDs, disposable),
		resolver:   opts.Resolver,
		providers:  opts.Providers,
		blacklists: opts.Blacklists,
		cache:      opts.Cache,
		cacheTTL:   ttl,
		policy:     opts.Policy,
		logger:     logger,
	}
	f.steps = f.pipeline()
	return f
}

// Evaluate runs email through the gate chain and providers. Disqualification
// is reported through the result; the only error is ErrMalformedAddress,
// which is returned together with the disqualified result.
//
// Provider calls are bounded by their own timeouts and are not cancelled by
// ctx.
func (f *Filter) Evaluate(ctx context.Context, email string, mode Mode) (*types.EvaluationResult, error) {
	query := verifier.NormalizeEmail(email)
	e := &evaluation{
		mode:   mode,
		result: types.NewEvaluationResult(query),
		log:    f.logger.With("evaluation_id", uuid.NewString(), "full", mode.Full),
	}

	ctx = context.WithoutCancel(ctx)
	for _, s := range f.steps {
		v, err := s.run(ctx, e)
		if err != nil {
			e.log.DebugContext(ctx, "evaluation aborted", "step", s.name, "error", err)
			return &e.result, err
		}
		if v == stop {
			e.log.DebugContext(ctx, "evaluation stopped",
				"step", s.name,
				"recommend", e.result.Recommend,
				"reason", e.result.Reason,
			)
			return &e.result, nil
		}
	}

	e.log.DebugContext(ctx, "evaluation complete",
		"recommend", e.result.Recommend,
		"reason", e.result.Reason,
		"fraud_score", e.result.Trustable.FraudScore,
		"blacklist", e.result.Trustable.Blacklist,
	)
	return &e.result, nil
}

// TLDPolicy returns the allow-list in the form used for cache fingerprints.
func (f *Filter) TLDPolicy() string {
	return f.verifier.TLDs.String()
}

type verdict int

const (
	next verdict = iota
	stop
)

// evaluation is the running state of one Evaluate call.
type evaluation struct {
	mode   Mode
	local  string
	domain string
	result types.EvaluationResult
	log    *slog.Logger
}

// reject disqualifies the address. The first reason recorded wins.
func (e *evaluation) reject(reason string) {
	e.result.Recommend = false
	if e.result.Reason == "" {
		e.result.Reason = reason
	}
}

// halt is the verdict after a soft disqualification: fast mode stops, full
// mode keeps gathering signals.
func (e *evaluation) halt() verdict {
	if e.mode.Full {
		return next
	}
	return stop
}
