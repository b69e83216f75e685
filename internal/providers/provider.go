package providers

import (
	"context"

	"github.com/cruxstack/email-trust-filter-go/internal/types"
)

// Signal is the partial update one provider contributes to an evaluation.
// A nil field means the provider said nothing about it.
type Signal struct {
	Exist       *bool
	Disposable  *bool
	HighRisk    *bool
	Suspicious  *bool
	Honeypot    *bool
	DomainType  types.DomainType
	DomainTrust *bool
	DomainAge   string
	Username    *bool
	DNSValid    *bool
	ShouldBlock *bool
	FraudScore  *int

	// LeadingFraudScore is merged before any flag in the signal, so a
	// provider can disqualify on score ahead of its own flags.
	LeadingFraudScore *int
}

// Empty reports whether the signal carries no information.
func (s *Signal) Empty() bool {
	return s == nil || *s == Signal{}
}

// ScoreProvider is an external reputation source queried once per evaluation.
type ScoreProvider interface {
	Name() string
	Score(ctx context.Context, email, domain string) (*Signal, error)
}

// Listing is the outcome of one blacklist lookup.
type Listing struct {
	Listed int
	Total  int
}

// BlacklistChecker reports on how many lists a domain appears.
type BlacklistChecker interface {
	Name() string
	Check(ctx context.Context, domain string) (Listing, error)
}

// NewScoreProviders builds the enabled score providers in evaluation order.
func NewScoreProviders(creds types.Credentials) []ScoreProvider {
	var ps []ScoreProvider
	if types.Enabled(creds.MaxMind.Account) && types.Enabled(creds.MaxMind.License) {
		ps = append(ps, NewMaxMind(creds.MaxMind.Account, creds.MaxMind.License))
	}
	if types.Enabled(creds.CleanTalk) {
		ps = append(ps, NewCleanTalk(creds.CleanTalk))
	}
	if types.Enabled(creds.APIVoid) {
		ps = append(ps, NewAPIVoid(creds.APIVoid))
	}
	if types.Enabled(creds.IPQualityScore) {
		ps = append(ps, NewIPQualityScore(creds.IPQualityScore))
	}
	if types.Enabled(creds.SendGrid) {
		ps = append(ps, NewSendGrid(creds.SendGrid, ""))
	}
	return ps
}

// NewBlacklistCheckers builds the enabled blacklist checkers in order.
func NewBlacklistCheckers(creds types.Credentials) []BlacklistChecker {
	var cs []BlacklistChecker
	if types.Enabled(creds.Poste) {
		cs = append(cs, NewPoste())
	}
	if types.Enabled(creds.Site247) {
		cs = append(cs, NewSite24x7())
	}
	return cs
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}
