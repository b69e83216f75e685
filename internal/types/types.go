package types

import "strings"

// DomainType classifies the owner of an email domain.
type DomainType string

const (
	DomainPopular     DomainType = "popular"
	DomainPolice      DomainType = "police"
	DomainGovernment  DomainType = "government"
	DomainEducational DomainType = "educational"
)

// Trustable is the fixed set of signals gathered for one address.
type Trustable struct {
	Exist       bool       `json:"exist"`
	Disposable  bool       `json:"disposable"`
	Blacklist   float64    `json:"blacklist"`
	FraudScore  int        `json:"fraud_score"`
	Suspicious  bool       `json:"suspicious"`
	HighRisk    bool       `json:"high_risk"`
	DomainType  DomainType `json:"domain_type"`
	DomainTrust bool       `json:"domain_trust"`
	DomainAge   string     `json:"domain_age"`
	DNSValid    bool       `json:"dns_valid"`
	Username    bool       `json:"username"`
}

// EvaluationResult is the outcome of a single evaluation.
type EvaluationResult struct {
	Query     string    `json:"query"`
	Recommend bool      `json:"recommend"`
	Reason    string    `json:"reason"`
	Trustable Trustable `json:"trustable"`
}

// NewEvaluationResult returns the optimistic starting point for email.
func NewEvaluationResult(email string) EvaluationResult {
	return EvaluationResult{
		Query:     email,
		Recommend: true,
		Trustable: Trustable{
			Exist:       true,
			DomainType:  DomainPopular,
			DomainTrust: true,
			DNSValid:    true,
			Username:    true,
		},
	}
}

type MaxMindCredentials struct {
	Account string `yaml:"account" json:"account"`
	License string `yaml:"license" json:"license"`
}

// Credentials holds per-provider keys and toggles. An empty value or "off"
// disables the provider.
type Credentials struct {
	Poste          string             `yaml:"poste" json:"poste"`
	Site247        string             `yaml:"site247" json:"site247"`
	MaxMind        MaxMindCredentials `yaml:"maxmind" json:"maxmind"`
	CleanTalk      string             `yaml:"cleantalk" json:"cleantalk"`
	APIVoid        string             `yaml:"apivoid" json:"apivoid"`
	IPQualityScore string             `yaml:"ipqualityscore" json:"ipqualityscore"`
	SendGrid       string             `yaml:"sendgrid" json:"sendgrid"`
}

// Enabled reports whether a credential or toggle value switches a provider on.
func Enabled(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "off")
}
