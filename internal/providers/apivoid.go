package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cruxstack/email-trust-filter-go/internal/types"
	"github.com/sendgrid/rest"
)

const apiVoidBaseURL = "https://endpoint.apivoid.com"

// APIVoid queries the emailverify endpoint.
type APIVoid struct {
	APIKey  string
	BaseURL string
	Client  Sender
}

func NewAPIVoid(apiKey string) *APIVoid {
	return &APIVoid{
		APIKey:  apiKey,
		BaseURL: apiVoidBaseURL,
	}
}

func (p *APIVoid) Name() string {
	return "apivoid"
}

func (p *APIVoid) Score(ctx context.Context, email, domain string) (*Signal, error) {
	t, err := sendJSON(ctx, p.Client, rest.Request{
		Method:  rest.Get,
		BaseURL: strings.TrimSuffix(p.BaseURL, "/") + "/emailverify/v1/pay-as-you-go/",
		QueryParams: map[string]string{
			"key":   p.APIKey,
			"email": email,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("apivoid: %w", err)
	}
	if msg, ok := t.text("error"); ok && msg != "" {
		return nil, fmt.Errorf("apivoid: %s", msg)
	}

	data, ok := t.object("data")
	if !ok {
		return nil, errors.New("apivoid: response has no data")
	}

	s := apiVoidSignal(data)
	if v, ok := t.score("score"); ok {
		s.FraudScore = intPtr(v)
	}
	return s, nil
}

var (
	apiVoidDomainTypes = []struct {
		key string
		typ types.DomainType
	}{
		{"police_domain", types.DomainPolice},
		{"government_domain", types.DomainGovernment},
		{"educational_domain", types.DomainEducational},
	}
	apiVoidTrustRequired = []string{"has_a_records", "has_mx_records", "has_spf_records", "valid_tld"}
	apiVoidTrustDenied   = []string{"is_spoofable", "suspicious_domain", "dirty_words_domain", "risky_tld"}
)

func apiVoidSignal(data tree) *Signal {
	s := &Signal{}

	if v, ok := data.score("score"); ok {
		s.LeadingFraudScore = intPtr(v)
	}
	if v, ok := data.flag("suspicious_email"); ok {
		s.Suspicious = boolPtr(v)
	}
	if v, ok := data.flag("disposable"); ok {
		s.Disposable = boolPtr(v)
	}

	if v, _ := data.flag("domain_popular"); v {
		s.DomainType = types.DomainPopular
	}
	for _, dt := range apiVoidDomainTypes {
		if v, _ := data.flag(dt.key); v {
			s.DomainType = dt.typ
		}
	}

	if _, ok := data.flag("has_a_records"); ok {
		trust := true
		for _, k := range apiVoidTrustRequired {
			if v, _ := data.flag(k); !v {
				trust = false
			}
		}
		for _, k := range apiVoidTrustDenied {
			if v, _ := data.flag(k); v {
				trust = false
			}
		}
		s.DomainTrust = boolPtr(trust)
	}

	if dirty, ok := data.anyFlag("suspicious_username", "dirty_words_username"); ok {
		s.Username = boolPtr(!dirty)
	}
	if v, ok := data.flag("should_block"); ok {
		s.ShouldBlock = boolPtr(v)
	}
	return s
}
