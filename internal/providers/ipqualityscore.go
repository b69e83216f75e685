package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sendgrid/rest"
)

const ipQualityScoreBaseURL = "https://ipqualityscore.com"

// IPQualityScore queries the email validation API.
type IPQualityScore struct {
	APIKey  string
	BaseURL string
	Client  Sender
}

func NewIPQualityScore(apiKey string) *IPQualityScore {
	return &IPQualityScore{
		APIKey:  apiKey,
		BaseURL: ipQualityScoreBaseURL,
	}
}

func (p *IPQualityScore) Name() string {
	return "ipqualityscore"
}

func (p *IPQualityScore) Score(ctx context.Context, email, domain string) (*Signal, error) {
	endpoint := fmt.Sprintf("%s/api/json/email/%s/%s",
		strings.TrimSuffix(p.BaseURL, "/"), url.PathEscape(p.APIKey), url.PathEscape(email))

	t, err := sendJSON(ctx, p.Client, rest.Request{
		Method:      rest.Get,
		BaseURL:     endpoint,
		QueryParams: map[string]string{"strictness": "1"},
	})
	if err != nil {
		return nil, fmt.Errorf("ipqualityscore: %w", err)
	}
	if ok, present := t.flag("success"); present && !ok {
		msg, _ := t.text("message")
		return nil, errors.New("ipqualityscore: request unsuccessful: " + msg)
	}

	return ipQualityScoreSignal(t), nil
}

func ipQualityScoreSignal(t tree) *Signal {
	s := &Signal{}

	if v, ok := t.flag("valid"); ok {
		s.Exist = boolPtr(v)
	}
	if v, ok := t.anyFlag("disposable", "catch_all", "generic"); ok {
		s.Disposable = boolPtr(v)
	}
	if v, ok := t.flag("recent_abuse"); ok {
		s.Suspicious = boolPtr(v)
	}
	if v, ok := t.flag("honeypot"); ok {
		s.Honeypot = boolPtr(v)
	}

	if valid, ok := t.flag("dns_valid"); ok {
		if overall, ok := t.number("overall_score"); ok && overall == 0 {
			valid = false
		}
		if smtp, ok := t.number("smtp_score"); ok && smtp == -1 {
			valid = false
		}
		s.DNSValid = boolPtr(valid)
	}

	if v, ok := t.score("fraud_score"); ok {
		s.FraudScore = intPtr(v)
	}
	return s
}
