package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
)

const maxMindBaseURL = "https://minfraud.maxmind.com"

// MaxMind queries minFraud Insights for email risk.
type MaxMind struct {
	AccountID  string
	LicenseKey string
	BaseURL    string
	Client     Sender
}

func NewMaxMind(accountID, licenseKey string) *MaxMind {
	return &MaxMind{
		AccountID:  accountID,
		LicenseKey: licenseKey,
		BaseURL:    maxMindBaseURL,
	}
}

func (p *MaxMind) Name() string {
	return "maxmind"
}

func (p *MaxMind) Score(ctx context.Context, email, domain string) (*Signal, error) {
	body, err := json.Marshal(map[string]any{
		"email": map[string]string{
			"address": email,
			"domain":  domain,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling maxmind request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(p.AccountID + ":" + p.LicenseKey))
	t, err := sendJSON(ctx, p.Client, rest.Request{
		Method:  rest.Post,
		BaseURL: strings.TrimSuffix(p.BaseURL, "/") + "/minfraud/v2.0/insights",
		Headers: map[string]string{
			"Authorization": "Basic " + auth,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("maxmind: %w", err)
	}

	return maxMindSignal(t), nil
}

func maxMindSignal(t tree) *Signal {
	s := &Signal{}
	if v, ok := t.flag("email", "is_disposable"); ok {
		s.Disposable = boolPtr(v)
	}
	if v, ok := t.flag("email", "is_high_risk"); ok {
		s.HighRisk = boolPtr(v)
	}
	if v, ok := t.text("email", "domain", "first_seen"); ok {
		s.DomainAge = v
	}
	if v, ok := t.score("risk_score"); ok {
		s.FraudScore = intPtr(v)
	}
	return s
}
