package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
)

const cleanTalkBaseURL = "https://api.cleantalk.org"

// CleanTalk queries the spam_check method for an address.
type CleanTalk struct {
	AuthKey string
	BaseURL string
	Client  Sender
}

func NewCleanTalk(authKey string) *CleanTalk {
	return &CleanTalk{
		AuthKey: authKey,
		BaseURL: cleanTalkBaseURL,
	}
}

func (p *CleanTalk) Name() string {
	return "cleantalk"
}

func (p *CleanTalk) Score(ctx context.Context, email, domain string) (*Signal, error) {
	t, err := sendJSON(ctx, p.Client, rest.Request{
		Method:  rest.Get,
		BaseURL: strings.TrimSuffix(p.BaseURL, "/") + "/",
		QueryParams: map[string]string{
			"method_name": "spam_check",
			"auth_key":    p.AuthKey,
			"email":       email,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cleantalk: %w", err)
	}

	return cleanTalkSignal(t, email), nil
}

func cleanTalkSignal(t tree, email string) *Signal {
	s := &Signal{}
	rec, ok := t.object("data", email)
	if !ok {
		return s
	}

	if v, ok := rec.number("exists"); ok {
		s.Exist = boolPtr(v != 0)
	}
	if v, ok := rec.number("disposable_email"); ok {
		s.Disposable = boolPtr(v == 1)
	}
	if v, ok := rec.number("spam_rate"); ok {
		s.FraudScore = intPtr(roundScore(v * 100))
	}
	return s
}
