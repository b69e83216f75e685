package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
)

const sendGridBaseURL = "https://api.sendgrid.com"

type SendGridEmailAddressValidationDomainChecks struct {
	HasValidAddressSyntax        *bool `json:"has_valid_address_syntax"`
	HasMXOrARecord               *bool `json:"has_mx_or_a_record"`
	IsSuspectedDisposableAddress *bool `json:"is_suspected_disposable_address"`
}

type SendGridEmailAddressValidationChecks struct {
	Domain SendGridEmailAddressValidationDomainChecks `json:"domain"`
}

type SendGridEmailAddressValidationResult struct {
	Email   string                               `json:"email"`
	Verdict string                               `json:"verdict"`
	Score   float32                              `json:"score"`
	Checks  SendGridEmailAddressValidationChecks `json:"checks"`
}

type SendGridEmailAddressValidationResponse struct {
	Result SendGridEmailAddressValidationResult `json:"result"`
}

// SendGrid queries the SendGrid email address validation API.
type SendGrid struct {
	APIHost string
	APIKey  string
	Client  Sender
}

func NewSendGrid(apiKey, apiHost string) *SendGrid {
	if apiHost == "" {
		apiHost = sendGridBaseURL
	}
	return &SendGrid{
		APIHost: apiHost,
		APIKey:  apiKey,
	}
}

func (p *SendGrid) Name() string {
	return "sendgrid"
}

func (p *SendGrid) Score(ctx context.Context, email, domain string) (*Signal, error) {
	body, err := json.Marshal(map[string]string{"email": email, "source": "email-filter"})
	if err != nil {
		return nil, fmt.Errorf("sendgrid marshal error: %w", err)
	}

	request := sendgrid.GetRequest(p.APIKey, "/v3/validations/email", p.APIHost)
	request.Method = "POST"
	request.Body = body

	response, err := send(ctx, p.Client, request)
	if err != nil {
		return nil, fmt.Errorf("sendgrid api error: %w", err)
	}

	var payload SendGridEmailAddressValidationResponse
	if err := json.Unmarshal([]byte(response.Body), &payload); err != nil {
		return nil, fmt.Errorf("sendgrid unmarshal error: %w", err)
	}

	return sendGridSignal(payload.Result), nil
}

func sendGridSignal(result SendGridEmailAddressValidationResult) *Signal {
	s := &Signal{}
	if result.Verdict != "" {
		s.Exist = boolPtr(result.Verdict != "Invalid")
	}
	if v := result.Checks.Domain.IsSuspectedDisposableAddress; v != nil {
		s.Disposable = boolPtr(*v)
	}
	if v := result.Checks.Domain.HasMXOrARecord; v != nil {
		s.DNSValid = boolPtr(*v)
	}
	return s
}
