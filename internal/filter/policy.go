package filter

import (
	"context"

	"github.com/cruxstack/email-trust-filter-go/internal/opa"
	"github.com/cruxstack/email-trust-filter-go/internal/types"
)

type PolicyMode struct {
	Full         bool `json:"full"`
	EnforceScore bool `json:"enforce_score"`
}

// PolicyInput is the document a policy sees as `input`.
type PolicyInput struct {
	Domain string                 `json:"domain"`
	Mode   PolicyMode             `json:"mode"`
	Result types.EvaluationResult `json:"result"`
}

// PolicyOutput is the shape a policy query must produce. A policy can only
// deny; it never restores a recommendation.
type PolicyOutput struct {
	Deny   bool   `json:"deny"`
	Reason string `json:"reason,omitempty"`
}

func (f *Filter) applyPolicy(ctx context.Context, e *evaluation) (verdict, error) {
	if f.policy == nil {
		return next, nil
	}

	input := PolicyInput{
		Domain: e.domain,
		Mode:   PolicyMode{Full: e.mode.Full, EnforceScore: e.mode.EnforceScore},
		Result: e.result,
	}

	out, err := opa.Evaluate[PolicyOutput](ctx, f.policy, input)
	if err != nil {
		e.log.WarnContext(ctx, "policy evaluation failed, ignoring", "error", err)
		return next, nil
	}

	if out.Deny {
		reason := out.Reason
		if reason == "" {
			reason = ReasonPolicyDenied
		}
		e.reject(reason)
	}
	return next, nil
}
