// package api adapts API Gateway HTTP events to filter evaluations
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cruxstack/email-trust-filter-go/internal/filter"
	"github.com/cruxstack/email-trust-filter-go/internal/types"
)

// Evaluator is satisfied by *filter.Filter.
type Evaluator interface {
	Evaluate(ctx context.Context, email string, mode filter.Mode) (*types.EvaluationResult, error)
}

// Request is the evaluation request accepted as a JSON body or as query
// parameters. Fast defaults to true.
type Request struct {
	Email string `json:"email"`
	Fast  *bool  `json:"fast,omitempty"`
	Score bool   `json:"score,omitempty"`
}

func (r Request) Mode() filter.Mode {
	return filter.Mode{
		Full:         r.Fast != nil && !*r.Fast,
		EnforceScore: r.Score,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	Evaluator Evaluator
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := parseRequest(event)
	if err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: err.Error()}), nil
	}

	result, err := h.Evaluator.Evaluate(ctx, req.Email, req.Mode())
	if errors.Is(err, filter.ErrMalformedAddress) {
		return jsonResponse(http.StatusUnprocessableEntity, result), nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "evaluation failed", "error", err)
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: "evaluation failed"}), nil
	}

	return jsonResponse(http.StatusOK, result), nil
}

func parseRequest(event events.APIGatewayV2HTTPRequest) (Request, error) {
	var req Request

	if body := event.Body; body != "" {
		if event.IsBase64Encoded {
			raw, err := base64.StdEncoding.DecodeString(body)
			if err != nil {
				return req, errors.New("invalid base64 body")
			}
			body = string(raw)
		}
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return req, errors.New("invalid json body")
		}
	}

	q := event.QueryStringParameters
	if req.Email == "" {
		req.Email = q["email"]
	}
	if v, ok := q["fast"]; ok && req.Fast == nil {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("fast must be a boolean")
		}
		req.Fast = &b
	}
	if v, ok := q["score"]; ok && !req.Score {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("score must be a boolean")
		}
		req.Score = b
	}

	if strings.TrimSpace(req.Email) == "" {
		return req, errors.New("email is required")
	}
	return req, nil
}

func jsonResponse(status int, v any) events.APIGatewayV2HTTPResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
