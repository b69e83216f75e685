package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36"

// Sender executes a REST request. *rest.Client satisfies it.
type Sender interface {
	SendWithContext(ctx context.Context, request rest.Request) (*rest.Response, error)
}

// DefaultSender carries no timeout of its own; deadlines come from the
// request context.
var DefaultSender Sender = &rest.Client{HTTPClient: &http.Client{}}

func send(ctx context.Context, s Sender, req rest.Request) (*rest.Response, error) {
	if s == nil {
		s = DefaultSender
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	if _, ok := req.Headers["User-Agent"]; !ok {
		req.Headers["User-Agent"] = userAgent
	}

	resp, err := s.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: status=%d", resp.StatusCode)
	}
	return resp, nil
}

func sendJSON(ctx context.Context, s Sender, req rest.Request) (tree, error) {
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers["Accept"] = "application/json"

	resp, err := send(ctx, s, req)
	if err != nil {
		return nil, err
	}

	var t tree
	if err := json.Unmarshal([]byte(resp.Body), &t); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("empty response body")
	}
	return t, nil
}
