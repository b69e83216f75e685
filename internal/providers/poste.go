package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
)

const posteBaseURL = "https://poste.io"

// Poste checks a domain against the DNSBL lists behind poste.io's web tool.
// The body is a JSON list of per-list entries; only substring counts matter.
type Poste struct {
	BaseURL string
	Client  Sender
}

func NewPoste() *Poste {
	return &Poste{BaseURL: posteBaseURL}
}

func (c *Poste) Name() string {
	return "poste"
}

func (c *Poste) Check(ctx context.Context, domain string) (Listing, error) {
	resp, err := send(ctx, c.Client, rest.Request{
		Method:      rest.Get,
		BaseURL:     strings.TrimSuffix(c.BaseURL, "/") + "/api/web-dnsbl",
		QueryParams: map[string]string{"query": domain},
	})
	if err != nil {
		return Listing{}, fmt.Errorf("poste: %w", err)
	}
	return posteListing(resp.Body), nil
}

func posteListing(body string) Listing {
	total := strings.Count(body, `"name"`)
	listed := total - strings.Count(body, `"ok"`) - strings.Count(body, `"error"`)
	return Listing{Listed: max(listed, 0), Total: total}
}
