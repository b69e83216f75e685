package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sendgrid/rest"
)

const (
	site24x7BaseURL = "https://www.site24x7.com"

	// site24x7ListCount is the number of RBLs the tool checks per request.
	site24x7ListCount = 19
)

// Site24x7 runs the site24x7 blacklist-check tool for a domain.
type Site24x7 struct {
	BaseURL string
	Client  Sender
	now     func() time.Time
}

func NewSite24x7() *Site24x7 {
	return &Site24x7{BaseURL: site24x7BaseURL, now: time.Now}
}

func (c *Site24x7) Name() string {
	return "site24x7"
}

func (c *Site24x7) Check(ctx context.Context, domain string) (Listing, error) {
	now := time.Now
	if c.now != nil {
		now = c.now
	}

	form := url.Values{}
	form.Set("execute", "performRBLCheck")
	form.Set("method", "performRBLCheck")
	form.Set("url", domain)
	form.Set("hostName", domain)
	form.Set("timestamp", strconv.FormatInt(now().Unix(), 10))

	resp, err := send(ctx, c.Client, rest.Request{
		Method:  rest.Post,
		BaseURL: strings.TrimSuffix(c.BaseURL, "/") + "/tools/action.do",
		Headers: map[string]string{
			"Content-Type":     "application/x-www-form-urlencoded",
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          "https://www.site24x7.com/tools/blacklist-check.html",
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return Listing{}, fmt.Errorf("site24x7: %w", err)
	}

	return Listing{
		Listed: strings.Count(resp.Body, "Blocklisted in "),
		Total:  site24x7ListCount,
	}, nil
}
