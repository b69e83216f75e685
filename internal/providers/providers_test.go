package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cruxstack/email-trust-filter-go/internal/types"
)

func newJSONServer(t *testing.T, check func(r *http.Request), body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func assertBool(t *testing.T, name string, got *bool, want bool) {
	t.Helper()
	if got == nil {
		t.Errorf("expected %s=%v, got nil", name, want)
		return
	}
	if *got != want {
		t.Errorf("expected %s=%v, got %v", name, want, *got)
	}
}

func assertScore(t *testing.T, got *int, want int) {
	t.Helper()
	if got == nil {
		t.Errorf("expected fraud score %d, got nil", want)
		return
	}
	if *got != want {
		t.Errorf("expected fraud score %d, got %d", want, *got)
	}
}

func TestMaxMind_Score(t *testing.T) {
	server := newJSONServer(t, func(r *http.Request) {
		if r.URL.Path != "/minfraud/v2.0/insights" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "1234" || pass != "license" {
			t.Errorf("unexpected basic auth: %q %q", user, pass)
		}
		var req struct {
			Email struct {
				Address string `json:"address"`
				Domain  string `json:"domain"`
			} `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Email.Address != "user@example.com" || req.Email.Domain != "example.com" {
			t.Errorf("unexpected request: %+v", req)
		}
	}, `{"risk_score": 42.6, "email": {"is_disposable": false, "is_high_risk": true, "domain": {"first_seen": "2001-04-01"}}}`)

	p := NewMaxMind("1234", "license")
	p.BaseURL = server.URL

	s, err := p.Score(context.Background(), "user@example.com", "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBool(t, "disposable", s.Disposable, false)
	assertBool(t, "high_risk", s.HighRisk, true)
	assertScore(t, s.FraudScore, 43)
	if s.DomainAge != "2001-04-01" {
		t.Errorf("expected domain age 2001-04-01, got %q", s.DomainAge)
	}
}

func TestCleanTalk_Score(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		wantExist      *bool
		wantDisposable *bool
		wantScore      *int
	}{
		{
			name:           "non-existent disposable",
			body:           `{"data": {"user@example.com": {"exists": 0, "disposable_email": 1, "spam_rate": 0.755}}}`,
			wantExist:      boolPtr(false),
			wantDisposable: boolPtr(true),
			wantScore:      intPtr(76),
		},
		{
			name:           "clean",
			body:           `{"data": {"user@example.com": {"exists": 1, "disposable_email": 0, "spam_rate": 0}}}`,
			wantExist:      boolPtr(true),
			wantDisposable: boolPtr(false),
			wantScore:      intPtr(0),
		},
		{
			name: "other address only",
			body: `{"data": {"someone@example.com": {"exists": 0}}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newJSONServer(t, func(r *http.Request) {
				q := r.URL.Query()
				if q.Get("method_name") != "spam_check" || q.Get("auth_key") != "key" || q.Get("email") != "user@example.com" {
					t.Errorf("unexpected query: %s", r.URL.RawQuery)
				}
			}, tc.body)

			p := NewCleanTalk("key")
			p.BaseURL = server.URL

			s, err := p.Score(context.Background(), "user@example.com", "example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantExist == nil && s.Exist != nil {
				t.Errorf("expected no exist signal, got %v", *s.Exist)
			}
			if tc.wantExist != nil {
				assertBool(t, "exist", s.Exist, *tc.wantExist)
			}
			if tc.wantDisposable != nil {
				assertBool(t, "disposable", s.Disposable, *tc.wantDisposable)
			}
			if tc.wantScore != nil {
				assertScore(t, s.FraudScore, *tc.wantScore)
			}
		})
	}
}

func TestAPIVoid_Score(t *testing.T) {
	server := newJSONServer(t, func(r *http.Request) {
		if r.URL.Path != "/emailverify/v1/pay-as-you-go/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "key" {
			t.Errorf("missing api key: %s", r.URL.RawQuery)
		}
	}, `{"data": {
		"score": 30,
		"suspicious_email": false,
		"disposable": false,
		"domain_popular": true,
		"educational_domain": true,
		"has_a_records": true,
		"has_mx_records": true,
		"has_spf_records": true,
		"valid_tld": true,
		"is_spoofable": false,
		"suspicious_domain": false,
		"dirty_words_domain": false,
		"risky_tld": false,
		"suspicious_username": false,
		"dirty_words_username": true,
		"should_block": false
	}, "score": 12}`)

	p := NewAPIVoid("key")
	p.BaseURL = server.URL

	s, err := p.Score(context.Background(), "user@example.edu", "example.edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertScore(t, s.LeadingFraudScore, 30)
	assertScore(t, s.FraudScore, 12)
	assertBool(t, "suspicious", s.Suspicious, false)
	assertBool(t, "disposable", s.Disposable, false)
	assertBool(t, "domain_trust", s.DomainTrust, true)
	assertBool(t, "username", s.Username, false)
	assertBool(t, "should_block", s.ShouldBlock, false)
	if s.DomainType != types.DomainEducational {
		t.Errorf("expected educational domain type, got %q", s.DomainType)
	}
}

func TestAPIVoidSignal_DomainTrust(t *testing.T) {
	base := func() tree {
		return tree{
			"has_a_records":   true,
			"has_mx_records":  true,
			"has_spf_records": true,
			"valid_tld":       true,
		}
	}

	testCases := []struct {
		name   string
		mutate func(tree)
		want   *bool
	}{
		{name: "all good", mutate: func(tree) {}, want: boolPtr(true)},
		{name: "spoofable", mutate: func(d tree) { d["is_spoofable"] = true }, want: boolPtr(false)},
		{name: "missing spf", mutate: func(d tree) { d["has_spf_records"] = false }, want: boolPtr(false)},
		{name: "risky tld", mutate: func(d tree) { d["risky_tld"] = true }, want: boolPtr(false)},
		{name: "no domain data", mutate: func(d tree) { delete(d, "has_a_records") }, want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := base()
			tc.mutate(d)
			s := apiVoidSignal(d)
			if tc.want == nil {
				if s.DomainTrust != nil {
					t.Errorf("expected no domain trust signal, got %v", *s.DomainTrust)
				}
				return
			}
			assertBool(t, "domain_trust", s.DomainTrust, *tc.want)
		})
	}
}

func TestAPIVoid_MissingData(t *testing.T) {
	server := newJSONServer(t, nil, `{"error": "Invalid API key"}`)

	p := NewAPIVoid("bad")
	p.BaseURL = server.URL

	if _, err := p.Score(context.Background(), "user@example.com", "example.com"); err == nil {
		t.Fatal("expected error for apivoid error response")
	}
}

func TestIPQualityScore_Score(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		check   func(t *testing.T, s *Signal)
		wantErr bool
	}{
		{
			name: "catch all and honeypot",
			body: `{"success": true, "valid": true, "disposable": false, "catch_all": true, "generic": false,
				"recent_abuse": false, "honeypot": true, "dns_valid": true, "overall_score": 3, "smtp_score": 2, "fraud_score": 88}`,
			check: func(t *testing.T, s *Signal) {
				assertBool(t, "exist", s.Exist, true)
				assertBool(t, "disposable", s.Disposable, true)
				assertBool(t, "suspicious", s.Suspicious, false)
				assertBool(t, "honeypot", s.Honeypot, true)
				assertBool(t, "dns_valid", s.DNSValid, true)
				assertScore(t, s.FraudScore, 88)
			},
		},
		{
			name: "zero overall score invalidates dns",
			body: `{"success": true, "valid": true, "dns_valid": true, "overall_score": 0, "smtp_score": 1}`,
			check: func(t *testing.T, s *Signal) {
				assertBool(t, "dns_valid", s.DNSValid, false)
			},
		},
		{
			name: "failed smtp invalidates dns",
			body: `{"success": true, "valid": true, "dns_valid": true, "overall_score": 2, "smtp_score": -1}`,
			check: func(t *testing.T, s *Signal) {
				assertBool(t, "dns_valid", s.DNSValid, false)
			},
		},
		{
			name:    "unsuccessful request",
			body:    `{"success": false, "message": "Invalid key"}`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newJSONServer(t, func(r *http.Request) {
				if !strings.HasPrefix(r.URL.Path, "/api/json/email/key/") {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.URL.Query().Get("strictness") != "1" {
					t.Errorf("expected strictness=1, got %s", r.URL.RawQuery)
				}
			}, tc.body)

			p := NewIPQualityScore("key")
			p.BaseURL = server.URL

			s, err := p.Score(context.Background(), "user@example.com", "example.com")
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.check(t, s)
		})
	}
}

func TestSendGrid_Score(t *testing.T) {
	testCases := []struct {
		name      string
		verdict   string
		wantExist bool
	}{
		{name: "valid email", verdict: "Valid", wantExist: true},
		{name: "risky email", verdict: "Risky", wantExist: true},
		{name: "invalid email", verdict: "Invalid", wantExist: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v3/validations/email" {
					t.Errorf("unexpected path: %s", r.URL.Path)
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				if r.Method != "POST" {
					t.Errorf("unexpected method: %s", r.Method)
					http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
					return
				}
				if r.Header.Get("Authorization") != "Bearer test-api-key" {
					t.Errorf("unexpected authorization header: %q", r.Header.Get("Authorization"))
				}

				disposable := true
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(SendGridEmailAddressValidationResponse{
					Result: SendGridEmailAddressValidationResult{
						Email:   "user@example.com",
						Verdict: tc.verdict,
						Score:   0.5,
						Checks: SendGridEmailAddressValidationChecks{
							Domain: SendGridEmailAddressValidationDomainChecks{
								IsSuspectedDisposableAddress: &disposable,
							},
						},
					},
				})
			}))
			defer server.Close()

			p := NewSendGrid("test-api-key", server.URL)

			s, err := p.Score(context.Background(), "user@example.com", "example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertBool(t, "exist", s.Exist, tc.wantExist)
			assertBool(t, "disposable", s.Disposable, true)
			if s.DNSValid != nil {
				t.Errorf("expected no dns signal, got %v", *s.DNSValid)
			}
		})
	}
}

func TestSend_Failures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		p := NewIPQualityScore("key")
		p.BaseURL = server.URL
		if _, err := p.Score(context.Background(), "user@example.com", "example.com"); err == nil {
			t.Fatal("expected error for 500 response")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		server := newJSONServer(t, nil, `{not json`)

		p := NewCleanTalk("key")
		p.BaseURL = server.URL
		if _, err := p.Score(context.Background(), "user@example.com", "example.com"); err == nil {
			t.Fatal("expected error for malformed body")
		}
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		p := NewAPIVoid("key")
		p.BaseURL = server.URL
		if _, err := p.Score(ctx, "user@example.com", "example.com"); err == nil {
			t.Fatal("expected timeout error")
		}
	})
}

func TestPoste_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/web-dnsbl" || r.URL.Query().Get("query") != "example.com" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		io.WriteString(w, `[{"name":"a","ok":true},{"name":"b","ok":true},{"name":"c","listed":true},{"name":"d","error":"timeout"}]`)
	}))
	defer server.Close()

	c := NewPoste()
	c.BaseURL = server.URL

	l, err := c.Check(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Total != 4 || l.Listed != 1 {
		t.Errorf("expected 1 of 4 listed, got %+v", l)
	}
}

func TestSite24x7_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tools/action.do" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		if err != nil {
			t.Errorf("bad form body: %v", err)
		}
		if form.Get("hostName") != "example.com" || form.Get("execute") != "performRBLCheck" {
			t.Errorf("unexpected form: %v", form)
		}
		if form.Get("timestamp") != "1700000000" {
			t.Errorf("unexpected timestamp: %s", form.Get("timestamp"))
		}
		io.WriteString(w, "Blocklisted in spamhaus<br>Blocklisted in sorbs<br>Not listed in barracuda")
	}))
	defer server.Close()

	c := NewSite24x7()
	c.BaseURL = server.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	l, err := c.Check(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Total != site24x7ListCount || l.Listed != 2 {
		t.Errorf("expected 2 of %d listed, got %+v", site24x7ListCount, l)
	}
}

func TestNewScoreProviders(t *testing.T) {
	creds := types.Credentials{
		MaxMind:        types.MaxMindCredentials{Account: "1", License: "x"},
		CleanTalk:      "off",
		APIVoid:        "key",
		IPQualityScore: "",
		SendGrid:       "sg",
		Poste:          "ON",
		Site247:        "OFF",
	}

	ps := NewScoreProviders(creds)
	var names []string
	for _, p := range ps {
		names = append(names, p.Name())
	}
	if got := strings.Join(names, ","); got != "maxmind,apivoid,sendgrid" {
		t.Errorf("unexpected providers: %s", got)
	}

	cs := NewBlacklistCheckers(creds)
	if len(cs) != 1 || cs[0].Name() != "poste" {
		t.Errorf("expected only poste checker, got %d", len(cs))
	}

	creds.MaxMind.License = ""
	if ps := NewScoreProviders(creds); ps[0].Name() == "maxmind" {
		t.Error("expected maxmind disabled without a license key")
	}
}

func TestTree_Accessors(t *testing.T) {
	var tr tree
	if err := json.Unmarshal([]byte(`{"a": {"b": "1", "c": 0, "d": null, "e": "0.75", "f": "x"}}`), &tr); err != nil {
		t.Fatal(err)
	}

	if v, ok := tr.flag("a", "b"); !ok || !v {
		t.Errorf("expected string \"1\" to be truthy")
	}
	if v, ok := tr.flag("a", "c"); !ok || v {
		t.Errorf("expected 0 to be falsy")
	}
	if _, ok := tr.flag("a", "d"); ok {
		t.Errorf("expected null to be absent")
	}
	if v, ok := tr.number("a", "e"); !ok || v != 0.75 {
		t.Errorf("expected numeric string to parse, got %v %v", v, ok)
	}
	if _, ok := tr.number("a", "f"); ok {
		t.Errorf("expected non-numeric string to be absent")
	}
	if _, ok := tr.text("a", "b", "c"); ok {
		t.Errorf("expected path through a scalar to be absent")
	}
}
