package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cruxstack/email-trust-filter-go/internal/types"
)

// fileConfig mirrors the subset of settings that can live in APP_CONFIG_PATH.
// The tld key accepts either a pipe-delimited string or a list.
type fileConfig struct {
	TLD               tldValue          `yaml:"tld"`
	Credentials       types.Credentials `yaml:"credentials"`
	DisposableDomains []string          `yaml:"disposable_domains"`
	PolicyPath        string            `yaml:"policy_path"`
	PolicyQuery       string            `yaml:"policy_query"`
	Nameservers       []string          `yaml:"nameservers"`
	RedisURL          string            `yaml:"redis_url"`
	CacheTTL          string            `yaml:"cache_ttl"`
}

type tldValue string

func (t *tldValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = tldValue(node.Value)
		return nil
	case yaml.SequenceNode:
		var labels []string
		if err := node.Decode(&labels); err != nil {
			return err
		}
		*t = tldValue(strings.Join(labels, "|"))
		return nil
	default:
		return fmt.Errorf("tld must be a string or a list, line %d", node.Line)
	}
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(c *Config) {
	if fc.TLD != "" {
		c.AppEmailFilterTLD = string(fc.TLD)
	}

	creds := &c.AppEmailFilterCredentials
	setIf(&creds.Poste, fc.Credentials.Poste)
	setIf(&creds.Site247, fc.Credentials.Site247)
	setIf(&creds.MaxMind.Account, fc.Credentials.MaxMind.Account)
	setIf(&creds.MaxMind.License, fc.Credentials.MaxMind.License)
	setIf(&creds.CleanTalk, fc.Credentials.CleanTalk)
	setIf(&creds.APIVoid, fc.Credentials.APIVoid)
	setIf(&creds.IPQualityScore, fc.Credentials.IPQualityScore)
	setIf(&creds.SendGrid, fc.Credentials.SendGrid)

	if len(fc.DisposableDomains) > 0 {
		c.AppEmailFilterDisposableDomains = fc.DisposableDomains
	}
	if len(fc.Nameservers) > 0 {
		c.AppDNSNameservers = fc.Nameservers
	}
	setIf(&c.AppEmailFilterPolicyPath, fc.PolicyPath)
	setIf(&c.AppEmailFilterPolicyQuery, fc.PolicyQuery)
	setIf(&c.AppCacheRedisURL, fc.RedisURL)

	if fc.CacheTTL != "" {
		if ttl, err := parseTTL(fc.CacheTTL); err == nil {
			c.AppCacheTTL = ttl
		} else {
			slog.Warn("invalid cache_ttl in config file, using default", "value", fc.CacheTTL)
		}
	}
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
