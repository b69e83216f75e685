package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/cruxstack/email-trust-filter-go/internal/types"
)

const (
	DefaultTLD      = "vn|com|net|org|uk|us|io|dev"
	DefaultCacheTTL = 300 * time.Second
)

type Config struct {
	AWSConfig     *aws.Config
	AppLogLevel   slog.Level
	AppKmsKeyId   string
	AppConfigPath string
	DebugMode     bool
	DebugDataPath string

	AppEmailFilterTLD               string
	AppEmailFilterCredentials       types.Credentials
	AppEmailFilterDisposableDomains []string
	AppEmailFilterPolicyPath        string
	AppEmailFilterPolicyQuery       string

	AppDNSNameservers []string
	AppCacheRedisURL  string
	AppCacheTTL       time.Duration
}

// New loads configuration from an optional YAML file and the environment,
// validates it and decrypts any encrypted credentials. Environment values
// take precedence over the file.
func New() (*Config, error) {
	ctx := context.Background()

	cfg := Config{
		DebugMode:         os.Getenv("APP_DEBUG_MODE") == "true",
		DebugDataPath:     os.Getenv("APP_DEBUG_DATA_PATH"),
		AppConfigPath:     os.Getenv("APP_CONFIG_PATH"),
		AppKmsKeyId:       os.Getenv("APP_KMS_KEY_ID"),
		AppLogLevel:       slog.LevelInfo,
		AppEmailFilterTLD: DefaultTLD,
		AppEmailFilterCredentials: types.Credentials{
			Poste:   "ON",
			Site247: "ON",
		},
		AppEmailFilterDisposableDomains: []string{},
		AppDNSNameservers:               []string{},
		AppCacheTTL:                     DefaultCacheTTL,
	}

	if cfg.AppConfigPath != "" {
		fc, err := loadFile(cfg.AppConfigPath)
		if err != nil {
			return nil, err
		}
		fc.apply(&cfg)
	}

	cfg.applyEnv()

	if levelStr := os.Getenv("APP_LOG_LEVEL"); levelStr != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err == nil {
			cfg.AppLogLevel = level
		} else {
			slog.Warn("invalid APP_LOG_LEVEL, using default", "value", levelStr, "default", cfg.AppLogLevel.String())
		}
	}

	if ttlStr := os.Getenv("APP_CACHE_TTL"); ttlStr != "" {
		if ttl, err := parseTTL(ttlStr); err == nil {
			cfg.AppCacheTTL = ttl
		} else {
			slog.Warn("invalid APP_CACHE_TTL, using default", "value", ttlStr, "default", cfg.AppCacheTTL.String())
		}
	}

	// deprecated
	if cfg.AppKmsKeyId == "" && os.Getenv("KMS_KEY_ID") != "" {
		cfg.AppKmsKeyId = os.Getenv("KMS_KEY_ID")
		slog.Warn("deprecated env var used", "old", "KMS_KEY_ID", "new", "APP_KMS_KEY_ID")
	}

	cfg.AppDNSNameservers = normalizeNameservers(cfg.AppDNSNameservers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.DecryptCredentials(ctx); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	creds := &c.AppEmailFilterCredentials

	setString(&c.AppEmailFilterTLD, "APP_EMAIL_FILTER_TLD")
	setString(&creds.Poste, "APP_EMAIL_FILTER_POSTE")
	setString(&creds.Site247, "APP_EMAIL_FILTER_SITE247")
	setString(&creds.MaxMind.Account, "APP_EMAIL_FILTER_MAXMIND_ACCOUNT")
	setString(&creds.MaxMind.License, "APP_EMAIL_FILTER_MAXMIND_LICENSE")
	setString(&creds.CleanTalk, "APP_EMAIL_FILTER_CLEANTALK_KEY")
	setString(&creds.APIVoid, "APP_EMAIL_FILTER_APIVOID_KEY")
	setString(&creds.IPQualityScore, "APP_EMAIL_FILTER_IPQUALITYSCORE_KEY")
	setString(&creds.SendGrid, "APP_EMAIL_FILTER_SENDGRID_KEY")
	setString(&c.AppEmailFilterPolicyPath, "APP_EMAIL_FILTER_POLICY_PATH")
	setString(&c.AppEmailFilterPolicyQuery, "APP_EMAIL_FILTER_POLICY_QUERY")
	setString(&c.AppCacheRedisURL, "APP_CACHE_REDIS_URL")

	if v := splitList(os.Getenv("APP_EMAIL_FILTER_DISPOSABLE_DOMAINS")); len(v) > 0 {
		c.AppEmailFilterDisposableDomains = v
	}
	if v := splitList(os.Getenv("APP_DNS_NAMESERVERS")); len(v) > 0 {
		c.AppDNSNameservers = v
	}
}

// Validate checks that required configuration fields are set and valid
func (c *Config) Validate() error {
	for _, label := range strings.Split(c.AppEmailFilterTLD, "|") {
		label = strings.TrimSpace(label)
		if strings.ContainsAny(label, ". \t@") {
			return fmt.Errorf("APP_EMAIL_FILTER_TLD contains an invalid label: %q", label)
		}
	}

	mm := c.AppEmailFilterCredentials.MaxMind
	if (mm.Account == "") != (mm.License == "") {
		return errors.New("APP_EMAIL_FILTER_MAXMIND_ACCOUNT and APP_EMAIL_FILTER_MAXMIND_LICENSE must be set together")
	}

	if c.AppCacheTTL <= 0 {
		return errors.New("APP_CACHE_TTL must be positive")
	}

	if c.AppEmailFilterPolicyQuery != "" && c.AppEmailFilterPolicyPath == "" {
		return errors.New("APP_EMAIL_FILTER_POLICY_PATH is required when APP_EMAIL_FILTER_POLICY_QUERY is set")
	}

	for _, ns := range c.AppDNSNameservers {
		host, _, err := net.SplitHostPort(ns)
		if err != nil || host == "" {
			return fmt.Errorf("invalid nameserver in APP_DNS_NAMESERVERS: %q", ns)
		}
	}

	if c.AppKmsKeyId == "" && c.hasEncryptedCredentials() {
		return errors.New("APP_KMS_KEY_ID is required when credentials are encrypted")
	}

	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, x := range strings.Split(s, ",") {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}

// parseTTL accepts a Go duration ("5m") or a number of seconds ("300").
func parseTTL(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// normalizeNameservers adds the default DNS port to bare hosts.
func normalizeNameservers(servers []string) []string {
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(strings.Trim(s, "[]"), "53")
		}
		out = append(out, s)
	}
	return out
}
