package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"APP_DEBUG_MODE",
	"APP_DEBUG_DATA_PATH",
	"APP_CONFIG_PATH",
	"APP_KMS_KEY_ID",
	"KMS_KEY_ID",
	"APP_LOG_LEVEL",
	"APP_EMAIL_FILTER_TLD",
	"APP_EMAIL_FILTER_POSTE",
	"APP_EMAIL_FILTER_SITE247",
	"APP_EMAIL_FILTER_MAXMIND_ACCOUNT",
	"APP_EMAIL_FILTER_MAXMIND_LICENSE",
	"APP_EMAIL_FILTER_CLEANTALK_KEY",
	"APP_EMAIL_FILTER_APIVOID_KEY",
	"APP_EMAIL_FILTER_IPQUALITYSCORE_KEY",
	"APP_EMAIL_FILTER_SENDGRID_KEY",
	"APP_EMAIL_FILTER_DISPOSABLE_DOMAINS",
	"APP_EMAIL_FILTER_POLICY_PATH",
	"APP_EMAIL_FILTER_POLICY_QUERY",
	"APP_DNS_NAMESERVERS",
	"APP_CACHE_REDIS_URL",
	"APP_CACHE_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, DefaultTLD, cfg.AppEmailFilterTLD)
	assert.Equal(t, "ON", cfg.AppEmailFilterCredentials.Poste)
	assert.Equal(t, "ON", cfg.AppEmailFilterCredentials.Site247)
	assert.Empty(t, cfg.AppEmailFilterCredentials.APIVoid)
	assert.Equal(t, DefaultCacheTTL, cfg.AppCacheTTL)
	assert.Equal(t, slog.LevelInfo, cfg.AppLogLevel)
	assert.Empty(t, cfg.AppDNSNameservers)
	assert.False(t, cfg.DebugMode)
}

func TestNew_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_EMAIL_FILTER_TLD", "com|net")
	t.Setenv("APP_EMAIL_FILTER_SITE247", "off")
	t.Setenv("APP_EMAIL_FILTER_MAXMIND_ACCOUNT", "123")
	t.Setenv("APP_EMAIL_FILTER_MAXMIND_LICENSE", "lic")
	t.Setenv("APP_EMAIL_FILTER_APIVOID_KEY", "apivoid-key")
	t.Setenv("APP_EMAIL_FILTER_DISPOSABLE_DOMAINS", "a.test, b.test,")
	t.Setenv("APP_DNS_NAMESERVERS", "1.1.1.1, 8.8.8.8:5353")
	t.Setenv("APP_CACHE_TTL", "60")
	t.Setenv("APP_LOG_LEVEL", "debug")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "com|net", cfg.AppEmailFilterTLD)
	assert.Equal(t, "off", cfg.AppEmailFilterCredentials.Site247)
	assert.Equal(t, "123", cfg.AppEmailFilterCredentials.MaxMind.Account)
	assert.Equal(t, "apivoid-key", cfg.AppEmailFilterCredentials.APIVoid)
	assert.Equal(t, []string{"a.test", "b.test"}, cfg.AppEmailFilterDisposableDomains)
	assert.Equal(t, []string{"1.1.1.1:53", "8.8.8.8:5353"}, cfg.AppDNSNameservers)
	assert.Equal(t, time.Minute, cfg.AppCacheTTL)
	assert.Equal(t, slog.LevelDebug, cfg.AppLogLevel)
}

func TestNew_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_CACHE_TTL", "soon")
	t.Setenv("APP_LOG_LEVEL", "loud")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, DefaultCacheTTL, cfg.AppCacheTTL)
	assert.Equal(t, slog.LevelInfo, cfg.AppLogLevel)
}

func TestNew_DeprecatedKMSKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("KMS_KEY_ID", "alias/legacy")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "alias/legacy", cfg.AppKmsKeyId)
}

func TestNew_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
tld: [com, io]
credentials:
  poste: "off"
  maxmind:
    account: "42"
    license: file-license
  ipqualityscore: file-ipqs
disposable_domains:
  - junk.test
cache_ttl: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("APP_CONFIG_PATH", path)
	t.Setenv("APP_EMAIL_FILTER_IPQUALITYSCORE_KEY", "env-ipqs")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "com|io", cfg.AppEmailFilterTLD)
	assert.Equal(t, "off", cfg.AppEmailFilterCredentials.Poste)
	assert.Equal(t, "ON", cfg.AppEmailFilterCredentials.Site247)
	assert.Equal(t, "42", cfg.AppEmailFilterCredentials.MaxMind.Account)
	assert.Equal(t, "env-ipqs", cfg.AppEmailFilterCredentials.IPQualityScore, "env should override file")
	assert.Equal(t, []string{"junk.test"}, cfg.AppEmailFilterDisposableDomains)
	assert.Equal(t, 2*time.Minute, cfg.AppCacheTTL)
}

func TestNew_ConfigFileErrors(t *testing.T) {
	clearEnv(t)

	t.Setenv("APP_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := New()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tld: {com: true}\n"), 0o600))
	t.Setenv("APP_CONFIG_PATH", path)
	_, err = New()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AppEmailFilterTLD: DefaultTLD,
			AppCacheTTL:       DefaultCacheTTL,
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "tld with dot", mutate: func(c *Config) { c.AppEmailFilterTLD = "com|co.uk" }, wantErr: true},
		{name: "maxmind account only", mutate: func(c *Config) { c.AppEmailFilterCredentials.MaxMind.Account = "1" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.AppCacheTTL = 0 }, wantErr: true},
		{name: "query without policy", mutate: func(c *Config) { c.AppEmailFilterPolicyQuery = "data.x.result" }, wantErr: true},
		{name: "bad nameserver", mutate: func(c *Config) { c.AppDNSNameservers = []string{"nope"} }, wantErr: true},
		{name: "encrypted without key", mutate: func(c *Config) { c.AppEmailFilterCredentials.APIVoid = "enc:abc" }, wantErr: true},
		{
			name: "encrypted with key",
			mutate: func(c *Config) {
				c.AppEmailFilterCredentials.APIVoid = "kms:abc"
				c.AppKmsKeyId = "alias/app"
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecryptCredentials_Mocked(t *testing.T) {
	t.Setenv("APP_DEBUG_MODE", "true")

	c := Config{
		AWSConfig:   &aws.Config{Region: "us-east-1"},
		AppKmsKeyId: "MOCKED_KEY_ID",
	}
	c.AppEmailFilterCredentials.APIVoid = "enc:apivoid-plain"
	c.AppEmailFilterCredentials.SendGrid = "kms:sendgrid-plain"
	c.AppEmailFilterCredentials.CleanTalk = "cleantalk-plain"

	require.NoError(t, c.DecryptCredentials(context.Background()))

	assert.Equal(t, "apivoid-plain", c.AppEmailFilterCredentials.APIVoid)
	assert.Equal(t, "sendgrid-plain", c.AppEmailFilterCredentials.SendGrid)
	assert.Equal(t, "cleantalk-plain", c.AppEmailFilterCredentials.CleanTalk)
}

func TestParseTTL(t *testing.T) {
	d, err := parseTTL("300")
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, d)

	d, err = parseTTL("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = parseTTL("later")
	assert.Error(t, err)
}

func TestNormalizeNameservers(t *testing.T) {
	got := normalizeNameservers([]string{"9.9.9.9", "10.0.0.1:5353", "::1", "[2001:db8::1]"})
	assert.Equal(t, []string{"9.9.9.9:53", "10.0.0.1:5353", "[::1]:53", "[2001:db8::1]:53"}, got)
}
