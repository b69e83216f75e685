package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cruxstack/email-trust-filter-go/internal/config"
	"github.com/cruxstack/email-trust-filter-go/internal/filter"
)

var (
	dataPath   string
	policyPath string
	fullMode   bool
	enforce    bool
)

func init() {
	flag.StringVar(&dataPath, "data", "", "path to a file with one email address per line")
	flag.StringVar(&policyPath, "policy", "", "override path to Rego policy file")
	flag.BoolVar(&fullMode, "full", false, "run every check instead of stopping at the first failure")
	flag.BoolVar(&enforce, "score", false, "disqualify addresses with a high fraud score")
	flag.Parse()
}

func NewDebugConfig() (*config.Config, error) {
	envpath := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(envpath); err == nil {
		_ = godotenv.Load(envpath)
	}

	// encrypted credentials are passed through unchanged with the mocked key
	if os.Getenv("APP_DEBUG_MODE") == "" {
		os.Setenv("APP_DEBUG_MODE", "true")
	}
	if os.Getenv("APP_KMS_KEY_ID") == "" && os.Getenv("KMS_KEY_ID") == "" {
		os.Setenv("APP_KMS_KEY_ID", "MOCKED_KEY_ID")
	}

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	if cfg.AppEmailFilterPolicyPath == "" {
		cfg.AppEmailFilterPolicyPath = filepath.Join("..", "..", "fixtures", "debug-policy.rego")
	}
	if policyPath != "" {
		cfg.AppEmailFilterPolicyPath = policyPath
	}

	if cfg.DebugDataPath == "" {
		cfg.DebugDataPath = filepath.Join("..", "..", "fixtures", "debug-emails.txt")
	}
	if dataPath != "" {
		cfg.DebugDataPath = dataPath
	}

	return cfg, nil
}

func readEmails(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var emails []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		emails = append(emails, line)
	}
	return emails, sc.Err()
}

func main() {
	cfg, err := NewDebugConfig()
	if err != nil {
		slog.Error("failed to load debug config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.AppLogLevel})))

	ctx := context.Background()

	f, err := filter.NewFromConfig(ctx, cfg)
	if err != nil {
		slog.Error("failed to init email filter", "error", err)
		os.Exit(1)
	}

	emails := flag.Args()
	if len(emails) == 0 {
		emails, err = readEmails(cfg.DebugDataPath)
		if err != nil {
			slog.Error("failed to read data file", "path", cfg.DebugDataPath, "error", err)
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	mode := filter.Mode{Full: fullMode, EnforceScore: enforce}
	for i, email := range emails {
		result, err := f.Evaluate(ctx, email, mode)
		if err != nil {
			slog.Warn("evaluation returned error", "index", i, "email", email, "error", err)
		}
		if err := enc.Encode(result); err != nil {
			slog.Error("failed to encode result", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("debug run complete", "count", len(emails))
}
