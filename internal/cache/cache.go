// Package cache stores recent evaluation results to absorb bursts of
// identical queries.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cruxstack/email-trust-filter-go/internal/types"
)

// DefaultTTL is how long a completed evaluation stays reusable.
const DefaultTTL = 300 * time.Second

const keyPrefix = "email_filter:"

// Cache is a best-effort result store. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*types.EvaluationResult, bool, error)
	Set(ctx context.Context, key string, result types.EvaluationResult, ttl time.Duration) error
}

// Key fingerprints the inputs that determine an evaluation outcome.
func Key(email string, fast, enforceScore bool, tldPolicy string) string {
	raw := strings.Join([]string{
		email,
		boolDigit(fast),
		boolDigit(enforceScore),
		tldPolicy,
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
