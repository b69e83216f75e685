package verifier

import (
	"regexp"
	"strings"

	"github.com/badoux/checkmail"
	"golang.org/x/net/idna"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]+$`)

// NormalizeEmail lowercases and trims a raw address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidFormat reports whether email is syntactically well formed.
func ValidFormat(email string) bool {
	return checkmail.ValidateFormat(email) == nil
}

// SplitAddress splits email on its first @ and lowercases the domain.
func SplitAddress(email string) (local, domain string, err error) {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "", "", ErrMissingSeparator
	}
	return local, strings.ToLower(domain), nil
}

// CleanUsername reports whether the local part only uses a-z, 0-9, '.', '-'
// and '_'.
func CleanUsername(local string) bool {
	return usernamePattern.MatchString(local)
}

// DomainPolicyAllows rejects domains with four or more labels or any digit.
// It must run on the domain as typed, before IDNA conversion, since punycode
// labels carry digits of their own.
func DomainPolicyAllows(domain string) bool {
	labels := 0
	for _, l := range strings.Split(domain, ".") {
		if l != "" {
			labels++
		}
	}
	if labels >= 4 {
		return false
	}
	return !strings.ContainsAny(domain, "0123456789")
}

// ToASCII converts an internationalized domain to its punycode form. ASCII
// input, and input the IDNA profile rejects, is returned unchanged.
func ToASCII(domain string) string {
	if isASCII(domain) {
		return domain
	}
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil || ascii == "" {
		return domain
	}
	return ascii
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
