package verifier

import (
	"slices"
	"strings"
)

// TLDSet is a normalized allow-list of top-level domains. The zero value
// allows every TLD.
type TLDSet struct {
	labels []string
}

// ParseTLDs builds a set from a pipe-delimited list such as "com|net|org".
func ParseTLDs(s string) TLDSet {
	return NewTLDSet(strings.Split(s, "|"))
}

// NewTLDSet lowercases, trims and de-duplicates labels, keeping first-seen
// order.
func NewTLDSet(labels []string) TLDSet {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return TLDSet{labels: out}
}

func (s TLDSet) Empty() bool {
	return len(s.labels) == 0
}

func (s TLDSet) Labels() []string {
	return slices.Clone(s.labels)
}

// String renders the set in its pipe-delimited form.
func (s TLDSet) String() string {
	return strings.Join(s.labels, "|")
}

// Allows reports whether the last label of domain is in the set. A domain
// without a dot has no TLD and is only allowed by an empty set.
func (s TLDSet) Allows(domain string) bool {
	if s.Empty() {
		return true
	}
	pos := strings.LastIndex(domain, ".")
	if pos < 0 {
		return false
	}
	tld := strings.ToLower(domain[pos+1:])
	if tld == "" {
		return false
	}
	return slices.Contains(s.labels, tld)
}
