package verifier

import "errors"

var ErrMissingSeparator = errors.New("email address has no @ separator")

// OfflineEmailVerifier runs the local, network-free gates against an address.
// It is immutable once built and safe for concurrent use.
type OfflineEmailVerifier struct {
	TLDs       TLDSet
	Disposable DomainSet
}

func NewOfflineVerifier(tlds TLDSet, disposable DomainSet) *OfflineEmailVerifier {
	return &OfflineEmailVerifier{
		TLDs:       tlds,
		Disposable: disposable,
	}
}

// AllowsTLD reports whether the terminal label of domain is on the allow-list.
func (v *OfflineEmailVerifier) AllowsTLD(domain string) bool {
	return v.TLDs.Allows(domain)
}

// IsDisposable reports whether domain is a known throwaway mailbox provider.
func (v *OfflineEmailVerifier) IsDisposable(domain string) bool {
	return v.Disposable.Contains(domain)
}
