package verifier

import "strings"

var builtinDisposableDomains = []string{
	"mailinator.com",
	"guerrillamail.com",
	"trashmail.com",
	"tempmail.net",
	"yopmail.com",
	"getnada.com",
	"sharklasers.com",
	"inboxbear.com",
	"dispostable.com",
	"cexch.com",
	"comfythings.com",
	"bltiwd.com",
	"spam4.me",
	"osxofulk.com",
	"jkotypc.com",
	"cmhvzylmfc.com",
	"zudpck.com",
	"daouse.com",
	"illubd.com",
	"mkzaso.com",
	"mrotzis.com",
	"xkxkud.com",
	"wnbaldwy.com",
	"bwmyga.com",
	"ozsaip.com",
	"yzcalo.com",
	"forexzig.com",
	"tempmail.id.vn",
	"hathitrannhien.edu.vn",
	"nghienplus.io.vn",
}

// DomainSet is an immutable set of lowercase domains.
type DomainSet struct {
	domains map[string]struct{}
}

func NewDomainSet(domains ...string) DomainSet {
	m := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			m[d] = struct{}{}
		}
	}
	return DomainSet{domains: m}
}

// DefaultDisposableDomains returns the built-in disposable list extended with
// extra.
func DefaultDisposableDomains(extra ...string) DomainSet {
	all := make([]string, 0, len(builtinDisposableDomains)+len(extra))
	all = append(all, builtinDisposableDomains...)
	all = append(all, extra...)
	return NewDomainSet(all...)
}

// Contains is an exact, case-sensitive match; callers pass lowercase domains.
func (s DomainSet) Contains(domain string) bool {
	_, ok := s.domains[domain]
	return ok
}

func (s DomainSet) Len() int {
	return len(s.domains)
}
