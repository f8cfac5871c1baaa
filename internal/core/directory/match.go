package directory

import "strings"

// Normalize lower-cases a provider or registrar name and drops everything
// that is not an ASCII letter or digit, so "GoDaddy.com, LLC" becomes
// "godaddycomllc".
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matcher decides whether two provider names refer to the same organisation.
// It holds only the synonym table; the entries it is applied to live
// elsewhere.
type Matcher struct {
	groups [][]string
}

// NewMatcher builds a matcher over the given synonym groups. Members are
// normalized on the way in.
func NewMatcher(groups [][]string) Matcher {
	norm := make([][]string, 0, len(groups))
	for _, g := range groups {
		members := make([]string, 0, len(g))
		for _, m := range g {
			if n := Normalize(m); n != "" {
				members = append(members, n)
			}
		}
		if len(members) > 0 {
			norm = append(norm, members)
		}
	}
	return Matcher{groups: norm}
}

// DefaultMatcher uses the built-in synonym table.
var DefaultMatcher = NewMatcher(synonymGroups)

// Match reports whether a and b name the same provider: equal after
// normalization, one containing the other, or tied by a synonym group. Blank
// names never match.
func (m Matcher) Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb || strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	for _, g := range m.groups {
		if (contains(g, na) && mentions(nb, g)) || (contains(g, nb) && mentions(na, g)) {
			return true
		}
	}
	return false
}

func contains(group []string, s string) bool {
	for _, m := range group {
		if m == s {
			return true
		}
	}
	return false
}

// mentions reports whether any group member occurs inside s.
func mentions(s string, group []string) bool {
	for _, m := range group {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Abbreviated and legal-suffix spellings of the same provider.
var synonymGroups = [][]string{
	{"markmonitorinc", "markmonitor"},
	{"tucowsdomains", "tucows"},
	{"godaddycom", "godaddy"},
	{"namecheapinc", "namecheap"},
	{"cloudflareinc", "cloudflare"},
	{"googlellc", "googleinc", "google"},
	{"enominc", "enom"},
	{"namebrightcom", "namebright"},
	{"webniccc", "webnic"},
	{"publicdomainregistry", "pdr"},
	{"epikcom", "epik"},
	{"hostingercom", "hostinger"},
	{"hostgatorcom", "hostgator"},
	{"bluehostcom", "bluehost"},
	{"dreamhostcom", "dreamhost"},
	{"vercelinc", "vercel"},
	{"netlifycom", "netlify"},
	{"githubinc", "github"},
	{"amazoncom", "amazonaws", "aws"},
	{"microsoftcom", "microsoft"},
}
