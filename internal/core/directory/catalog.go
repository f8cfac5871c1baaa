package directory

import "strings"

// ContactType tells the caller how to use a contact value.
type ContactType string

const (
	ContactEmail ContactType = "email"
	ContactForm  ContactType = "form"
	ContactPhone ContactType = "phone"
	ContactWhois ContactType = "whois"
)

// ProviderContact is one channel a provider accepts abuse reports on.
type ProviderContact struct {
	Type        ContactType
	Contact     string
	Description string
}

// Provider is an organisation that takes abuse reports, matched either by
// name or by a fragment of the reported domain.
type Provider struct {
	Key      string
	Contacts []ProviderContact
	Domains  []string
}

// Catalog is the read-only provider table used to suggest contacts.
type Catalog struct {
	providers []Provider
	matcher   Matcher
}

// NewCatalog returns a catalog over a copy of providers.
func NewCatalog(providers []Provider, m Matcher) *Catalog {
	return &Catalog{providers: append([]Provider(nil), providers...), matcher: m}
}

var defaultCatalog = NewCatalog(providers, DefaultMatcher)

// DefaultCatalog returns the built-in provider catalog.
func DefaultCatalog() *Catalog { return defaultCatalog }

// Get returns the provider with the given key.
func (c *Catalog) Get(key string) (Provider, bool) {
	for _, p := range c.providers {
		if p.Key == key {
			return p, true
		}
	}
	return Provider{}, false
}

// MatchName returns the providers whose key matches name, in catalog order.
func (c *Catalog) MatchName(name string) []Provider {
	var out []Provider
	for _, p := range c.providers {
		if c.matcher.Match(name, p.Key) {
			out = append(out, p)
		}
	}
	return out
}

// MatchDomain returns the providers owning a suffix of domain. A pattern
// with a leading dot matches any name under it; a bare pattern matches
// itself and its subdomains.
func (c *Catalog) MatchDomain(domain string) []Provider {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	var out []Provider
	for _, p := range c.providers {
		for _, pattern := range p.Domains {
			if suffixMatch(domain, strings.ToLower(pattern)) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func suffixMatch(domain, pattern string) bool {
	if strings.HasPrefix(pattern, ".") {
		return strings.HasSuffix(domain, pattern)
	}
	return domain == pattern || strings.HasSuffix(domain, "."+pattern)
}

var providers = []Provider{
	{
		Key:      "registro.br",
		Contacts: []ProviderContact{{Type: ContactEmail, Contact: "abuse@registro.br", Description: "Send the report to the email"}},
		Domains:  []string{".br", "com.br", "net.br", "org.br"},
	},
	{
		Key:      "cloudflare",
		Contacts: []ProviderContact{{Type: ContactForm, Contact: "https://abuse.cloudflare.com/phishing", Description: "Official Cloudflare form to report abuse"}},
	},
	{
		Key:      "cert.br",
		Contacts: []ProviderContact{{Type: ContactEmail, Contact: "mail-abuse@cert.br", Description: "Send the report to the email"}},
		Domains:  []string{".br"},
	},
	{
		Key:      "markmonitor",
		Contacts: []ProviderContact{{Type: ContactEmail, Contact: "abusecomplaints@markmonitor.com", Description: "Send the report to the abuse email"}},
	},
}
