package lookup

import (
	"strings"

	"abuse-rec/internal/core/directory"
	"abuse-rec/internal/core/hosting"
	"abuse-rec/internal/core/record"
)

// ContactSuggestion is one place an abuse report about the domain can go.
type ContactSuggestion struct {
	Provider    string                `json:"provider"`
	Type        directory.ContactType `json:"type"`
	Contact     string                `json:"contact"`
	Description string                `json:"description,omitempty"`
}

const whoisAbuseProvider = "WHOIS Abuse Contact"

// suggest lists contacts in this order: the abuse contact from the
// registration data, catalog providers (matched by registrar, then domain
// suffix, then hosting provider, then the .br registry pair), and finally
// the hosting provider's own channels. Repeated provider/contact pairs
// keep their first position.
func (e *Engine) suggest(domain string, rec record.ConsolidatedRecord, cls *hosting.Classification) []ContactSuggestion {
	out := []ContactSuggestion{}
	seen := map[string]struct{}{}
	add := func(s ContactSuggestion) {
		if strings.TrimSpace(s.Contact) == "" {
			return
		}
		key := s.Provider + "|" + s.Contact
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	if abuse := rec.Contacts.Abuse; abuse.Email != "" || abuse.Phone != "" {
		s := ContactSuggestion{Provider: whoisAbuseProvider, Type: directory.ContactWhois}
		if abuse.Email != "" {
			s.Contact = abuse.Email
			s.Description = "Abuse email from WHOIS record"
			if abuse.Phone != "" {
				s.Description += " | Phone: " + abuse.Phone
			}
		} else {
			s.Contact = abuse.Phone
			s.Description = "Abuse phone from WHOIS record"
		}
		add(s)
	}

	for _, p := range e.relevantProviders(domain, rec.Registrar, cls) {
		for _, c := range p.Contacts {
			add(ContactSuggestion{Provider: p.Key, Type: c.Type, Contact: c.Contact, Description: c.Description})
		}
	}

	if cls != nil && cls.HostingProvider != nil {
		hp := cls.HostingProvider
		add(ContactSuggestion{Provider: hp.Name, Type: directory.ContactEmail, Contact: hp.AbuseContact, Description: "Detected hosting provider: " + hp.Name})
		add(ContactSuggestion{Provider: hp.Name, Type: directory.ContactForm, Contact: hp.AbuseForm, Description: "Detected hosting provider: " + hp.Name})
	}
	return out
}

func (e *Engine) relevantProviders(domain, registrar string, cls *hosting.Classification) []directory.Provider {
	var keys []string
	providers := map[string]directory.Provider{}
	collect := func(list []directory.Provider) {
		for _, p := range list {
			if _, ok := providers[p.Key]; ok {
				continue
			}
			providers[p.Key] = p
			keys = append(keys, p.Key)
		}
	}

	if registrar != record.UnknownRegistrar {
		collect(e.catalog.MatchName(registrar))
	}
	collect(e.catalog.MatchDomain(domain))
	if cls != nil && cls.HostingProvider != nil {
		collect(e.catalog.MatchName(cls.HostingProvider.Name))
	}
	if strings.HasSuffix(strings.ToLower(domain), ".br") {
		for _, key := range []string{"registro.br", "cert.br"} {
			if p, ok := e.catalog.Get(key); ok {
				collect([]directory.Provider{p})
			}
		}
	}

	out := make([]directory.Provider, 0, len(keys))
	for _, k := range keys {
		out = append(out, providers[k])
	}
	return out
}
