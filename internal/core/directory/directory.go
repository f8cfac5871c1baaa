// Package directory holds the static registrar directory and the provider
// abuse-contact catalog, together with the fuzzy name matching used to look
// them up. All tables are built once and never mutated.
package directory

import (
	"strings"

	"abuse-rec/internal/core/record"
)

// Entry is one registrar known to the directory.
type Entry struct {
	Key          string `json:"key"`
	DisplayName  string `json:"displayName"`
	AbuseEmail   string `json:"abuseEmail"`
	AbuseFormURL string `json:"abuseFormUrl,omitempty"`
	IANAID       string `json:"ianaId,omitempty"`
}

// Directory resolves registrar names to entries. Entries are tested in
// order; the first match wins.
type Directory struct {
	entries []Entry
	matcher Matcher
}

// New returns a directory over a copy of entries.
func New(entries []Entry, m Matcher) *Directory {
	return &Directory{entries: append([]Entry(nil), entries...), matcher: m}
}

var defaultDirectory = New(registrars, DefaultMatcher)

// Default returns the built-in registrar directory.
func Default() *Directory { return defaultDirectory }

// Entries returns a copy of the directory contents in match order.
func (d *Directory) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// Lookup finds the entry for a registrar name. The "unknown" sentinel and
// names that normalize to nothing never match.
func (d *Directory) Lookup(name string) (Entry, bool) {
	if strings.EqualFold(strings.TrimSpace(name), record.UnknownRegistrar) || Normalize(name) == "" {
		return Entry{}, false
	}
	for _, e := range d.entries {
		if d.matcher.Match(name, e.Key) {
			return e, true
		}
	}
	return Entry{}, false
}

// Enrich fills blank registrarDetails fields and a blank abuse email from the
// directory entry matching rec.Registrar. Values already present are kept.
// It reports whether an entry matched.
func (d *Directory) Enrich(rec *record.ConsolidatedRecord) bool {
	e, ok := d.Lookup(rec.Registrar)
	if !ok {
		return false
	}

	details := rec.RegistrarDetails.Clone()
	if details == nil {
		details = &record.RegistrarDetails{}
	}
	fill(&details.Name, e.DisplayName)
	fill(&details.AbuseEmail, e.AbuseEmail)
	fill(&details.Website, e.AbuseFormURL)
	fill(&details.IANAID, e.IANAID)
	rec.RegistrarDetails = details

	fill(&rec.Contacts.Abuse.Email, e.AbuseEmail)
	return true
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

var registrars = []Entry{
	{Key: "markmonitor", DisplayName: "MarkMonitor Inc.", AbuseEmail: "abusecomplaints@markmonitor.com", AbuseFormURL: "https://www.markmonitor.com/contact-us/", IANAID: "292"},
	{Key: "tucows", DisplayName: "Tucows Domains Inc.", AbuseEmail: "domainabuse@tucows.com", AbuseFormURL: "https://tucowsdomains.com/abuse-form/phishing/"},
	{Key: "godaddy", DisplayName: "GoDaddy.com, LLC", AbuseEmail: "abuse@godaddy.com", AbuseFormURL: "https://www.godaddy.com/help/reporting-abuse-27154"},
	{Key: "namecheap", DisplayName: "NameCheap, Inc.", AbuseEmail: "abuse@namecheap.com", AbuseFormURL: "https://www.namecheap.com/legal/general/report-abuse/"},
	{Key: "cloudflare", DisplayName: "Cloudflare, Inc.", AbuseEmail: "registrar-abuse@cloudflare.com", AbuseFormURL: "https://abuse.cloudflare.com/"},
	{Key: "google", DisplayName: "Google LLC", AbuseEmail: "registrar-abuse@google.com", AbuseFormURL: "https://domains.google.com/registrar/"},
	{Key: "enom", DisplayName: "eNom, LLC", AbuseEmail: "abuse@enom.com"},
	{Key: "namebright", DisplayName: "NameBright.com, Inc.", AbuseEmail: "support@namebright.com"},
	{Key: "webnic", DisplayName: "Webnic.cc", AbuseEmail: "compliance_abuse@webnic.cc"},
	{Key: "public domain registry", DisplayName: "Public Domain Registry", AbuseEmail: "abuse@publicdomainregistry.com", AbuseFormURL: "https://publicdomainregistry.com/phishing/"},
	{Key: "epik", DisplayName: "Epik Inc.", AbuseEmail: "abuse@epik.com"},
	{Key: "hostinger", DisplayName: "Hostinger International Limited", AbuseEmail: "abuse@hostinger.com", AbuseFormURL: "https://www.hostinger.com/report-abuse"},
	{Key: "hostgator", DisplayName: "HostGator.com, LLC", AbuseEmail: "abuse@hostgator.com"},
	{Key: "bluehost", DisplayName: "Bluehost Inc.", AbuseEmail: "abuse@bluehost.com"},
	{Key: "dreamhost", DisplayName: "DreamHost Web Hosting", AbuseEmail: "abuse@dreamhost.com"},
}
