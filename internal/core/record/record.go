// Package record defines the per-source and consolidated views of a domain's
// registration data.
package record

import "strings"

// SourceID identifies where a SourceRecord came from.
type SourceID string

const (
	SourceStructured  SourceID = "structured"
	SourceRawProtocol SourceID = "rawProtocol"
	SourceAltAPI      SourceID = "alt-api"
	SourceScraped     SourceID = "scraped"
)

// UnknownRegistrar is the consolidated registrar when no source supplied one.
const UnknownRegistrar = "unknown"

var priority = map[SourceID]int{
	SourceStructured:  0,
	SourceRawProtocol: 1,
	SourceAltAPI:      2,
	SourceScraped:     3,
}

// Priority returns the rank of a source in the fixed merge order. Unknown
// sources sort after every known one.
func (s SourceID) Priority() int {
	if p, ok := priority[s]; ok {
		return p
	}
	return len(priority)
}

// AllSources lists every source in priority order.
func AllSources() []SourceID {
	return []SourceID{SourceStructured, SourceRawProtocol, SourceAltAPI, SourceScraped}
}

// ParseSourceID accepts the canonical ids plus a few aliases used in config files.
func ParseSourceID(s string) (SourceID, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "structured", "rdap":
		return SourceStructured, true
	case "rawprotocol", "raw-protocol", "whois":
		return SourceRawProtocol, true
	case "alt-api", "altapi", "hackertarget":
		return SourceAltAPI, true
	case "scraped", "scrape", "whoiscom":
		return SourceScraped, true
	}
	return "", false
}

// RegistrarDetails carries registrar metadata as reported by a source or
// filled from the registrar directory.
type RegistrarDetails struct {
	Name       string `json:"name,omitempty"`
	IANAID     string `json:"ianaId,omitempty"`
	AbuseEmail string `json:"abuseEmail,omitempty"`
	AbusePhone string `json:"abusePhone,omitempty"`
	Website    string `json:"website,omitempty"`
}

// IsEmpty reports whether no field is set. A nil receiver is empty.
func (d *RegistrarDetails) IsEmpty() bool {
	return d == nil || (d.Name == "" && d.IANAID == "" && d.AbuseEmail == "" && d.AbusePhone == "" && d.Website == "")
}

// Clone returns a copy, or nil for nil.
func (d *RegistrarDetails) Clone() *RegistrarDetails {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// AbuseContact is where abuse reports should go according to registration data.
type AbuseContact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Contacts groups the contact categories a source may report.
type Contacts struct {
	Abuse      AbuseContact      `json:"abuse"`
	Registrant map[string]string `json:"registrant,omitempty"`
	Technical  map[string]string `json:"technical,omitempty"`
}

// SourceRecord is one source's view of a domain. Absent scalars are nil.
type SourceRecord struct {
	Domain           string            `json:"domain"`
	Source           SourceID          `json:"sourceId"`
	Registrar        *string           `json:"registrar"`
	RegistrarDetails *RegistrarDetails `json:"registrarDetails,omitempty"`
	Created          *string           `json:"created"`
	Updated          *string           `json:"updated"`
	Expires          *string           `json:"expires"`
	NameServers      []string          `json:"nameServers"`
	Status           []string          `json:"status"`
	Contacts         Contacts          `json:"contacts"`
	RelatedDomains   []string          `json:"relatedDomains"`
	Raw              string            `json:"-"`
}

// ConsolidatedRecord is the merge of zero or more SourceRecords.
type ConsolidatedRecord struct {
	Domain           string            `json:"domain"`
	Registrar        string            `json:"registrar"`
	RegistrarDetails *RegistrarDetails `json:"registrarDetails,omitempty"`
	Created          *string           `json:"created"`
	Updated          *string           `json:"updated"`
	Expires          *string           `json:"expires"`
	NameServers      []string          `json:"nameServers"`
	Status           []string          `json:"status"`
	Contacts         Contacts          `json:"contacts"`
	RelatedDomains   []string          `json:"relatedDomains"`
}

// Empty returns the degenerate record produced when no source succeeded.
func Empty(domain string) ConsolidatedRecord {
	return ConsolidatedRecord{
		Domain:         domain,
		Registrar:      UnknownRegistrar,
		NameServers:    []string{},
		Status:         []string{},
		RelatedDomains: []string{},
	}
}

// New returns a SourceRecord with non-nil list fields.
func New(domain string, source SourceID) SourceRecord {
	return SourceRecord{
		Domain:         domain,
		Source:         source,
		NameServers:    []string{},
		Status:         []string{},
		RelatedDomains: []string{},
	}
}

// Str returns a pointer to a trimmed copy of s, or nil when s is blank.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
