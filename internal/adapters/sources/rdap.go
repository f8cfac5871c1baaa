package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/openrdap/rdap/bootstrap"

	"abuse-rec/internal/core/record"
	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/logx"
)

// DefaultRDAPBase is the public RDAP redirector.
const DefaultRDAPBase = "https://rdap.org"

const rdapAccept = "application/rdap+json"

type rdapResponse struct {
	LDHName     string       `json:"ldhName"`
	UnicodeName string       `json:"unicodeName"`
	Status      []string     `json:"status"`
	Nameservers []rdapObject `json:"nameservers"`
	Events      []rdapEvent  `json:"events"`
	Entities    []rdapEntity `json:"entities"`
	ErrorCode   int          `json:"errorCode"`
}

type rdapObject struct {
	LDHName     string `json:"ldhName"`
	UnicodeName string `json:"unicodeName"`
}

type rdapEvent struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

type rdapEntity struct {
	Roles      []string       `json:"roles"`
	Handle     string         `json:"handle"`
	Port43     string         `json:"port43"`
	VCardArray []any          `json:"vcardArray"`
	PublicIDs  []rdapPublicID `json:"publicIds"`
	Entities   []rdapEntity   `json:"entities"`
}

type rdapPublicID struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// RDAPOptions configures the structured source. With Bootstrap set, the
// authoritative server is taken from the IANA bootstrap registry and BaseURL
// is only used when that lookup fails.
type RDAPOptions struct {
	HTTPOptions
	Bootstrap bool
}

// RDAP queries an RDAP server for domain objects.
type RDAP struct {
	opts      HTTPOptions
	bootstrap *bootstrap.Client
}

// NewRDAP returns the structured source.
func NewRDAP(opts RDAPOptions) *RDAP {
	s := &RDAP{opts: opts.HTTPOptions.withDefaults(DefaultRDAPBase)}
	if opts.Bootstrap {
		s.bootstrap = &bootstrap.Client{HTTP: s.opts.Client}
	}
	return s
}

func (s *RDAP) ID() record.SourceID { return record.SourceStructured }

// Fetch looks domain up and maps the reply into a SourceRecord. A 404 or any
// other non-2xx reply is an HTTPError; an undecodable body is a ParseError.
func (s *RDAP) Fetch(ctx context.Context, domain string) (record.SourceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	endpoint, err := buildRDAPURL(s.baseFor(ctx, domain), domain)
	if err != nil {
		return record.SourceRecord{}, perrors.NewConnectionError("request", s.opts.BaseURL, "", err)
	}

	body, err := httpGet(ctx, s.opts, record.SourceStructured, endpoint, rdapAccept)
	if err != nil {
		return record.SourceRecord{}, err
	}

	var payload rdapResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return record.SourceRecord{}, perrors.NewParseError(string(record.SourceStructured), "JSON inválido: "+err.Error(), sample(body))
	}
	if payload.ErrorCode >= 400 {
		return record.SourceRecord{}, perrors.NewHTTPError(string(record.SourceStructured), endpoint, payload.ErrorCode)
	}

	rec := summarizeRDAP(&payload, domain)
	rec.Raw = string(body)
	return rec, nil
}

// baseFor asks the bootstrap registry for the server responsible for
// domain's TLD, preferring an https URL.
func (s *RDAP) baseFor(ctx context.Context, domain string) string {
	if s.bootstrap == nil {
		return s.opts.BaseURL
	}
	answer, err := s.bootstrap.Lookup((&bootstrap.Question{RegistryType: bootstrap.DNS, Query: domain}).WithContext(ctx))
	if err != nil || answer == nil || len(answer.URLs) == 0 {
		logx.Debug("Bootstrap RDAP sin respuesta, usando base configurada", logx.Fields{"domain": domain, "base": s.opts.BaseURL, "error": err})
		return s.opts.BaseURL
	}
	chosen := answer.URLs[0]
	for _, u := range answer.URLs {
		if u.Scheme == "https" {
			chosen = u
			break
		}
	}
	logx.Trace("Servidor RDAP por bootstrap", logx.Fields{"domain": domain, "server": chosen.String()})
	return chosen.String()
}

// buildRDAPURL joins base, the "domain" path segment and the escaped name.
func buildRDAPURL(base, domain string) (string, error) {
	if domain == "" {
		return "", fmt.Errorf("rdap: empty domain")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("rdap: base URL %q is not absolute", base)
	}
	basePath := path.Join("/", u.Path)
	if path.Base(basePath) != "domain" {
		basePath = path.Join(basePath, "domain")
	}
	u.Path = path.Join(basePath, url.PathEscape(domain))
	return u.String(), nil
}

func summarizeRDAP(resp *rdapResponse, domain string) record.SourceRecord {
	rec := record.New(domain, record.SourceStructured)
	if resp == nil {
		return rec
	}

	for _, status := range resp.Status {
		rec.Status = record.AddStatus(rec.Status, status)
	}
	for _, ns := range resp.Nameservers {
		name := ns.LDHName
		if name == "" {
			name = ns.UnicodeName
		}
		rec.NameServers = record.AddNameServer(rec.NameServers, name)
	}

	for _, event := range resp.Events {
		date := record.Str(event.Date)
		if date == nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(event.Action)) {
		case "registration":
			if rec.Created == nil {
				rec.Created = date
			}
		case "expiration":
			if rec.Expires == nil {
				rec.Expires = date
			}
		case "last changed":
			if rec.Updated == nil {
				rec.Updated = date
			}
		}
	}

	for _, entity := range resp.Entities {
		switch {
		case hasRole(entity.Roles, "registrar"):
			if rec.Registrar != nil {
				continue
			}
			applyRegistrar(&rec, entity)
		case hasRole(entity.Roles, "registrant"):
			rec.Contacts.Registrant = mergeContact(rec.Contacts.Registrant, entity)
		case hasRole(entity.Roles, "technical"):
			rec.Contacts.Technical = mergeContact(rec.Contacts.Technical, entity)
		}
	}
	return rec
}

func applyRegistrar(rec *record.SourceRecord, entity rdapEntity) {
	name := extractEntityName(entity)
	rec.Registrar = record.Str(name)

	details := record.RegistrarDetails{Name: name, IANAID: extractRegistrarID(entity)}
	if details.IANAID == "" {
		details.IANAID = strings.TrimSpace(entity.Port43)
	}
	for _, nested := range entity.Entities {
		if !hasRole(nested.Roles, "abuse") {
			continue
		}
		if email := vcardValue(nested, "email"); email != "" && details.AbuseEmail == "" {
			details.AbuseEmail = email
		}
		if tel := vcardValue(nested, "tel"); tel != "" && details.AbusePhone == "" {
			details.AbusePhone = strings.TrimPrefix(tel, "tel:")
		}
	}
	if !details.IsEmpty() {
		rec.RegistrarDetails = &details
	}
	if rec.Contacts.Abuse.Email == "" {
		rec.Contacts.Abuse.Email = details.AbuseEmail
	}
	if rec.Contacts.Abuse.Phone == "" {
		rec.Contacts.Abuse.Phone = details.AbusePhone
	}
}

func mergeContact(dst map[string]string, entity rdapEntity) map[string]string {
	values := map[string]string{
		"name":         extractEntityName(entity),
		"organization": vcardValue(entity, "org"),
		"email":        vcardValue(entity, "email"),
	}
	for k, v := range values {
		if v == "" {
			continue
		}
		if dst == nil {
			dst = map[string]string{}
		}
		if dst[k] == "" {
			dst[k] = v
		}
	}
	return dst
}

// extractEntityName returns the vCard "fn" value. Handles are registry
// identifiers, not names, so they are never used as a fallback.
func extractEntityName(entity rdapEntity) string {
	return vcardValue(entity, "fn")
}

// vcardValue returns the last element of the first jCard property named prop.
func vcardValue(entity rdapEntity, prop string) string {
	if len(entity.VCardArray) < 2 {
		return ""
	}
	entries, ok := entity.VCardArray[1].([]any)
	if !ok {
		return ""
	}
	for _, entry := range entries {
		parts, ok := entry.([]any)
		if !ok || len(parts) < 4 {
			continue
		}
		name, _ := parts[0].(string)
		if !strings.EqualFold(name, prop) {
			continue
		}
		if text, ok := parts[len(parts)-1].(string); ok {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func extractRegistrarID(entity rdapEntity) string {
	for _, id := range entity.PublicIDs {
		if strings.EqualFold(strings.TrimSpace(id.Type), "iana registrar id") {
			return strings.TrimSpace(id.Identifier)
		}
	}
	return ""
}

func hasRole(roles []string, want string) bool {
	for _, role := range roles {
		if strings.EqualFold(strings.TrimSpace(role), want) {
			return true
		}
	}
	return false
}
