// Package textparse extracts registration fields from line-oriented WHOIS
// text. No two registries format their output the same way, so extraction is
// tolerant: each line is tested against a handful of case-insensitive labels
// and anything that does not match is skipped.
package textparse

import (
	"regexp"
	"strings"

	"abuse-rec/internal/core/record"
)

type field int

const (
	fieldRegistrar field = iota
	fieldIANAID
	fieldRegistrarURL
	fieldCreated
	fieldUpdated
	fieldExpires
	fieldNameServer
	fieldStatus
	fieldAbuseEmail
	fieldAbusePhone
)

type label struct {
	field field
	text  string
}

// Labels are tested in order and the first hit decides the field. Longer
// labels that contain a shorter one come first ("registry expiry date:"
// before "expiry date:").
var labels = []label{
	{fieldRegistrar, "registrar name:"},
	{fieldRegistrar, "registrar:"},
	{fieldIANAID, "registrar iana id:"},
	{fieldRegistrarURL, "registrar url:"},
	{fieldCreated, "creation date:"},
	{fieldCreated, "created:"},
	{fieldExpires, "registry expiry date:"},
	{fieldExpires, "expiry date:"},
	{fieldExpires, "expires:"},
	{fieldUpdated, "updated date:"},
	{fieldUpdated, "last updated:"},
	{fieldNameServer, "name server:"},
	{fieldNameServer, "nserver:"},
	{fieldStatus, "domain status:"},
	{fieldAbuseEmail, "abuse contact email:"},
	{fieldAbuseEmail, "abuse email:"},
	{fieldAbusePhone, "abuse contact phone:"},
	{fieldAbusePhone, "abuse phone:"},
}

// Date shapes, tried in this order; the first substring hit wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`\d{2}-\d{2}-\d{4}`),
	regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
	regexp.MustCompile(`\d{4}\.\d{2}\.\d{2}`),
}

// Parse turns raw WHOIS text into a SourceRecord for the given source. It
// never fails; a response with no recognizable lines yields an empty record.
// Scalars keep the first non-empty value seen.
func Parse(raw, domain string, source record.SourceID) record.SourceRecord {
	rec := record.New(domain, source)
	rec.Raw = raw

	var details record.RegistrarDetails

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}
		f, value, ok := matchLine(line)
		if !ok {
			continue
		}

		switch f {
		case fieldRegistrar:
			if rec.Registrar == nil {
				rec.Registrar = record.Str(value)
			}
		case fieldIANAID:
			if details.IANAID == "" {
				details.IANAID = value
			}
		case fieldRegistrarURL:
			if details.Website == "" {
				details.Website = value
			}
		case fieldCreated:
			if rec.Created == nil {
				rec.Created = ExtractDate(value)
			}
		case fieldUpdated:
			if rec.Updated == nil {
				rec.Updated = ExtractDate(value)
			}
		case fieldExpires:
			if rec.Expires == nil {
				rec.Expires = ExtractDate(value)
			}
		case fieldNameServer:
			if strings.Contains(strings.ToLower(line), "http") {
				continue
			}
			if fields := strings.Fields(value); len(fields) > 0 {
				rec.NameServers = record.AddNameServer(rec.NameServers, fields[0])
			}
		case fieldStatus:
			rec.Status = record.AddStatus(rec.Status, value)
		case fieldAbuseEmail:
			if rec.Contacts.Abuse.Email == "" {
				rec.Contacts.Abuse.Email = value
			}
		case fieldAbusePhone:
			if rec.Contacts.Abuse.Phone == "" {
				rec.Contacts.Abuse.Phone = value
			}
		}
	}

	if !details.IsEmpty() {
		rec.RegistrarDetails = &details
	}
	return rec
}

// matchLine finds the first label contained in line and returns the trimmed
// remainder after it.
func matchLine(line string) (field, string, bool) {
	lower := strings.ToLower(line)
	for _, l := range labels {
		idx := strings.Index(lower, l.text)
		if idx < 0 {
			continue
		}
		return l.field, strings.TrimSpace(line[idx+len(l.text):]), true
	}
	return 0, "", false
}

// ExtractDate returns the first date-shaped substring of s, or nil. The match
// is purely lexical; nothing checks that the digits form a real date.
func ExtractDate(s string) *string {
	for _, re := range datePatterns {
		if m := re.FindString(s); m != "" {
			return &m
		}
	}
	return nil
}
