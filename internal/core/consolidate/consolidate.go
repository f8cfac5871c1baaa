// Package consolidate merges per-source registration records into a single
// view. Scalars are decided by plurality vote, lists are unioned and contact
// maps only ever fill blanks.
package consolidate

import (
	"sort"

	"abuse-rec/internal/core/record"
)

// Merge combines the records of every source that answered. The input is
// stable-sorted by source priority first, so the result does not depend on
// the order in which concurrent fetches completed.
func Merge(domain string, sources []record.SourceRecord) record.ConsolidatedRecord {
	out := record.Empty(domain)
	if len(sources) == 0 {
		return out
	}

	ordered := make([]record.SourceRecord, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source.Priority() < ordered[j].Source.Priority()
	})

	var registrars, created, updated, expires []string
	for _, src := range ordered {
		registrars = appendPresent(registrars, src.Registrar)
		created = appendPresent(created, src.Created)
		updated = appendPresent(updated, src.Updated)
		expires = appendPresent(expires, src.Expires)

		for _, ns := range src.NameServers {
			out.NameServers = record.AddNameServer(out.NameServers, ns)
		}
		for _, st := range src.Status {
			out.Status = record.AddStatus(out.Status, st)
		}
		for _, d := range src.RelatedDomains {
			out.RelatedDomains = record.AddUnique(out.RelatedDomains, d)
		}

		if out.RegistrarDetails == nil && !src.RegistrarDetails.IsEmpty() {
			out.RegistrarDetails = src.RegistrarDetails.Clone()
		}
		mergeContacts(&out.Contacts, src.Contacts)
	}

	if v, ok := Plurality(registrars); ok {
		out.Registrar = v
	}
	out.Created = pluralityPtr(created)
	out.Updated = pluralityPtr(updated)
	out.Expires = pluralityPtr(expires)
	return out
}

// Plurality returns the most frequent value. Ties go to the value seen first,
// which also covers the all-distinct case.
func Plurality(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := values[0], counts[values[0]]
	for _, v := range values[1:] {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, true
}

func pluralityPtr(values []string) *string {
	v, ok := Plurality(values)
	if !ok {
		return nil
	}
	return &v
}

func appendPresent(list []string, p *string) []string {
	if p == nil || *p == "" {
		return list
	}
	return append(list, *p)
}

func mergeContacts(dst *record.Contacts, src record.Contacts) {
	if dst.Abuse.Email == "" {
		dst.Abuse.Email = src.Abuse.Email
	}
	if dst.Abuse.Phone == "" {
		dst.Abuse.Phone = src.Abuse.Phone
	}
	dst.Registrant = fillMap(dst.Registrant, src.Registrant)
	dst.Technical = fillMap(dst.Technical, src.Technical)
}

func fillMap(dst, src map[string]string) map[string]string {
	for k, v := range src {
		if v == "" {
			continue
		}
		if dst == nil {
			dst = make(map[string]string, len(src))
		}
		if dst[k] == "" {
			dst[k] = v
		}
	}
	return dst
}
