package record

import "strings"

// NormalizeNameServer upper-cases a host name and drops the root dot.
func NormalizeNameServer(ns string) string {
	ns = strings.TrimSpace(ns)
	ns = strings.TrimSuffix(ns, ".")
	return strings.ToUpper(ns)
}

// AddNameServer appends ns in canonical form unless it is blank or present.
func AddNameServer(list []string, ns string) []string {
	ns = NormalizeNameServer(ns)
	if ns == "" {
		return list
	}
	for _, existing := range list {
		if existing == ns {
			return list
		}
	}
	return append(list, ns)
}

// AddStatus appends a status value unless it is blank or already present
// under a case-insensitive comparison. The first spelling seen is kept.
func AddStatus(list []string, status string) []string {
	status = strings.TrimSpace(status)
	if status == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, status) {
			return list
		}
	}
	return append(list, status)
}

// AddUnique appends value unless it is blank or already present verbatim.
func AddUnique(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return list
	}
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
