package netutil

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeDomain extrae un nombre de dominio canónico desde una línea dada.
// - Ignora líneas vacías, con comentarios (#...), o tokens tras espacios.
// - Acepta URLs con o sin esquema, con credenciales, puertos y literales IPv6.
// - Elimina brackets en IPv6 y puertos. Mantiene subdominios (incluido "www").
// - Rechaza comodines (*) y hostnames de una sola etiqueta que no sean IP.
// Devuelve el dominio en minúsculas o "" si no hay un dominio válido.
func NormalizeDomain(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}

	// Quedarnos solo con el primer token (antes de espacios/tabs)
	if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
		trimmed = trimmed[:i]
	}

	candidate := trimmed

	var (
		parsed *url.URL
		err    error
	)
	if strings.Contains(candidate, "://") {
		parsed, err = url.Parse(candidate)
	} else {
		parsed, err = url.Parse("http://" + candidate)
	}
	if err == nil && parsed != nil {
		hostPort := parsed.Host
		hostname := parsed.Hostname()
		if hostname != "" && (strings.Count(hostPort, ":") <= 1 || strings.Contains(hostPort, "[")) {
			candidate = hostname
		} else if hostPort != "" {
			candidate = hostPort
		}
	}

	// Credenciales y path/query/fragment por si el parseo no los cubrió
	if at := strings.LastIndexByte(candidate, '@'); at >= 0 {
		candidate = candidate[at+1:]
	}
	if i := strings.IndexAny(candidate, "/?#"); i >= 0 {
		candidate = candidate[:i]
	}
	if candidate == "" {
		return ""
	}

	if host, _, err := net.SplitHostPort(candidate); err == nil {
		candidate = host
	}
	if strings.HasPrefix(candidate, "[") && strings.HasSuffix(candidate, "]") {
		candidate = strings.Trim(candidate, "[]")
	}

	lowered := strings.ToLower(strings.TrimSuffix(candidate, "."))
	if lowered == "" || strings.Contains(lowered, "*") {
		return ""
	}
	if ip := net.ParseIP(lowered); ip != nil {
		return lowered
	}
	if !strings.Contains(lowered, ".") {
		return ""
	}
	return lowered
}

// CleanLookupDomain prepara la entrada del usuario para una consulta de
// registro: quita esquema, ruta y un "www." inicial.
func CleanLookupDomain(raw string) string {
	d := NormalizeDomain(raw)
	if strings.HasPrefix(d, "www.") && strings.Count(d, ".") > 1 {
		d = strings.TrimPrefix(d, "www.")
	}
	return d
}

var lookupDomainRe = regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*\.)+[a-z]{2,}$`)

// ValidLookupDomain verifica la sintaxis básica de un dominio ya limpio.
// Las IPs no son dominios consultables.
func ValidLookupDomain(d string) bool {
	if len(d) > 253 || net.ParseIP(d) != nil {
		return false
	}
	return lookupDomainRe.MatchString(d)
}

// RegistrableDomain devuelve el dominio registrable (eTLD+1) según la Public
// Suffix List, o "" si d es en sí un sufijo público.
func RegistrableDomain(d string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(strings.TrimSuffix(strings.ToLower(d), "."))
	if err != nil {
		return ""
	}
	return etld1
}

// TLD devuelve la última etiqueta del dominio con punto inicial (".com").
func TLD(d string) string {
	d = strings.TrimSuffix(d, ".")
	i := strings.LastIndexByte(d, '.')
	if i < 0 || i == len(d)-1 {
		return ""
	}
	return d[i:]
}

// WithinDomain indica si candidate es apex o un subdominio de apex.
func WithinDomain(candidate, apex string) bool {
	candidate = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(candidate)), ".")
	apex = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(apex)), ".")
	if candidate == "" || apex == "" {
		return false
	}
	return candidate == apex || strings.HasSuffix(candidate, "."+apex)
}
