package sources

import (
	"context"
	"io"
	"net"
	"strings"
	"time"

	"abuse-rec/internal/core/record"
	"abuse-rec/internal/core/textparse"
	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/logx"
	"abuse-rec/internal/platform/netutil"
)

// FallbackWhoisServer answers for TLDs missing from the table.
const FallbackWhoisServer = "whois.verisign-grs.com"

const (
	whoisPort     = "43"
	whoisSlack    = 2 * time.Second
	maxWhoisBytes = 1 << 20
)

var whoisServers = map[string]string{
	".com":    "whois.verisign-grs.com",
	".net":    "whois.verisign-grs.com",
	".org":    "whois.pir.org",
	".br":     "whois.registro.br",
	".io":     "whois.nic.io",
	".dev":    "whois.nic.google",
	".app":    "whois.nic.google",
	".xyz":    "whois.nic.xyz",
	".online": "whois.nic.online",
	".site":   "whois.nic.site",
	".store":  "whois.nic.store",
	".tech":   "whois.nic.tech",
	".me":     "whois.nic.me",
	".co":     "whois.nic.co",
	".us":     "whois.nic.us",
	".uk":     "whois.nic.uk",
	".ca":     "whois.cira.ca",
	".de":     "whois.denic.de",
	".fr":     "whois.nic.fr",
	".jp":     "whois.jprs.jp",
	".au":     "whois.auda.org.au",
	".ru":     "whois.tcinet.ru",
	".ch":     "whois.nic.ch",
	".it":     "whois.nic.it",
	".nl":     "whois.domain-registry.nl",
	".se":     "whois.iis.se",
	".no":     "whois.norid.no",
	".es":     "whois.nic.es",
	".mx":     "whois.mx",
	".in":     "whois.registry.in",
	".cn":     "whois.cnnic.cn",
	".za":     "whois.registry.net.za",
	".nz":     "whois.srs.net.nz",
	".pt":     "whois.dns.pt",
}

// ServerFor returns the WHOIS server for domain's TLD.
func ServerFor(domain string) string {
	if server, ok := whoisServers[netutil.TLD(domain)]; ok {
		return server
	}
	return FallbackWhoisServer
}

// WhoisOptions configures the raw protocol source. Server overrides the TLD
// table for every query; it may carry its own port.
type WhoisOptions struct {
	Server  string
	Timeout time.Duration
}

// Whois speaks the port-43 protocol: one connection per query, the domain
// followed by CRLF, then read until the server closes.
type Whois struct {
	server  string
	timeout time.Duration
	dialer  net.Dialer
}

// NewWhois returns the raw protocol source.
func NewWhois(opts WhoisOptions) *Whois {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Whois{server: strings.TrimSpace(opts.Server), timeout: opts.Timeout}
}

func (w *Whois) ID() record.SourceID { return record.SourceRawProtocol }

// Fetch queries the configured or table-selected server and parses the reply.
func (w *Whois) Fetch(ctx context.Context, domain string) (record.SourceRecord, error) {
	server := w.server
	if server == "" {
		server = ServerFor(domain)
	}
	raw, err := w.Query(ctx, domain, server, w.timeout)
	if err != nil {
		return record.SourceRecord{}, err
	}
	if strings.TrimSpace(raw) == "" {
		return record.SourceRecord{}, perrors.NewParseError(string(record.SourceRawProtocol), "respuesta vacía de "+server, "")
	}
	return textparse.Parse(raw, domain, record.SourceRawProtocol), nil
}

// Query sends domain to server and returns everything read until the peer
// closes. The socket deadline is timeout; the whole call is abandoned, and
// the socket closed, two seconds after that.
func (w *Whois) Query(ctx context.Context, domain, server string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = w.timeout
	}
	addr := whoisAddr(server)

	ctx, cancel := context.WithTimeout(ctx, timeout+whoisSlack)
	defer cancel()

	started := time.Now()
	conn, err := w.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", transportError(ctx, record.SourceRawProtocol, "connect", addr, err, timeout)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	_ = conn.SetDeadline(started.Add(timeout))

	if _, err := io.WriteString(conn, domain+"\r\n"); err != nil {
		return "", transportError(ctx, record.SourceRawProtocol, "write", addr, err, timeout)
	}

	body, err := io.ReadAll(io.LimitReader(conn, maxWhoisBytes))
	if err != nil {
		return "", transportError(ctx, record.SourceRawProtocol, "read", addr, err, timeout)
	}

	logx.Trace("Respuesta WHOIS recibida", logx.Fields{"server": addr, "domain": domain, "bytes": len(body), "duration_ms": time.Since(started).Milliseconds()})
	return string(body), nil
}

func whoisAddr(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, whoisPort)
}
