// Package dnsresolver implements hosting.Resolver on top of miekg/dns,
// talking to one configured recursive server.
package dnsresolver

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"abuse-rec/internal/core/hosting"
	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/logx"
)

const fallbackServer = "1.1.1.1:53"

// DefaultServer returns the first nameserver from /etc/resolv.conf, or a
// public resolver when that file is unusable.
func DefaultServer() string {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return fallbackServer
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port)
}

// Resolver sends single questions to a fixed server.
type Resolver struct {
	server string
	udp    *dns.Client
	tcp    *dns.Client
}

// New returns a resolver for server (host:port; port 53 is assumed when
// missing). An empty server selects DefaultServer.
func New(server string, timeout time.Duration) *Resolver {
	server = strings.TrimSpace(server)
	if server == "" {
		server = DefaultServer()
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		server: server,
		udp:    &dns.Client{Net: "udp", Timeout: timeout},
		tcp:    &dns.Client{Net: "tcp", Timeout: timeout},
	}
}

// Server returns the address queries are sent to.
func (r *Resolver) Server() string { return r.server }

var qtypes = map[hosting.RecordType]uint16{
	hosting.TypeA:     dns.TypeA,
	hosting.TypeAAAA:  dns.TypeAAAA,
	hosting.TypeCNAME: dns.TypeCNAME,
	hosting.TypeMX:    dns.TypeMX,
	hosting.TypeTXT:   dns.TypeTXT,
}

// Resolve asks for name/t and returns the answers of that type rendered as
// strings. NXDOMAIN and transport failures come back as DNSError.
func (r *Resolver) Resolve(ctx context.Context, name string, t hosting.RecordType) ([]string, error) {
	qtype, ok := qtypes[t]
	if !ok {
		return nil, perrors.NewDNSError(name, string(t), fmt.Errorf("tipo no soportado"))
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	resp, _, err := r.udp.ExchangeContext(ctx, msg, r.server)
	if err == nil && resp != nil && resp.Truncated {
		logx.Trace("Respuesta DNS truncada, reintentando por TCP", logx.Fields{"name": name, "type": string(t)})
		resp, _, err = r.tcp.ExchangeContext(ctx, msg, r.server)
	}
	if err != nil {
		return nil, perrors.NewDNSError(name, string(t), err)
	}
	if resp == nil {
		return nil, perrors.NewDNSError(name, string(t), fmt.Errorf("respuesta vacía"))
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, perrors.NewDNSError(name, string(t), fmt.Errorf("rcode %s", dns.RcodeToString[resp.Rcode]))
	}

	out := []string{}
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		if v := render(rr); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func render(rr dns.RR) string {
	switch v := rr.(type) {
	case *dns.A:
		return v.A.String()
	case *dns.AAAA:
		return v.AAAA.String()
	case *dns.CNAME:
		return strings.TrimSuffix(v.Target, ".")
	case *dns.MX:
		return fmt.Sprintf("%d %s", v.Preference, strings.TrimSuffix(v.Mx, "."))
	case *dns.TXT:
		return strings.Join(v.Txt, "")
	}
	return ""
}
