package dnsresolver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abuse-rec/internal/core/hosting"
	perrors "abuse-rec/internal/platform/errors"
)

var zone = map[string][]string{
	"example.com.": {
		"example.com. 300 IN A 93.184.216.34",
		"example.com. 300 IN AAAA 2606:2800:220:1:248:1893:25c8:1946",
		"example.com. 300 IN MX 10 mail.example.com.",
		"example.com. 300 IN TXT \"v=spf1 \" \"-all\"",
	},
	"www.example.com.": {
		"www.example.com. 300 IN CNAME example.com.",
		"example.com. 300 IN A 93.184.216.34",
	},
}

func startServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			resp := new(dns.Msg)
			resp.SetReply(req)
			q := req.Question[0]
			records, ok := zone[q.Name]
			if !ok {
				resp.Rcode = dns.RcodeNameError
				_ = w.WriteMsg(resp)
				return
			}
			for _, line := range records {
				rr, err := dns.NewRR(line)
				if err != nil {
					continue
				}
				if rr.Header().Rrtype == q.Qtype || rr.Header().Rrtype == dns.TypeCNAME {
					resp.Answer = append(resp.Answer, rr)
				}
			}
			_ = w.WriteMsg(resp)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dns server did not start")
	}
	return pc.LocalAddr().String()
}

func TestResolveRecordTypes(t *testing.T) {
	addr := startServer(t)
	r := New(addr, time.Second)
	ctx := context.Background()

	cases := []struct {
		name string
		typ  hosting.RecordType
		want []string
	}{
		{"example.com", hosting.TypeA, []string{"93.184.216.34"}},
		{"example.com", hosting.TypeAAAA, []string{"2606:2800:220:1:248:1893:25c8:1946"}},
		{"example.com", hosting.TypeMX, []string{"10 mail.example.com"}},
		{"example.com", hosting.TypeTXT, []string{"v=spf1 -all"}},
		{"www.example.com", hosting.TypeCNAME, []string{"example.com"}},
		// The CNAME in the answer section is filtered out of an A query.
		{"www.example.com", hosting.TypeA, []string{"93.184.216.34"}},
		{"example.com", hosting.TypeCNAME, []string{}},
	}
	for _, tc := range cases {
		got, err := r.Resolve(ctx, tc.name, tc.typ)
		require.NoError(t, err, "%s %s", tc.name, tc.typ)
		assert.Equal(t, tc.want, got, "%s %s", tc.name, tc.typ)
	}
}

func TestResolveNXDomain(t *testing.T) {
	addr := startServer(t)
	r := New(addr, time.Second)

	_, err := r.Resolve(context.Background(), "missing.example.com", hosting.TypeA)
	require.Error(t, err)
	assert.True(t, perrors.IsDNS(err))
	assert.Contains(t, perrors.Message(err), "NXDOMAIN")
}

func TestResolveUnsupportedType(t *testing.T) {
	r := New("127.0.0.1:1", time.Millisecond)
	_, err := r.Resolve(context.Background(), "example.com", hosting.RecordType("SRV"))
	assert.True(t, perrors.IsDNS(err))
}

func TestNewAddsDefaultPort(t *testing.T) {
	assert.Equal(t, "9.9.9.9:53", New("9.9.9.9", 0).Server())
	assert.NotEmpty(t, New("", 0).Server())
}
