package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abuse-rec/internal/core/directory"
	"abuse-rec/internal/core/hosting"
	"abuse-rec/internal/core/record"
	"abuse-rec/internal/core/reliability"
	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/metrics"
)

type fakeSource struct {
	id    record.SourceID
	fetch func(ctx context.Context, domain string) (record.SourceRecord, error)
}

func (f fakeSource) ID() record.SourceID { return f.id }

func (f fakeSource) Fetch(ctx context.Context, domain string) (record.SourceRecord, error) {
	return f.fetch(ctx, domain)
}

func answering(id record.SourceID, build func(rec *record.SourceRecord)) fakeSource {
	return fakeSource{id: id, fetch: func(_ context.Context, domain string) (record.SourceRecord, error) {
		rec := record.New(domain, id)
		build(&rec)
		return rec, nil
	}}
}

func failing(id record.SourceID, err error) fakeSource {
	return fakeSource{id: id, fetch: func(context.Context, string) (record.SourceRecord, error) {
		return record.SourceRecord{}, err
	}}
}

// hanging blocks until its context expires, like a port-43 server that
// never answers.
func hanging(id record.SourceID) fakeSource {
	return fakeSource{id: id, fetch: func(ctx context.Context, _ string) (record.SourceRecord, error) {
		<-ctx.Done()
		return record.SourceRecord{}, perrors.NewTimeoutError(string(id), 50*time.Millisecond, "sin respuesta")
	}}
}

func structuredExample(rec *record.SourceRecord) {
	rec.Registrar = record.Str("Example Registrar")
	rec.Created = record.Str("2001-05-14")
	rec.NameServers = []string{"NS1.EXAMPLE.COM"}
}

type mapResolver map[string][]string

func (m mapResolver) Resolve(_ context.Context, name string, t hosting.RecordType) ([]string, error) {
	if t == hosting.TypeA {
		if ips, ok := m[name]; ok {
			return ips, nil
		}
	}
	return nil, errors.New("NXDOMAIN")
}

func TestLookupSurvivesRawProtocolTimeout(t *testing.T) {
	t.Parallel()

	partial := New(Config{Sources: []Source{
		answering(record.SourceStructured, structuredExample),
		hanging(record.SourceRawProtocol),
	}})
	got := partial.Lookup(context.Background(), "example.com", Options{Timeout: 50 * time.Millisecond})

	assert.Equal(t, "Example Registrar", got.Consolidated.Registrar)
	assert.Equal(t, "2001-05-14", record.Value(got.Consolidated.Created))
	assert.Equal(t, []string{"NS1.EXAMPLE.COM"}, got.Consolidated.NameServers)
	assert.Equal(t, []record.SourceID{record.SourceStructured}, got.Reliability.SourcesUsed)
	assert.Equal(t, 2, got.Reliability.TotalSources)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, record.SourceRawProtocol, got.Failures[0].Source)
	assert.Equal(t, "timeout", got.Failures[0].Kind)

	full := New(Config{Sources: []Source{
		answering(record.SourceStructured, structuredExample),
		answering(record.SourceRawProtocol, structuredExample),
	}})
	complete := full.Lookup(context.Background(), "example.com", Options{})
	assert.Equal(t, complete.Reliability.Score-25, got.Reliability.Score)
	assert.Empty(t, complete.Failures)
}

func TestLookupAllSourcesFail(t *testing.T) {
	t.Parallel()

	e := New(Config{Sources: []Source{
		failing(record.SourceStructured, perrors.NewHTTPError("structured", "https://rdap.example/domain/example.com", 404)),
		failing(record.SourceRawProtocol, perrors.NewConnectionError("connect", "whois.example:43", "refused", errors.New("connection refused"))),
		failing(record.SourceAltAPI, perrors.NewParseError("alt-api", "la API devolvió un error", "API count exceeded")),
	}})

	got := e.Lookup(context.Background(), "https://www.Example.com/login", Options{})

	assert.Equal(t, "example.com", got.Domain)
	assert.Equal(t, record.Empty("example.com"), got.Consolidated)
	assert.Equal(t, 0, got.Reliability.Score)
	assert.Equal(t, reliability.LevelLow, got.Reliability.Level)
	assert.Empty(t, got.Reliability.SourcesUsed)
	assert.NotEmpty(t, got.ID)
	assert.NotNil(t, got.SuggestedContacts)
	assert.Empty(t, got.SuggestedContacts)

	kinds := make([]string, 0, len(got.Failures))
	for _, f := range got.Failures {
		kinds = append(kinds, f.Kind)
		assert.NotEmpty(t, f.Message)
	}
	assert.Equal(t, []string{"http", "connection", "parse"}, kinds)
}

func TestLookupSuggestedContacts(t *testing.T) {
	t.Parallel()

	e := New(Config{
		Sources: []Source{answering(record.SourceStructured, func(rec *record.SourceRecord) {
			rec.Registrar = record.Str("GoDaddy.com, LLC")
		})},
		Classifier: hosting.New(nil, hosting.Options{}),
	})

	got := e.Lookup(context.Background(), "foo.pages.dev", Options{})

	want := []ContactSuggestion{
		{Provider: "WHOIS Abuse Contact", Type: directory.ContactWhois, Contact: "abuse@godaddy.com", Description: "Abuse email from WHOIS record"},
		{Provider: "cloudflare", Type: directory.ContactForm, Contact: "https://abuse.cloudflare.com/phishing", Description: "Official Cloudflare form to report abuse"},
		{Provider: "Cloudflare Pages", Type: directory.ContactEmail, Contact: "abuse@cloudflare.com", Description: "Detected hosting provider: Cloudflare Pages"},
		{Provider: "Cloudflare Pages", Type: directory.ContactForm, Contact: "https://abuse.cloudflare.com/", Description: "Detected hosting provider: Cloudflare Pages"},
	}
	assert.Equal(t, want, got.SuggestedContacts)
	require.NotNil(t, got.Hosting)
	assert.True(t, got.Hosting.IsFreeHosting)
	assert.Equal(t, "GoDaddy.com, LLC", got.Consolidated.Registrar)
	require.NotNil(t, got.Consolidated.RegistrarDetails)
	assert.Equal(t, "abuse@godaddy.com", got.Consolidated.RegistrarDetails.AbuseEmail)
}

func TestLookupBrazilianDomain(t *testing.T) {
	t.Parallel()

	got := New(Config{}).Lookup(context.Background(), "example.com.br", Options{})

	want := []ContactSuggestion{
		{Provider: "registro.br", Type: directory.ContactEmail, Contact: "abuse@registro.br", Description: "Send the report to the email"},
		{Provider: "cert.br", Type: directory.ContactEmail, Contact: "mail-abuse@cert.br", Description: "Send the report to the email"},
	}
	assert.Equal(t, want, got.SuggestedContacts)
	assert.Equal(t, 0, got.Reliability.TotalSources)
}

func TestLookupRegistrarFallsBackToHostingProvider(t *testing.T) {
	t.Parallel()

	e := New(Config{
		Sources:    []Source{failing(record.SourceStructured, perrors.NewHTTPError("structured", "", 404))},
		Classifier: hosting.New(nil, hosting.Options{}),
	})

	got := e.Lookup(context.Background(), "foo.pages.dev", Options{})

	assert.Equal(t, "Cloudflare Pages", got.Consolidated.Registrar)
	assert.Equal(t, 0, got.Reliability.Score)
}

func TestLookupWithSubdomainScan(t *testing.T) {
	t.Parallel()

	cls := hosting.New(mapResolver{"www.example.org": {"10.0.0.1"}}, hosting.Options{Wordlist: []string{"www", "api"}})
	got := New(Config{Classifier: cls}).Lookup(context.Background(), "example.org", Options{Subdomains: true})

	assert.Equal(t, []hosting.DiscoveredSubdomain{{Name: "www.example.org", Type: "A", Status: "active"}}, got.Subdomains)

	plain := New(Config{Classifier: cls}).Lookup(context.Background(), "example.org", Options{})
	assert.Nil(t, plain.Subdomains)
}

func TestLookupRecordsMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	e := New(Config{
		Sources: []Source{
			answering(record.SourceStructured, structuredExample),
			failing(record.SourceAltAPI, perrors.NewParseError("alt-api", "vacía", "")),
		},
		Metrics: m,
	})

	got := e.Lookup(context.Background(), "example.com", Options{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceOutcome.WithLabelValues("structured", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceOutcome.WithLabelValues("alt-api", "parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReliabilityLevel.WithLabelValues(string(got.Reliability.Level))))
}
