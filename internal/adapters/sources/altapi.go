package sources

import (
	"context"
	"net/url"
	"strings"

	"abuse-rec/internal/core/record"
	"abuse-rec/internal/core/textparse"
	perrors "abuse-rec/internal/platform/errors"
)

// DefaultAltAPIBase is the plain-text WHOIS proxy.
const DefaultAltAPIBase = "https://api.hackertarget.com/whois/"

// AltAPI fetches WHOIS text through an HTTP proxy (`<base>?q=<domain>`) and
// parses it like a port-43 reply.
type AltAPI struct {
	opts HTTPOptions
}

// NewAltAPI returns the alternate API source.
func NewAltAPI(opts HTTPOptions) *AltAPI {
	return &AltAPI{opts: opts.withDefaults(DefaultAltAPIBase)}
}

func (s *AltAPI) ID() record.SourceID { return record.SourceAltAPI }

// Fetch queries the proxy. The proxy answers quota and lookup problems with
// 200 and a one-line message; those become ParseError.
func (s *AltAPI) Fetch(ctx context.Context, domain string) (record.SourceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	u, err := url.Parse(s.opts.BaseURL)
	if err != nil {
		return record.SourceRecord{}, perrors.NewConnectionError("request", s.opts.BaseURL, "", err)
	}
	q := u.Query()
	q.Set("q", domain)
	u.RawQuery = q.Encode()

	body, err := httpGet(ctx, s.opts, record.SourceAltAPI, u.String(), "text/plain")
	if err != nil {
		return record.SourceRecord{}, err
	}

	text := strings.TrimSpace(string(body))
	lower := strings.ToLower(text)
	switch {
	case text == "":
		return record.SourceRecord{}, perrors.NewParseError(string(record.SourceAltAPI), "respuesta vacía", "")
	case strings.HasPrefix(lower, "error"), strings.Contains(lower, "api count exceeded"):
		return record.SourceRecord{}, perrors.NewParseError(string(record.SourceAltAPI), "la API devolvió un error", sample(body))
	}
	return textparse.Parse(string(body), domain, record.SourceAltAPI), nil
}
