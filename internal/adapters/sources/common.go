// Package sources implements the registration-data sources a lookup fans out
// to: RDAP, raw WHOIS over port 43, a plain-text WHOIS proxy and the
// whois.com page.
package sources

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"abuse-rec/internal/core/record"
	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/logx"
)

// DefaultUserAgent is sent by every HTTP source unless overridden.
const DefaultUserAgent = "abuse-rec/1.0"

// DefaultTimeout bounds a single source query.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 4 << 20

// HTTPOptions are shared by the HTTP-backed sources.
type HTTPOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

func (o HTTPOptions) withDefaults(base string) HTTPOptions {
	if strings.TrimSpace(o.BaseURL) == "" {
		o.BaseURL = base
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(o.UserAgent) == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	return o
}

// httpGet issues a GET and returns the body of a 2xx reply. Non-2xx replies
// become HTTPError; transport failures are mapped by transportError.
func httpGet(ctx context.Context, o HTTPOptions, source record.SourceID, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, perrors.NewConnectionError("request", endpoint, "", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", o.UserAgent)

	resp, err := o.Client.Do(req)
	if err != nil {
		logx.Debug("HTTP error", logx.Fields{"source": string(source), "url": endpoint, "error": err})
		return nil, transportError(ctx, source, "GET", endpoint, err, o.Timeout)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		logx.Debug("HTTP non-2xx", logx.Fields{"source": string(source), "url": endpoint, "status_code": resp.StatusCode})
		return nil, perrors.NewHTTPError(string(source), endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(ctx, source, "read", endpoint, err, o.Timeout)
	}
	return body, nil
}

// transportError maps a network failure onto the error taxonomy. Deadline
// expiry is a timeout; refused and reset connections keep their reason.
func transportError(ctx context.Context, source record.SourceID, op, target string, err error, timeout time.Duration) error {
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return perrors.NewTimeoutError(string(source), timeout, op+" "+target)
	case errors.Is(err, syscall.ECONNREFUSED):
		return perrors.NewConnectionError(op, target, "refused", err)
	case errors.Is(err, syscall.ECONNRESET):
		return perrors.NewConnectionError(op, target, "reset", err)
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return perrors.NewConnectionError(op, target, "cancelled", err)
	}
	return perrors.NewConnectionError(op, target, "unreachable", err)
}

func sample(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
