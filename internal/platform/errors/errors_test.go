package errors

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestWithSuggestion(t *testing.T) {
	baseErr := errors.New("test error")
	err := WithSuggestion(baseErr, "try this instead")

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "test error") {
		t.Errorf("error message should contain base error, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "try this instead") {
		t.Errorf("error message should contain suggestion, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "💡 Sugerencia") {
		t.Errorf("error message should contain suggestion label, got: %s", errMsg)
	}
}

func TestWithContextSorted(t *testing.T) {
	baseErr := errors.New("test error")
	err := WithContext(baseErr, "source", "rdap")
	err = WithContext(err, "domain", "example.com")

	errMsg := err.Error()
	domainIdx := strings.Index(errMsg, "domain: example.com")
	sourceIdx := strings.Index(errMsg, "source: rdap")
	if domainIdx < 0 || sourceIdx < 0 {
		t.Fatalf("error message should contain all context, got: %s", errMsg)
	}
	if domainIdx > sourceIdx {
		t.Errorf("context keys should be sorted, got: %s", errMsg)
	}
}

func TestNilPassthrough(t *testing.T) {
	if WithSuggestion(nil, "x") != nil || WithContext(nil, "k", "v") != nil {
		t.Fatal("nil errors must stay nil")
	}
	if Kind(nil) != "" || Message(nil) != "" {
		t.Fatal("nil error has no kind or message")
	}
}

func TestTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind string
		is   func(error) bool
	}{
		{"connection", NewConnectionError("dial", "whois.verisign-grs.com:43", "refused", syscall.ECONNREFUSED), "connection", IsConnection},
		{"timeout", NewTimeoutError("rawProtocol", 15*time.Second, "sin respuesta"), "timeout", IsTimeout},
		{"parse", NewParseError("structured", "json inválido", "<html>"), "parse", IsParse},
		{"http", NewHTTPError("structured", "https://rdap.org/domain/x.com", 404), "http", IsHTTP},
		{"dns", NewDNSError("example.com", "A", errors.New("SERVFAIL")), "dns", IsDNS},
		{"config", NewConfigurationError("timeout", "-1", "debe ser positivo", ""), "configuration", IsConfiguration},
		{"plain", errors.New("boom"), "unknown", func(error) bool { return true }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Kind(tc.err); got != tc.kind {
				t.Fatalf("Kind = %q, want %q", got, tc.kind)
			}
			if !tc.is(tc.err) {
				t.Fatalf("predicate false for %v", tc.err)
			}
			wrapped := fmt.Errorf("fuente: %w", tc.err)
			if got := Kind(wrapped); got != tc.kind {
				t.Fatalf("Kind through %%w = %q, want %q", got, tc.kind)
			}
		})
	}
}

func TestConnectionErrorUnwraps(t *testing.T) {
	err := NewConnectionError("read", "127.0.0.1:43", "reset", syscall.ECONNRESET)
	if !errors.Is(err, syscall.ECONNRESET) {
		t.Fatal("connection error should unwrap to the syscall error")
	}
	if IsTimeout(err) {
		t.Fatal("connection error must not look like a timeout")
	}
}

func TestMessageDropsSuggestion(t *testing.T) {
	err := NewHTTPError("structured", "https://rdap.org/domain/x.com", 404)
	msg := Message(err)
	if msg != "structured respondió HTTP 404" {
		t.Fatalf("Message = %q", msg)
	}
	if !strings.Contains(GetSuggestion(err), "no existe") {
		t.Fatalf("404 suggestion = %q", GetSuggestion(err))
	}
	if GetContext(err)["url"] == "" {
		t.Fatal("url context missing")
	}
}

func TestParseErrorSampleTruncated(t *testing.T) {
	err := NewParseError("alt-api", "límite alcanzado", strings.Repeat("x", 200))
	msg := Message(err)
	if !strings.Contains(msg, "...") || len(msg) > 120 {
		t.Fatalf("sample should be truncated, got %q", msg)
	}
}
