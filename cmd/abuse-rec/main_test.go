package main

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"abuse-rec/internal/core/record"
	"abuse-rec/internal/platform/config"
	perrors "abuse-rec/internal/platform/errors"
)

func sourceIDs(t *testing.T, cfg *config.Config) []record.SourceID {
	t.Helper()
	srcs, err := buildSources(cfg)
	if err != nil {
		t.Fatalf("buildSources: %v", err)
	}
	ids := make([]record.SourceID, 0, len(srcs))
	for _, s := range srcs {
		ids = append(ids, s.ID())
	}
	return ids
}

func TestBuildSources(t *testing.T) {
	cfg, err := config.Parse([]string{"example.com"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(record.AllSources(), sourceIDs(t, cfg)); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}

	cfg.Disable = []string{"whois", "Scraped"}
	want := []record.SourceID{record.SourceStructured, record.SourceAltAPI}
	if diff := cmp.Diff(want, sourceIDs(t, cfg)); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSourcesUnknownID(t *testing.T) {
	cfg := &config.Config{Disable: []string{"ftp"}}
	if _, err := buildSources(cfg); !perrors.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunRejectsBadConfiguration(t *testing.T) {
	cases := map[string][]string{
		"flag desconocido":  {"-nope"},
		"sin dominio":       {},
		"timeout inválido":  {"-timeout", "0", "example.com"},
		"fuente inválida":   {"-disable", "ftp", "example.com"},
		"proxy sin esquema": {"-proxy", "127.0.0.1:8080", "example.com"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			if code := run(args, &out); code != 2 {
				t.Fatalf("run(%v) = %d, want 2", args, code)
			}
			if out.Len() != 0 {
				t.Fatalf("nothing should reach stdout, got %q", out.String())
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	if code := run([]string{"-h"}, &bytes.Buffer{}); code != 0 {
		t.Fatalf("run(-h) = %d, want 0", code)
	}
}
