package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"abuse-rec/internal/adapters/dnsresolver"
	"abuse-rec/internal/adapters/httpapi"
	"abuse-rec/internal/adapters/sources"
	"abuse-rec/internal/core/hosting"
	"abuse-rec/internal/core/lookup"
	"abuse-rec/internal/core/record"
	"abuse-rec/internal/platform/config"
	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/logx"
	"abuse-rec/internal/platform/metrics"
)

const dnsTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	cfg, err := config.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logx.SetVerbosity(cfg.Verbosity)
	logx.SetJSON(cfg.LogJSON)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := config.ApplyProxy(cfg.Proxy); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := config.ConfigureRootCAs(cfg.ProxyCACert); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	srcs, err := buildSources(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	resolver := dnsresolver.New(cfg.Resolver, dnsTimeout)
	engine := lookup.New(lookup.Config{
		Sources:    srcs,
		Classifier: hosting.New(resolver, hosting.Options{ScanRate: cfg.ScanRate}),
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
	})
	opts := lookup.Options{Subdomains: cfg.Subdomains}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Serve != "" {
		logx.Infof("Iniciando abuse-rec serve=%s sources=%d resolver=%s", cfg.Serve, len(srcs), resolver.Server())
		handler := httpapi.New(engine, opts, prometheus.DefaultGatherer)
		if err := httpapi.Serve(ctx, httpapi.NewServer(cfg.Serve, handler.Routes())); err != nil {
			logx.Errorf("%v", err)
			return 1
		}
		return 0
	}

	logx.Infof("Iniciando abuse-rec domain=%s sources=%d resolver=%s", cfg.Domain, len(srcs), resolver.Server())
	res := engine.Lookup(ctx, cfg.Domain, opts)
	logx.Infof("Listo en %s: registrar=%s fiabilidad=%s (%d)", logx.FormatDuration(res.Duration), res.Consolidated.Registrar, res.Reliability.Level, res.Reliability.Score)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logx.Errorf("no se pudo escribir el resultado: %v", err)
		return 1
	}
	return 0
}

// buildSources returns the enabled sources in priority order.
func buildSources(cfg *config.Config) ([]lookup.Source, error) {
	disabled := map[record.SourceID]bool{}
	for _, name := range cfg.Disable {
		id, ok := record.ParseSourceID(name)
		if !ok {
			return nil, perrors.NewConfigurationError("disable", name, "fuente desconocida", "Fuentes válidas: structured, rawProtocol, alt-api, scraped")
		}
		disabled[id] = true
	}

	httpOpts := func(base string) sources.HTTPOptions {
		return sources.HTTPOptions{BaseURL: base, Timeout: cfg.Timeout(), UserAgent: cfg.UserAgent}
	}

	var out []lookup.Source
	for _, id := range record.AllSources() {
		if disabled[id] {
			logx.Debug("Fuente desactivada", logx.Fields{"source": string(id)})
			continue
		}
		switch id {
		case record.SourceStructured:
			out = append(out, sources.NewRDAP(sources.RDAPOptions{HTTPOptions: httpOpts(cfg.RDAPBase), Bootstrap: cfg.RDAPBootstrap}))
		case record.SourceRawProtocol:
			out = append(out, sources.NewWhois(sources.WhoisOptions{Server: cfg.WhoisServer, Timeout: cfg.Timeout()}))
		case record.SourceAltAPI:
			out = append(out, sources.NewAltAPI(httpOpts(cfg.AltAPIBase)))
		case record.SourceScraped:
			out = append(out, sources.NewScrape(httpOpts(cfg.ScrapeBase)))
		}
	}
	return out, nil
}
