// Package lookup answers "who controls this domain and where do abuse
// reports go" by querying every configured source concurrently and folding
// the replies into one scored record.
package lookup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"abuse-rec/internal/core/consolidate"
	"abuse-rec/internal/core/directory"
	"abuse-rec/internal/core/hosting"
	"abuse-rec/internal/core/record"
	"abuse-rec/internal/core/reliability"
	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/logx"
	"abuse-rec/internal/platform/metrics"
	"abuse-rec/internal/platform/netutil"
)

// Source is one registration-data provider.
type Source interface {
	ID() record.SourceID
	Fetch(ctx context.Context, domain string) (record.SourceRecord, error)
}

// Classifier is the hosting classification the engine runs alongside the
// sources.
type Classifier interface {
	Classify(ctx context.Context, domain string) hosting.Classification
	ClassifyComprehensive(ctx context.Context, domain string) (hosting.Classification, []hosting.DiscoveredSubdomain)
}

// Config wires an Engine. Nil Directory and Catalog select the built-in
// tables; a nil Classifier skips hosting classification.
type Config struct {
	Sources    []Source
	Classifier Classifier
	Directory  *directory.Directory
	Catalog    *directory.Catalog
	Metrics    *metrics.Metrics
}

// Engine runs lookups. It keeps no per-domain state.
type Engine struct {
	sources    []Source
	classifier Classifier
	directory  *directory.Directory
	catalog    *directory.Catalog
	metrics    *metrics.Metrics
}

// New returns an engine for cfg.
func New(cfg Config) *Engine {
	e := &Engine{
		sources:    append([]Source(nil), cfg.Sources...),
		classifier: cfg.Classifier,
		directory:  cfg.Directory,
		catalog:    cfg.Catalog,
		metrics:    cfg.Metrics,
	}
	if e.directory == nil {
		e.directory = directory.Default()
	}
	if e.catalog == nil {
		e.catalog = directory.DefaultCatalog()
	}
	return e
}

// Options tunes one lookup. Timeout, when set, bounds each source query
// separately; there is no overall deadline.
type Options struct {
	Timeout    time.Duration
	Subdomains bool
}

// SourceFailure records why one source contributed nothing.
type SourceFailure struct {
	Source  record.SourceID `json:"source"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
}

// Result is the caller-facing answer. It is always populated, even when
// every source failed.
type Result struct {
	ID                string                        `json:"id"`
	Domain            string                        `json:"domain"`
	Consolidated      record.ConsolidatedRecord     `json:"consolidated"`
	Reliability       reliability.Score             `json:"reliability"`
	Hosting           *hosting.Classification       `json:"hosting,omitempty"`
	Subdomains        []hosting.DiscoveredSubdomain `json:"subdomains,omitempty"`
	SuggestedContacts []ContactSuggestion           `json:"suggestedContacts"`
	Failures          []SourceFailure               `json:"failures"`
	Duration          time.Duration                 `json:"-"`
	DurationMS        int64                         `json:"durationMs"`
}

// Lookup queries every source and the hosting classifier concurrently,
// waits for all of them, then merges, enriches and scores what came back.
// Source errors end up in Result.Failures and never abort the lookup.
func (e *Engine) Lookup(ctx context.Context, domain string, opts Options) Result {
	started := time.Now()
	domain = netutil.CleanLookupDomain(domain)

	res := Result{
		ID:       uuid.NewString(),
		Domain:   domain,
		Failures: []SourceFailure{},
	}
	logx.Debug("Consulta iniciada", logx.Fields{"domain": domain, "id": res.ID, "sources": len(e.sources)})

	records := make([]*record.SourceRecord, len(e.sources))
	failures := make([]*SourceFailure, len(e.sources))
	var cls *hosting.Classification
	var subs []hosting.DiscoveredSubdomain

	var g errgroup.Group
	for i, src := range e.sources {
		g.Go(func() error {
			rec, err := e.fetch(ctx, src, domain, opts.Timeout)
			if err != nil {
				failures[i] = &SourceFailure{Source: src.ID(), Kind: perrors.Kind(err), Message: perrors.Message(err)}
				return nil
			}
			records[i] = &rec
			return nil
		})
	}
	if e.classifier != nil {
		g.Go(func() error {
			var c hosting.Classification
			if opts.Subdomains {
				c, subs = e.classifier.ClassifyComprehensive(ctx, domain)
			} else {
				c = e.classifier.Classify(ctx, domain)
			}
			cls = &c
			return nil
		})
	}
	_ = g.Wait()

	var succeeded []record.SourceID
	var collected []record.SourceRecord
	for i := range e.sources {
		if records[i] != nil {
			collected = append(collected, *records[i])
			succeeded = append(succeeded, records[i].Source)
		}
		if failures[i] != nil {
			res.Failures = append(res.Failures, *failures[i])
		}
	}

	cons := consolidate.Merge(domain, collected)
	if e.directory.Enrich(&cons) {
		logx.Debug("Registrador enriquecido desde el directorio", logx.Fields{"domain": domain, "registrar": cons.Registrar})
	}
	res.Reliability = reliability.Compute(succeeded, cons, len(e.sources))

	if cons.Registrar == record.UnknownRegistrar && cls != nil && cls.HostingProvider != nil {
		cons.Registrar = cls.HostingProvider.Name
	}
	res.Consolidated = cons
	res.Hosting = cls
	res.Subdomains = subs
	res.SuggestedContacts = e.suggest(domain, cons, cls)
	res.Duration = time.Since(started)
	res.DurationMS = res.Duration.Milliseconds()

	e.metrics.ObserveLookup(string(res.Reliability.Level), res.Duration)
	logx.Info("Consulta completada", logx.Fields{
		"domain":      domain,
		"id":          res.ID,
		"registrar":   cons.Registrar,
		"score":       res.Reliability.Score,
		"level":       string(res.Reliability.Level),
		"failures":    len(res.Failures),
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res
}

func (e *Engine) fetch(ctx context.Context, src Source, domain string, timeout time.Duration) (record.SourceRecord, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	op := logx.StartOperation(string(src.ID()), "Consulta de fuente", logx.Fields{"domain": domain})
	rec, err := src.Fetch(ctx, domain)
	elapsed := op.Elapsed()
	if err != nil {
		op.Fail(err)
		e.metrics.ObserveSource(string(src.ID()), perrors.Kind(err), elapsed)
		return record.SourceRecord{}, err
	}
	op.Complete()
	e.metrics.ObserveSource(string(src.ID()), "ok", elapsed)

	rec.Source = src.ID()
	if rec.Domain == "" {
		rec.Domain = domain
	}
	return rec, nil
}
