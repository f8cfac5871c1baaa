// Package httpapi exposes lookups over HTTP. Identical lookups that arrive
// while one is already running share its result; nothing is kept once it
// finishes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"abuse-rec/internal/core/lookup"
	"abuse-rec/internal/platform/logx"
	"abuse-rec/internal/platform/netutil"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Lookuper is the part of lookup.Engine the API needs.
type Lookuper interface {
	Lookup(ctx context.Context, domain string, opts lookup.Options) lookup.Result
}

// Handler serves the lookup API.
type Handler struct {
	engine   Lookuper
	opts     lookup.Options
	gatherer prometheus.Gatherer
	group    singleflight.Group
}

// New returns a handler running lookups with opts. A nil gatherer exposes
// the default Prometheus registry.
func New(engine Lookuper, opts lookup.Options, gatherer prometheus.Gatherer) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{engine: engine, opts: opts, gatherer: gatherer}
}

// Routes mounts the API on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", h.handleHealth)
	r.Get("/v1/lookup/{domain}", h.handleLookup)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLookup handles GET /v1/lookup/{domain}. ?subdomains=true forces the
// wordlist scan for this request.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "domain")
	domain := netutil.CleanLookupDomain(raw)
	if !netutil.ValidLookupDomain(domain) {
		writeError(w, http.StatusBadRequest, "invalid_domain", "no es un dominio consultable: "+raw)
		return
	}

	opts := h.opts
	if v := r.URL.Query().Get("subdomains"); v != "" {
		scan, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "subdomains debe ser true o false")
			return
		}
		opts.Subdomains = scan
	}

	key := domain + "|" + strconv.FormatBool(opts.Subdomains)
	// The shared lookup outlives any single caller that disconnects.
	ctx := context.WithoutCancel(r.Context())
	ch := h.group.DoChan(key, func() (any, error) {
		return h.engine.Lookup(ctx, domain, opts), nil
	})

	select {
	case <-r.Context().Done():
		logx.Debug("Cliente desconectado antes de la respuesta", logx.Fields{"domain": domain})
		return
	case res := <-ch:
		result := res.Val.(lookup.Result)
		logx.Debug("Consulta servida", logx.Fields{"domain": domain, "id": result.ID, "shared": res.Shared})
		writeJSON(w, http.StatusOK, result)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger := logx.Logger()
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("Petición HTTP")
	})
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorBody{Error: code, Description: description})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn("No se pudo escribir la respuesta", logx.Fields{"error": err})
	}
}

// NewServer returns an http.Server for handler on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logx.Info("API HTTP escuchando", logx.Fields{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logx.Info("Deteniendo API HTTP", logx.Fields{"addr": srv.Addr})
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
