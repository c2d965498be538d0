package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/kyc-extractor/internal/config"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
	"github.com/kirillkom/kyc-extractor/internal/observability/metrics"
)

const (
	serviceName        = "kyc-api"
	healthCheckTimeout = 2 * time.Second
	multipartMemory    = 8 << 20
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Router struct {
	cfg config.Config

	ingestUC ports.ExtractionIngestor
	readerUC ports.ExtractionReader
	statsUC  ports.StatsReader
	exportUC ports.ExtractionExporter

	metrics      *metrics.HTTPServerMetrics
	mcpHandler   http.Handler
	healthChecks map[string]HealthCheck
}

type Option func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) Option {
	return func(rt *Router) { rt.metrics = m }
}

// WithMCPHandler mounts an MCP tool server under /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(rt *Router) { rt.mcpHandler = h }
}

func WithHealthCheck(name string, check HealthCheck) Option {
	return func(rt *Router) {
		if rt.healthChecks == nil {
			rt.healthChecks = make(map[string]HealthCheck)
		}
		rt.healthChecks[name] = check
	}
}

func NewRouter(
	cfg config.Config,
	ingestUC ports.ExtractionIngestor,
	readerUC ports.ExtractionReader,
	statsUC ports.StatsReader,
	exportUC ports.ExtractionExporter,
	opts ...Option,
) *Router {
	rt := &Router{
		cfg:      cfg,
		ingestUC: ingestUC,
		readerUC: readerUC,
		statsUC:  statsUC,
		exportUC: exportUC,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", rt.openAPIDocument)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/extractions", rt.uploadExtraction)
	mux.HandleFunc("POST /v1/extractions/batch", rt.uploadExtractionBatch)
	mux.HandleFunc("GET /v1/extractions", rt.listExtractions)
	mux.HandleFunc("GET /v1/extractions/export.xlsx", rt.exportExtractions)
	mux.HandleFunc("GET /v1/extractions/{id}", rt.getExtraction)
	mux.HandleFunc("GET /v1/stats/dashboard", rt.dashboard)
	mux.HandleFunc("GET /v1/stats/avg-processing-time", rt.avgProcessingTime)
	mux.HandleFunc("POST /v1/validate", rt.validateExtraction)

	if rt.mcpHandler != nil {
		mux.Handle("/mcp", rt.mcpHandler)
	}

	var handler http.Handler = mux
	if rt.cfg.APIOpenAPIValidation {
		handler = openAPIValidationMiddleware(handler)
	}
	handler = authMiddleware(handler, rt.cfg.APIKey)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.BackpressureWait())
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if len(rt.healthChecks) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(rt.healthChecks))
	for name, check := range rt.healthChecks {
		if err := check(ctx); err != nil {
			slog.Warn("health_check_failed", "check", name, "error", err)
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": checks})
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: requestIDFromContext(r.Context())})
}
