package server

import (
	"log/slog"
	"net/http"

	"github.com/maauso/framesplit-api/internal/metrics"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// StaticDir is served under /static/ when non-empty. Uploads and
	// frames live below it so returned paths map onto /static/ URLs.
	StaticDir string
	// MetricsEnabled exposes Prometheus metrics on /metrics.
	MetricsEnabled bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		StaticDir:      "static",
		MetricsEnabled: true,
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /upload", h.Upload)
	mux.HandleFunc("POST /split_frames", h.SplitFrames)
	mux.HandleFunc("GET /jobs", h.ListJobs)
	mux.HandleFunc("GET /jobs/{id}", h.GetJob)
	mux.HandleFunc("DELETE /jobs/{id}/frames", h.PurgeJobFrames)
	mux.HandleFunc("DELETE /jobs/{id}", h.DeleteJob)

	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	if cfg.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
