package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sovralabs/sovra/internal/config"
	"github.com/sovralabs/sovra/internal/metrics"
	"github.com/sovralabs/sovra/internal/ollama"
)

// Server is the query service: a thin HTTP surface in front of the
// inference backend. Configuration is read-only after construction, so
// concurrent requests share no mutable state.
type Server struct {
	cfg     config.ServerConfig
	client  *ollama.Client
	limiter *rate.Limiter
}

// New constructs the HTTP handler for the query service.
func New(cfg config.ServerConfig) http.Handler {
	s := &Server{
		cfg:     cfg,
		client:  ollama.New(cfg.OllamaBaseURL),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}

	preg := prometheus.NewRegistry()
	metrics.Register(preg)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", s.handleStatus)
	r.Post("/query", s.handleQuery)
	r.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))

	return r
}
