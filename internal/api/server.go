// Package api serves catalog searches, background search jobs, the local
// tag index and the page cache over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/anditianred/ao3-api/internal/cache"
	"github.com/anditianred/ao3-api/internal/ratelimit"
	"github.com/anditianred/ao3-api/internal/search"
	"github.com/anditianred/ao3-api/internal/sse"
	"github.com/anditianred/ao3-api/internal/tagindex"
)

// Services groups what the handlers call into.
type Services struct {
	Searcher *search.Searcher
	Runner   *search.Runner
	Cache    *cache.Cache
	Tags     *tagindex.Index // nil when the tag index is disabled
	Events   *sse.Manager    // nil disables the job event stream
}

// Options configures the HTTP surface.
type Options struct {
	Version     string
	CORSOrigins []string
	// Per-client limits for the search endpoints; zero disables them.
	ClientRPS   float64
	ClientBurst int
	// Heartbeat interval of the job event stream.
	EventHeartbeat time.Duration
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	router   *chi.Mux
	api      huma.API
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// NewServer creates the HTTP handler with all routes registered.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	router := chi.NewRouter()
	s := &Server{
		services: services,
		router:   router,
		logger:   logger,
	}

	router.Use(middleware.RealIP)
	router.Use(requestID)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	if opts.ClientRPS > 0 {
		s.limiter = ratelimit.New(opts.ClientRPS, max(opts.ClientBurst, 1))
		router.Use(clientRateLimit(s.limiter, "/api/v1/search", logger))
	}

	humaConfig := huma.DefaultConfig("AO3 Search API", opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerSearchRoutes()
	s.registerJobRoutes()
	s.registerTagRoutes()
	s.registerCacheRoutes()

	// SSE is streamed outside huma.
	if services.Events != nil {
		router.Get("/api/v1/search/events", sse.NewHandler(services.Events, opts.EventHeartbeat, logger).ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}
