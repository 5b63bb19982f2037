// Package api provides the HTTP API server and handlers for BookWise.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookwise/bookwise-server/internal/http/response"
	"github.com/bookwise/bookwise-server/internal/ratelimit"
	"github.com/bookwise/bookwise-server/internal/service"
)

// Options configures the HTTP surface.
type Options struct {
	// AllowedOrigins lists the CORS origins. Empty allows any origin.
	AllowedOrigins []string
	// RateLimitRPS is the per-client request rate. Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	// Version is reported in the OpenAPI document.
	Version string
	// Events serves the catalog event stream at /api/v1/events. Nil leaves
	// the route unregistered.
	Events http.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	catalog *service.CatalogService
	router  *chi.Mux
	api     huma.API
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(catalog *service.CatalogService, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	router := chi.NewRouter()

	s := &Server{
		catalog: catalog,
		router:  router,
		limiter: ratelimit.New(opts.RateLimitRPS, opts.RateLimitBurst, ratelimit.DefaultIdleTTL),
		logger:  logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("BookWise API", opts.Version)
	humaConfig.Info.Description = "Content-based book recommendations over a merged Goodreads and Kindle catalog."
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes(opts)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(Metrics)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(opts Options) {
	s.router.Handle("/metrics", promhttp.Handler())
	if opts.Events != nil {
		s.router.Get("/api/v1/events", opts.Events.ServeHTTP)
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "route not found: "+r.URL.Path, s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method+" not allowed on "+r.URL.Path, s.logger)
	})

	s.registerHealthRoutes()
	s.registerCatalogRoutes()
}
