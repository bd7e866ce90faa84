package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/gosuda/garagedesk/internal/account"
	v1 "github.com/gosuda/garagedesk/internal/api/v1"
	"github.com/gosuda/garagedesk/internal/config"
	"github.com/gosuda/garagedesk/internal/server/middleware"
)

const (
	apiPrefix  = "/api/v1"
	apiVersion = "1.0.0"
)

// Server is the development HTTP API that the client talks to.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds the lifetime of the
// rate limiter sweepers.
func New(ctx context.Context, cfg *config.StubConfig, svc *account.Service) *Server {
	v1.UseErrorModel()

	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	// Mount API routes on /api/v1 with two sub-groups:
	// 1. Unauthenticated group for health and auth endpoints.
	// 2. Authenticated group for profile and onboarding endpoints.
	router.Route(apiPrefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst))

			publicConfig := huma.DefaultConfig("GarageDesk Auth API", apiVersion)
			publicConfig.Servers = []*huma.Server{{URL: apiPrefix}}
			registerPublicRoutes(humachi.New(r, publicConfig), svc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RateLimit(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst))

			apiConfig := huma.DefaultConfig("GarageDesk API", apiVersion)
			apiConfig.Servers = []*huma.Server{{URL: apiPrefix}}
			// The public group already serves the docs.
			apiConfig.OpenAPIPath = ""
			apiConfig.DocsPath = ""
			apiConfig.SchemasPath = ""
			registerAccountRoutes(humachi.New(r, apiConfig), svc)
		})
	})

	// Health check (unauthenticated, outside the API prefix).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Handler exposes the router for in-process testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
