package mockapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/nmslite/check-foreman/internal/middleware"
)

// APIPrefix is where the Foreman resources are mounted, so the plugin
// endpoint of a mock listening on :8443 is https://localhost:8443/api.
const APIPrefix = "/api"

// Server is the mock Foreman API.
type Server struct {
	router   *chi.Mux
	fixtures *Fixtures
	logger   *slog.Logger
}

// NewServer wires the routes for fixtures behind basic authentication.
func NewServer(fixtures *Fixtures, creds *middleware.Credentials, logger *slog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		fixtures: fixtures,
		logger:   logger,
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.StripSlashes)

	// Health check endpoint (no auth required)
	r.Get("/health", s.health)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(middleware.BasicAuth(creds, "Foreman"))

		r.Get("/dashboard", s.dashboard)
		r.Get("/hosts", s.hosts)
		r.Get("/fact_values", s.factValues)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.SendError(w, r, http.StatusNotFound, "Route not found")
	})

	return s
}

// ServeHTTP makes the server usable with httptest and http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
