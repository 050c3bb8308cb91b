// Package api serves a shardkv store over HTTP/JSON.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dd0wney/shardkv/pkg/api/middleware"
	"github.com/dd0wney/shardkv/pkg/health"
	"github.com/dd0wney/shardkv/pkg/logging"
	"github.com/dd0wney/shardkv/pkg/metrics"
	"github.com/dd0wney/shardkv/pkg/shardkv"
)

// DefaultMaxBodyBytes caps request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 64 << 20

// Config holds the dependencies of a Server. Health and Metrics are
// optional.
type Config struct {
	Store        *shardkv.Store
	Health       *health.Checker
	Metrics      *metrics.Registry
	Logger       logging.Logger
	MaxBodyBytes int64
}

// Server is the HTTP API of one store.
type Server struct {
	store   *shardkv.Store
	health  *health.Checker
	metrics *metrics.Registry
	log     logging.Logger
	router  *mux.Router
}

// NewServer builds the router and middleware chain.
func NewServer(cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Health == nil {
		cfg.Health = health.NewChecker()
	}

	s := &Server{
		store:   cfg.Store,
		health:  cfg.Health,
		metrics: cfg.Metrics,
		log:     logging.OrNop(cfg.Logger).With(logging.Component("api")),
		router:  mux.NewRouter(),
	}
	s.routes(cfg.MaxBodyBytes)
	return s
}

func (s *Server) routes(maxBody int64) {
	r := s.router
	r.Use(middleware.PanicRecovery(s.log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(s.log))
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}

	r.HandleFunc("/health", s.health.HTTPHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.health.ReadinessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.health.LivenessHandler()).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.BodySizeLimit(maxBody))
	v1.HandleFunc("/records", s.handleInsert).Methods(http.MethodPost)
	v1.HandleFunc("/records/{key}", s.handleGet).Methods(http.MethodGet)
	v1.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	v1.HandleFunc("/locate/{key}", s.handleLocate).Methods(http.MethodGet)
	v1.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, http.StatusNotFound, "no such endpoint")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the root handler to mount on an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}
