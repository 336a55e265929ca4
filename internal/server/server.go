// Package server exposes the analysis catalogue over HTTP: one endpoint per
// invocation style (run an analysis, manage stored models, render diagrams),
// all sharing the catalog.Runner so results match the CLI and MCP surfaces.
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uvlkit/uvlkit/pkg/catalog"
	"github.com/uvlkit/uvlkit/pkg/store"
)

// Server is the HTTP front end of the analysis engine.
type Server struct {
	runner *catalog.Runner
	store  store.Store
	logger *log.Logger
	router chi.Router
}

// New assembles the server. The runner and store must be non-nil; a nil
// logger falls back to the default logger.
func New(runner *catalog.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, store: st, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/operations", s.handleOperations)
		r.Post("/analyses/{operation}", s.handleAnalysis)
		r.Post("/render", s.handleRender)
		r.Route("/models", func(r chi.Router) {
			r.Post("/", s.handleCreateModel)
			r.Get("/", s.handleListModels)
			r.Get("/{id}", s.handleGetModel)
			r.Delete("/{id}", s.handleDeleteModel)
		})
	})
	s.router = r

	return s
}

// Handler returns the HTTP handler for use with http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"operations": catalog.Operations()})
}
