// Package httpapi is a thin chi-routed translation layer over
// internal/pipeline: it decodes requests, calls the Orchestrator or a
// store directly, and maps the resulting error kind to a status code.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orcaarchive/orca/internal/corpus"
	"github.com/orcaarchive/orca/internal/megadoc"
	"github.com/orcaarchive/orca/internal/pipeline"
	"github.com/orcaarchive/orca/internal/search"
)

// Orchestrator is the subset of pipeline.Orchestrator the search handler
// needs, narrowed so tests can substitute a fake instead of wiring a real
// sqlite DB, bleve index and S3 client.
type Orchestrator interface {
	StartSearch(ctx context.Context, searchStr string, filetypes []string) (*pipeline.SearchResult, error)
}

type Server struct {
	orchestrator Orchestrator
	searches     *search.Store
	megadocs     *megadoc.Store
	corpora      *corpus.Store
	apiVersion   string
	megadocTypes []string
}

func NewServer(orch Orchestrator, searches *search.Store, megadocs *megadoc.Store, corpora *corpus.Store, apiVersion string, megadocTypes []string) *Server {
	return &Server{
		orchestrator: orch, searches: searches, megadocs: megadocs, corpora: corpora,
		apiVersion: apiVersion, megadocTypes: megadocTypes,
	}
}

// Router builds the chi.Mux wiring every route to its handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Post("/search", s.handleCreateSearch)
	r.Get("/search/{guid}", s.handleGetSearch)
	r.Delete("/search/{guid}", s.handleDeleteSearch)

	return r
}
