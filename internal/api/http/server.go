package http

import (
	"net/http"
	"sync"

	"github.com/logward/logward/internal/config"
	lwerrors "github.com/logward/logward/internal/errors"
	"github.com/logward/logward/internal/index"
	"github.com/logward/logward/internal/ledger"
	"github.com/logward/logward/internal/pipeline"
	"github.com/logward/logward/internal/search"
)

// Server holds the service dependencies behind the JSON API.
type Server struct {
	cfg      *config.Config
	store    ledger.Store
	pipeline *pipeline.Pipeline
	builder  *index.Builder
	engine   *search.Engine

	// buildMu serializes index builds; rebuilds are stop-the-world.
	buildMu sync.Mutex
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, store ledger.Store, p *pipeline.Pipeline, b *index.Builder, e *search.Engine) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		pipeline: p,
		builder:  b,
		engine:   e,
	}
}

// Handler returns the routed handler with the default middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/upload", s.handleUpload)
	mux.HandleFunc("/v1/index/build", s.handleIndexBuild)
	mux.HandleFunc("/v1/index/status", s.handleIndexStatus)
	mux.HandleFunc("/v1/search", s.handleSearch)
	mux.HandleFunc("/v1/suggest", s.handleSuggest)
	mux.HandleFunc("/v1/files", s.handleFiles)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/insights", s.handleInsights)
	mux.HandleFunc("/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("/v1/stats", s.handleStats)
	mux.HandleFunc("/healthz", s.handleHealth)

	return DefaultMiddleware()(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusForError maps structured error codes onto HTTP status codes.
func statusForError(err error) int {
	switch lwerrors.GetCode(err) {
	case lwerrors.CodeIndexNotBuilt:
		return http.StatusConflict
	case lwerrors.CodeTransformFailed, lwerrors.CodeNoDocuments:
		return http.StatusUnprocessableEntity
	case lwerrors.CodeNotFound:
		return http.StatusNotFound
	}
	switch lwerrors.GetCategory(err) {
	case lwerrors.ErrCategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeStructuredError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, statusForError(err), err.Error(), lwerrors.GetCode(err), GetRequestID(r.Context()))
}
