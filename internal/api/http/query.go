package http

import (
	"net/http"
	"strconv"

	"github.com/logward/logward/internal/dashboard"
	"github.com/logward/logward/internal/insights"
	"github.com/logward/logward/internal/ledger"
	"github.com/logward/logward/pkg/types"
)

// analysisEventLimit bounds how many events feed the insights and
// dashboard aggregations per request.
const analysisEventLimit = 100000

// FilesResponse lists ledger file records.
type FilesResponse struct {
	Count int                `json:"count"`
	Files []types.FileRecord `json:"files"`
}

// EventsResponse lists normalized events.
type EventsResponse struct {
	Count  int                     `json:"count"`
	Events []types.NormalizedEvent `json:"events"`
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	files, err := s.store.ListFiles(r.Context(), limit)
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}
	if files == nil {
		files = []types.FileRecord{}
	}

	writeJSON(w, http.StatusOK, FilesResponse{Count: len(files), Files: files})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	filter := ledger.EventFilter{
		FileUID: q.Get("file"),
		Level:   q.Get("level"),
		Service: q.Get("service"),
		From:    q.Get("from"),
		To:      q.Get("to"),
	}

	events, err := s.store.ListEvents(r.Context(), filter, limit)
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}
	if events == nil {
		events = []types.NormalizedEvent{}
	}

	writeJSON(w, http.StatusOK, EventsResponse{Count: len(events), Events: events})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	events, files, err := s.loadAnalysisInputs(r)
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insights.Analyze(events, files))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	events, files, err := s.loadAnalysisInputs(r)
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Build(events, files))
}

func (s *Server) loadAnalysisInputs(r *http.Request) ([]types.NormalizedEvent, []types.FileRecord, error) {
	events, err := s.store.ListEvents(r.Context(), ledger.EventFilter{}, analysisEventLimit)
	if err != nil {
		return nil, nil, err
	}
	files, err := s.store.ListFiles(r.Context(), analysisEventLimit)
	if err != nil {
		return nil, nil, err
	}
	return events, files, nil
}
