package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/logward/logward/internal/search"
)

// SearchRequest is the body of a search call.
type SearchRequest struct {
	Query   string `json:"query"`
	Limit   int    `json:"limit,omitempty"`
	Level   string `json:"level,omitempty"`
	Service string `json:"service,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// SearchResponse wraps ranked results.
type SearchResponse struct {
	Query     string          `json:"query"`
	Count     int             `json:"count"`
	Results   []search.Result `json:"results"`
	RequestID string          `json:"request_id"`
}

// SuggestResponse lists vocabulary completions for a prefix.
type SuggestResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "", requestID)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required", "", requestID)
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.Search.ResultLimit
	}

	results, err := s.engine.Search(req.Query, limit, search.Filters{
		Level:   req.Level,
		Service: req.Service,
		From:    req.From,
		To:      req.To,
	})
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:     req.Query,
		Count:     len(results),
		Results:   results,
		RequestID: requestID,
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	prefix := r.URL.Query().Get("prefix")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	suggestions, err := s.engine.Suggest(prefix, limit)
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, SuggestResponse{
		Prefix:      prefix,
		Suggestions: suggestions,
	})
}
