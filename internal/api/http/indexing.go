package http

import (
	"net/http"
	"time"
)

// BuildResponse reports a completed index build.
type BuildResponse struct {
	DocCount    int    `json:"doc_count"`
	VocabSize   int    `json:"vocab_size"`
	Fingerprint string `json:"fingerprint"`
	DurationMS  int64  `json:"duration_ms"`
	RequestID   string `json:"request_id"`
}

// StatusResponse reports the state of the index.
type StatusResponse struct {
	Built        bool       `json:"built"`
	BuiltAt      *time.Time `json:"built_at,omitempty"`
	DocCount     int64      `json:"doc_count,omitempty"`
	VocabSize    int64      `json:"vocab_size,omitempty"`
	Fingerprint  string     `json:"fingerprint,omitempty"`
	NeedsRebuild bool       `json:"needs_rebuild"`
}

// handleIndexBuild rebuilds the index from the whole corpus. Builds are
// serialized; concurrent requests queue behind the running one.
func (s *Server) handleIndexBuild(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	s.buildMu.Lock()
	result, err := s.builder.Build(r.Context())
	s.buildMu.Unlock()
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}

	// Queries pick up the new artifacts on their next load.
	s.engine.Invalidate()

	writeJSON(w, http.StatusOK, BuildResponse{
		DocCount:    result.DocCount,
		VocabSize:   result.VocabSize,
		Fingerprint: result.Fingerprint,
		DurationMS:  result.Duration.Milliseconds(),
		RequestID:   requestID,
	})
}

// handleIndexStatus reports the latest build and whether the corpus has
// drifted from it.
func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	meta, err := s.store.LatestIndexMeta(r.Context())
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}

	needsRebuild, err := s.builder.NeedsRebuild()
	if err != nil {
		writeStructuredError(w, r, err)
		return
	}

	resp := StatusResponse{NeedsRebuild: needsRebuild}
	if meta != nil {
		resp.Built = true
		resp.BuiltAt = &meta.BuiltAt
		resp.DocCount = meta.DocCount
		resp.VocabSize = meta.VocabSize
		resp.Fingerprint = meta.Fingerprint
	}
	writeJSON(w, http.StatusOK, resp)
}
