package http

import (
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/logward/logward/pkg/types"
)

// UploadResponse describes the file record created for an upload.
type UploadResponse struct {
	UID        string    `json:"uid"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	FileType   string    `json:"file_type,omitempty"`
	CloudType  string    `json:"cloud_type,omitempty"`
	EventCount int64     `json:"event_count"`
	UploadTime time.Time `json:"upload_time"`
	RequestID  string    `json:"request_id"`
}

// handleUpload accepts a log file as a multipart form (field "file") or as
// the raw request body with a filename query parameter, and runs it through
// the ingestion pipeline synchronously.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", requestID)
		return
	}

	upload, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	record, err := s.pipeline.Process(r.Context(), upload)
	if err != nil {
		if record != nil {
			// The rejection is recorded; tell the client which record to
			// inspect.
			writeError(w, statusForError(err), record.ErrorMessage, "", requestID)
			return
		}
		writeStructuredError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		UID:        record.UID,
		Filename:   record.Filename,
		Status:     record.Status,
		FileType:   record.FileType,
		CloudType:  string(record.CloudType),
		EventCount: record.EventCount,
		UploadTime: record.UploadTime,
		RequestID:  requestID,
	})
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (types.RawUpload, bool) {
	requestID := GetRequestID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxUploadSize+1)

	contentType := r.Header.Get("Content-Type")
	if len(contentType) >= 19 && contentType[:19] == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart form must carry a \"file\" field", "", requestID)
			return types.RawUpload{}, false
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read upload", "", requestID)
			return types.RawUpload{}, false
		}
		return types.RawUpload{Filename: filepath.Base(header.Filename), Data: data}, true
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "filename query parameter is required for raw uploads", "", requestID)
		return types.RawUpload{}, false
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload", "", requestID)
		return types.RawUpload{}, false
	}
	return types.RawUpload{Filename: filepath.Base(filename), Data: data}, true
}
