package types

import "time"

// File processing statuses. A FileRecord transitions from uploaded to
// exactly one of processed or error and is never revisited.
const (
	StatusUploaded  = "uploaded"
	StatusProcessed = "processed"
	StatusError     = "error"
)

// FileRecord tracks one ingested file and the outcome of its pipeline run.
type FileRecord struct {
	// ID is the ledger row ID.
	ID int64 `json:"id"`

	// UID is a stable external identifier for the file.
	UID string `json:"uid"`

	// Filename is the original upload name.
	Filename string `json:"filename"`

	// UploadTime is when the file was recorded.
	UploadTime time.Time `json:"upload_time"`

	// Size is the raw byte length.
	Size int64 `json:"size"`

	// FileType is the detected extension without the dot (json, csv, ...).
	FileType string `json:"file_type"`

	// Status is one of uploaded, processed, error.
	Status string `json:"status"`

	// ErrorMessage holds the failure reason when Status is error.
	ErrorMessage string `json:"error_msg,omitempty"`

	// EventCount is the number of events the file produced.
	EventCount int64 `json:"event_count"`

	// CloudType is the best-effort provider hint from validation.
	CloudType CloudType `json:"cloud_type,omitempty"`
}
