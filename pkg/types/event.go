// Package types provides core data types for Logward.
package types

// Known log levels in the canonical schema. Level is an open set: any other
// uppercase token found in a record is carried through unchanged.
const (
	LevelError    = "ERROR"
	LevelFatal    = "FATAL"
	LevelCritical = "CRITICAL"
	LevelWarn     = "WARN"
	LevelWarning  = "WARNING"
	LevelInfo     = "INFO"
	LevelDebug    = "DEBUG"
	LevelTrace    = "TRACE"
)

// ErrorLevels is the class of levels counted as errors by stats and insights.
var ErrorLevels = []string{LevelError, LevelFatal, LevelCritical}

// IsErrorLevel reports whether the level belongs to the error class.
func IsErrorLevel(level string) bool {
	for _, l := range ErrorLevels {
		if level == l {
			return true
		}
	}
	return false
}

// NormalizedEvent is the canonical event produced by normalization.
// It is created once per raw record and immutable thereafter.
type NormalizedEvent struct {
	// Timestamp is the ISO-8601 event time. Never empty: records without a
	// recognizable timestamp field get the ingestion time.
	Timestamp string `json:"ts_event"`

	// Level is the uppercased log level, default INFO.
	Level string `json:"level"`

	// Service is the originating service or operation name, if any.
	Service string `json:"service,omitempty"`

	// User identifies the acting principal, if any.
	User string `json:"user,omitempty"`

	// IP is the source address, if any.
	IP string `json:"ip,omitempty"`

	// Message is the human-readable payload. Never empty: records without a
	// message-like field fall back to the JSON-serialized record.
	Message string `json:"message"`

	// RawJSON is the serialized original record for structured inputs.
	RawJSON string `json:"json,omitempty"`
}

// Record is an arbitrary structured log record prior to normalization.
type Record map[string]interface{}

// RawUpload is an uploaded file pending validation and parsing.
// It exists only for the duration of one pipeline run.
type RawUpload struct {
	Filename string
	Data     []byte
}
