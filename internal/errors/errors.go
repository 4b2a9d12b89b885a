// Package errors provides structured error types for the Logward system.
// All errors carry a category, code, and message for consistent handling
// across components. Failures are terminal for the affected unit: there is
// no retry machinery anywhere in the core.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryParse      ErrorCategory = "PARSE"
	ErrCategoryPipeline   ErrorCategory = "PIPELINE"
	ErrCategoryIndex      ErrorCategory = "INDEX"
	ErrCategoryStore      ErrorCategory = "STORE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeSizeLimitExceeded   = "SIZE_LIMIT_EXCEEDED"
	CodeExtensionNotAllowed = "EXTENSION_NOT_ALLOWED"
	CodeCorruptedArchive    = "CORRUPTED_ARCHIVE"
	CodeInvalidMember       = "INVALID_ARCHIVE_MEMBER"

	// Parse codes
	CodeMalformedContent = "MALFORMED_CONTENT"

	// Pipeline codes
	CodeProcessingFailed = "PROCESSING_FAILED"

	// Index codes
	CodeNoDocuments     = "NO_DOCUMENTS"
	CodeTransformFailed = "TRANSFORM_FAILED"
	CodeIndexNotBuilt   = "INDEX_NOT_BUILT"
	CodeArtifactCorrupt = "ARTIFACT_CORRUPT"

	// Store codes
	CodeWriteFailed = "WRITE_FAILED"
	CodeQueryFailed = "QUERY_FAILED"
	CodeNotFound    = "NOT_FOUND"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// LogwardError is the structured error type used throughout the system.
type LogwardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error returns a formatted error string.
func (e *LogwardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *LogwardError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *LogwardError) Is(target error) bool {
	var t *LogwardError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new LogwardError.
func New(category ErrorCategory, code, message string) *LogwardError {
	return &LogwardError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new LogwardError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *LogwardError {
	return &LogwardError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *LogwardError) WithDetails(details map[string]interface{}) *LogwardError {
	cp := *e
	cp.Details = details
	return &cp
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a LogwardError.
func GetCategory(err error) ErrorCategory {
	var le *LogwardError
	if errors.As(err, &le) {
		return le.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a LogwardError.
func GetCode(err error) string {
	var le *LogwardError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *LogwardError {
	return New(ErrCategoryValidation, code, message)
}

func NewParseError(message string, cause error) *LogwardError {
	return Wrap(ErrCategoryParse, CodeMalformedContent, message, cause)
}

func NewPipelineError(message string, cause error) *LogwardError {
	return Wrap(ErrCategoryPipeline, CodeProcessingFailed, message, cause)
}

func NewIndexError(code, message string) *LogwardError {
	return New(ErrCategoryIndex, code, message)
}

func NewStoreError(code, message string, cause error) *LogwardError {
	return Wrap(ErrCategoryStore, code, message, cause)
}

func NewInternalError(message string, cause error) *LogwardError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
