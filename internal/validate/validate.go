// Package validate implements the pre-pipeline gate for uploaded files:
// size and extension limits, zip integrity, and best-effort cloud-provider
// detection.
package validate

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/logward/logward/pkg/types"
)

// DefaultMaxFileSize is the per-file byte limit (200MB).
const DefaultMaxFileSize = 200 * 1024 * 1024

// allowedExtensions are the accepted upload types. Archive members must come
// from the same set minus zip (no nested archives).
var allowedExtensions = map[string]bool{
	".json": true,
	".csv":  true,
	".log":  true,
	".txt":  true,
	".zip":  true,
}

var allowedMemberExtensions = map[string]bool{
	".json": true,
	".csv":  true,
	".log":  true,
	".txt":  true,
}

// Validator checks uploads before they enter the pipeline.
type Validator struct {
	maxSize int64
}

// NewValidator creates a validator with the given size limit.
// A non-positive limit falls back to DefaultMaxFileSize.
func NewValidator(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Validator{maxSize: maxSize}
}

// Validate checks a file for type, size, and archive safety, and attaches a
// best-effort cloud-provider hint. Detection never fails validation.
func (v *Validator) Validate(filename string, data []byte) types.ValidationResult {
	result := types.ValidationResult{
		Valid: true,
		Size:  int64(len(data)),
	}

	if int64(len(data)) > v.maxSize {
		result.Valid = false
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("file exceeds %dMB limit", v.maxSize/(1024*1024)))
		return result
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		result.Valid = false
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("extension %s not allowed", ext))
		return result
	}
	result.DetectedType = strings.TrimPrefix(ext, ".")

	if ext == ".zip" {
		members, reason := checkArchive(data)
		if reason != "" {
			result.Valid = false
			result.Reasons = append(result.Reasons, reason)
			return result
		}
		result.ArchiveMembers = members
	}

	if provider, ok := DetectProvider(result.DetectedType, data); ok {
		result.CloudType = provider
	}

	result.Reasons = append(result.Reasons, types.ReasonValidationPassed)
	return result
}

// checkArchive verifies zip integrity and member extensions. It returns the
// inner filenames on success, or a rejection reason.
func checkArchive(data []byte) ([]string, string) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "corrupted archive"
	}

	var members []string
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}

		memberExt := strings.ToLower(filepath.Ext(f.Name))
		if !allowedMemberExtensions[memberExt] {
			return nil, fmt.Sprintf("archive contains invalid file: %s", f.Name)
		}

		// Reading the full entry surfaces CRC mismatches on corrupt archives.
		rc, err := f.Open()
		if err != nil {
			return nil, "corrupted archive"
		}
		_, copyErr := io.Copy(io.Discard, rc)
		closeErr := rc.Close()
		if copyErr != nil || closeErr != nil {
			return nil, "corrupted archive"
		}

		members = append(members, f.Name)
	}

	return members, ""
}
