package types

// CloudType is a best-effort hint about the cloud provider a log file came from.
type CloudType string

const (
	CloudAWS   CloudType = "aws"
	CloudAzure CloudType = "azure"
	CloudGCP   CloudType = "gcp"
	CloudOther CloudType = "other"

	// CloudUnknown means detection produced no hint at all.
	CloudUnknown CloudType = ""
)

// ReasonValidationPassed is appended to Reasons on every successful
// validation. Callers use it to confirm the no-reject path.
const ReasonValidationPassed = "validation passed"

// ValidationResult is the outcome of the pre-pipeline validation gate.
type ValidationResult struct {
	// Valid reports whether the file may enter the pipeline.
	Valid bool `json:"valid"`

	// Size is the raw byte length.
	Size int64 `json:"size"`

	// DetectedType is the extension without the dot (json, csv, log, txt, zip).
	DetectedType string `json:"type"`

	// CloudType is the best-effort provider hint. May be empty.
	CloudType CloudType `json:"cloud_type,omitempty"`

	// Reasons lists rejection reasons in order, or the passed marker.
	// Invariant: Valid=false implies len(Reasons) > 0.
	Reasons []string `json:"reasons"`

	// ArchiveMembers lists inner filenames when the file is a zip bundle.
	ArchiveMembers []string `json:"extracted_files,omitempty"`
}
