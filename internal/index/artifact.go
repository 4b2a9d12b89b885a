package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	lwerrors "github.com/logward/logward/internal/errors"
)

// Artifact file names inside the index directory. All four must be present
// for the index to count as built.
const (
	vectorizerFile  = "vectorizer.json"
	matrixFile      = "matrix.bin"
	docsFile        = "docs.json"
	fingerprintFile = "fingerprint"
)

// DocMeta is the per-document metadata stored alongside the matrix. Row i
// of the matrix describes Docs[i].
type DocMeta struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Timestamp string `json:"ts_event"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	User      string `json:"user,omitempty"`
	IP        string `json:"ip,omitempty"`
	Message   string `json:"message"`
}

// Artifact is a fully loaded index: vectorizer, matrix, document metadata
// and the corpus fingerprint it was built from.
type Artifact struct {
	Vectorizer  *Vectorizer
	Matrix      *Matrix
	Docs        []DocMeta
	Fingerprint string
	BuiltAt     time.Time
}

// Load reads all index artifacts from dir. A missing directory or missing
// artifact yields an "index not built" error; unreadable artifacts yield a
// corruption error. Loading is all or nothing.
func Load(dir string) (*Artifact, error) {
	vecData, err := readArtifact(dir, vectorizerFile)
	if err != nil {
		return nil, err
	}
	matrixData, err := readArtifact(dir, matrixFile)
	if err != nil {
		return nil, err
	}
	docsData, err := readArtifact(dir, docsFile)
	if err != nil {
		return nil, err
	}
	fpData, err := readArtifact(dir, fingerprintFile)
	if err != nil {
		return nil, err
	}

	var vectorizer Vectorizer
	if err := json.Unmarshal(vecData, &vectorizer); err != nil {
		return nil, lwerrors.Wrap(lwerrors.ErrCategoryIndex, lwerrors.CodeArtifactCorrupt, "failed to decode vectorizer", err)
	}

	matrix, err := DeserializeMatrix(matrixData)
	if err != nil {
		return nil, lwerrors.Wrap(lwerrors.ErrCategoryIndex, lwerrors.CodeArtifactCorrupt, "failed to decode matrix", err)
	}

	var docs []DocMeta
	if err := json.Unmarshal(docsData, &docs); err != nil {
		return nil, lwerrors.Wrap(lwerrors.ErrCategoryIndex, lwerrors.CodeArtifactCorrupt, "failed to decode document metadata", err)
	}

	if len(matrix.Rows) != len(docs) {
		return nil, lwerrors.NewIndexError(lwerrors.CodeArtifactCorrupt, "matrix row count does not match document metadata")
	}

	artifact := &Artifact{
		Vectorizer:  &vectorizer,
		Matrix:      matrix,
		Docs:        docs,
		Fingerprint: strings.TrimSpace(string(fpData)),
	}
	if info, err := os.Stat(filepath.Join(dir, fingerprintFile)); err == nil {
		artifact.BuiltAt = info.ModTime().UTC()
	}
	return artifact, nil
}

func readArtifact(dir, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lwerrors.NewIndexError(lwerrors.CodeIndexNotBuilt, "index not built")
		}
		return nil, lwerrors.Wrap(lwerrors.ErrCategoryIndex, lwerrors.CodeArtifactCorrupt, "failed to read "+name, err)
	}
	return data, nil
}
