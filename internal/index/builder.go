package index

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/logward/logward/internal/corpus"
	lwerrors "github.com/logward/logward/internal/errors"
	"github.com/logward/logward/internal/ledger"
	"github.com/logward/logward/pkg/types"
)

// minDocLength is the shortest message that becomes an indexed document.
const minDocLength = 3

// BuildResult summarizes one completed index build.
type BuildResult struct {
	DocCount    int
	VocabSize   int
	Fingerprint string
	BuiltAt     time.Time
	Duration    time.Duration
}

// Builder rebuilds the index wholesale from the corpus and swaps the new
// artifacts into place atomically.
type Builder struct {
	corpus *corpus.Corpus
	store  ledger.Store
	dir    string
	opts   Options
}

// NewBuilder returns a builder writing artifacts to dir.
func NewBuilder(c *corpus.Corpus, store ledger.Store, dir string, opts Options) *Builder {
	return &Builder{corpus: c, store: store, dir: dir, opts: opts}
}

// Dir returns the index directory.
func (b *Builder) Dir() string {
	return b.dir
}

// NeedsRebuild reports whether the corpus has changed since the last build.
// A missing index always needs a build.
func (b *Builder) NeedsRebuild() (bool, error) {
	current, err := b.corpus.Fingerprint()
	if err != nil {
		return false, err
	}

	stored, err := os.ReadFile(filepath.Join(b.dir, fingerprintFile))
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, lwerrors.Wrap(lwerrors.ErrCategoryIndex, lwerrors.CodeArtifactCorrupt, "failed to read stored fingerprint", err)
	}
	return strings.TrimSpace(string(stored)) != current, nil
}

// Build scans the whole corpus, fits the vectorizer, vectorizes every
// document and replaces the index directory in one atomic swap. The old
// index stays readable until the swap.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()

	fingerprint, err := b.corpus.Fingerprint()
	if err != nil {
		return nil, err
	}

	var docs []string
	var metas []DocMeta
	err = b.corpus.Scan(func(file string, line int, event types.NormalizedEvent) error {
		message := strings.TrimSpace(event.Message)
		if len(message) < minDocLength {
			return nil
		}
		docs = append(docs, message)
		metas = append(metas, DocMeta{
			File:      file,
			Line:      line,
			Timestamp: event.Timestamp,
			Level:     event.Level,
			Service:   event.Service,
			User:      event.User,
			IP:        event.IP,
			Message:   event.Message,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, lwerrors.NewIndexError(lwerrors.CodeNoDocuments, "no documents to index")
	}

	vectorizer, ok := Fit(docs, b.opts)
	if !ok {
		return nil, lwerrors.NewIndexError(lwerrors.CodeNoDocuments, "no documents to index")
	}

	matrix := &Matrix{Rows: make([][]Term, len(docs))}
	for i, doc := range docs {
		// Rows with no in-vocabulary token stay empty; they can never match.
		matrix.Rows[i], _ = vectorizer.Transform(doc)
	}

	if err := b.writeArtifacts(vectorizer, matrix, metas, fingerprint); err != nil {
		return nil, err
	}

	result := &BuildResult{
		DocCount:    len(docs),
		VocabSize:   len(vectorizer.Vocabulary),
		Fingerprint: fingerprint,
		BuiltAt:     time.Now().UTC(),
		Duration:    time.Since(start),
	}

	if err := b.store.RecordIndexBuild(ctx, int64(result.DocCount), int64(result.VocabSize), fingerprint); err != nil {
		return nil, err
	}

	slog.Info("index build complete",
		"docs", result.DocCount,
		"vocab", result.VocabSize,
		"duration", result.Duration)
	return result, nil
}

// writeArtifacts stages all four artifacts in a sibling temp directory and
// swaps it in with renames, so readers never see a partial index.
func (b *Builder) writeArtifacts(v *Vectorizer, m *Matrix, docs []DocMeta, fingerprint string) error {
	tmp := b.dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to clear staging directory", err)
	}
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to create staging directory", err)
	}

	vecData, err := json.Marshal(v)
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to encode vectorizer", err)
	}
	docsData, err := json.Marshal(docs)
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to encode document metadata", err)
	}

	writes := map[string][]byte{
		vectorizerFile:  vecData,
		matrixFile:      m.Serialize(),
		docsFile:        docsData,
		fingerprintFile: []byte(fingerprint + "\n"),
	}
	for name, data := range writes {
		if err := os.WriteFile(filepath.Join(tmp, name), data, 0o644); err != nil {
			return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to write "+name, err)
		}
	}

	old := b.dir + ".old"
	if err := os.RemoveAll(old); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to clear previous index", err)
	}
	if _, err := os.Stat(b.dir); err == nil {
		if err := os.Rename(b.dir, old); err != nil {
			return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to retire current index", err)
		}
	}
	if err := os.Rename(tmp, b.dir); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to activate new index", err)
	}
	os.RemoveAll(old)
	return nil
}
