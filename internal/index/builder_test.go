package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/logward/logward/internal/corpus"
	lwerrors "github.com/logward/logward/internal/errors"
	"github.com/logward/logward/internal/ledger"
	"github.com/logward/logward/pkg/types"
)

func newTestBuilder(t *testing.T) (*Builder, *corpus.Corpus, ledger.Store) {
	t.Helper()
	root := t.TempDir()

	corpusDir := filepath.Join(root, "corpus")
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		t.Fatal(err)
	}
	c := corpus.New(corpusDir)

	store, err := ledger.Open(filepath.Join(root, "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewBuilder(c, store, filepath.Join(root, "index"), Options{}), c, store
}

func seedCorpus(t *testing.T, c *corpus.Corpus) {
	t.Helper()
	events := []types.NormalizedEvent{
		{Timestamp: "2024-01-15T10:00:00Z", Level: types.LevelError, Service: "db", Message: "connection timeout reached"},
		{Timestamp: "2024-01-15T10:01:00Z", Level: types.LevelError, Service: "db", Message: "connection timeout again"},
		{Timestamp: "2024-01-15T10:02:00Z", Level: types.LevelInfo, Service: "api", Message: "request handled quickly"},
		{Timestamp: "2024-01-15T10:03:00Z", Level: types.LevelInfo, Service: "api", Message: "request handled slowly"},
		{Timestamp: "2024-01-15T10:04:00Z", Level: types.LevelInfo, Service: "api", Message: "x"},
	}
	if err := c.Write("seed.json", events); err != nil {
		t.Fatal(err)
	}
}

func TestBuildAndLoad(t *testing.T) {
	builder, c, _ := newTestBuilder(t)
	seedCorpus(t, c)

	result, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// The one-character message is skipped.
	if result.DocCount != 4 {
		t.Errorf("expected 4 documents, got %d", result.DocCount)
	}
	if result.VocabSize == 0 {
		t.Error("expected non-empty vocabulary")
	}

	artifact, err := Load(builder.Dir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(artifact.Matrix.Rows) != len(artifact.Docs) {
		t.Errorf("row count %d does not match docs %d", len(artifact.Matrix.Rows), len(artifact.Docs))
	}
	if artifact.Fingerprint != result.Fingerprint {
		t.Errorf("fingerprint mismatch: %q vs %q", artifact.Fingerprint, result.Fingerprint)
	}
	if artifact.Docs[0].Message != "connection timeout reached" {
		t.Errorf("unexpected first doc: %+v", artifact.Docs[0])
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	builder, _, _ := newTestBuilder(t)

	_, err := builder.Build(context.Background())
	if err == nil {
		t.Fatal("expected failure on empty corpus")
	}
	if lwerrors.GetCode(err) != lwerrors.CodeNoDocuments {
		t.Errorf("expected NO_DOCUMENTS, got %q", lwerrors.GetCode(err))
	}
}

func TestBuildRecordsLedgerRow(t *testing.T) {
	builder, c, store := newTestBuilder(t)
	seedCorpus(t, c)

	result, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	meta, err := store.LatestIndexMeta(context.Background())
	if err != nil {
		t.Fatalf("LatestIndexMeta failed: %v", err)
	}
	if meta == nil {
		t.Fatal("expected an index_meta row")
	}
	if meta.DocCount != int64(result.DocCount) || meta.Fingerprint != result.Fingerprint {
		t.Errorf("ledger row mismatch: %+v vs %+v", meta, result)
	}
}

func TestNeedsRebuild(t *testing.T) {
	builder, c, _ := newTestBuilder(t)
	seedCorpus(t, c)

	needed, err := builder.NeedsRebuild()
	if err != nil {
		t.Fatalf("NeedsRebuild failed: %v", err)
	}
	if !needed {
		t.Fatal("missing index must need a build")
	}

	if _, err := builder.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	needed, err = builder.NeedsRebuild()
	if err != nil {
		t.Fatalf("NeedsRebuild failed: %v", err)
	}
	if needed {
		t.Error("freshly built index must not need a rebuild")
	}

	// Growing the corpus changes the fingerprint.
	if err := c.Write("more.json", []types.NormalizedEvent{
		{Timestamp: "2024-01-15T11:00:00Z", Level: types.LevelInfo, Message: "new material arrived"},
	}); err != nil {
		t.Fatal(err)
	}
	needed, err = builder.NeedsRebuild()
	if err != nil {
		t.Fatalf("NeedsRebuild failed: %v", err)
	}
	if !needed {
		t.Error("changed corpus must need a rebuild")
	}
}

func TestRebuildReplacesIndexWholesale(t *testing.T) {
	builder, c, _ := newTestBuilder(t)
	seedCorpus(t, c)

	if _, err := builder.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	first, err := Load(builder.Dir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := c.Write("more.json", []types.NormalizedEvent{
		{Timestamp: "2024-01-15T11:00:00Z", Level: types.LevelWarn, Service: "cache", Message: "eviction storm detected"},
		{Timestamp: "2024-01-15T11:01:00Z", Level: types.LevelWarn, Service: "cache", Message: "eviction storm ongoing"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := builder.Build(context.Background()); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	second, err := Load(builder.Dir())
	if err != nil {
		t.Fatalf("Load after rebuild failed: %v", err)
	}
	if len(second.Docs) != len(first.Docs)+2 {
		t.Errorf("expected %d docs, got %d", len(first.Docs)+2, len(second.Docs))
	}
	if second.Fingerprint == first.Fingerprint {
		t.Error("fingerprint must change after corpus growth")
	}

	// The staging directory must not linger.
	if _, err := os.Stat(builder.Dir() + ".tmp"); !os.IsNotExist(err) {
		t.Error("staging directory left behind")
	}
}

func TestLoadMissingIndex(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "index"))
	if err == nil {
		t.Fatal("expected error")
	}
	if lwerrors.GetCode(err) != lwerrors.CodeIndexNotBuilt {
		t.Errorf("expected INDEX_NOT_BUILT, got %q", lwerrors.GetCode(err))
	}
}

func TestLoadCorruptArtifact(t *testing.T) {
	builder, c, _ := newTestBuilder(t)
	seedCorpus(t, c)
	if _, err := builder.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(builder.Dir(), "matrix.bin"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(builder.Dir())
	if err == nil {
		t.Fatal("expected error")
	}
	if lwerrors.GetCode(err) != lwerrors.CodeArtifactCorrupt {
		t.Errorf("expected ARTIFACT_CORRUPT, got %q", lwerrors.GetCode(err))
	}
}
