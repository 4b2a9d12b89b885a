// Package pipeline orchestrates the per-file ingestion flow: validation,
// archive expansion, parsing, filtering, and persistence. Files are
// processed one at a time; a failing file is isolated in its own error
// record and never aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/logward/logward/internal/archive"
	"github.com/logward/logward/internal/config"
	"github.com/logward/logward/internal/corpus"
	lwerrors "github.com/logward/logward/internal/errors"
	"github.com/logward/logward/internal/filter"
	"github.com/logward/logward/internal/ledger"
	"github.com/logward/logward/internal/parse"
	"github.com/logward/logward/internal/storage"
	"github.com/logward/logward/internal/validate"
	"github.com/logward/logward/pkg/types"
)

// Pipeline processes raw uploads end to end.
type Pipeline struct {
	store     ledger.Store
	corpus    *corpus.Corpus
	archive   storage.ObjectStorage
	validator *validate.Validator
	sampler   *filter.Sampler
	patterns  []string
	sampling  bool
	logger    *slog.Logger

	// mu serializes Process: files go through one at a time. The sampler's
	// rand source and the corpus files are not safe for concurrent use.
	mu sync.Mutex
}

// New wires a pipeline from its parts. archiveStore may be nil to disable
// raw-upload archival.
func New(cfg *config.Config, store ledger.Store, c *corpus.Corpus, archiveStore storage.ObjectStorage) *Pipeline {
	return &Pipeline{
		store:     store,
		corpus:    c,
		archive:   archiveStore,
		validator: validate.NewValidator(cfg.Ingest.MaxUploadSize),
		sampler:   filter.NewSampler(cfg.Ingest.Sampling.Threshold, cfg.Ingest.Sampling.Seed),
		patterns:  cfg.LoadNoisePatterns(),
		sampling:  cfg.Ingest.Sampling.Enabled,
		logger:    slog.Default().With("component", "pipeline"),
	}
}

// Process runs one upload through the pipeline. Concurrent callers are
// serialized. The returned file record reflects the final status; the
// error is non-nil whenever that status is not "processed". Rejected
// uploads are recorded so the failure is auditable.
func (p *Pipeline) Process(ctx context.Context, upload types.RawUpload) (*types.FileRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ingestTime := time.Now().UTC()

	result := p.validator.Validate(upload.Filename, upload.Data)

	record, err := p.store.RecordFile(ctx, upload.Filename, int64(len(upload.Data)), result.DetectedType, result.CloudType)
	if err != nil {
		return nil, err
	}

	if !result.Valid {
		reason := strings.Join(result.Reasons, "; ")
		if err := p.store.UpdateFileStatus(ctx, record.UID, types.StatusError, reason, 0); err != nil {
			return record, err
		}
		record.Status = types.StatusError
		record.ErrorMessage = reason
		p.logger.Warn("upload rejected", "file", upload.Filename, "reason", reason)
		return record, lwerrors.NewValidationError(rejectionCode(reason), reason)
	}

	if err := p.archiveRaw(ctx, record, upload); err != nil {
		return p.fail(ctx, record, err)
	}

	events, err := p.extractEvents(upload, result, ingestTime)
	if err != nil {
		return p.fail(ctx, record, err)
	}

	events = filter.Drop(events, p.patterns)
	if p.sampling {
		events = p.sampler.Sample(events)
	}

	if err := p.corpus.Write(upload.Filename, events); err != nil {
		return p.fail(ctx, record, err)
	}
	if err := p.store.AppendEvents(ctx, record.UID, events); err != nil {
		return p.fail(ctx, record, err)
	}

	if err := p.store.UpdateFileStatus(ctx, record.UID, types.StatusProcessed, "", int64(len(events))); err != nil {
		return record, err
	}
	record.Status = types.StatusProcessed
	record.EventCount = int64(len(events))

	p.logger.Info("file processed",
		"file", upload.Filename,
		"type", result.DetectedType,
		"cloud", string(result.CloudType),
		"events", len(events))
	return record, nil
}

// extractEvents parses the upload into normalized events, expanding zip
// archives member by member. Invalid members are logged and excluded.
func (p *Pipeline) extractEvents(upload types.RawUpload, result types.ValidationResult, ingestTime time.Time) ([]types.NormalizedEvent, error) {
	if result.DetectedType != "zip" {
		return parse.Parse(result.DetectedType, upload.Data, upload.Filename, ingestTime), nil
	}

	members, err := archive.Expand(upload.Data)
	if err != nil {
		return nil, err
	}

	var events []types.NormalizedEvent
	for _, member := range members {
		memberResult := p.validator.Validate(member.Name, member.Data)
		if !memberResult.Valid || memberResult.DetectedType == "zip" {
			p.logger.Warn("archive member excluded",
				"archive", upload.Filename,
				"member", member.Name,
				"reason", strings.Join(memberResult.Reasons, "; "))
			continue
		}
		events = append(events, parse.Parse(memberResult.DetectedType, member.Data, member.Name, ingestTime)...)
	}
	return events, nil
}

// archiveRaw stores the original upload bytes before any transformation.
func (p *Pipeline) archiveRaw(ctx context.Context, record *types.FileRecord, upload types.RawUpload) error {
	if p.archive == nil {
		return nil
	}
	objectPath := fmt.Sprintf("raw/%s/%s", record.UID, upload.Filename)
	if err := p.archive.Put(ctx, objectPath, upload.Data); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to archive raw upload", err)
	}
	return nil
}

// rejectionCode maps a validation reason onto its error code.
func rejectionCode(reason string) string {
	switch {
	case strings.Contains(reason, "limit"):
		return lwerrors.CodeSizeLimitExceeded
	case strings.Contains(reason, "corrupted archive"):
		return lwerrors.CodeCorruptedArchive
	case strings.Contains(reason, "invalid file"):
		return lwerrors.CodeInvalidMember
	default:
		return lwerrors.CodeExtensionNotAllowed
	}
}

// fail transitions the file record to error and passes the cause through.
func (p *Pipeline) fail(ctx context.Context, record *types.FileRecord, cause error) (*types.FileRecord, error) {
	record.Status = types.StatusError
	record.ErrorMessage = cause.Error()
	if err := p.store.UpdateFileStatus(ctx, record.UID, types.StatusError, cause.Error(), 0); err != nil {
		p.logger.Error("failed to mark file as errored", "file", record.Filename, "error", err)
	}
	p.logger.Error("file processing failed", "file", record.Filename, "error", cause)
	return record, cause
}
