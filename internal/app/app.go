// Package app provides the unified application lifecycle for Logward.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	httpapi "github.com/logward/logward/internal/api/http"
	"github.com/logward/logward/internal/config"
	"github.com/logward/logward/internal/corpus"
	"github.com/logward/logward/internal/index"
	"github.com/logward/logward/internal/ledger"
	"github.com/logward/logward/internal/pipeline"
	"github.com/logward/logward/internal/search"
	"github.com/logward/logward/internal/storage"
)

// App wires the shared resources behind the Logward API service.
type App struct {
	cfg *config.Config

	// Shared resources
	store    ledger.Store
	corpus   *corpus.Corpus
	archive  storage.ObjectStorage
	pipeline *pipeline.Pipeline
	builder  *index.Builder
	engine   *search.Engine

	httpServer *http.Server

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an App with the given configuration. Paths are resolved and
// the data directories created before anything is opened.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	return &App{cfg: cfg}, nil
}

// Start initializes shared resources and starts the API server.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.initSharedResources(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to initialize shared resources: %w", err)
	}

	server := httpapi.NewServer(a.cfg, a.store, a.pipeline, a.builder, a.engine)
	a.httpServer = &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		slog.Info("api server listening", "addr", a.cfg.HTTP.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
		}
	}()

	slog.Info("logward started", "data_dir", a.cfg.DataDir, "storage", a.cfg.Storage.Type)
	return nil
}

// initSharedResources opens the ledger, corpus, archive storage, and the
// index machinery in dependency order.
func (a *App) initSharedResources(ctx context.Context) error {
	var err error

	switch a.cfg.Storage.Type {
	case "local":
		a.archive, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case "s3":
		a.archive, err = storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, storage.S3Config{
			Region:   a.cfg.Storage.S3.Region,
			Endpoint: a.cfg.Storage.S3.Endpoint,
		})
	default:
		return fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize archive storage: %w", err)
	}
	slog.Info("archive storage initialized", "type", a.cfg.Storage.Type)

	a.store, err = ledger.Open(a.cfg.LedgerPath())
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	slog.Info("ledger opened", "path", a.cfg.LedgerPath())

	a.corpus = corpus.New(a.cfg.Ingest.ProcessedDir)

	a.pipeline = pipeline.New(a.cfg, a.store, a.corpus, a.archive)
	a.builder = index.NewBuilder(a.corpus, a.store, a.cfg.Index.Dir, index.Options{
		MaxFeatures: a.cfg.Index.MaxFeatures,
		MinDocFreq:  a.cfg.Index.MinDocFreq,
		MaxDocRatio: a.cfg.Index.MaxDocRatio,
	})
	a.engine = search.NewEngine(a.cfg.Index.Dir, a.cfg.Search.MinScore)

	return nil
}

// Stop gracefully stops the API server and releases resources.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	slog.Info("initiating graceful shutdown")

	if a.cancel != nil {
		a.cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("api server shutdown error", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		slog.Warn("shutdown timeout, some goroutines may not have finished")
	}

	a.cleanup()

	slog.Info("logward stopped")
	return nil
}

func (a *App) cleanup() {
	if a.store != nil {
		a.store.Close()
	}
}
