// Package main implements the logward-ingest batch binary. It runs every
// file in the incoming directory through the ingestion pipeline, then
// optionally rebuilds the search index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/logward/logward/internal/config"
	"github.com/logward/logward/internal/corpus"
	"github.com/logward/logward/internal/index"
	"github.com/logward/logward/internal/ledger"
	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/pipeline"
	"github.com/logward/logward/internal/storage"
	"github.com/logward/logward/pkg/types"
)

func main() {
	var (
		configFile  string
		dataDir     string
		incomingDir string
		logLevel    string
		buildIndex  bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&incomingDir, "incoming", "", "Directory of log files to ingest")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&buildIndex, "build-index", true, "Rebuild the search index after ingesting")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "logward-ingest - batch log ingestion\n\n")
		fmt.Fprintf(os.Stderr, "Usage: logward-ingest [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  logward-ingest --data-dir /data/logward --incoming /var/log/exports\n")
	}

	flag.Parse()

	_ = godotenv.Load()

	cfg, err := loadConfig(configFile, dataDir, incomingDir, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(false, logging.ParseLevel(cfg.LogLevel))

	if err := run(context.Background(), cfg, buildIndex); err != nil {
		slog.Error("ingest run failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(configFile, dataDir, incomingDir, logLevel string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if incomingDir != "" {
		cfg.Ingest.IncomingDir = incomingDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, buildIndex bool) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	var archive storage.ObjectStorage
	var err error
	switch cfg.Storage.Type {
	case "local":
		archive, err = storage.NewLocalStorage(cfg.Storage.Path)
	case "s3":
		archive, err = storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:   cfg.Storage.S3.Region,
			Endpoint: cfg.Storage.S3.Endpoint,
		})
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize archive storage: %w", err)
	}

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer store.Close()

	c := corpus.New(cfg.Ingest.ProcessedDir)
	p := pipeline.New(cfg, store, c, archive)

	entries, err := os.ReadDir(cfg.Ingest.IncomingDir)
	if err != nil {
		return fmt.Errorf("failed to read incoming directory: %w", err)
	}

	var processed, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(cfg.Ingest.IncomingDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("failed to read file", "path", path, "error", err)
			failed++
			continue
		}

		record, err := p.Process(ctx, types.RawUpload{Filename: entry.Name(), Data: data})
		if err != nil {
			// One bad file never stops the batch.
			slog.Error("ingest failed", "file", entry.Name(), "error", err)
			failed++
			continue
		}
		slog.Info("ingested",
			"file", record.Filename,
			"uid", record.UID,
			"events", record.EventCount,
			"cloud", record.CloudType)
		processed++
	}

	slog.Info("batch complete", "processed", processed, "failed", failed)

	if !buildIndex || processed == 0 {
		return nil
	}

	builder := index.NewBuilder(c, store, cfg.Index.Dir, index.Options{
		MaxFeatures: cfg.Index.MaxFeatures,
		MinDocFreq:  cfg.Index.MinDocFreq,
		MaxDocRatio: cfg.Index.MaxDocRatio,
	})
	result, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	slog.Info("index rebuilt",
		"docs", result.DocCount,
		"vocab", result.VocabSize,
		"duration", result.Duration)
	return nil
}
