// Package main implements the logward server binary: the upload, index,
// search, and analytics JSON API over a shared data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/logward/logward/internal/app"
	"github.com/logward/logward/internal/config"
	"github.com/logward/logward/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		httpAddr    string
		logLevel    string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address for the API")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Logward - cloud log ingestion and search\n\n")
		fmt.Fprintf(os.Stderr, "Usage: logward [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  logward --data-dir /data/logward\n")
		fmt.Fprintf(os.Stderr, "  logward --config /etc/logward/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  LOGWARD_DATA_DIR       Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  LOGWARD_HTTP_ADDR      HTTP listen address\n")
		fmt.Fprintf(os.Stderr, "  LOGWARD_STORAGE_TYPE   Raw-upload archive backend (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  LOGWARD_S3_BUCKET      S3 bucket when using s3 storage\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("logward version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// A .env in the working directory seeds LOGWARD_* variables for local
	// development; missing files are fine.
	_ = godotenv.Load()

	cfg, err := loadConfig(configFile, dataDir, httpAddr, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(true, logging.ParseLevel(cfg.LogLevel))

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		slog.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	slog.Info("received signal", "signal", sig.String())

	if err := application.Stop(context.Background()); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// loadConfig layers file, environment, and flag configuration, flags last.
func loadConfig(configFile, dataDir, httpAddr, logLevel string) (*config.Config, error) {
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
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}
