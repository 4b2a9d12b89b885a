// Package config provides unified configuration for the Logward services.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the unified configuration for Logward.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// LogLevel controls slog verbosity: debug, info, warn, error
	LogLevel string `json:"log_level" yaml:"log_level"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Ingest pipeline configuration
	Ingest IngestConfig `json:"ingest" yaml:"ingest"`

	// Index builder configuration
	Index IndexConfig `json:"index" yaml:"index"`

	// Search engine configuration
	Search SearchConfig `json:"search" yaml:"search"`

	// Storage configuration for raw-upload archival
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the listen address for the JSON API
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// IngestConfig holds ingestion pipeline configuration.
type IngestConfig struct {
	// RawDir is where accepted raw uploads are kept
	RawDir string `json:"raw_dir" yaml:"raw_dir"`

	// ProcessedDir is where per-file JSONL event streams are written
	ProcessedDir string `json:"processed_dir" yaml:"processed_dir"`

	// IncomingDir is scanned by the batch-ingest binary
	IncomingDir string `json:"incoming_dir" yaml:"incoming_dir"`

	// MaxUploadSize is the per-file byte limit (default 200MB)
	MaxUploadSize int64 `json:"max_upload_size" yaml:"max_upload_size"`

	// NoisePatterns are dropped from the event stream by substring match
	NoisePatterns []string `json:"noise_patterns" yaml:"noise_patterns"`

	// NoisePatternsFile optionally extends NoisePatterns, one per line
	NoisePatternsFile string `json:"noise_patterns_file" yaml:"noise_patterns_file"`

	// Sampling bounds event volume for pathologically large files
	Sampling SamplingConfig `json:"sampling" yaml:"sampling"`
}

// SamplingConfig controls the uniform random sampler.
type SamplingConfig struct {
	// Enabled turns sampling on
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Threshold is the event count above which a file is sampled down
	Threshold int `json:"threshold" yaml:"threshold"`

	// Seed makes sampling reproducible when non-zero.
	// The default (0) seeds from the clock, so sampled output is
	// non-deterministic across runs.
	Seed int64 `json:"seed" yaml:"seed"`
}

// IndexConfig holds TF-IDF index builder configuration.
type IndexConfig struct {
	// Dir is the index artifact directory
	Dir string `json:"dir" yaml:"dir"`

	// MaxFeatures caps the vocabulary size
	MaxFeatures int `json:"max_features" yaml:"max_features"`

	// MinDocFreq drops terms appearing in fewer documents
	MinDocFreq int `json:"min_doc_freq" yaml:"min_doc_freq"`

	// MaxDocRatio drops terms appearing in more than this fraction of documents
	MaxDocRatio float64 `json:"max_doc_ratio" yaml:"max_doc_ratio"`
}

// SearchConfig holds search engine configuration.
type SearchConfig struct {
	// ResultLimit is the default top-N for searches
	ResultLimit int `json:"result_limit" yaml:"result_limit"`

	// MinScore excludes near-zero cosine matches
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "./data/logward",
		LogLevel: "info",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Ingest: IngestConfig{
			MaxUploadSize: 200 * 1024 * 1024,
			NoisePatterns: []string{
				"health check",
				"heartbeat",
				"ping",
				"keep-alive",
			},
			Sampling: SamplingConfig{
				Enabled:   true,
				Threshold: 100000,
			},
		},
		Index: IndexConfig{
			MaxFeatures: 5000,
			MinDocFreq:  2,
			MaxDocRatio: 0.8,
		},
		Search: SearchConfig{
			ResultLimit: 50,
			MinScore:    0.01,
		},
		Storage: StorageConfig{
			Type: "local",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/logward"
	}

	if c.Ingest.RawDir == "" {
		c.Ingest.RawDir = filepath.Join(c.DataDir, "raw")
	}
	if c.Ingest.ProcessedDir == "" {
		c.Ingest.ProcessedDir = filepath.Join(c.DataDir, "processed")
	}
	if c.Ingest.IncomingDir == "" {
		c.Ingest.IncomingDir = filepath.Join(c.DataDir, "incoming")
	}
	if c.Ingest.NoisePatternsFile == "" {
		c.Ingest.NoisePatternsFile = filepath.Join(c.DataDir, "noise_patterns.txt")
	}
	if c.Index.Dir == "" {
		c.Index.Dir = filepath.Join(c.DataDir, "index")
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
}

// LedgerPath returns the path to the ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Ingest.MaxUploadSize <= 0 {
		return fmt.Errorf("ingest.max_upload_size must be positive, got %d", c.Ingest.MaxUploadSize)
	}

	if c.Ingest.Sampling.Enabled && c.Ingest.Sampling.Threshold <= 0 {
		return fmt.Errorf("ingest.sampling.threshold must be positive when sampling is enabled")
	}

	if c.Index.MaxFeatures <= 0 {
		return fmt.Errorf("index.max_features must be positive, got %d", c.Index.MaxFeatures)
	}
	if c.Index.MinDocFreq < 1 {
		return fmt.Errorf("index.min_doc_freq must be at least 1, got %d", c.Index.MinDocFreq)
	}
	if c.Index.MaxDocRatio <= 0 || c.Index.MaxDocRatio > 1 {
		return fmt.Errorf("index.max_doc_ratio must be in (0, 1], got %v", c.Index.MaxDocRatio)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the LOGWARD_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("LOGWARD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LOGWARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// HTTP configuration
	if v := os.Getenv("LOGWARD_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	// Ingest configuration
	if v := os.Getenv("LOGWARD_INCOMING_DIR"); v != "" {
		cfg.Ingest.IncomingDir = v
	}
	if v := os.Getenv("LOGWARD_MAX_UPLOAD_SIZE"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Ingest.MaxUploadSize)
	}
	if v := os.Getenv("LOGWARD_SAMPLING_ENABLED"); v != "" {
		cfg.Ingest.Sampling.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("LOGWARD_SAMPLING_THRESHOLD"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Ingest.Sampling.Threshold)
	}
	if v := os.Getenv("LOGWARD_SAMPLING_SEED"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Ingest.Sampling.Seed)
	}

	// Index configuration
	if v := os.Getenv("LOGWARD_INDEX_MAX_FEATURES"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Index.MaxFeatures)
	}

	// Search configuration
	if v := os.Getenv("LOGWARD_SEARCH_RESULT_LIMIT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Search.ResultLimit)
	}

	// Storage configuration
	if v := os.Getenv("LOGWARD_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("LOGWARD_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LOGWARD_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("LOGWARD_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("LOGWARD_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// LoadNoisePatterns extends the configured noise patterns with the contents
// of NoisePatternsFile, one pattern per line, if the file exists.
func (c *Config) LoadNoisePatterns() []string {
	patterns := append([]string(nil), c.Ingest.NoisePatterns...)

	data, err := os.ReadFile(c.Ingest.NoisePatternsFile)
	if err != nil {
		return patterns
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Ingest.RawDir,
		c.Ingest.ProcessedDir,
		c.Ingest.IncomingDir,
		c.Index.Dir,
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
