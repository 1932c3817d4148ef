package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/coursegest/internal/chunker"
)

// EnvPrefix prefixes every environment variable, e.g. COURSEGEST_CHUNK_SIZE.
const EnvPrefix = "COURSEGEST"

type Config struct {
	// Chunking
	ChunkSize        int    `envconfig:"CHUNK_SIZE" default:"800" yaml:"chunk_size"`
	ChunkOverlap     int    `envconfig:"CHUNK_OVERLAP" default:"100" yaml:"chunk_overlap"`
	SentenceSplitter string `envconfig:"SENTENCE_SPLITTER" default:"rules" yaml:"sentence_splitter"`

	// Worker pool
	WorkerCount int           `envconfig:"WORKER_COUNT" default:"4" yaml:"worker_count"`
	JobTTL      time.Duration `envconfig:"JOB_TTL" default:"1h" yaml:"job_ttl"`

	// Input
	DocsDir              string `envconfig:"DOCS_DIR" default:"../docs" yaml:"docs_dir"`
	MaxDocumentBytes     int64  `envconfig:"MAX_DOCUMENT_BYTES" default:"52428800" yaml:"max_document_bytes"` // 50MB
	PDFFallbackPdftotext bool   `envconfig:"PDF_FALLBACK_PDFTOTEXT" default:"true" yaml:"pdf_fallback_pdftotext"`

	// Index service; empty URL disables it.
	IndexURL    string `envconfig:"INDEX_URL" yaml:"index_url"`
	IndexAPIKey string `envconfig:"INDEX_API_KEY" yaml:"index_api_key"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" yaml:"log_level"`
}

// Load reads .env (if present), then COURSEGEST_* environment variables,
// then the YAML file at path (if non-empty). Values set in the file win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.ChunkerConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount))
	}
	switch strings.ToLower(c.SentenceSplitter) {
	case "rules", "punkt":
	default:
		errs = append(errs, fmt.Errorf("SENTENCE_SPLITTER must be rules or punkt, got %q", c.SentenceSplitter))
	}
	if c.MaxDocumentBytes < 0 {
		errs = append(errs, fmt.Errorf("MAX_DOCUMENT_BYTES must not be negative"))
	}
	if c.IndexURL != "" && c.IndexAPIKey == "" {
		errs = append(errs, fmt.Errorf("INDEX_API_KEY is required when INDEX_URL is set"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) ChunkerConfig() chunker.Config {
	return chunker.Config{
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
	}
}

// HasIndex reports whether an index service is configured.
func (c *Config) HasIndex() bool {
	return c.IndexURL != ""
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
