package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidChunking = errors.New("invalid chunking configuration")
)

type Config struct {
	// Server
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`

	// Object storage (async mode requires a bucket)
	DocBucket    string `envconfig:"DOC_BUCKET"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSAccessKey string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`

	// Queue
	NSQDHost   string `envconfig:"NSQD_HOST"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`
	NSQLookupd string `envconfig:"NSQ_LOOKUPD"`

	// Vector store
	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	// Models
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gemini-2.0-flash"`

	// PDF layout analysis (optional primary provider)
	AzureDocIntelEndpoint string `envconfig:"AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT"`
	AzureDocIntelKey      string `envconfig:"AZURE_DOCUMENT_INTELLIGENCE_KEY"`

	// Job tracking database (optional)
	DBHost        string `envconfig:"DB_HOST"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"docqa"`
	DBPass        string `envconfig:"DB_PASS" default:"password"`
	DBName        string `envconfig:"DB_NAME" default:"docqa"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Chunking
	FixedChunkSize    int     `envconfig:"FIXED_CHUNK_SIZE" default:"500"`
	FixedChunkOverlap int     `envconfig:"FIXED_CHUNK_OVERLAP" default:"50"`
	ChunkSize         int     `envconfig:"CHUNK_SIZE" default:"1200"`
	MinCharsPerChunk  int     `envconfig:"MIN_CHARS_PER_CHUNK" default:"50"`
	BoundaryFraction  float64 `envconfig:"BOUNDARY_FRACTION" default:"0.2"`

	// Retrieval
	DefaultTopK int `envconfig:"DEFAULT_TOP_K" default:"3"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root.
	// Ignore errors, as env vars might be set in the shell.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.WeaviateHost == "" {
		return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
	}
	// An overlap at or above the window size would make the sliding
	// window walk backwards and never terminate.
	if c.FixedChunkOverlap >= c.FixedChunkSize {
		return fmt.Errorf("%w: FIXED_CHUNK_OVERLAP (%d) must be less than FIXED_CHUNK_SIZE (%d)",
			ErrInvalidChunking, c.FixedChunkOverlap, c.FixedChunkSize)
	}
	if c.BoundaryFraction <= 0 || c.BoundaryFraction >= 1 {
		return fmt.Errorf("%w: BOUNDARY_FRACTION must be in (0, 1)", ErrInvalidChunking)
	}
	return nil
}

// AsyncEnabled reports whether ingestion runs through the durable
// queue + object storage path. Without both, the front door processes
// documents inline.
func (c *Config) AsyncEnabled() bool {
	return c.DocBucket != "" && c.NSQDHost != ""
}

// JobTrackingEnabled reports whether ingest jobs are recorded in postgres.
func (c *Config) JobTrackingEnabled() bool {
	return c.DBHost != ""
}

// AzureConfigured reports whether the layout-analysis provider can be used.
func (c *Config) AzureConfigured() bool {
	return c.AzureDocIntelEndpoint != "" && c.AzureDocIntelKey != ""
}

// TextractConfigured reports whether managed OCR can be used as a
// fallback PDF extractor.
func (c *Config) TextractConfigured() bool {
	return c.AWSAccessKey != "" && c.AWSSecretKey != ""
}
