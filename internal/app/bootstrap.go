package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/azeez-d3v/docqa/internal/adapter/azuredi"
	"github.com/azeez-d3v/docqa/internal/adapter/gemini"
	s3store "github.com/azeez-d3v/docqa/internal/adapter/s3"
	"github.com/azeez-d3v/docqa/internal/adapter/textract"
	wstore "github.com/azeez-d3v/docqa/internal/adapter/weaviate"
	"github.com/azeez-d3v/docqa/internal/config"
	"github.com/azeez-d3v/docqa/internal/extract"
	"github.com/azeez-d3v/docqa/internal/vector"
)

// Dependencies holds everything external the app talks to. Optional
// subsystems are nil when their configuration is absent.
type Dependencies struct {
	DB          *sql.DB
	VectorStore *wstore.Store
	NSQProducer *nsq.Producer
	Objects     *s3store.Store
	Embedder    *gemini.Embedder
	LLM         *gemini.LLM
	Extractor   *extract.Extractor
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	// Job tracking database (optional)
	var db *sql.DB
	if cfg.JobTrackingEnabled() {
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}

		for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
			if err := db.Ping(); err == nil {
				break
			}
			slog.Warn("failed to ping db, retrying...", "attempt", i+1)
			time.Sleep(retryDelay)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping db: %w", err)
		}

		driver, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("migration driver error: %w", err)
		}
		m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("migration instance error: %w", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return nil, fmt.Errorf("migration up error: %w", err)
		}
		slog.Info("migrations applied")
	}

	// Weaviate
	wCfg := weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme}
	wClient, err := weaviate.NewClient(wCfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate client error: %w", err)
	}

	if err := ensureSchemaWithRetry(ctx, wClient, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return nil, fmt.Errorf("weaviate schema error: %w", err)
	}
	vecStore := wstore.NewStore(wClient)

	// Gemini
	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("embedder error: %w", err)
	}
	llm, err := gemini.NewLLM(ctx, cfg.GeminiAPIKey, cfg.ChatModel)
	if err != nil {
		return nil, fmt.Errorf("llm error: %w", err)
	}

	// Object storage (optional, required for async ingestion and uploads)
	var objects *s3store.Store
	if cfg.DocBucket != "" {
		objects, err = s3store.New(ctx, cfg.AWSRegion, cfg.DocBucket, cfg.AWSAccessKey, cfg.AWSSecretKey)
		if err != nil {
			return nil, fmt.Errorf("object store error: %w", err)
		}
	}

	// NSQ producer (optional)
	var producer *nsq.Producer
	if cfg.AsyncEnabled() {
		nsqCfg := nsq.NewConfig()
		producer, err = nsq.NewProducer(cfg.NSQDHost, nsqCfg)
		if err != nil {
			return nil, fmt.Errorf("nsq producer error: %w", err)
		}
		createTopics(cfg.NSQDHTTP)
	}

	// Extraction chain providers
	var layout extract.LayoutAnalyzer
	if cfg.AzureConfigured() {
		layout = azuredi.NewClient(cfg.AzureDocIntelEndpoint, cfg.AzureDocIntelKey)
	}
	var ocr extract.TextDetector
	if cfg.TextractConfigured() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("aws config error: %w", err)
		}
		ocr = textract.NewClient(awsCfg)
	}
	extractor := extract.NewExtractor(layout, ocr, slog.Default())

	return &Dependencies{
		DB:          db,
		VectorStore: vecStore,
		NSQProducer: producer,
		Objects:     objects,
		Embedder:    embedder,
		LLM:         llm,
		Extractor:   extractor,
	}, nil
}

// createTopics pre-creates queue topics so the consumer does not 404
// against lookupd before the first publish.
func createTopics(nsqdHTTP string) {
	go func() {
		time.Sleep(2 * time.Second)
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, config.TopicIngestDoc)
		resp, err := http.Post(url, "application/json", nil) // #nosec G107 -- URL is built from internal NSQ config, not user input
		if err != nil {
			slog.Warn("failed to create NSQ topic", "topic", config.TopicIngestDoc, "error", err)
			return
		}
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close NSQ topic creation response body", "error", closeErr)
		}
	}()
}

func ensureSchemaWithRetry(ctx context.Context, client *weaviate.Client, attempts int, delay time.Duration) error {
	adapter := vector.NewWeaviateClientAdapter(client)

	var err error
	for i := 0; i < attempts; i++ {
		if err = vector.EnsureSchema(ctx, adapter); err == nil {
			return nil
		}
		slog.Warn("failed to ensure vector schema, retrying...", "attempt", i+1, "error", err)
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
