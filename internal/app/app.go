package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/azeez-d3v/docqa/features/ask"
	"github.com/azeez-d3v/docqa/features/document"
	"github.com/azeez-d3v/docqa/features/ingest"
	"github.com/azeez-d3v/docqa/features/job"
	"github.com/azeez-d3v/docqa/features/stats"
	"github.com/azeez-d3v/docqa/features/upload"
	s3store "github.com/azeez-d3v/docqa/internal/adapter/s3"
	"github.com/azeez-d3v/docqa/internal/config"
	"github.com/azeez-d3v/docqa/internal/extract"
	"github.com/azeez-d3v/docqa/internal/middleware"
	"github.com/azeez-d3v/docqa/internal/retrieval"
	"github.com/azeez-d3v/docqa/internal/text"
	"github.com/azeez-d3v/docqa/internal/worker"
)

// VectorStore is the full vector surface the app wires into features.
// Implemented by the weaviate adapter; faked in tests.
type VectorStore interface {
	UpsertChunks(ctx context.Context, chunks []text.Chunk, vectors [][]float32, extractionMethod string) (int, error)
	QueryByVector(ctx context.Context, vec []float32, topK int) ([]retrieval.RetrievedChunk, error)
	HasDocuments(ctx context.Context) (bool, error)
	CountChunks(ctx context.Context) (int, error)
	DeleteByDocID(ctx context.Context, docID string) (int, error)
	ListDocuments(ctx context.Context) ([]retrieval.DocumentInfo, error)
	GetDocumentContent(ctx context.Context, docID string) (*retrieval.DocumentContent, error)
}

// TaskPublisher pushes queue messages. Satisfied by *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

// Embedder covers both single-query and batch embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerGenerator produces grounded answers from retrieved context.
type AnswerGenerator interface {
	Chat(ctx context.Context, system string, history []retrieval.Message, question string) (string, error)
}

// ObjectStore is the raw-document storage surface. Implemented by the
// S3 adapter.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) (map[string]string, error)
	Delete(ctx context.Context, key string) error
	PresignPut(ctx context.Context, key, contentType string, metadata map[string]string) (string, error)
}

type App struct {
	Handler        http.Handler
	IngestConsumer *worker.IngestConsumer
	port           int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	objects ObjectStore,
	embedder Embedder,
	llm AnswerGenerator,
	extractor *extract.Extractor,
	logger *slog.Logger,
) (*App, error) {

	chunker := text.NewChunker(cfg.FixedChunkSize, cfg.FixedChunkOverlap, cfg.BoundaryFraction, cfg.ChunkSize, cfg.MinCharsPerChunk)

	// Feature: Job (status tracking is optional, keyed on the database)
	var jobService *job.Service
	if db != nil {
		jobRepo := job.NewPostgresRepo(db)
		jobService = job.NewService(jobRepo)
	}

	// Feature: Ingest
	// Typed nils must not leak into the interface fields, the service
	// nil-checks them to decide between sync and async mode.
	var ingestObjects ingest.ObjectStore
	if objects != nil {
		ingestObjects = objects
	}
	var ingestPub ingest.Publisher
	if taskPub != nil {
		ingestPub = taskPub
	}
	var jobRecorder ingest.JobRecorder
	if jobService != nil {
		jobRecorder = jobService
	}
	ingestService := ingest.NewService(ingestObjects, ingestPub, jobRecorder, embedder, vecStore, chunker)
	ingestHandler := ingest.NewHandler(ingestService)

	// Feature: Ask
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(embedder, vecStore, llm, queryLogger, cfg.DefaultTopK)
	askHandler := ask.NewHandler(retrievalService)

	// Feature: Document
	documentService := document.NewService(vecStore)
	documentHandler := document.NewHandler(documentService)

	// Feature: Upload
	var presigner upload.Presigner
	if objects != nil {
		presigner = objects
	}
	uploadHandler := upload.NewHandler(presigner, int(s3store.PresignExpiry.Seconds()))

	// Feature: Stats
	var failedJobs stats.FailedJobCounter
	if jobService != nil {
		failedJobs = jobService
	}
	statsHandler := stats.NewHandler(vecStore, failedJobs)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /ingest", middleware.CorrelationID(enableCORS(ingestHandler.Ingest)))
	mux.Handle("POST /ask", middleware.CorrelationID(enableCORS(askHandler.Ask)))
	mux.Handle("GET /upload-url", middleware.CorrelationID(enableCORS(uploadHandler.UploadURL)))

	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(documentHandler.List)))
	mux.Handle("GET /documents/{docId}/content", middleware.CorrelationID(enableCORS(documentHandler.Content)))
	mux.Handle("DELETE /documents/{docId}", middleware.CorrelationID(enableCORS(documentHandler.Delete)))

	if jobService != nil {
		jobHandler := job.NewHandler(jobService)
		mux.Handle("GET /jobs", middleware.CorrelationID(enableCORS(jobHandler.List)))
		mux.Handle("GET /jobs/{jobId}", middleware.CorrelationID(enableCORS(jobHandler.Get)))
	}

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker (Ingest Consumer)
	var consumer *worker.IngestConsumer
	if objects != nil {
		var tracker worker.JobTracker
		if jobService != nil {
			tracker = jobService
		}
		consumer = worker.NewIngestConsumer(objects, vecStore, embedder, extractor, chunker, tracker)
	}

	return &App{
		Handler:        mux,
		IngestConsumer: consumer,
		port:           cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
