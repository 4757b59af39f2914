// Package ingest accepts documents over HTTP and either queues them
// for background processing or, when no queue is configured, indexes
// them inline.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/azeez-d3v/docqa/internal/config"
	"github.com/azeez-d3v/docqa/internal/middleware"
	"github.com/azeez-d3v/docqa/internal/text"
	"github.com/azeez-d3v/docqa/internal/worker"
)

type Publisher interface {
	Publish(topic string, body []byte) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	UpsertChunks(ctx context.Context, chunks []text.Chunk, vectors [][]float32, extractionMethod string) (int, error)
}

// JobRecorder registers queued documents for status tracking.
type JobRecorder interface {
	Enqueue(ctx context.Context, jobID, docID, title, strategy string) error
}

// Document is one unit of content in an ingest request.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AsyncResult reports what was queued.
type AsyncResult struct {
	JobID           string `json:"jobId"`
	DocumentsQueued int    `json:"documentsQueued"`
}

// SyncResult reports what was indexed inline.
type SyncResult struct {
	IngestedDocuments int `json:"ingestedDocuments"`
	IngestedChunks    int `json:"ingestedChunks"`
}

type Service struct {
	objects   ObjectStore
	publisher Publisher
	jobs      JobRecorder
	embedder  Embedder
	vectors   VectorStore
	chunker   *text.Chunker
}

func NewService(objects ObjectStore, publisher Publisher, jobs JobRecorder, embedder Embedder, vectors VectorStore, chunker *text.Chunker) *Service {
	return &Service{
		objects:   objects,
		publisher: publisher,
		jobs:      jobs,
		embedder:  embedder,
		vectors:   vectors,
		chunker:   chunker,
	}
}

// AsyncEnabled reports whether this service can queue work instead of
// processing it inline.
func (s *Service) AsyncEnabled() bool {
	return s.objects != nil && s.publisher != nil
}

// IngestAsync stages each document in object storage and publishes one
// queue message per document, all under a single job ID. Documents are
// staged concurrently; the first failure cancels the rest.
func (s *Service) IngestAsync(ctx context.Context, docs []Document, strategy text.Strategy) (*AsyncResult, error) {
	jobID := uuid.New().String()
	correlationID := middleware.GetCorrelationID(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, doc := range docs {
		g.Go(func() error {
			key := fmt.Sprintf("ingest/%s/%s.txt", jobID, doc.ID)

			if err := s.objects.Put(gctx, key, []byte(doc.Content), "text/plain", nil); err != nil {
				return fmt.Errorf("stage document %s: %w", doc.ID, err)
			}

			if s.jobs != nil {
				if err := s.jobs.Enqueue(gctx, jobID, doc.ID, doc.Title, string(strategy)); err != nil {
					slog.WarnContext(gctx, "failed to record queued document", "doc_id", doc.ID, "error", err)
				}
			}

			msg, err := json.Marshal(worker.IngestJob{
				JobID:            jobID,
				S3Key:            key,
				Document:         worker.DocumentRef{ID: doc.ID, Title: doc.Title},
				ChunkingStrategy: string(strategy),
				CorrelationID:    correlationID,
			})
			if err != nil {
				return fmt.Errorf("marshal job for %s: %w", doc.ID, err)
			}
			if err := s.publisher.Publish(config.TopicIngestDoc, msg); err != nil {
				return fmt.Errorf("publish job for %s: %w", doc.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &AsyncResult{JobID: jobID, DocumentsQueued: len(docs)}, nil
}

// IngestSync chunks, embeds, and indexes the documents inline. Content
// arrives pre-extracted in the request body, so no extraction chain
// runs here.
func (s *Service) IngestSync(ctx context.Context, docs []Document, strategy text.Strategy) (*SyncResult, error) {
	var all []text.Chunk
	for _, doc := range docs {
		chunks, err := s.chunker.ChunkDocument(text.Document{ID: doc.ID, Title: doc.Title, Content: doc.Content}, strategy)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
		}
		all = append(all, chunks...)
	}

	if len(all) == 0 {
		return &SyncResult{IngestedDocuments: len(docs), IngestedChunks: 0}, nil
	}

	texts := make([]string, len(all))
	for i, c := range all {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	n, err := s.vectors.UpsertChunks(ctx, all, vectors, "text")
	if err != nil {
		return nil, fmt.Errorf("upsert chunks: %w", err)
	}

	return &SyncResult{IngestedDocuments: len(docs), IngestedChunks: n}, nil
}
