package worker

import (
	"context"

	"github.com/azeez-d3v/docqa/internal/extract"
	"github.com/azeez-d3v/docqa/internal/text"
)

// ObjectStore reads and cleans up raw uploads.
type ObjectStore interface {
	Bucket() string
	Get(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) (map[string]string, error)
	Delete(ctx context.Context, key string) error
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	UpsertChunks(ctx context.Context, chunks []text.Chunk, vectors [][]float32, extractionMethod string) (int, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, bucket, key, filename string, data []byte) (extract.Result, error)
}

// JobTracker records job progress. Tracking is best effort: a nil
// tracker disables it, and tracker failures never fail the job itself.
type JobTracker interface {
	MarkProcessing(ctx context.Context, jobID, docID string) error
	MarkCompleted(ctx context.Context, jobID, docID string, chunkCount int) error
	MarkFailed(ctx context.Context, jobID, docID, reason string) error
}
