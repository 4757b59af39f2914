package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nsqio/go-nsq"

	"github.com/azeez-d3v/docqa/internal/docid"
	"github.com/azeez-d3v/docqa/internal/extract"
	"github.com/azeez-d3v/docqa/internal/middleware"
	"github.com/azeez-d3v/docqa/internal/text"
)

// Metadata keys attached to uploaded objects.
const (
	metaDocID            = "doc-id"
	metaDocTitle         = "doc-title"
	metaChunkingStrategy = "chunking-strategy"
	metaOriginalFilename = "original-filename"
)

// IngestConsumer processes one document per queue message: fetch the
// raw object, extract text, chunk, embed, upsert, clean up. Returning
// an error requeues the message, so every step either succeeds or
// leaves the message eligible for redelivery. The pipeline is
// idempotent end to end because chunk IDs are deterministic.
type IngestConsumer struct {
	objects   ObjectStore
	vectors   VectorStore
	embedder  Embedder
	extractor TextExtractor
	chunker   *text.Chunker
	jobs      JobTracker
}

func NewIngestConsumer(objects ObjectStore, vectors VectorStore, embedder Embedder, extractor TextExtractor, chunker *text.Chunker, jobs JobTracker) *IngestConsumer {
	return &IngestConsumer{
		objects:   objects,
		vectors:   vectors,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker,
		jobs:      jobs,
	}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	ctx := context.Background()

	if event, ok := IsStorageEvent(m.Body); ok {
		return h.handleStorageEvent(ctx, event)
	}

	var job IngestJob
	if err := unmarshalJob(m.Body, &job); err != nil {
		// Requeue rather than drop: a malformed body usually means a
		// publisher bug, and the message is the only evidence.
		slog.Error("invalid ingest job body", "error", err)
		return err
	}

	if job.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, job.CorrelationID)
	}

	slog.InfoContext(ctx, "processing ingest job", "job_id", job.JobID, "doc_id", job.Document.ID, "s3_key", job.S3Key)
	strategy := text.ParseStrategy(job.ChunkingStrategy)
	return h.processDocument(ctx, job.JobID, job.S3Key, job.Document.ID, job.Document.Title, strategy)
}

// handleStorageEvent ingests files uploaded straight to the bucket via
// presigned URLs. Document identity comes from the object metadata the
// upload endpoint attached, with the key itself as fallback.
func (h *IngestConsumer) handleStorageEvent(ctx context.Context, event *StorageEvent) error {
	for _, record := range event.Records {
		key := decodeStorageKey(record.S3.Object.Key)
		slog.InfoContext(ctx, "processing storage event", "bucket", record.S3.Bucket.Name, "key", key)

		if !docid.Allowed(key) {
			slog.WarnContext(ctx, "skipping unsupported file type", "key", key)
			continue
		}

		docID, title, strategy := h.documentMetadata(ctx, key)
		if err := h.processDocument(ctx, "", key, docID, title, strategy); err != nil {
			return err
		}
	}
	return nil
}

func (h *IngestConsumer) documentMetadata(ctx context.Context, key string) (docID, title string, strategy text.Strategy) {
	meta, err := h.objects.Head(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "could not read object metadata, deriving from key", "key", key, "error", err)
		meta = nil
	}

	strategy = text.ParseStrategy(meta[metaChunkingStrategy])
	if meta[metaDocID] != "" && meta[metaDocTitle] != "" {
		return meta[metaDocID], meta[metaDocTitle], strategy
	}

	docID, title = docid.ParseFilename(key)
	if docID == "" {
		docID, title = "document", "Untitled"
	}
	return docID, title, strategy
}

func (h *IngestConsumer) processDocument(ctx context.Context, jobID, key, docID, title string, strategy text.Strategy) error {
	h.markProcessing(ctx, jobID, docID)

	data, err := h.objects.Get(ctx, key)
	if err != nil {
		return h.fail(ctx, jobID, docID, fmt.Errorf("fetch object %s: %w", key, err))
	}

	result, err := h.extractor.Extract(ctx, h.objects.Bucket(), key, key, data)
	if err != nil {
		return h.fail(ctx, jobID, docID, fmt.Errorf("extract %s: %w", key, err))
	}

	content := extract.CleanText(result.Text)
	if content == "" {
		slog.InfoContext(ctx, "empty document content, skipping", "doc_id", docID, "key", key)
		h.markCompleted(ctx, jobID, docID, 0)
		return nil
	}

	chunks, err := h.chunker.ChunkDocument(text.Document{ID: docID, Title: title, Content: content}, strategy)
	if err != nil {
		return h.fail(ctx, jobID, docID, fmt.Errorf("chunk %s: %w", docID, err))
	}
	if len(chunks) == 0 {
		slog.InfoContext(ctx, "no chunks produced, skipping", "doc_id", docID)
		h.markCompleted(ctx, jobID, docID, 0)
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := h.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return h.fail(ctx, jobID, docID, fmt.Errorf("embed %s: %w", docID, err))
	}

	n, err := h.vectors.UpsertChunks(ctx, chunks, vectors, string(result.Method))
	if err != nil {
		return h.fail(ctx, jobID, docID, fmt.Errorf("upsert %s: %w", docID, err))
	}

	// Raw upload is no longer needed once the vectors are stored. A
	// failed delete requeues the message; the rerun re-upserts the
	// same chunk IDs and tries the delete again.
	if err := h.objects.Delete(ctx, key); err != nil {
		return h.fail(ctx, jobID, docID, fmt.Errorf("cleanup %s: %w", key, err))
	}

	slog.InfoContext(ctx, "document ingested",
		"doc_id", docID,
		"chunks", n,
		"strategy", string(chunks[0].Strategy),
		"extraction_method", string(result.Method))
	h.markCompleted(ctx, jobID, docID, n)
	return nil
}

func (h *IngestConsumer) fail(ctx context.Context, jobID, docID string, err error) error {
	slog.ErrorContext(ctx, "ingest failed", "job_id", jobID, "doc_id", docID, "error", err)
	if h.jobs != nil && jobID != "" {
		if trackErr := h.jobs.MarkFailed(ctx, jobID, docID, err.Error()); trackErr != nil {
			slog.WarnContext(ctx, "failed to record job failure", "error", trackErr)
		}
	}
	return err
}

func (h *IngestConsumer) markProcessing(ctx context.Context, jobID, docID string) {
	if h.jobs == nil || jobID == "" {
		return
	}
	if err := h.jobs.MarkProcessing(ctx, jobID, docID); err != nil {
		slog.WarnContext(ctx, "failed to mark job processing", "error", err)
	}
}

func (h *IngestConsumer) markCompleted(ctx context.Context, jobID, docID string, chunks int) {
	if h.jobs == nil || jobID == "" {
		return
	}
	if err := h.jobs.MarkCompleted(ctx, jobID, docID, chunks); err != nil {
		slog.WarnContext(ctx, "failed to mark job completed", "error", err)
	}
}

func unmarshalJob(body []byte, job *IngestJob) error {
	if err := json.Unmarshal(body, job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}
	if job.S3Key == "" || job.Document.ID == "" {
		return fmt.Errorf("job missing required fields: s3Key=%q docId=%q", job.S3Key, job.Document.ID)
	}
	return nil
}

// decodeStorageKey undoes the URL encoding S3 applies to object keys
// in event notifications.
func decodeStorageKey(key string) string {
	decoded, err := url.QueryUnescape(strings.ReplaceAll(key, "+", " "))
	if err != nil {
		return key
	}
	return decoded
}
