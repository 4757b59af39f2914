package worker_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/azeez-d3v/docqa/internal/extract"
	"github.com/azeez-d3v/docqa/internal/text"
	"github.com/azeez-d3v/docqa/internal/worker"
)

func newConsumerMocks() (*MockObjectStore, *MockVectorStore, *MockEmbedder, *MockExtractor, *MockJobTracker, *worker.IngestConsumer) {
	objects := new(MockObjectStore)
	vectors := new(MockVectorStore)
	embedder := new(MockEmbedder)
	extractor := new(MockExtractor)
	tracker := new(MockJobTracker)
	chunker := text.NewChunker(500, 50, 0.2, 1200, 50)
	consumer := worker.NewIngestConsumer(objects, vectors, embedder, extractor, chunker, tracker)
	return objects, vectors, embedder, extractor, tracker, consumer
}

func jobMessage(t *testing.T, job worker.IngestJob) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(job)
	assert.NoError(t, err)
	return &nsq.Message{Body: body}
}

func TestIngestConsumer_HandleMessage(t *testing.T) {
	job := worker.IngestJob{
		JobID:            "job-1",
		S3Key:            "ingest/job-1/refund-policy.txt",
		Document:         worker.DocumentRef{ID: "refund-policy", Title: "Refund Policy"},
		ChunkingStrategy: "fixed",
	}

	t.Run("Happy Path", func(t *testing.T) {
		objects, vectors, embedder, extractor, tracker, consumer := newConsumerMocks()

		content := []byte("Refunds are issued within 30 days of purchase.")
		objects.On("Get", mock.Anything, job.S3Key).Return(content, nil)
		extractor.On("Extract", mock.Anything, "test-bucket", job.S3Key, job.S3Key, content).
			Return(extract.Result{Text: string(content), Method: extract.MethodText}, nil)
		embedder.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{{0.1, 0.2}}, nil)
		vectors.On("UpsertChunks", mock.Anything, mock.MatchedBy(func(chunks []text.Chunk) bool {
			return len(chunks) == 1 && chunks[0].DocID == "refund-policy" && chunks[0].Strategy == text.StrategyFixed
		}), mock.Anything, "text").Return(1, nil)
		objects.On("Delete", mock.Anything, job.S3Key).Return(nil)
		tracker.On("MarkProcessing", mock.Anything, "job-1", "refund-policy").Return(nil)
		tracker.On("MarkCompleted", mock.Anything, "job-1", "refund-policy", 1).Return(nil)

		err := consumer.HandleMessage(jobMessage(t, job))
		assert.NoError(t, err)
		objects.AssertExpectations(t)
		vectors.AssertExpectations(t)
		tracker.AssertExpectations(t)
	})

	t.Run("Empty Body Acked", func(t *testing.T) {
		_, _, _, _, _, consumer := newConsumerMocks()
		err := consumer.HandleMessage(&nsq.Message{Body: nil})
		assert.NoError(t, err)
	})

	t.Run("Malformed Body Requeued", func(t *testing.T) {
		_, _, _, _, _, consumer := newConsumerMocks()
		err := consumer.HandleMessage(&nsq.Message{Body: []byte("not json")})
		assert.Error(t, err)
	})

	t.Run("Missing Required Fields Requeued", func(t *testing.T) {
		_, _, _, _, _, consumer := newConsumerMocks()
		err := consumer.HandleMessage(jobMessage(t, worker.IngestJob{JobID: "job-1"}))
		assert.Error(t, err)
	})

	t.Run("Empty Document Skipped As Completed", func(t *testing.T) {
		objects, vectors, _, extractor, tracker, consumer := newConsumerMocks()

		objects.On("Get", mock.Anything, job.S3Key).Return([]byte("  \n  "), nil)
		extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(extract.Result{Text: "  \n  ", Method: extract.MethodText}, nil)
		tracker.On("MarkProcessing", mock.Anything, "job-1", "refund-policy").Return(nil)
		tracker.On("MarkCompleted", mock.Anything, "job-1", "refund-policy", 0).Return(nil)

		err := consumer.HandleMessage(jobMessage(t, job))
		assert.NoError(t, err)
		// The raw object is kept for inspection and nothing is indexed.
		objects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		vectors.AssertNotCalled(t, "UpsertChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		tracker.AssertExpectations(t)
	})

	t.Run("Fetch Failure Marks Failed And Requeues", func(t *testing.T) {
		objects, _, _, _, tracker, consumer := newConsumerMocks()

		objects.On("Get", mock.Anything, job.S3Key).Return(nil, errors.New("no such key"))
		tracker.On("MarkProcessing", mock.Anything, "job-1", "refund-policy").Return(nil)
		tracker.On("MarkFailed", mock.Anything, "job-1", "refund-policy", mock.Anything).Return(nil)

		err := consumer.HandleMessage(jobMessage(t, job))
		assert.Error(t, err)
		tracker.AssertExpectations(t)
	})

	t.Run("Cleanup Failure Requeues", func(t *testing.T) {
		objects, vectors, embedder, extractor, tracker, consumer := newConsumerMocks()

		content := []byte("some document text")
		objects.On("Get", mock.Anything, job.S3Key).Return(content, nil)
		extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(extract.Result{Text: string(content), Method: extract.MethodText}, nil)
		embedder.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{{0.1}}, nil)
		vectors.On("UpsertChunks", mock.Anything, mock.Anything, mock.Anything, "text").Return(1, nil)
		objects.On("Delete", mock.Anything, job.S3Key).Return(errors.New("access denied"))
		tracker.On("MarkProcessing", mock.Anything, "job-1", "refund-policy").Return(nil)
		tracker.On("MarkFailed", mock.Anything, "job-1", "refund-policy", mock.Anything).Return(nil)

		err := consumer.HandleMessage(jobMessage(t, job))
		assert.Error(t, err)
		tracker.AssertExpectations(t)
	})
}

func TestIngestConsumer_StorageEvents(t *testing.T) {
	storageEvent := func(key string) *nsq.Message {
		var event worker.StorageEvent
		event.Records = make([]worker.StorageRecord, 1)
		event.Records[0].EventSource = "aws:s3"
		event.Records[0].S3.Bucket.Name = "test-bucket"
		event.Records[0].S3.Object.Key = key
		body, _ := json.Marshal(event)
		return &nsq.Message{Body: body}
	}

	t.Run("Metadata From Object Head", func(t *testing.T) {
		objects, vectors, embedder, extractor, tracker, consumer := newConsumerMocks()

		key := "uploads/abc/Refund Policy.md"
		content := []byte("Refunds are issued within 30 days.")

		objects.On("Head", mock.Anything, key).Return(map[string]string{
			"doc-id":            "refund-policy",
			"doc-title":         "Refund Policy",
			"chunking-strategy": "fixed",
		}, nil)
		objects.On("Get", mock.Anything, key).Return(content, nil)
		extractor.On("Extract", mock.Anything, "test-bucket", key, key, content).
			Return(extract.Result{Text: string(content), Method: extract.MethodText}, nil)
		embedder.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{{0.5}}, nil)
		vectors.On("UpsertChunks", mock.Anything, mock.MatchedBy(func(chunks []text.Chunk) bool {
			return chunks[0].DocID == "refund-policy" && chunks[0].Title == "Refund Policy" && chunks[0].Strategy == text.StrategyFixed
		}), mock.Anything, "text").Return(1, nil)
		objects.On("Delete", mock.Anything, key).Return(nil)

		// URL-encoded key, the way bucket notifications deliver it.
		err := consumer.HandleMessage(storageEvent("uploads/abc/Refund+Policy.md"))
		assert.NoError(t, err)
		vectors.AssertExpectations(t)
		// No job ID on direct uploads, so tracking stays untouched.
		tracker.AssertNotCalled(t, "MarkProcessing", mock.Anything, mock.Anything, mock.Anything)
		tracker.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing Metadata Falls Back To Filename", func(t *testing.T) {
		objects, vectors, embedder, extractor, _, consumer := newConsumerMocks()

		key := "uploads/abc/Terms Of Service.txt"
		content := []byte("These are the terms.")

		objects.On("Head", mock.Anything, key).Return(nil, errors.New("forbidden"))
		objects.On("Get", mock.Anything, key).Return(content, nil)
		extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(extract.Result{Text: string(content), Method: extract.MethodText}, nil)
		embedder.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{{0.5}}, nil)
		vectors.On("UpsertChunks", mock.Anything, mock.MatchedBy(func(chunks []text.Chunk) bool {
			return chunks[0].DocID == "terms-of-service" && chunks[0].Title == "Terms Of Service"
		}), mock.Anything, "text").Return(1, nil)
		objects.On("Delete", mock.Anything, key).Return(nil)

		err := consumer.HandleMessage(storageEvent("uploads/abc/Terms+Of+Service.txt"))
		assert.NoError(t, err)
		vectors.AssertExpectations(t)
	})

	t.Run("Unsupported File Type Skipped", func(t *testing.T) {
		objects, vectors, _, _, _, consumer := newConsumerMocks()

		err := consumer.HandleMessage(storageEvent("uploads/abc/archive.zip"))
		assert.NoError(t, err)
		objects.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		vectors.AssertNotCalled(t, "UpsertChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
