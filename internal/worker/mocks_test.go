package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/azeez-d3v/docqa/internal/extract"
	"github.com/azeez-d3v/docqa/internal/text"
)

// Mocks

type MockObjectStore struct{ mock.Mock }

func (m *MockObjectStore) Bucket() string { return "test-bucket" }

func (m *MockObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) Head(ctx context.Context, key string) (map[string]string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockVectorStore struct{ mock.Mock }

func (m *MockVectorStore) UpsertChunks(ctx context.Context, chunks []text.Chunk, vectors [][]float32, extractionMethod string) (int, error) {
	args := m.Called(ctx, chunks, vectors, extractionMethod)
	return args.Int(0), args.Error(1)
}

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) Extract(ctx context.Context, bucket, key, filename string, data []byte) (extract.Result, error) {
	args := m.Called(ctx, bucket, key, filename, data)
	return args.Get(0).(extract.Result), args.Error(1)
}

type MockJobTracker struct{ mock.Mock }

func (m *MockJobTracker) MarkProcessing(ctx context.Context, jobID, docID string) error {
	args := m.Called(ctx, jobID, docID)
	return args.Error(0)
}

func (m *MockJobTracker) MarkCompleted(ctx context.Context, jobID, docID string, chunkCount int) error {
	args := m.Called(ctx, jobID, docID, chunkCount)
	return args.Error(0)
}

func (m *MockJobTracker) MarkFailed(ctx context.Context, jobID, docID, reason string) error {
	args := m.Called(ctx, jobID, docID, reason)
	return args.Error(0)
}
