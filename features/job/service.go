package job

import (
	"context"
	"database/sql"
)

// Service sits between the HTTP surface, the ingest endpoint, and the
// worker. It satisfies the worker's job tracker interface.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enqueue records a queued document for a job before the queue message
// is published.
func (s *Service) Enqueue(ctx context.Context, jobID, docID, title, strategy string) error {
	rec := &Record{JobID: jobID, DocID: docID, Title: title, ChunkingStrategy: strategy}
	return s.repo.Enqueue(ctx, rec)
}

func (s *Service) MarkProcessing(ctx context.Context, jobID, docID string) error {
	return s.repo.MarkProcessing(ctx, jobID, docID)
}

func (s *Service) MarkCompleted(ctx context.Context, jobID, docID string, chunkCount int) error {
	return s.repo.MarkCompleted(ctx, jobID, docID, chunkCount)
}

func (s *Service) MarkFailed(ctx context.Context, jobID, docID, reason string) error {
	return s.repo.MarkFailed(ctx, jobID, docID, reason)
}

// Get returns the aggregated status of a job, or sql.ErrNoRows when
// the job is unknown.
func (s *Service) Get(ctx context.Context, jobID string) (*Summary, error) {
	records, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sql.ErrNoRows
	}
	return &Summary{
		JobID:     jobID,
		Status:    OverallStatus(records),
		Documents: records,
	}, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

func (s *Service) ListByStatus(ctx context.Context, status Status, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, status, limit)
}

func (s *Service) CountFailed(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, StatusFailed)
}
