package job

import (
	"context"
	"database/sql"
)

type Repository interface {
	Enqueue(ctx context.Context, rec *Record) error
	MarkProcessing(ctx context.Context, jobID, docID string) error
	MarkCompleted(ctx context.Context, jobID, docID string, chunkCount int) error
	MarkFailed(ctx context.Context, jobID, docID, reason string) error
	ListByJob(ctx context.Context, jobID string) ([]Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]Record, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Enqueue(ctx context.Context, rec *Record) error {
	query := `INSERT INTO ingest_jobs (job_id, doc_id, title, chunking_strategy, status)
		VALUES ($1, $2, $3, $4, 'queued')
		ON CONFLICT (job_id, doc_id)
		DO UPDATE SET status = 'queued', error = '', updated_at = now()
		RETURNING id, created_at, updated_at`
	rec.Status = StatusQueued
	return r.db.QueryRowContext(ctx, query, rec.JobID, rec.DocID, rec.Title, rec.ChunkingStrategy).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (r *PostgresRepo) MarkProcessing(ctx context.Context, jobID, docID string) error {
	query := `UPDATE ingest_jobs
		SET status = 'processing', attempts = attempts + 1, updated_at = now()
		WHERE job_id = $1 AND doc_id = $2`
	_, err := r.db.ExecContext(ctx, query, jobID, docID)
	return err
}

func (r *PostgresRepo) MarkCompleted(ctx context.Context, jobID, docID string, chunkCount int) error {
	query := `UPDATE ingest_jobs
		SET status = 'completed', chunk_count = $3, error = '', updated_at = now()
		WHERE job_id = $1 AND doc_id = $2`
	_, err := r.db.ExecContext(ctx, query, jobID, docID, chunkCount)
	return err
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, jobID, docID, reason string) error {
	query := `UPDATE ingest_jobs
		SET status = 'failed', error = $3, updated_at = now()
		WHERE job_id = $1 AND doc_id = $2`
	_, err := r.db.ExecContext(ctx, query, jobID, docID, reason)
	return err
}

func (r *PostgresRepo) ListByJob(ctx context.Context, jobID string) ([]Record, error) {
	query := `SELECT id, job_id, doc_id, title, chunking_strategy, status, chunk_count, error, attempts, created_at, updated_at
		FROM ingest_jobs WHERE job_id = $1 ORDER BY doc_id`
	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, job_id, doc_id, title, chunking_strategy, status, chunk_count, error, attempts, created_at, updated_at
		FROM ingest_jobs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresRepo) ListByStatus(ctx context.Context, status Status, limit int) ([]Record, error) {
	query := `SELECT id, job_id, doc_id, title, chunking_strategy, status, chunk_count, error, attempts, created_at, updated_at
		FROM ingest_jobs WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresRepo) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ingest_jobs WHERE status = $1`
	err := r.db.QueryRowContext(ctx, query, string(status)).Scan(&count)
	return count, err
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.DocID, &rec.Title, &rec.ChunkingStrategy,
			&rec.Status, &rec.ChunkCount, &rec.Error, &rec.Attempts, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
