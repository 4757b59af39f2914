package job

import "time"

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus returns the Status for a query-string value, or false
// when the value names no known status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// Record tracks one document within one ingest job.
type Record struct {
	ID               string    `json:"id"`
	JobID            string    `json:"jobId"`
	DocID            string    `json:"docId"`
	Title            string    `json:"title"`
	ChunkingStrategy string    `json:"chunkingStrategy"`
	Status           Status    `json:"status"`
	ChunkCount       int       `json:"chunkCount"`
	Error            string    `json:"error,omitempty"`
	Attempts         int       `json:"attempts"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Summary aggregates the per-document records of a job.
type Summary struct {
	JobID     string   `json:"jobId"`
	Status    Status   `json:"status"`
	Documents []Record `json:"documents"`
}

// OverallStatus collapses document statuses into one job status: any
// failure wins, then any work still in flight, then completed.
func OverallStatus(records []Record) Status {
	if len(records) == 0 {
		return StatusQueued
	}
	inFlight := false
	for _, r := range records {
		switch r.Status {
		case StatusFailed:
			return StatusFailed
		case StatusQueued, StatusProcessing:
			inFlight = true
		}
	}
	if inFlight {
		return StatusProcessing
	}
	return StatusCompleted
}
