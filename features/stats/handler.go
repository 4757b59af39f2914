package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/azeez-d3v/docqa/internal/middleware"
	"github.com/azeez-d3v/docqa/internal/retrieval"
)

type Corpus interface {
	CountChunks(ctx context.Context) (int, error)
	ListDocuments(ctx context.Context) ([]retrieval.DocumentInfo, error)
}

// FailedJobCounter is optional; without job tracking the count reads 0.
type FailedJobCounter interface {
	CountFailed(ctx context.Context) (int, error)
}

type Handler struct {
	corpus Corpus
	jobs   FailedJobCounter
}

func NewHandler(c Corpus, j FailedJobCounter) *Handler {
	return &Handler{corpus: c, jobs: j}
}

type StatsResponse struct {
	Documents  int `json:"documents"`
	Chunks     int `json:"chunks"`
	FailedJobs int `json:"failed_jobs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chunks, err := h.corpus.CountChunks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	docs, err := h.corpus.ListDocuments(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list documents", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count documents", http.StatusInternalServerError)
		return
	}

	failed := 0
	if h.jobs != nil {
		failed, err = h.jobs.CountFailed(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to count failed jobs", "error", err)
			h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count failed jobs", http.StatusInternalServerError)
			return
		}
	}

	resp := StatsResponse{
		Documents:  len(docs),
		Chunks:     chunks,
		FailedJobs: failed,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
