package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/azeez-d3v/docqa/internal/middleware"
	"github.com/azeez-d3v/docqa/internal/text"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

type ingestRequest struct {
	Documents        []Document `json:"documents"`
	ChunkingStrategy string     `json:"chunkingStrategy,omitempty"`
}

// Ingest handles POST /ingest. With storage and queue configured it
// responds 202 and processes in the background; otherwise it indexes
// inline and responds 200.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "INVALID_JSON", "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	if msg, ok := validate(&req); !ok {
		h.writeError(ctx, w, "VALIDATION_ERROR", msg, http.StatusBadRequest)
		return
	}
	strategy := text.ParseStrategy(req.ChunkingStrategy)

	if h.service.AsyncEnabled() {
		result, err := h.service.IngestAsync(ctx, req.Documents, strategy)
		if err != nil {
			slog.ErrorContext(ctx, "async ingest failed", "error", err)
			h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
			return
		}

		slog.InfoContext(ctx, "documents queued", "job_id", result.JobID, "count", result.DocumentsQueued)
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"status":          "accepted",
			"message":         "Documents queued for processing",
			"jobId":           result.JobID,
			"documentsQueued": result.DocumentsQueued,
		})
		return
	}

	result, err := h.service.IngestSync(ctx, req.Documents, strategy)
	if err != nil {
		slog.ErrorContext(ctx, "sync ingest failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	slog.InfoContext(ctx, "documents ingested inline",
		"documents", result.IngestedDocuments, "chunks", result.IngestedChunks)
	writeJSON(w, http.StatusOK, result)
}

func validate(req *ingestRequest) (string, bool) {
	if len(req.Documents) == 0 {
		return "At least one document is required", false
	}
	for _, doc := range req.Documents {
		if doc.ID == "" {
			return "Document id is required", false
		}
		if doc.Title == "" {
			return "Document title is required", false
		}
		if doc.Content == "" {
			return "Document content is required", false
		}
	}
	if req.ChunkingStrategy != "" &&
		req.ChunkingStrategy != string(text.StrategyFixed) &&
		req.ChunkingStrategy != string(text.StrategyRecursive) {
		return "chunkingStrategy must be 'fixed' or 'recursive'", false
	}
	return "", true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
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
