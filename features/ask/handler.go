// Package ask exposes question answering over the ingested corpus.
package ask

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/azeez-d3v/docqa/internal/middleware"
	"github.com/azeez-d3v/docqa/internal/retrieval"
)

const maxTopK = 10

// Asker is the question-answering entrypoint, implemented by the
// retrieval service.
type Asker interface {
	Ask(ctx context.Context, question string, history []retrieval.Message, topK int) (*retrieval.AskResult, error)
}

type Handler struct {
	asker Asker
}

func NewHandler(a Asker) *Handler {
	return &Handler{asker: a}
}

type askRequest struct {
	Question string              `json:"question"`
	Messages []retrieval.Message `json:"messages,omitempty"`
	TopK     int                 `json:"topK,omitempty"`
}

// Ask handles POST /ask.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "INVALID_JSON", "Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Question is required", http.StatusBadRequest)
		return
	}
	if req.TopK < 0 || req.TopK > maxTopK {
		h.writeError(ctx, w, "VALIDATION_ERROR", "topK must be between 1 and 10", http.StatusBadRequest)
		return
	}

	result, err := h.asker.Ask(ctx, req.Question, req.Messages, req.TopK)
	if err != nil {
		slog.ErrorContext(ctx, "ask failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if result.Sources == nil {
		result.Sources = []retrieval.Source{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
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
