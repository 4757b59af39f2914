package document

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/azeez-d3v/docqa/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// List handles GET /documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list documents", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// Content handles GET /documents/{docId}/content.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID := r.PathValue("docId")

	content, err := h.service.Content(ctx, docID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get document content", "doc_id", docID, "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if content == nil {
		h.writeError(ctx, w, "NOT_FOUND", "Document not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

// Delete handles DELETE /documents/{docId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID := r.PathValue("docId")

	deleted, err := h.service.Delete(ctx, docID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete document", "doc_id", docID, "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	slog.InfoContext(ctx, "document deleted", "doc_id", docID, "chunks", deleted)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("Document %s deleted", docID),
		"deletedChunks": deleted,
	})
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
