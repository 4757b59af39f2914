// Package upload hands out presigned URLs so browsers can push files
// straight to object storage; the bucket notification then drives
// ingestion without the file passing through this API.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/azeez-d3v/docqa/internal/docid"
	"github.com/azeez-d3v/docqa/internal/middleware"
	"github.com/azeez-d3v/docqa/internal/text"
)

var contentTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Presigner issues time-limited upload URLs.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, metadata map[string]string) (string, error)
}

type Handler struct {
	presigner Presigner
	expirySec int
}

func NewHandler(p Presigner, expirySec int) *Handler {
	return &Handler{presigner: p, expirySec: expirySec}
}

// UploadURL handles GET /upload-url.
func (h *Handler) UploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "filename query parameter is required", http.StatusBadRequest)
		return
	}
	if !docid.Allowed(filename) {
		h.writeError(ctx, w, "VALIDATION_ERROR",
			fmt.Sprintf("Invalid file type. Allowed: %s", strings.Join(docid.AllowedExtensions, ", ")),
			http.StatusBadRequest)
		return
	}
	if h.presigner == nil {
		h.writeError(ctx, w, "NOT_CONFIGURED", "Object storage is not configured", http.StatusServiceUnavailable)
		return
	}

	strategy := text.ParseStrategy(r.URL.Query().Get("chunkingStrategy"))
	id, title := docid.ParseFilename(filename)
	if id == "" {
		id, title = "document", "Untitled"
	}

	key := fmt.Sprintf("uploads/%s/%s", uuid.New().String(), filename)
	contentType := contentTypes[docid.Ext(filename)]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadURL, err := h.presigner.PresignPut(ctx, key, contentType, map[string]string{
		"doc-id":            id,
		"doc-title":         title,
		"original-filename": filename,
		"chunking-strategy": string(strategy),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign upload", "key", key, "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to generate upload URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"uploadUrl":        uploadURL,
		"s3Key":            key,
		"docId":            id,
		"title":            title,
		"chunkingStrategy": string(strategy),
		"expiresIn":        h.expirySec,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
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
