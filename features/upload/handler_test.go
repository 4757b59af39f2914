package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	gotKey         string
	gotContentType string
	gotMetadata    map[string]string
	err            error
}

func (f *fakePresigner) PresignPut(ctx context.Context, key, contentType string, metadata map[string]string) (string, error) {
	f.gotKey = key
	f.gotContentType = contentType
	f.gotMetadata = metadata
	if f.err != nil {
		return "", f.err
	}
	return "https://bucket.example.com/" + key + "?signature=abc", nil
}

func getUploadURL(t *testing.T, h *Handler, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/upload-url?"+query, nil)
	rec := httptest.NewRecorder()
	h.UploadURL(rec, req)
	return rec
}

func TestUploadURL(t *testing.T) {
	t.Run("Presigns With Document Metadata", func(t *testing.T) {
		presigner := &fakePresigner{}
		h := NewHandler(presigner, 300)

		rec := getUploadURL(t, h, "filename="+url.QueryEscape("Refund Policy.md")+"&chunkingStrategy=fixed")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "refund-policy", resp["docId"])
		assert.Equal(t, "Refund Policy", resp["title"])
		assert.Equal(t, "fixed", resp["chunkingStrategy"])
		assert.Equal(t, float64(300), resp["expiresIn"])
		assert.NotEmpty(t, resp["uploadUrl"])

		key := resp["s3Key"].(string)
		assert.True(t, strings.HasPrefix(key, "uploads/"))
		assert.True(t, strings.HasSuffix(key, "/Refund Policy.md"))

		assert.Equal(t, "text/markdown", presigner.gotContentType)
		assert.Equal(t, map[string]string{
			"doc-id":            "refund-policy",
			"doc-title":         "Refund Policy",
			"original-filename": "Refund Policy.md",
			"chunking-strategy": "fixed",
		}, presigner.gotMetadata)
	})

	t.Run("Default Strategy When Unspecified", func(t *testing.T) {
		h := NewHandler(&fakePresigner{}, 300)

		rec := getUploadURL(t, h, "filename=notes.txt")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "recursive", resp["chunkingStrategy"])
	})

	t.Run("Missing Filename Returns 400", func(t *testing.T) {
		h := NewHandler(&fakePresigner{}, 300)
		rec := getUploadURL(t, h, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("Disallowed Extension Returns 400", func(t *testing.T) {
		h := NewHandler(&fakePresigner{}, 300)
		rec := getUploadURL(t, h, "filename=archive.zip")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid file type")
	})

	t.Run("No Object Storage Returns 503", func(t *testing.T) {
		h := NewHandler(nil, 300)
		rec := getUploadURL(t, h, "filename=notes.txt")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_CONFIGURED")
	})
}
