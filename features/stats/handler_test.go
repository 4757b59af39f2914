package stats_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azeez-d3v/docqa/features/stats"
	"github.com/azeez-d3v/docqa/internal/retrieval"
)

type fakeCorpus struct {
	chunks int
	docs   []retrieval.DocumentInfo
	err    error
}

func (f *fakeCorpus) CountChunks(ctx context.Context) (int, error) { return f.chunks, f.err }

func (f *fakeCorpus) ListDocuments(ctx context.Context) ([]retrieval.DocumentInfo, error) {
	return f.docs, f.err
}

type fakeFailedJobs struct{ count int }

func (f *fakeFailedJobs) CountFailed(ctx context.Context) (int, error) { return f.count, nil }

func getStats(t *testing.T, h *stats.Handler) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	return rec
}

func TestGetStats(t *testing.T) {
	t.Run("Reports Corpus And Job Counts", func(t *testing.T) {
		corpus := &fakeCorpus{chunks: 12, docs: []retrieval.DocumentInfo{{DocID: "faq"}, {DocID: "terms"}}}
		h := stats.NewHandler(corpus, &fakeFailedJobs{count: 1})

		rec := getStats(t, h)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data stats.StatsResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Documents)
		assert.Equal(t, 12, resp.Data.Chunks)
		assert.Equal(t, 1, resp.Data.FailedJobs)
	})

	t.Run("Job Tracking Disabled Reads Zero", func(t *testing.T) {
		h := stats.NewHandler(&fakeCorpus{chunks: 3}, nil)

		rec := getStats(t, h)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data stats.StatsResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Zero(t, resp.Data.FailedJobs)
	})

	t.Run("Corpus Failure Returns 500", func(t *testing.T) {
		h := stats.NewHandler(&fakeCorpus{err: errors.New("weaviate down")}, nil)
		rec := getStats(t, h)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
