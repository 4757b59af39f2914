package ask

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azeez-d3v/docqa/internal/retrieval"
)

type fakeAsker struct {
	result      *retrieval.AskResult
	err         error
	gotQuestion string
	gotHistory  []retrieval.Message
	gotTopK     int
}

func (f *fakeAsker) Ask(ctx context.Context, question string, history []retrieval.Message, topK int) (*retrieval.AskResult, error) {
	f.gotQuestion = question
	f.gotHistory = history
	f.gotTopK = topK
	return f.result, f.err
}

func postAsk(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Ask(rec, req)
	return rec
}

func TestAskHandler(t *testing.T) {
	t.Run("Answers With Sources", func(t *testing.T) {
		asker := &fakeAsker{result: &retrieval.AskResult{
			Answer:  "Refunds take five days.",
			Sources: []retrieval.Source{{DocID: "faq", Title: "FAQ"}},
		}}
		h := NewHandler(asker)

		rec := postAsk(t, h, `{"question":"how long do refunds take?","messages":[{"role":"user","content":"hi"}],"topK":5}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp retrieval.AskResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Refunds take five days.", resp.Answer)
		assert.Equal(t, []retrieval.Source{{DocID: "faq", Title: "FAQ"}}, resp.Sources)

		assert.Equal(t, "how long do refunds take?", asker.gotQuestion)
		assert.Len(t, asker.gotHistory, 1)
		assert.Equal(t, 5, asker.gotTopK)
	})

	t.Run("Nil Sources Encoded As Empty Array", func(t *testing.T) {
		h := NewHandler(&fakeAsker{result: &retrieval.AskResult{Answer: "Hello!"}})

		rec := postAsk(t, h, `{"question":"hi"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"sources":[]`)
	})

	t.Run("Missing Question Returns 400", func(t *testing.T) {
		h := NewHandler(&fakeAsker{})
		rec := postAsk(t, h, `{"topK":3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("TopK Out Of Range Returns 400", func(t *testing.T) {
		h := NewHandler(&fakeAsker{})
		rec := postAsk(t, h, `{"question":"q","topK":11}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Invalid JSON Returns 400", func(t *testing.T) {
		h := NewHandler(&fakeAsker{})
		rec := postAsk(t, h, `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_JSON")
	})

	t.Run("Service Failure Returns 500", func(t *testing.T) {
		h := NewHandler(&fakeAsker{err: errors.New("model unavailable")})
		rec := postAsk(t, h, `{"question":"q"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	})
}
