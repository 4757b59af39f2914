// Package weaviate persists chunk vectors in a Weaviate class and
// serves similarity queries and corpus-level reads over them.
package weaviate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/azeez-d3v/docqa/internal/retrieval"
	"github.com/azeez-d3v/docqa/internal/text"
	"github.com/azeez-d3v/docqa/internal/vector"
)

const upsertBatchSize = 100

// listLimit caps corpus-wide reads. Corpora here are small knowledge
// bases, not web-scale indexes.
const listLimit = 10000

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// objectID maps a chunk ID onto a stable UUID. Weaviate requires UUID
// object IDs; deriving them from the chunk ID makes re-ingestion an
// overwrite instead of a duplicate.
func objectID(chunkID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String())
}

// UpsertChunks writes chunks and their vectors in batches, overwriting
// any objects that already exist for the same chunk IDs. It returns
// the number of vectors written.
func (s *Store) UpsertChunks(ctx context.Context, chunks []text.Chunk, vectors [][]float32, extractionMethod string) (int, error) {
	if len(chunks) == 0 || len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunks and vectors must have matching non-zero length: %d vs %d", len(chunks), len(vectors))
	}

	objects := make([]*models.Object, len(chunks))
	for i, c := range chunks {
		objects[i] = &models.Object{
			Class: vector.ClassName,
			ID:    objectID(c.ID),
			Properties: map[string]interface{}{
				"chunkId":          c.ID,
				"docId":            c.DocID,
				"title":            c.Title,
				"chunkText":        c.Text,
				"chunkIndex":       c.Index,
				"chunkingStrategy": string(c.Strategy),
				"extractionMethod": extractionMethod,
			},
			Vector: models.C11yVector(vectors[i]),
		}
	}

	for i := 0; i < len(objects); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(objects) {
			end = len(objects)
		}

		resp, err := s.client.Batch().ObjectsBatcher().
			WithObjects(objects[i:end]...).
			Do(ctx)
		if err != nil {
			return 0, fmt.Errorf("batch upsert: %w", err)
		}
		for _, r := range resp {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return 0, fmt.Errorf("batch upsert object %s: %s", r.ID, r.Result.Errors.Error[0].Message)
			}
		}
	}

	return len(objects), nil
}

// QueryByVector returns the topK most similar chunks with their
// certainty scores.
func (s *Store) QueryByVector(ctx context.Context, vec []float32, topK int) ([]retrieval.RetrievedChunk, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithLimit(topK).
		WithFields(chunkFields()...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	return parseChunks(res.Data), nil
}

// HasDocuments reports whether the index holds any vectors at all.
// It is a single aggregate call, cheap enough to run on every ask.
func (s *Store) HasDocuments(ctx context.Context) (bool, error) {
	n, err := s.CountChunks(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountChunks returns the total number of stored vectors.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{
			Name:   "meta",
			Fields: []graphql.Field{{Name: "count"}},
		}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("aggregate query: %w", err)
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	agg, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	rows, ok := agg[vector.ClassName].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}

// DeleteByDocID removes every chunk of a document and returns how many
// vectors were deleted. Deleting an unknown document is not an error.
func (s *Store) DeleteByDocID(ctx context.Context, docID string) (int, error) {
	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"docId"}).
			WithOperator(filters.Equal).
			WithValueString(docID)).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("batch delete: %w", err)
	}
	if resp == nil || resp.Results == nil {
		return 0, nil
	}
	return int(resp.Results.Matches), nil
}

// ListDocuments groups the stored chunks into per-document summaries.
func (s *Store) ListDocuments(ctx context.Context) ([]retrieval.DocumentInfo, error) {
	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithLimit(listLimit).
		WithFields(
			graphql.Field{Name: "docId"},
			graphql.Field{Name: "title"},
			graphql.Field{Name: "chunkingStrategy"},
			graphql.Field{Name: "extractionMethod"},
		).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	byID := make(map[string]*retrieval.DocumentInfo)
	for _, props := range rawObjects(res.Data) {
		docID, _ := props["docId"].(string)
		if docID == "" {
			continue
		}
		info, ok := byID[docID]
		if !ok {
			info = &retrieval.DocumentInfo{DocID: docID}
			if title, ok := props["title"].(string); ok && title != "" {
				info.Title = title
			} else {
				info.Title = docID
			}
			info.ChunkingStrategy, _ = props["chunkingStrategy"].(string)
			info.ExtractionMethod, _ = props["extractionMethod"].(string)
			byID[docID] = info
		}
		info.ChunkCount++
	}

	docs := make([]retrieval.DocumentInfo, 0, len(byID))
	for _, info := range byID {
		docs = append(docs, *info)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })
	return docs, nil
}

// GetDocumentContent reassembles a document from its chunks, ordered
// by chunk index. It returns nil when the document does not exist.
func (s *Store) GetDocumentContent(ctx context.Context, docID string) (*retrieval.DocumentContent, error) {
	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithWhere(filters.Where().
			WithPath([]string{"docId"}).
			WithOperator(filters.Equal).
			WithValueString(docID)).
		WithLimit(listLimit).
		WithFields(
			graphql.Field{Name: "title"},
			graphql.Field{Name: "chunkText"},
			graphql.Field{Name: "chunkIndex"},
		).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("content query: %w", err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	type part struct {
		index int
		text  string
		title string
	}
	var parts []part
	for _, props := range rawObjects(res.Data) {
		p := part{}
		p.text, _ = props["chunkText"].(string)
		p.title, _ = props["title"].(string)
		if idx, ok := props["chunkIndex"].(float64); ok {
			p.index = int(idx)
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return nil, nil
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	texts := make([]string, len(parts))
	for i, p := range parts {
		texts[i] = p.text
	}
	title := parts[0].title
	if title == "" {
		title = docID
	}
	return &retrieval.DocumentContent{Title: title, Content: strings.Join(texts, "\n\n")}, nil
}

func chunkFields() []graphql.Field {
	return []graphql.Field{
		{Name: "chunkId"},
		{Name: "docId"},
		{Name: "title"},
		{Name: "chunkText"},
		{Name: "chunkIndex"},
		{Name: "chunkingStrategy"},
		{Name: "extractionMethod"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}
}

// rawObjects unwraps a GraphQL Get response into property maps.
func rawObjects(data map[string]models.JSONObject) []map[string]interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	rows, ok := get[vector.ClassName].([]interface{})
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	for _, row := range rows {
		if props, ok := row.(map[string]interface{}); ok {
			out = append(out, props)
		}
	}
	return out
}

func parseChunks(data map[string]models.JSONObject) []retrieval.RetrievedChunk {
	var chunks []retrieval.RetrievedChunk
	for _, props := range rawObjects(data) {
		c := retrieval.RetrievedChunk{}
		c.ID, _ = props["chunkId"].(string)
		c.Metadata.DocID, _ = props["docId"].(string)
		c.Metadata.Title, _ = props["title"].(string)
		c.Metadata.ChunkText, _ = props["chunkText"].(string)
		c.Metadata.ChunkingStrategy, _ = props["chunkingStrategy"].(string)
		c.Metadata.ExtractionMethod, _ = props["extractionMethod"].(string)
		if idx, ok := props["chunkIndex"].(float64); ok {
			c.Metadata.ChunkIndex = int(idx)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				c.Score = certainty
			}
		}
		chunks = append(chunks, c)
	}
	return chunks
}
