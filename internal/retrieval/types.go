// Package retrieval answers questions over the ingested corpus:
// embed the question, query the vector store, filter by a dynamic
// relevance threshold, and generate a grounded answer.
package retrieval

import "context"

// VectorMetadata is the payload stored alongside each chunk vector.
type VectorMetadata struct {
	DocID            string `json:"docId"`
	Title            string `json:"title"`
	ChunkText        string `json:"chunkText"`
	ChunkIndex       int    `json:"chunkIndex"`
	ChunkingStrategy string `json:"chunkingStrategy,omitempty"`
	ExtractionMethod string `json:"extractionMethod,omitempty"`
}

// RetrievedChunk is one vector-store match with its similarity score.
type RetrievedChunk struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}

// Source identifies a document cited in an answer.
type Source struct {
	DocID string `json:"docId"`
	Title string `json:"title"`
}

// DocumentInfo summarizes one ingested document.
type DocumentInfo struct {
	DocID            string `json:"docId"`
	Title            string `json:"title"`
	ChunkCount       int    `json:"chunkCount"`
	ChunkingStrategy string `json:"chunkingStrategy,omitempty"`
	ExtractionMethod string `json:"extractionMethod,omitempty"`
}

// DocumentContent is a document reassembled from its stored chunks.
type DocumentContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Message is one prior conversation turn. Role is "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	QueryByVector(ctx context.Context, vector []float32, topK int) ([]RetrievedChunk, error)
	HasDocuments(ctx context.Context) (bool, error)
}

type AnswerGenerator interface {
	Chat(ctx context.Context, system string, history []Message, question string) (string, error)
}
