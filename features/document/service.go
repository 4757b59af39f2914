// Package document lists, reads back, and deletes ingested documents.
package document

import (
	"context"

	"github.com/azeez-d3v/docqa/internal/retrieval"
)

// Corpus is the vector-store surface this feature reads and prunes.
type Corpus interface {
	ListDocuments(ctx context.Context) ([]retrieval.DocumentInfo, error)
	GetDocumentContent(ctx context.Context, docID string) (*retrieval.DocumentContent, error)
	DeleteByDocID(ctx context.Context, docID string) (int, error)
}

type Service struct {
	corpus Corpus
}

func NewService(corpus Corpus) *Service {
	return &Service{corpus: corpus}
}

func (s *Service) List(ctx context.Context) ([]retrieval.DocumentInfo, error) {
	docs, err := s.corpus.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []retrieval.DocumentInfo{}
	}
	return docs, nil
}

// Content returns nil when the document does not exist.
func (s *Service) Content(ctx context.Context, docID string) (*retrieval.DocumentContent, error) {
	return s.corpus.GetDocumentContent(ctx, docID)
}

// Delete removes every chunk of the document and returns how many
// were deleted. Deleting an unknown document deletes zero chunks.
func (s *Service) Delete(ctx context.Context, docID string) (int, error) {
	return s.corpus.DeleteByDocID(ctx, docID)
}
