package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azeez-d3v/docqa/internal/middleware"
)

const maxHistoryTurns = 10

type AskResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type Service struct {
	embedder    Embedder
	store       VectorStore
	llm         AnswerGenerator
	logger      *QueryLogger
	defaultTopK int
}

func NewService(e Embedder, s VectorStore, llm AnswerGenerator, l *QueryLogger, defaultTopK int) *Service {
	return &Service{embedder: e, store: s, llm: llm, logger: l, defaultTopK: defaultTopK}
}

// Ask runs the full question-answering flow. When the index holds no
// documents at all, the embedding and query steps are skipped and the
// model answers from an empty context, so greetings still work while
// substantive questions get declined.
func (s *Service) Ask(ctx context.Context, question string, history []Message, topK int) (*AskResult, error) {
	start := time.Now()
	if topK <= 0 {
		topK = s.defaultTopK
	}

	hasDocs, err := s.store.HasDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("index check: %w", err)
	}

	var retrieved []RetrievedChunk
	if hasDocs {
		vec, err := s.embedder.Embed(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("embed question: %w", err)
		}
		retrieved, err = s.store.QueryByVector(ctx, vec, topK)
		if err != nil {
			return nil, fmt.Errorf("vector query: %w", err)
		}
	}

	relevant := FilterRelevant(retrieved)

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	answer, err := s.llm.Chat(ctx, buildSystemPrompt(relevant), history, question)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         question,
			NumResults:    len(relevant),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	return &AskResult{
		Answer:  answer,
		Sources: DedupeSources(relevant),
	}, nil
}

// buildSystemPrompt injects the relevant chunks as a knowledge base
// block, or notes their absence so the model does not invent citations.
func buildSystemPrompt(chunks []RetrievedChunk) string {
	var sb strings.Builder
	sb.WriteString("You are a friendly, helpful customer support assistant. " +
		"You have access to knowledge base documents to help answer questions.")

	if len(chunks) > 0 {
		sb.WriteString("\n\nKNOWLEDGE BASE:\n")
		for i, c := range chunks {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			fmt.Fprintf(&sb, "[Document %d: %q]\n%s", i+1, c.Metadata.Title, c.Metadata.ChunkText)
		}
	} else {
		sb.WriteString("\n\nNOTE: No relevant documents were found in the knowledge base for this " +
			"specific query. Use your general knowledge or politely ask for clarification.")
	}

	sb.WriteString("\n\nGUIDELINES:\n" +
		"- Be conversational and warm\n" +
		"- Use the information from the knowledge base but rephrase it in your own words\n" +
		"- Use **Markdown formatting** for emphasis and structure\n" +
		"- If the customer's specific situation isn't fully covered in the docs, acknowledge that clearly\n" +
		"- For general knowledge questions unrelated to the docs, answer helpfully using your knowledge\n" +
		"- Keep responses concise but friendly")

	return sb.String()
}
