// Package text splits extracted document text into embeddable chunks.
//
// Two strategies are supported:
//   - "recursive": hierarchical splitting (paragraphs, lines, sentences,
//     words) with small fragments merged into their predecessor
//   - "fixed": fixed-size sliding window with overlap, snapping to
//     sentence boundaries near the end of each window
package text

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategyFixed     Strategy = "fixed"

	DefaultStrategy = StrategyRecursive
)

// ParseStrategy maps a raw string onto a known strategy. Unknown or
// empty values fall back to the default rather than failing the job.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyFixed:
		return StrategyFixed
	case StrategyRecursive:
		return StrategyRecursive
	default:
		return DefaultStrategy
	}
}

// Document is a unit of ingestable content.
type Document struct {
	ID      string
	Title   string
	Content string
}

// Chunk is one embeddable slice of a document.
type Chunk struct {
	ID       string
	Text     string
	Index    int
	DocID    string
	Title    string
	Strategy Strategy
}

// Chunker holds the tuning parameters for both strategies.
type Chunker struct {
	// Fixed strategy
	FixedChunkSize    int
	FixedChunkOverlap int
	// Fraction of the window, measured from the end, in which a
	// sentence boundary is accepted.
	BoundaryFraction float64

	// Recursive strategy
	ChunkSize        int
	MinCharsPerChunk int
}

func NewChunker(fixedSize, fixedOverlap int, boundaryFraction float64, chunkSize, minChars int) *Chunker {
	return &Chunker{
		FixedChunkSize:    fixedSize,
		FixedChunkOverlap: fixedOverlap,
		BoundaryFraction:  boundaryFraction,
		ChunkSize:         chunkSize,
		MinCharsPerChunk:  minChars,
	}
}

// ChunkDocument splits a document with the given strategy and attaches
// chunk metadata. Chunk IDs are "<docID>#chunk-<index>" so a re-ingest
// of the same document lands on the same IDs.
func (c *Chunker) ChunkDocument(doc Document, strategy Strategy) ([]Chunk, error) {
	var (
		parts []string
		err   error
	)
	switch strategy {
	case StrategyFixed:
		parts, err = c.ChunkFixed(doc.Content)
	default:
		strategy = StrategyRecursive
		parts, err = c.ChunkRecursive(doc.Content)
	}
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	for i, t := range parts {
		chunks = append(chunks, Chunk{
			ID:       fmt.Sprintf("%s#chunk-%d", doc.ID, i),
			Text:     t,
			Index:    i,
			DocID:    doc.ID,
			Title:    doc.Title,
			Strategy: strategy,
		})
	}
	return chunks, nil
}

// ChunkFixed splits text into overlapping windows of FixedChunkSize
// characters. When a window does not reach the end of the text, the
// cut snaps to the latest sentence boundary (". ", "! ", "? ", "\n")
// that falls within the tail BoundaryFraction of the window.
func (c *Chunker) ChunkFixed(text string) ([]string, error) {
	size, overlap := c.FixedChunkSize, c.FixedChunkOverlap
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be less than chunk size %d", overlap, size)
	}

	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	if len(text) <= size {
		return []string{strings.TrimSpace(text)}, nil
	}

	minBoundary := int(float64(size) * (1 - c.BoundaryFraction))
	var chunks []string
	start := 0

	for start < len(text) {
		end := start + size

		if end < len(text) {
			window := text[start:end]
			best := -1
			for _, sep := range []string{". ", "! ", "? ", "\n"} {
				if pos := strings.LastIndex(window, sep); pos >= minBoundary && pos > best {
					best = pos
				}
			}
			if best != -1 {
				// Keep the boundary character with the chunk.
				end = start + best + 1
			}
		}

		// end may run past the text; the overshoot is what advances
		// start far enough to terminate on the final window.
		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		}
		if chunk := strings.TrimSpace(text[start:sliceEnd]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		start = end - overlap
		if start >= len(text)-1 {
			break
		}
	}

	return chunks, nil
}

// ChunkRecursive splits text along structural boundaries, preferring
// paragraph breaks, then lines, then sentences, then words. Fragments
// shorter than MinCharsPerChunk are folded into the preceding chunk.
func (c *Chunker) ChunkRecursive(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.ChunkSize),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
	)

	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("recursive split: %w", err)
	}

	var chunks []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) < c.MinCharsPerChunk && len(chunks) > 0 {
			chunks[len(chunks)-1] = chunks[len(chunks)-1] + "\n" + p
			continue
		}
		chunks = append(chunks, p)
	}
	if chunks == nil {
		chunks = []string{}
	}
	return chunks, nil
}
