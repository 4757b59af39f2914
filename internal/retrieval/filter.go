package retrieval

// ScoreFloor is the minimum similarity a chunk must reach regardless
// of how the rest of the result set scored.
const ScoreFloor = 0.25

// topScoreRatio keeps chunks within 30% of the best match.
const topScoreRatio = 0.7

// DynamicThreshold adapts the relevance cutoff to the result set:
// strict when there is a clear best match, lenient for multi-topic
// questions where scores cluster lower.
func DynamicThreshold(chunks []RetrievedChunk) float64 {
	top := 0.0
	for _, c := range chunks {
		if c.Score > top {
			top = c.Score
		}
	}
	threshold := top * topScoreRatio
	if threshold < ScoreFloor {
		threshold = ScoreFloor
	}
	return threshold
}

// FilterRelevant drops chunks below the dynamic threshold, preserving
// the original order. An empty input yields an empty slice.
func FilterRelevant(chunks []RetrievedChunk) []RetrievedChunk {
	threshold := DynamicThreshold(chunks)
	relevant := make([]RetrievedChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Score >= threshold {
			relevant = append(relevant, c)
		}
	}
	return relevant
}

// DedupeSources collapses chunks into one source per document, keeping
// first-seen order so the best-scoring document stays first.
func DedupeSources(chunks []RetrievedChunk) []Source {
	seen := make(map[string]bool, len(chunks))
	sources := make([]Source, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.Metadata.DocID] {
			continue
		}
		seen[c.Metadata.DocID] = true
		sources = append(sources, Source{DocID: c.Metadata.DocID, Title: c.Metadata.Title})
	}
	return sources
}
