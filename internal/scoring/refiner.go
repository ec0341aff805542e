// Package scoring ranks section candidates against a user intent and builds
// extractive excerpts from their pages.
package scoring

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/docsift/docsift/internal/embedding"
	"github.com/docsift/docsift/internal/vector"
)

// Defaults for sentence relevance filtering.
const (
	DefaultRelevanceThreshold = 0.6
	DefaultMaxSentences       = 10
)

var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// sentenceCandidate is one page sentence with its original position and
// relevance score. Ephemeral, consumed within a single Refine call.
type sentenceCandidate struct {
	index int
	score float64
	text  string
}

// Refiner selects the most relevant sentences of a page into a short excerpt.
type Refiner struct {
	embedder     embedding.Embedder
	threshold    float64
	maxSentences int
}

// NewRefiner creates a refiner. Non-positive threshold or maxSentences fall
// back to the defaults (0.6 and 10).
func NewRefiner(embedder embedding.Embedder, threshold float64, maxSentences int) *Refiner {
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	return &Refiner{
		embedder:     embedder,
		threshold:    threshold,
		maxSentences: maxSentences,
	}
}

// Refine builds an extractive excerpt from pageText: sentences scoring
// strictly above the threshold against queryVec, in document order, capped at
// maxSentences and joined with single spaces. When nothing qualifies (or the
// page is empty) the section title is the excerpt, so the result is never
// empty for a non-empty title. An embedding failure propagates to the caller.
func (r *Refiner) Refine(ctx context.Context, pageText string, queryVec []float32, title string) (string, error) {
	sentences := SplitSentences(pageText)
	if len(sentences) == 0 {
		return title, nil
	}

	vectors, err := r.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		return "", fmt.Errorf("embed sentences: %w", err)
	}

	// Filtering in iteration order keeps the excerpt in document order, not
	// rank order.
	var kept []sentenceCandidate
	for i, sent := range sentences {
		score := vector.Cosine(queryVec, vectors[i])
		if score > r.threshold {
			kept = append(kept, sentenceCandidate{index: i, score: score, text: sent})
		}
	}
	if len(kept) == 0 {
		return title, nil
	}
	if len(kept) > r.maxSentences {
		kept = kept[:r.maxSentences]
	}

	parts := make([]string, len(kept))
	for i, sc := range kept {
		parts[i] = sc.text
	}
	return strings.Join(parts, " "), nil
}

// SplitSentences segments text into trimmed, non-empty sentences in their
// original order. Text after the final terminator is kept as a last sentence.
func SplitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceSplitter.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
