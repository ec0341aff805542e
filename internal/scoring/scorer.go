package scoring

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/embedding"
	"github.com/docsift/docsift/internal/models"
	"github.com/docsift/docsift/internal/vector"
	"go.uber.org/zap"
)

// Scorer scores one document's section candidates against an intent.
type Scorer struct {
	embedder embedding.Embedder
	opener   document.Opener
	refiner  *Refiner
	logger   *zap.Logger // optional; when set, logs page-level degradations
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithLogger sets a logger for debug output (unreadable pages, timing).
func WithLogger(l *zap.Logger) ScorerOption {
	return func(s *Scorer) { s.logger = l }
}

// NewScorer creates a scorer using the given embedder, document opener, and
// refiner. Options (e.g. WithLogger) can be passed for debug logging.
func NewScorer(embedder embedding.Embedder, opener document.Opener, refiner *Refiner, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		embedder: embedder,
		opener:   opener,
		refiner:  refiner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreDocument scores every candidate of the document at docPath, in input
// order. A page that cannot be read degrades to an empty page (title-fallback
// excerpt); a document that cannot be opened, or an embedding failure, fails
// the whole document with no partial result.
func (s *Scorer) ScoreDocument(ctx context.Context, docPath string, intent models.Intent, candidates []models.SectionCandidate) ([]models.ScoredSection, error) {
	queryVec, err := s.embedder.Embed(ctx, intent.QueryText())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	doc, err := s.opener.Open(docPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	docName := filepath.Base(docPath)
	scored := make([]models.ScoredSection, 0, len(candidates))
	for _, cand := range candidates {
		titleVec, err := s.embedder.Embed(ctx, cand.Text)
		if err != nil {
			return nil, fmt.Errorf("embed section %q: %w", cand.Text, err)
		}
		score := vector.Cosine(queryVec, titleVec)

		pageText, err := doc.PageText(cand.Page)
		if err != nil {
			// Missing or corrupt pages never fail the document.
			if s.logger != nil {
				s.logger.Debug("page read failed, using empty text",
					zap.String("document", docName),
					zap.Int("page", cand.Page),
					zap.Error(err))
			}
			pageText = ""
		}

		refined, err := s.refiner.Refine(ctx, pageText, queryVec, cand.Text)
		if err != nil {
			return nil, fmt.Errorf("refine section %q: %w", cand.Text, err)
		}

		scored = append(scored, models.ScoredSection{
			Document:     docName,
			SectionTitle: cand.Text,
			PageNumber:   cand.Page,
			Score:        score,
			RefinedText:  refined,
		})
	}
	return scored, nil
}
