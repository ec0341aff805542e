// Package report merges per-document scored outputs into a single ranked report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/docsift/docsift/internal/models"
	"go.uber.org/zap"
)

// DefaultTopSections is how many top-scoring sections the report keeps.
const DefaultTopSections = 5

// maxConcurrentReads bounds parallel reads of scored output files.
const maxConcurrentReads = 4

// Metadata describes the batch a report was built from.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection is one ranked section in the report.
type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	PageNumber     int    `json:"page_number"`
	ImportanceRank int    `json:"importance_rank"`
}

// Subsection carries the refined excerpt for a ranked section.
type Subsection struct {
	Document    string `json:"document"`
	PageNumber  int    `json:"page_number"`
	RefinedText string `json:"refined_text"`
}

// Report is the merged, ranked output across all documents of a batch.
type Report struct {
	Metadata           Metadata           `json:"metadata"`
	ExtractedSections  []ExtractedSection `json:"extracted_sections"`
	SubsectionAnalysis []Subsection       `json:"subsection_analysis"`
}

// Builder builds reports from scored output files.
type Builder struct {
	top    int
	logger *zap.Logger // optional
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for per-file progress output.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a builder keeping the given number of top sections.
// Non-positive top falls back to DefaultTopSections.
func NewBuilder(top int, opts ...BuilderOption) *Builder {
	if top <= 0 {
		top = DefaultTopSections
	}
	b := &Builder{top: top}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build reads every scored output file, sorts all sections by score
// descending, dedupes on (section_title, page_number), and keeps the top N.
// Unreadable files are logged and skipped; Build fails only when no file
// could be read.
func (b *Builder) Build(scoredPaths []string, intent models.Intent) (*Report, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sem      = make(chan struct{}, maxConcurrentReads)
		sections []models.ScoredSection
		loaded   int
	)

	for _, path := range scoredPaths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := os.ReadFile(path)
			if err != nil {
				if b.logger != nil {
					b.logger.Warn("skipping unreadable scored file", zap.String("path", path), zap.Error(err))
				}
				return
			}
			var scored []models.ScoredSection
			if err := json.Unmarshal(data, &scored); err != nil {
				if b.logger != nil {
					b.logger.Warn("skipping unparseable scored file", zap.String("path", path), zap.Error(err))
				}
				return
			}
			mu.Lock()
			sections = append(sections, scored...)
			loaded++
			mu.Unlock()
		}(path)
	}
	wg.Wait()

	if loaded == 0 {
		return nil, fmt.Errorf("none of %d scored files could be read", len(scoredPaths))
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Score > sections[j].Score
	})

	seen := make(map[string]bool)
	var top []models.ScoredSection
	for _, sec := range sections {
		key := fmt.Sprintf("%s|%d", sec.SectionTitle, sec.PageNumber)
		if seen[key] {
			continue
		}
		seen[key] = true
		top = append(top, sec)
		if len(top) >= b.top {
			break
		}
	}

	rep := &Report{
		Metadata: Metadata{
			InputDocuments:      inputDocuments(sections),
			Persona:             intent.Persona,
			JobToBeDone:         intent.Job,
			ProcessingTimestamp: time.Now().Format(time.RFC3339),
		},
	}
	for i, sec := range top {
		rep.ExtractedSections = append(rep.ExtractedSections, ExtractedSection{
			Document:       sec.Document,
			SectionTitle:   sec.SectionTitle,
			PageNumber:     sec.PageNumber,
			ImportanceRank: i + 1,
		})
		rep.SubsectionAnalysis = append(rep.SubsectionAnalysis, Subsection{
			Document:    sec.Document,
			PageNumber:  sec.PageNumber,
			RefinedText: sec.RefinedText,
		})
	}
	return rep, nil
}

// inputDocuments returns the distinct document names, sorted.
func inputDocuments(sections []models.ScoredSection) []string {
	seen := make(map[string]bool)
	var docs []string
	for _, sec := range sections {
		if !seen[sec.Document] {
			seen[sec.Document] = true
			docs = append(docs, sec.Document)
		}
	}
	sort.Strings(docs)
	return docs
}
