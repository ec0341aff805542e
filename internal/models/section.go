// Package models defines core data structures for section candidates, intents, and scored output.
package models

// SectionCandidate is one candidate section proposed by the structural
// extractor: a heading text and the zero-based page it appears on.
type SectionCandidate struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// ScoredSection is the output record for one candidate section.
// RefinedText is never empty when SectionTitle is non-empty.
type ScoredSection struct {
	Document     string  `json:"document"`
	SectionTitle string  `json:"section_title"`
	PageNumber   int     `json:"page_number"`
	Score        float64 `json:"score"`
	RefinedText  string  `json:"refined_text"`
}
