// Package cli provides CLI output utilities for docsift.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docsift/docsift/internal/batch"
	"github.com/docsift/docsift/internal/models"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteOutcomes writes batch outcomes to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteOutcomes(w io.Writer, outcomes []batch.Outcome, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	default:
		writeOutcomesText(w, outcomes)
		return nil
	}
}

func writeOutcomesText(w io.Writer, outcomes []batch.Outcome) {
	var completed, skipped, failed int
	for _, o := range outcomes {
		switch o.Status {
		case batch.StatusCompleted:
			completed++
		case batch.StatusSkipped:
			skipped++
		case batch.StatusFailed:
			failed++
		}
	}
	fmt.Fprintf(w, "\nProcessed %d documents (%d completed, %d skipped, %d failed)\n\n",
		len(outcomes), completed, skipped, failed)
	for _, o := range outcomes {
		fmt.Fprintf(w, "[%s] %s\n", o.Status, o.Task.DocumentPath)
		switch o.Status {
		case batch.StatusFailed:
			fmt.Fprintf(w, "       error: %s\n", Truncate(o.Error, 200))
		default:
			fmt.Fprintf(w, "       output: %s\n", o.OutputPath)
		}
	}
	fmt.Fprintln(w)
}

// WriteScoredSections writes scored sections to w in the given format,
// in the order provided.
func WriteScoredSections(w io.Writer, sections []models.ScoredSection, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sections)
	default:
		writeScoredSectionsText(w, sections)
		return nil
	}
}

func writeScoredSectionsText(w io.Writer, sections []models.ScoredSection) {
	fmt.Fprintf(w, "\nScored %d sections\n\n", len(sections))
	for i, s := range sections {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. %s (page %d) | Score: %.4f\n", i+1, s.SectionTitle, s.PageNumber, s.Score)
		fmt.Fprintf(w, "\n%s\n\n", Truncate(s.RefinedText, 300))
	}
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
