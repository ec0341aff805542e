package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/docsift/docsift/internal/models"
)

func writeScored(t *testing.T, dir, name string, sections []models.ScoredSection) string {
	t.Helper()
	data, err := json.Marshal(sections)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildRanksAndDedupes(t *testing.T) {
	dir := t.TempDir()
	a := writeScored(t, dir, "a_scored.json", []models.ScoredSection{
		{Document: "a.pdf", SectionTitle: "Intro", PageNumber: 0, Score: 0.9, RefinedText: "A intro."},
		{Document: "a.pdf", SectionTitle: "Methods", PageNumber: 3, Score: 0.4, RefinedText: "A methods."},
	})
	b := writeScored(t, dir, "b_scored.json", []models.ScoredSection{
		{Document: "b.pdf", SectionTitle: "Intro", PageNumber: 0, Score: 0.8, RefinedText: "B intro."}, // dup of (Intro, 0)
		{Document: "b.pdf", SectionTitle: "Results", PageNumber: 5, Score: 0.7, RefinedText: "B results."},
	})

	intent := models.Intent{Persona: "analyst", Job: "compare studies"}
	rep, err := NewBuilder(2).Build([]string{a, b}, intent)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if rep.Metadata.Persona != "analyst" || rep.Metadata.JobToBeDone != "compare studies" {
		t.Errorf("metadata: %+v", rep.Metadata)
	}
	if rep.Metadata.ProcessingTimestamp == "" {
		t.Error("missing timestamp")
	}
	if len(rep.Metadata.InputDocuments) != 2 {
		t.Errorf("input documents: %v", rep.Metadata.InputDocuments)
	}

	if len(rep.ExtractedSections) != 2 {
		t.Fatalf("got %d sections, want 2", len(rep.ExtractedSections))
	}
	// (Intro, 0) from a.pdf wins at rank 1; the b.pdf duplicate is dropped,
	// so Results takes rank 2.
	if rep.ExtractedSections[0].SectionTitle != "Intro" || rep.ExtractedSections[0].ImportanceRank != 1 {
		t.Errorf("rank 1: %+v", rep.ExtractedSections[0])
	}
	if rep.ExtractedSections[0].Document != "a.pdf" {
		t.Errorf("rank 1 document: %+v", rep.ExtractedSections[0])
	}
	if rep.ExtractedSections[1].SectionTitle != "Results" || rep.ExtractedSections[1].ImportanceRank != 2 {
		t.Errorf("rank 2: %+v", rep.ExtractedSections[1])
	}
	if len(rep.SubsectionAnalysis) != 2 || rep.SubsectionAnalysis[0].RefinedText != "A intro." {
		t.Errorf("subsections: %+v", rep.SubsectionAnalysis)
	}
}

func TestBuildSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeScored(t, dir, "good_scored.json", []models.ScoredSection{
		{Document: "g.pdf", SectionTitle: "Only", PageNumber: 1, Score: 0.5, RefinedText: "text"},
	})
	missing := filepath.Join(dir, "missing_scored.json")

	rep, err := NewBuilder(5).Build([]string{good, missing}, models.Intent{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rep.ExtractedSections) != 1 {
		t.Errorf("got %d sections, want 1", len(rep.ExtractedSections))
	}
}

func TestBuildAllUnreadable(t *testing.T) {
	if _, err := NewBuilder(5).Build([]string{filepath.Join(t.TempDir(), "nope.json")}, models.Intent{}); err == nil {
		t.Fatal("expected error when nothing could be read")
	}
}
