package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docsift/docsift/internal/models"
)

// Naming convention pairing candidate files with their source documents.
// A candidate file <base>_sections.json pairs with <base>.pdf and produces
// <base>_scored.json alongside the candidates.
const (
	CandidatesSuffix = "_sections.json"
	OutputSuffix     = "_scored.json"
	DocumentExt      = ".pdf"
)

// Discover enumerates candidate files in candidatesDir and derives one Task
// per document. A candidate file whose document is missing still yields a
// task; it fails at open time rather than crashing discovery.
func Discover(candidatesDir, documentsDir string, intent models.Intent) ([]Task, error) {
	entries, err := os.ReadDir(candidatesDir)
	if err != nil {
		return nil, fmt.Errorf("read candidates dir: %w", err)
	}

	var tasks []Task
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		task, ok := TaskForCandidates(filepath.Join(candidatesDir, entry.Name()), documentsDir, intent)
		if !ok {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// TaskForCandidates derives the task for a single candidates file. Returns
// false if the file name does not follow the candidates naming convention.
func TaskForCandidates(candidatesPath, documentsDir string, intent models.Intent) (Task, bool) {
	name := filepath.Base(candidatesPath)
	if !strings.HasSuffix(name, CandidatesSuffix) {
		return Task{}, false
	}
	base := strings.TrimSuffix(name, CandidatesSuffix)
	return Task{
		DocumentPath:   filepath.Join(documentsDir, base+DocumentExt),
		Intent:         intent,
		CandidatesPath: candidatesPath,
		OutputPath:     filepath.Join(filepath.Dir(candidatesPath), base+OutputSuffix),
	}, true
}
