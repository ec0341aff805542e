// Package batch discovers and runs per-document scoring tasks with bounded
// parallelism, idempotent skip-if-output-exists semantics, and per-task
// failure isolation.
package batch

import "github.com/docsift/docsift/internal/models"

// Status is the terminal state of a task.
type Status string

const (
	// StatusCompleted means the task scored its document and wrote output.
	StatusCompleted Status = "completed"
	// StatusSkipped means the output already existed; no work was done.
	StatusSkipped Status = "skipped"
	// StatusFailed means the task hit an error; other tasks are unaffected.
	StatusFailed Status = "failed"
)

// Task is one document's worth of scoring work. Tasks share no mutable state
// with each other.
type Task struct {
	DocumentPath   string        `json:"document_path"`
	Intent         models.Intent `json:"intent"`
	CandidatesPath string        `json:"candidates_path"`
	OutputPath     string        `json:"output_path"`
}

// Outcome is the terminal result of one task. Err is set only for
// StatusFailed; OutputPath is set for completed and skipped tasks.
type Outcome struct {
	Task       Task   `json:"task"`
	Status     Status `json:"status"`
	OutputPath string `json:"output_path,omitempty"`
	Err        error  `json:"-"`
	Error      string `json:"error,omitempty"`
}
