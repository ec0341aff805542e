package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docsift/docsift/internal/models"
	"github.com/docsift/docsift/internal/scoring"
	"go.uber.org/zap"
)

// DefaultParallelism is the number of tasks run concurrently when not configured.
const DefaultParallelism = 8

// Runner executes scoring tasks with bounded parallelism. Failures and panics
// inside one task never abort the others; every submitted task reaches a
// terminal outcome.
type Runner struct {
	scorer      *scoring.Scorer
	parallelism int
	logger      *zap.Logger // optional; when set, logs per-task progress
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets a logger for per-task progress output.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner. Non-positive parallelism falls back to
// DefaultParallelism.
func NewRunner(scorer *scoring.Scorer, parallelism int, opts ...RunnerOption) *Runner {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	r := &Runner{scorer: scorer, parallelism: parallelism}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes all tasks and returns one outcome per task, in task order.
// It returns an error only for an empty task list; individual task failures
// are reported in the outcomes, never raised.
func (r *Runner) Run(ctx context.Context, tasks []Task) ([]Outcome, error) {
	if len(tasks) == 0 {
		return nil, errors.New("no tasks to run")
	}

	outcomes := make([]Outcome, len(tasks))
	sem := make(chan struct{}, r.parallelism)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, task Task) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = r.runTask(ctx, task)
		}(i, task)
	}
	wg.Wait()
	return outcomes, nil
}

// runTask drives one task to a terminal state. A panic inside the scoring
// pipeline becomes a Failed outcome.
func (r *Runner) runTask(ctx context.Context, task Task) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = failed(task, fmt.Errorf("panic: %v", p))
		}
	}()

	// Idempotency: an existing output means the work is already done. The
	// content is trusted as-is; reruns never recompute or overwrite it.
	if _, err := os.Stat(task.OutputPath); err == nil {
		if r.logger != nil {
			r.logger.Info("output exists, skipping",
				zap.String("output", task.OutputPath))
		}
		return Outcome{Task: task, Status: StatusSkipped, OutputPath: task.OutputPath}
	}

	if r.logger != nil {
		r.logger.Info("scoring sections",
			zap.String("candidates", task.CandidatesPath),
			zap.String("document", task.DocumentPath))
	}
	start := time.Now()

	candidates, err := loadCandidates(task.CandidatesPath)
	if err != nil {
		return failed(task, err)
	}

	scored, err := r.scorer.ScoreDocument(ctx, task.DocumentPath, task.Intent, candidates)
	if err != nil {
		return failed(task, err)
	}

	if err := WriteJSONAtomic(task.OutputPath, scored); err != nil {
		return failed(task, err)
	}

	if r.logger != nil {
		r.logger.Info("scored sections",
			zap.Int("sections", len(scored)),
			zap.String("output", task.OutputPath),
			zap.Duration("elapsed", time.Since(start)))
	}
	return Outcome{Task: task, Status: StatusCompleted, OutputPath: task.OutputPath}
}

func failed(task Task, err error) Outcome {
	return Outcome{Task: task, Status: StatusFailed, Err: err, Error: err.Error()}
}

func loadCandidates(path string) ([]models.SectionCandidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	var candidates []models.SectionCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("parse candidates %s: %w", path, err)
	}
	return candidates, nil
}

// WriteJSONAtomic writes v pretty-printed to path via a temp file and rename,
// so a cancelled or crashed task never leaves a partial output behind.
func WriteJSONAtomic(path string, v interface{}) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
