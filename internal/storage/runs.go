// Package storage persists batch run history in SQLite. The ledger is
// observational: skip/rerun decisions are made from output files on disk,
// never from these tables.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one batch invocation with its per-task outcomes.
type Run struct {
	ID         string       `json:"id"`
	Persona    string       `json:"persona"`
	Job        string       `json:"job"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Tasks      []TaskRecord `json:"tasks"`
}

// TaskRecord is the recorded terminal state of one task in a run.
type TaskRecord struct {
	Document   string `json:"document"`
	Status     string `json:"status"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RunStore stores runs in a SQLite database.
type RunStore struct {
	db *sql.DB
}

// NewRunStore opens or creates the database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func NewRunStore(dbPath string) (*RunStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &RunStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		persona TEXT NOT NULL,
		job TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS run_tasks (
		run_id TEXT NOT NULL,
		document TEXT NOT NULL,
		status TEXT NOT NULL,
		output_path TEXT,
		error TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_run_tasks_run_id ON run_tasks(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordRun inserts a run and its task records in one transaction.
func (s *RunStore) RecordRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, persona, job, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Persona, run.Job, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, task := range run.Tasks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_tasks (run_id, document, status, output_path, error) VALUES (?, ?, ?, ?, ?)`,
			run.ID, task.Document, task.Status, task.OutputPath, task.Error,
		)
		if err != nil {
			return fmt.Errorf("insert task record: %w", err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first, with their task records.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, persona, job, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Persona, &run.Job, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		tasks, err := s.listTasks(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Tasks = tasks
	}
	return runs, nil
}

func (s *RunStore) listTasks(ctx context.Context, runID string) ([]TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document, status, output_path, error FROM run_tasks WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []TaskRecord
	for rows.Next() {
		var task TaskRecord
		var outputPath, errMsg sql.NullString
		if err := rows.Scan(&task.Document, &task.Status, &outputPath, &errMsg); err != nil {
			return nil, err
		}
		task.OutputPath = outputPath.String
		task.Error = errMsg.String
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Close closes the database.
func (s *RunStore) Close() error {
	return s.db.Close()
}
