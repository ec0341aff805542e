package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := NewRunStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewRunStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	run := &Run{
		ID:         "run-1",
		Persona:    "HR professional",
		Job:        "onboard employees",
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now,
		Tasks: []TaskRecord{
			{Document: "handbook.pdf", Status: "completed", OutputPath: "/out/handbook_scored.json"},
			{Document: "missing.pdf", Status: "failed", Error: "document not found"},
		},
	}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != "run-1" || got.Persona != "HR professional" || got.Job != "onboard employees" {
		t.Errorf("run: %+v", got)
	}
	if len(got.Tasks) != 2 {
		t.Fatalf("got %d task records, want 2", len(got.Tasks))
	}
	byDoc := map[string]TaskRecord{}
	for _, task := range got.Tasks {
		byDoc[task.Document] = task
	}
	if byDoc["handbook.pdf"].Status != "completed" || byDoc["handbook.pdf"].OutputPath == "" {
		t.Errorf("completed record: %+v", byDoc["handbook.pdf"])
	}
	if byDoc["missing.pdf"].Status != "failed" || byDoc["missing.pdf"].Error == "" {
		t.Errorf("failed record: %+v", byDoc["missing.pdf"])
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		run := &Run{
			ID:         id,
			Persona:    "p",
			Job:        "j",
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
		}
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Errorf("order: got %s, %s", runs[0].ID, runs[1].ID)
	}
}
