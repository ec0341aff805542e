package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
scoring:
  relevance_threshold: 0.75
  max_sentences: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Scoring.RelevanceThreshold != 0.75 || cfg.Scoring.MaxSentences != 5 {
		t.Errorf("unexpected scoring config: %+v", cfg.Scoring)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Embedding.Dimensions != 384 || cfg.Embedding.MaxTokens != 256 {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.CacheSize != 2048 {
		t.Errorf("cache size default: %d", cfg.Embedding.CacheSize)
	}
	if cfg.Embedding.Fallback != "hash" {
		t.Errorf("fallback default: %q", cfg.Embedding.Fallback)
	}
	if cfg.Scoring.RelevanceThreshold != 0.6 || cfg.Scoring.MaxSentences != 10 {
		t.Errorf("scoring defaults: %+v", cfg.Scoring)
	}
	if cfg.Batch.Parallelism != 8 || cfg.Batch.TopSections != 5 {
		t.Errorf("batch defaults: %+v", cfg.Batch)
	}
	if cfg.Storage.HistoryPath == "" {
		t.Error("history path default missing")
	}
}

func TestLoadExpandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
batch:
  candidates_dir: "./sections"
  documents_dir: "./input"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Batch.CandidatesDir != filepath.Join(dir, "sections") {
		t.Errorf("candidates_dir: got %q", cfg.Batch.CandidatesDir)
	}
	if cfg.Batch.DocumentsDir != filepath.Join(dir, "input") {
		t.Errorf("documents_dir: got %q", cfg.Batch.DocumentsDir)
	}
}

func TestLoadAbsolutePathUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  history_path: "/var/lib/docsift/history.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.HistoryPath != "/var/lib/docsift/history.db" {
		t.Errorf("history_path: got %q", cfg.Storage.HistoryPath)
	}
}
