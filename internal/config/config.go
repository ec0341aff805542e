// Package config provides configuration loading and structs for docsift.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Batch     BatchConfig     `yaml:"batch"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig holds HTTP server settings for serve mode.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EmbeddingConfig selects and configures the embedding model. Fallback names
// the embedder used when the ONNX model cannot be loaded: "hash" for the
// deterministic hash embedder, or "none" to fail startup instead.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	Fallback   string `yaml:"fallback"`
}

// ScoringConfig holds sentence relevance settings.
type ScoringConfig struct {
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	MaxSentences       int     `yaml:"max_sentences"`
}

// BatchConfig holds batch discovery and execution settings.
type BatchConfig struct {
	CandidatesDir string `yaml:"candidates_dir"`
	DocumentsDir  string `yaml:"documents_dir"`
	Parallelism   int    `yaml:"parallelism"`
	TopSections   int    `yaml:"top_sections"`
}

// StorageConfig holds the run-history database path.
type StorageConfig struct {
	HistoryPath string `yaml:"history_path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Batch.CandidatesDir = expandPath(cfg.Batch.CandidatesDir, configDir)
	cfg.Batch.DocumentsDir = expandPath(cfg.Batch.DocumentsDir, configDir)
	cfg.Storage.HistoryPath = expandPath(cfg.Storage.HistoryPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
