package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/docsift/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 2048
	}
	if cfg.Embedding.Fallback == "" {
		cfg.Embedding.Fallback = "hash"
	}
	if cfg.Scoring.RelevanceThreshold == 0 {
		cfg.Scoring.RelevanceThreshold = 0.6
	}
	if cfg.Scoring.MaxSentences == 0 {
		cfg.Scoring.MaxSentences = 10
	}
	if cfg.Batch.CandidatesDir == "" {
		cfg.Batch.CandidatesDir = "./sections"
	}
	if cfg.Batch.DocumentsDir == "" {
		cfg.Batch.DocumentsDir = "./input"
	}
	if cfg.Batch.Parallelism == 0 {
		cfg.Batch.Parallelism = 8
	}
	if cfg.Batch.TopSections == 0 {
		cfg.Batch.TopSections = 5
	}
	if cfg.Storage.HistoryPath == "" {
		cfg.Storage.HistoryPath = "/usr/local/var/docsift/history.db"
	}
}
