// Package main is the docsift CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/docsift/docsift/internal/batch"
	"github.com/docsift/docsift/internal/cli"
	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/embedding"
	"github.com/docsift/docsift/internal/models"
	"github.com/docsift/docsift/internal/report"
	"github.com/docsift/docsift/internal/scoring"
	"github.com/docsift/docsift/internal/server"
	"github.com/docsift/docsift/internal/storage"
	"github.com/docsift/docsift/internal/watcher"
	"github.com/docsift/docsift/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docsift/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used, so that "docsift batch" from the project dir uses the project's
// config (including debug). Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		// No config file anywhere is fine for CLI use; defaults cover it.
		if errors.Is(err, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "score":
		runScore()
	case "batch":
		runBatch()
	case "watch":
		runWatch()
	case "serve":
		runServe()
	case "report":
		runReport()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("docsift version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services shared by the subcommands.
type Components struct {
	Embedder *embedding.CachedEmbedder
	Scorer   *scoring.Scorer
	Runs     *storage.RunStore
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Runs != nil {
		_ = c.Runs.Close()
	}
}

// initializeComponents builds the embedder, scorer, and run store from config.
// When the ONNX model cannot be loaded and the configured fallback is "hash",
// the deterministic hash embedder is used and the substitution is logged;
// any other fallback value makes a missing model a hard error.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withRuns bool) (*Components, error) {
	var inner embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
	)
	if err != nil {
		if cfg.Embedding.Fallback != "hash" {
			return nil, fmt.Errorf("failed to load embedding model %s: %w", cfg.Embedding.ModelPath, err)
		}
		logger.Warn("embedding model unavailable, using deterministic hash embedder",
			zap.String("model_path", cfg.Embedding.ModelPath),
			zap.Error(err))
		inner = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	} else {
		inner = onnxEmbedder
	}
	embedder := embedding.NewCachedEmbedder(inner, cfg.Embedding.CacheSize)

	refiner := scoring.NewRefiner(embedder, cfg.Scoring.RelevanceThreshold, cfg.Scoring.MaxSentences)
	scorer := scoring.NewScorer(embedder, document.NewPDFOpener(), refiner, scoring.WithLogger(logger))

	components := &Components{Embedder: embedder, Scorer: scorer}
	if withRuns && cfg.Storage.HistoryPath != "" {
		runs, err := storage.NewRunStore(cfg.Storage.HistoryPath)
		if err != nil {
			components.Close()
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
		components.Runs = runs
	}
	return components, nil
}

func setupLogger(cfg *config.Config, debugFlag bool) *zap.Logger {
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func outputFormatFromFlag(name string) cli.OutputFormat {
	switch name {
	case "json":
		return cli.OutputJSON
	case "text":
		return cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", name)
		os.Exit(1)
		return cli.OutputText
	}
}

func runScore() {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	docPath := fs.String("document", "", "PDF document to score")
	candidatesPath := fs.String("sections", "", "JSON file with section candidates")
	persona := fs.String("persona", "", "persona, e.g. \"HR professional\"")
	job := fs.String("job", "", "job to be done, e.g. \"onboard new employees\"")
	outPath := fs.String("out", "", "write scored sections to this file instead of stdout")
	outputFormat := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if *docPath == "" || *candidatesPath == "" || *persona == "" || *job == "" {
		fmt.Println("Usage: docsift score --document <file.pdf> --sections <file_sections.json> --persona <who> --job <what>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	intent := models.Intent{Persona: *persona, Job: *job}

	// Writing to a file goes through the task runner so an existing output
	// is skipped, never recomputed or overwritten.
	if *outPath != "" {
		task := batch.Task{
			DocumentPath:   *docPath,
			Intent:         intent,
			CandidatesPath: *candidatesPath,
			OutputPath:     *outPath,
		}
		runner := batch.NewRunner(components.Scorer, 1, batch.WithLogger(logger))
		outcomes, err := runner.Run(context.Background(), []batch.Task{task})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Scoring failed: %v\n", err)
			os.Exit(1)
		}
		switch out := outcomes[0]; out.Status {
		case batch.StatusSkipped:
			fmt.Printf("Output %s already exists, skipping\n", out.OutputPath)
		case batch.StatusFailed:
			fmt.Fprintf(os.Stderr, "Scoring failed: %s\n", out.Error)
			os.Exit(1)
		default:
			fmt.Printf("Wrote scored sections to %s\n", out.OutputPath)
		}
		return
	}

	data, err := os.ReadFile(*candidatesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read sections: %v\n", err)
		os.Exit(1)
	}
	var candidates []models.SectionCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse sections: %v\n", err)
		os.Exit(1)
	}

	scored, err := components.Scorer.ScoreDocument(context.Background(), *docPath, intent, candidates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scoring failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteScoredSections(os.Stdout, scored, outputFormatFromFlag(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runBatch() {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	candidatesDir := fs.String("sections-dir", "", "directory with *_sections.json files (default from config)")
	documentsDir := fs.String("documents-dir", "", "directory with PDF documents (default from config)")
	persona := fs.String("persona", "", "persona, e.g. \"HR professional\"")
	job := fs.String("job", "", "job to be done")
	parallelism := fs.Int("parallelism", 0, "max concurrent documents (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if *persona == "" || *job == "" {
		fmt.Println("Usage: docsift batch --persona <who> --job <what> [--sections-dir dir] [--documents-dir dir]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *candidatesDir != "" {
		cfg.Batch.CandidatesDir = *candidatesDir
	}
	if *documentsDir != "" {
		cfg.Batch.DocumentsDir = *documentsDir
	}
	if *parallelism > 0 {
		cfg.Batch.Parallelism = *parallelism
	}
	logger := setupLogger(cfg, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	intent := models.Intent{Persona: *persona, Job: *job}
	tasks, err := batch.Discover(cfg.Batch.CandidatesDir, cfg.Batch.DocumentsDir, intent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Task discovery failed: %v\n", err)
		os.Exit(1)
	}

	runner := batch.NewRunner(components.Scorer, cfg.Batch.Parallelism, batch.WithLogger(logger))
	started := time.Now()
	outcomes, err := runner.Run(context.Background(), tasks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch failed: %v\n", err)
		os.Exit(1)
	}

	recordRun(components.Runs, logger, intent, started, outcomes)

	// Individual task failures are reported in the outcomes, not as a
	// non-zero exit; rerunning the batch resubmits only the failed tasks.
	if err := cli.WriteOutcomes(os.Stdout, outcomes, outputFormatFromFlag(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// recordRun writes the run to the history ledger. Failures are logged, never
// fatal: history is observational.
func recordRun(runs *storage.RunStore, logger *zap.Logger, intent models.Intent, started time.Time, outcomes []batch.Outcome) {
	if runs == nil {
		return
	}
	run := &storage.Run{
		ID:         uuid.NewString(),
		Persona:    intent.Persona,
		Job:        intent.Job,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	for _, o := range outcomes {
		run.Tasks = append(run.Tasks, storage.TaskRecord{
			Document:   o.Task.DocumentPath,
			Status:     string(o.Status),
			OutputPath: o.OutputPath,
			Error:      o.Error,
		})
	}
	if err := runs.RecordRun(context.Background(), run); err != nil {
		logger.Warn("failed to record run history", zap.Error(err))
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	candidatesDir := fs.String("sections-dir", "", "directory to watch for *_sections.json files (default from config)")
	documentsDir := fs.String("documents-dir", "", "directory with PDF documents (default from config)")
	persona := fs.String("persona", "", "persona")
	job := fs.String("job", "", "job to be done")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if *persona == "" || *job == "" {
		fmt.Println("Usage: docsift watch --persona <who> --job <what> [--sections-dir dir] [--documents-dir dir]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *candidatesDir != "" {
		cfg.Batch.CandidatesDir = *candidatesDir
	}
	if *documentsDir != "" {
		cfg.Batch.DocumentsDir = *documentsDir
	}
	debugMode := cfg.Debug || *debug
	logger := setupLogger(cfg, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	intent := models.Intent{Persona: *persona, Job: *job}
	runner := batch.NewRunner(components.Scorer, 1, batch.WithLogger(logger))

	onArrive := func(path string) {
		task, ok := batch.TaskForCandidates(path, cfg.Batch.DocumentsDir, intent)
		if !ok {
			return
		}
		started := time.Now()
		outcomes, err := runner.Run(context.Background(), []batch.Task{task})
		if err != nil {
			logger.Warn("watch scoring failed", zap.String("path", path), zap.Error(err))
			return
		}
		recordRun(components.Runs, logger, intent, started, outcomes)
		for _, o := range outcomes {
			logger.Info("watch task finished",
				zap.String("document", o.Task.DocumentPath),
				zap.String("status", string(o.Status)),
				zap.String("error", o.Error))
		}
	}

	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(cfg.Batch.CandidatesDir, batch.CandidatesSuffix, onArrive, watchOpts...)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()
	logger.Info("watching for candidate files",
		zap.String("dir", cfg.Batch.CandidatesDir),
		zap.String("persona", intent.Persona),
		zap.String("job", intent.Job))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchSvc.Stop()
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg, *debug)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Scorer, components.Runs, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runReport() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	scoredDir := fs.String("scored-dir", "", "directory with *_scored.json files (default: sections dir from config)")
	persona := fs.String("persona", "", "persona")
	job := fs.String("job", "", "job to be done")
	top := fs.Int("top", 0, "number of top sections to include (default from config)")
	outPath := fs.String("out", "", "write report to this file instead of stdout")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if *persona == "" || *job == "" {
		fmt.Println("Usage: docsift report --persona <who> --job <what> [--scored-dir dir] [--top n] [--out file]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg, *debug)
	defer logger.Sync()

	dir := *scoredDir
	if dir == "" {
		dir = cfg.Batch.CandidatesDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read scored directory: %v\n", err)
		os.Exit(1)
	}
	var scoredPaths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), batch.OutputSuffix) {
			continue
		}
		scoredPaths = append(scoredPaths, filepath.Join(dir, entry.Name()))
	}

	topN := *top
	if topN <= 0 {
		topN = cfg.Batch.TopSections
	}
	builder := report.NewBuilder(topN, report.WithLogger(logger))
	rep, err := builder.Build(scoredPaths, models.Intent{Persona: *persona, Job: *job})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report failed: %v\n", err)
		os.Exit(1)
	}

	if *outPath != "" {
		if err := batch.WriteJSONAtomic(*outPath, rep); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote report with %d sections to %s\n", len(rep.ExtractedSections), *outPath)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of runs to show, newest first")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	runs, err := storage.NewRunStore(cfg.Storage.HistoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run history: %v\n", err)
		os.Exit(1)
	}
	defer runs.Close()

	history, err := runs.ListRuns(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(history); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if len(history) == 0 {
		fmt.Println("No runs recorded.")
		return
	}
	for _, run := range history {
		fmt.Printf("%s  %s\n", run.StartedAt.Format(time.RFC3339), run.ID)
		fmt.Printf("  persona: %s\n  job: %s\n", run.Persona, run.Job)
		var completed, skipped, failed int
		for _, t := range run.Tasks {
			switch t.Status {
			case string(batch.StatusCompleted):
				completed++
			case string(batch.StatusSkipped):
				skipped++
			case string(batch.StatusFailed):
				failed++
			}
		}
		fmt.Printf("  tasks: %d (%d completed, %d skipped, %d failed)\n\n",
			len(run.Tasks), completed, skipped, failed)
	}
}

func printUsage() {
	fmt.Println(`docsift - persona-driven document section relevance

Usage:
  docsift score [flags]     Score one document's sections against a persona
  docsift batch [flags]     Score every candidates/document pair in a directory
  docsift watch [flags]     Watch for new candidate files and score them
  docsift serve [flags]     Start the HTTP API server
  docsift report [flags]    Merge scored outputs into a ranked report
  docsift history [flags]   Show past batch runs
  docsift version           Show version
  docsift help              Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/docsift/config.yaml)
  --debug            Enable debug logging

Score Flags:
  --document string  PDF document to score
  --sections string  JSON file with section candidates ([{"text": ..., "page": ...}])
  --persona string   Who the reader is
  --job string       What the reader wants to do
  --out string       Write scored sections to this file instead of stdout
  --output string    Output format: text or json (default: text)

Batch / Watch Flags:
  --sections-dir string   Directory with *_sections.json files
  --documents-dir string  Directory with PDF documents
  --persona string        Who the reader is
  --job string            What the reader wants to do
  --parallelism int       Max concurrent documents (batch only)

Report Flags:
  --scored-dir string  Directory with *_scored.json files
  --top int            Number of top sections in the report
  --out string         Write report to this file instead of stdout

Examples:
  docsift score --document input/guide.pdf --sections sections/guide_sections.json \
    --persona "HR professional" --job "onboard new employees"
  docsift batch --persona "Travel planner" --job "plan a trip for college friends"
  docsift watch --persona "Student" --job "study organic chemistry"
  docsift report --persona "Student" --job "study organic chemistry" --out report.json
  docsift history --limit 5`)
}
