package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/classify"
	"github.com/civiclens/grievance-analyzer/internal/config"
	"github.com/civiclens/grievance-analyzer/internal/export"
	"github.com/civiclens/grievance-analyzer/internal/history"
	"github.com/civiclens/grievance-analyzer/internal/ingest"
	"github.com/civiclens/grievance-analyzer/internal/ocr"
	"github.com/civiclens/grievance-analyzer/internal/pipeline"
	"github.com/civiclens/grievance-analyzer/internal/translate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of complaint documents to process (required)")
		out        = flag.String("out", "", "output CSV path (defaults to <dir parent>/grievance_results.csv)")
		xlsxOut    = flag.String("xlsx", "", "optional XLSX output path")
		cfgPath    = flag.String("config", "", "optional YAML config file")
		workers    = flag.Int("workers", 0, "override pipeline workers")
		includeAll = flag.Bool("all", false, "load files with unknown extensions too (reported as excluded)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "grievance_results.csv")
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Text extractor
	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		TesseractLang: cfg.OCR.Lang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
		TryTextLayer:  cfg.OCR.TryTextLayer,
		WorkDir:       cfg.OCR.WorkDir,
	}, logger)

	// Language normalizer; without an endpoint every artifact falls back to
	// its raw text.
	var tr translate.Translator
	if cfg.Translate.Endpoint != "" {
		client := translate.NewClient(translate.Config{
			Endpoint:   cfg.Translate.Endpoint,
			APIKey:     cfg.Translate.APIKey,
			TargetLang: cfg.Translate.TargetLang,
			Timeout:    cfg.Translate.Timeout,
		}, logger)
		tr = translate.NewResilientTranslator(client, translate.ResilienceConfig{
			RPS:        cfg.Translate.RPS,
			Burst:      cfg.Translate.Burst,
			MaxRetries: cfg.Translate.MaxRetries,
		}, logger)
		logger.Info("translator initialized", "endpoint", cfg.Translate.Endpoint, "target", cfg.Translate.TargetLang)
	} else {
		logger.Warn("translate endpoint not configured, classification runs on untranslated text")
	}
	normalizer := translate.NewNormalizer(tr, logger)

	// Classification rules
	rules := classify.DefaultRules()
	if cfg.Pipeline.RulesPath != "" {
		rules, err = classify.LoadRules(cfg.Pipeline.RulesPath)
		if err != nil {
			logger.Error("failed to load rules", "path", cfg.Pipeline.RulesPath, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded rules", "path", cfg.Pipeline.RulesPath)
	}
	signals := classify.NewExtractor(rules)

	// Run history (optional)
	var recorder pipeline.RunRecorder
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path, logger)
		if err != nil {
			logger.Error("failed to open history db", "path", cfg.History.Path, "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
		recorder = store
	}

	processor := pipeline.NewProcessor(pipeline.Config{
		Workers:         cfg.Pipeline.Workers,
		ArtifactTimeout: cfg.Pipeline.ArtifactTimeout,
	}, extractor, normalizer, signals, recorder, logger)

	// Load artifacts
	artifacts, stats, err := ingest.LoadDirectory(*dir, ingest.Options{
		SkipHidden:     true,
		IncludeUnknown: *includeAll,
	}, logger)
	if err != nil {
		logger.Error("failed to load directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("artifacts loaded", "count", len(artifacts), "scanned", stats.Scanned, "failed", stats.Failed)

	// Process
	res := processor.Run(ctx, artifacts)

	// Export CSV
	f, err := os.Create(*out)
	if err != nil {
		logger.Error("failed to create output file", "path", *out, "error", err)
		os.Exit(1)
	}
	if err := export.WriteCSV(f, res); err != nil {
		_ = f.Close()
		logger.Error("failed to write CSV", "path", *out, "error", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		logger.Error("failed to close output file", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("export.csv.ok", "path", *out, "rows", len(res.Records))

	// Optional XLSX export
	if *xlsxOut != "" {
		xlsxBytes, err := export.NewService(logger).BuildXLSX(res)
		if err != nil {
			logger.Error("failed to build XLSX", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, xlsxBytes, 0o644); err != nil {
			logger.Error("failed to write XLSX", "path", *xlsxOut, "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Complaints analyzed.\n")
	fmt.Printf("- Total complaints: %d\n", res.Summary.Total)
	fmt.Printf("- High priority:    %d\n", res.Summary.ByTier[constants.TierHigh])
	fmt.Printf("- Medium priority:  %d\n", res.Summary.ByTier[constants.TierMedium])
	fmt.Printf("- Low priority:     %d\n", res.Summary.ByTier[constants.TierLow])
	if len(res.Excluded) > 0 {
		fmt.Printf("- Excluded (input errors): %d\n", len(res.Excluded))
		for _, ex := range res.Excluded {
			fmt.Printf("    %s: %s\n", ex.File, ex.Reason)
		}
	}
	fmt.Printf("- Output: %s\n", *out)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
