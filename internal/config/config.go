package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/civiclens/grievance-analyzer/internal/common"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	OCR       OCRConfig       `yaml:"ocr"`
	Translate TranslateConfig `yaml:"translate"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	History   HistoryConfig   `yaml:"history"`
}

// OCRConfig holds text-extraction configuration.
type OCRConfig struct {
	Tesseract     string `yaml:"tesseract"`      // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm      string `yaml:"pdftoppm"`       // binary name or absolute path; if empty -> "pdftoppm"
	Lang          string `yaml:"lang"`           // default "eng"
	DPI           int    `yaml:"dpi"`            // rasterization DPI for PDFs, default 250
	MaxPages      int    `yaml:"max_pages"`      // 0 = no limit
	TryTextLayer  bool   `yaml:"try_text_layer"` // use embedded PDF text when present
	TessdataDir   string `yaml:"tessdata_dir"`
	WorkDir       string `yaml:"work_dir"` // scratch dir for page renders, default os.TempDir
}

// TranslateConfig holds language-normalization configuration. Timeouts are
// carried as seconds in YAML and computed into Timeout after load.
type TranslateConfig struct {
	Endpoint       string  `yaml:"endpoint"` // translate API base URL; empty disables translation
	APIKey         string  `yaml:"api_key"`
	TargetLang     string  `yaml:"target_lang"`     // canonical working language, default "en"
	TimeoutSeconds int     `yaml:"timeout_seconds"` // per-request, default 15
	RPS            float64 `yaml:"rps"`             // request rate limit, default 5
	Burst          int     `yaml:"burst"`           // default 5
	MaxRetries     int     `yaml:"max_retries"`     // default 2

	Timeout time.Duration `yaml:"-"` // computed from TimeoutSeconds
}

// PipelineConfig holds batch-orchestration configuration.
type PipelineConfig struct {
	Workers                int    `yaml:"workers"`                  // concurrent artifacts, default 1
	ArtifactTimeoutSeconds int    `yaml:"artifact_timeout_seconds"` // per-artifact bound, default 120
	RulesPath              string `yaml:"rules_path"`               // optional classification rules JSON

	ArtifactTimeout time.Duration `yaml:"-"` // computed from ArtifactTimeoutSeconds
}

// HistoryConfig holds run-history store configuration.
type HistoryConfig struct {
	Path string `yaml:"path"` // sqlite file; empty disables run history
}

// Load reads an optional YAML file, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Translate.Timeout = time.Duration(cfg.Translate.TimeoutSeconds) * time.Second
	cfg.Pipeline.ArtifactTimeout = time.Duration(cfg.Pipeline.ArtifactTimeoutSeconds) * time.Second

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.OCR.Tesseract = getEnv("TESSERACT_BIN", cfg.OCR.Tesseract)
	cfg.OCR.Pdftoppm = getEnv("PDFTOPPM_BIN", cfg.OCR.Pdftoppm)
	cfg.OCR.Lang = getEnv("TESSERACT_LANG", cfg.OCR.Lang)
	cfg.OCR.DPI = getEnvAsInt("OCR_DPI", cfg.OCR.DPI)
	cfg.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", cfg.OCR.TessdataDir)
	cfg.Translate.Endpoint = getEnv("TRANSLATE_URL", cfg.Translate.Endpoint)
	cfg.Translate.APIKey = getEnv("TRANSLATE_API_KEY", cfg.Translate.APIKey)
	cfg.Translate.TargetLang = getEnv("TRANSLATE_TARGET", cfg.Translate.TargetLang)
	cfg.Translate.Timeout = getEnvAsDuration("TRANSLATE_TIMEOUT", cfg.Translate.Timeout)
	cfg.Pipeline.Workers = getEnvAsInt("PIPELINE_WORKERS", cfg.Pipeline.Workers)
	cfg.Pipeline.ArtifactTimeout = getEnvAsDuration("ARTIFACT_TIMEOUT", cfg.Pipeline.ArtifactTimeout)
	cfg.Pipeline.RulesPath = getEnv("RULES_PATH", cfg.Pipeline.RulesPath)
	cfg.History.Path = getEnv("HISTORY_DB", cfg.History.Path)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		LogLevel: "info",
		OCR: OCRConfig{
			Tesseract: "tesseract",
			Pdftoppm:  "pdftoppm",
			Lang:      "eng",
			DPI:       250,
		},
		Translate: TranslateConfig{
			TargetLang:     "en",
			TimeoutSeconds: 15,
			RPS:            5,
			Burst:          5,
			MaxRetries:     2,
		},
		Pipeline: PipelineConfig{
			Workers:                1,
			ArtifactTimeoutSeconds: 120,
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.OCR.DPI <= 0 {
		return common.NewAppError("CONFIG_ERROR", "ocr.dpi must be positive", common.ErrInvalidInput)
	}
	if c.Pipeline.Workers < 1 {
		return common.NewAppError("CONFIG_ERROR", "pipeline.workers must be at least 1", common.ErrInvalidInput)
	}
	if c.Translate.Endpoint != "" && c.Translate.Timeout <= 0 {
		return common.NewAppError("CONFIG_ERROR", "translate.timeout must be positive", common.ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
