package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/common"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for PDF pages, default 250
	MaxPages      int    // 0 = no limit

	TessdataDir  string
	TryTextLayer bool // use the embedded PDF text layer when one exists

	WorkDir string // scratch dir for page renders; default os.TempDir()
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType constants.FileFormat
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// Extractor turns one uploaded artifact into one raw text blob. It owns the
// external OCR and rasterizer capabilities; nothing here writes outside its
// scratch directory.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 250
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on the artifact's declared format.
// An unrecognized format fails with common.ErrUnsupportedFormat.
func (e *Extractor) Extract(ctx context.Context, name string, data []byte, format constants.FileFormat) (ExtractionResult, error) {
	start := time.Now()
	e.logger.Debug("ocr.extract.start", "name", name, "format", format, "bytes", len(data))

	switch {
	case format == constants.PDF:
		res, err := e.extractPDF(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	case format.IsImage():
		res, err := e.extractImage(ctx, data, format)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("ocr.extract.unsupported", "name", name, "format", format)
		return ExtractionResult{}, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("artifact %q has format %q", name, format), common.ErrUnsupportedFormat)
	}
}

// tesseractOCR recognizes text in one image file. The engine emits lines in
// reading order; fragments are joined with single spaces to form the text.
func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return joinFragments(string(out)), nil
}

// joinFragments collapses the recognizer's line output into a single
// space-separated string, matching the reading order it was produced in.
func joinFragments(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (e *Extractor) scratchDir(pattern string) (string, error) {
	dir := e.cfg.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	return os.MkdirTemp(dir, pattern)
}
