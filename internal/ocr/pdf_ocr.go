package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/common"
)

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (ExtractionResult, error) {
	if e.cfg.TryTextLayer {
		if txt, pages, err := pdfTextLayer(data); err == nil && strings.TrimSpace(txt) != "" {
			return ExtractionResult{
				Text:       joinFragments(txt),
				Pages:      pages,
				SourceType: constants.PDF,
				Method:     "pdf-text",
				Language:   e.cfg.TesseractLang,
			}, nil
		}
		// fall through to rasterize + OCR
	}
	return e.pdfToOCR(ctx, data)
}

// pdfTextLayer pulls the embedded text layer, when the document has one.
func pdfTextLayer(data []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("extract pdf text: %w", err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, reader); err != nil {
		return "", 0, fmt.Errorf("read extracted text: %w", err)
	}
	return b.String(), r.NumPage(), nil
}

// pdfToOCR rasterizes every page at the configured DPI, recognizes each page
// image independently, and joins page texts in page order with single spaces.
// A rasterization failure aborts the whole artifact; no partial text.
func (e *Extractor) pdfToOCR(ctx context.Context, data []byte) (ExtractionResult, error) {
	tmpDir, err := e.scratchDir("ga-pdf-*")
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF}, common.WrapError(err, "scratch dir")
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	in := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return ExtractionResult{SourceType: constants.PDF}, common.WrapError(err, "write pdf")
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 250 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", in, prefix)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF, Warnings: []string{string(errb)}},
			common.NewAppError("EXTRACTION_FAILURE", "pdf rasterization failed",
				fmt.Errorf("%w: %w", common.ErrExtraction, err))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortPages(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return ExtractionResult{SourceType: constants.PDF, Warnings: []string{"pdftoppm produced no images"}},
			common.NewAppError("EXTRACTION_FAILURE", "no pages rendered",
				fmt.Errorf("%w: no pages rendered", common.ErrExtraction))
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			return ExtractionResult{SourceType: constants.PDF, Pages: len(matches)},
				common.NewAppError("EXTRACTION_FAILURE", "page recognition failed",
					fmt.Errorf("%w: %w", common.ErrExtraction, err))
		}
		if b.Len() > 0 && txt != "" {
			b.WriteString(" ")
		}
		b.WriteString(txt)
	}

	return ExtractionResult{
		Text:       b.String(),
		Pages:      len(matches),
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
	}, nil
}

// sortPages orders rendered page files numerically: page-2 before page-10.
// Lexical sort breaks past nine pages because pdftoppm does not always
// zero-pad the page index.
func sortPages(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		a, b := pageIndex(paths[i]), pageIndex(paths[j])
		if a != b {
			return a < b
		}
		return paths[i] < paths[j]
	})
}

func pageIndex(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dash := strings.LastIndex(base, "-")
	if dash < 0 {
		return 0
	}
	n := 0
	for _, r := range base[dash+1:] {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
