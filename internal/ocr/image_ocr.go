package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // decoder for the accepted JPEG kind
	"image/png"
	"os"
	"path/filepath"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/common"
)

func (e *Extractor) extractImage(ctx context.Context, data []byte, format constants.FileFormat) (ExtractionResult, error) {
	normalized, err := decodeToRGB(data)
	if err != nil {
		return ExtractionResult{SourceType: format},
			common.NewAppError("DECODE_ERROR", "image bytes could not be decoded", common.ErrDecode)
	}

	tmpDir, err := e.scratchDir("ga-img-*")
	if err != nil {
		return ExtractionResult{}, common.WrapError(err, "scratch dir")
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	path := filepath.Join(tmpDir, "input.png")
	if err := os.WriteFile(path, normalized, 0o600); err != nil {
		return ExtractionResult{}, common.WrapError(err, "write image")
	}

	txt, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return ExtractionResult{SourceType: format},
			common.NewAppError("EXTRACTION_FAILURE", "image recognition failed",
				fmt.Errorf("%w: %w", common.ErrExtraction, err))
	}

	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: format,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
	}, nil
}

// decodeToRGB decodes arbitrary PNG/JPEG bytes and re-encodes them as a
// 3-channel-equivalent PNG so the recognizer sees one uniform pixel format.
func decodeToRGB(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	rgb := image.NewRGBA(img.Bounds())
	draw.Draw(rgb, rgb.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
