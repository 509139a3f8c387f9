package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/common"
)

// stubRunner fakes the external binaries. For pdftoppm it renders fake page
// files; for tesseract it returns canned text per page.
type stubRunner struct {
	pages      int
	rasterErr  error
	ocrErr     error
	ocrByInput func(path string) string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	base := filepath.Base(name)
	switch base {
	case "pdftoppm":
		if s.rasterErr != nil {
			return nil, []byte("raster boom"), s.rasterErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= s.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if s.ocrErr != nil {
			return nil, []byte("ocr boom"), s.ocrErr
		}
		return []byte(s.ocrByInput(args[0])), nil, nil
	default:
		return nil, nil, fmt.Errorf("unexpected command %q", name)
	}
}

func newTestExtractor(t *testing.T, r Runner) *Extractor {
	t.Helper()
	e := NewExtractor(Config{WorkDir: t.TempDir()}, nil)
	e.runner = r
	return e
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtractImageJoinsFragments(t *testing.T) {
	r := &stubRunner{ocrByInput: func(string) string {
		return "Subject: Water leakage\nnear the school\nsince monday\n"
	}}
	e := newTestExtractor(t, r)

	res, err := e.Extract(context.Background(), "img.png", pngFixture(t), constants.PNG)
	require.NoError(t, err)
	assert.Equal(t, "Subject: Water leakage near the school since monday", res.Text)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, constants.PNG, res.SourceType)
}

func TestExtractImageDecodeError(t *testing.T) {
	e := newTestExtractor(t, &stubRunner{})

	_, err := e.Extract(context.Background(), "bad.png", []byte("definitely not an image"), constants.PNG)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDecode))
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := newTestExtractor(t, &stubRunner{})

	_, err := e.Extract(context.Background(), "notes.txt", []byte("plain text"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
}

func TestExtractPDFConcatenatesPagesInOrder(t *testing.T) {
	r := &stubRunner{
		pages: 12,
		ocrByInput: func(path string) string {
			// echo the page number back so ordering is observable
			return fmt.Sprintf("page %d text", pageIndex(path))
		},
	}
	e := newTestExtractor(t, r)

	res, err := e.Extract(context.Background(), "doc.pdf", []byte("%PDF-1.4"), constants.PDF)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Pages)
	assert.Equal(t, "pdf-ocr", res.Method)

	// numeric page order: page 2 before page 10
	want := make([]string, 0, 12)
	for i := 1; i <= 12; i++ {
		want = append(want, fmt.Sprintf("page %d text", i))
	}
	assert.Equal(t, strings.Join(want, " "), res.Text)
}

func TestExtractPDFRasterFailureAborts(t *testing.T) {
	r := &stubRunner{rasterErr: errors.New("exit status 1")}
	e := newTestExtractor(t, r)

	res, err := e.Extract(context.Background(), "doc.pdf", []byte("%PDF-1.4"), constants.PDF)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtraction))
	assert.Empty(t, res.Text, "no partial text on rasterization failure")
}

func TestExtractPDFPageOCRFailureAborts(t *testing.T) {
	r := &stubRunner{pages: 3, ocrErr: errors.New("exit status 1")}
	e := newTestExtractor(t, r)

	res, err := e.Extract(context.Background(), "doc.pdf", []byte("%PDF-1.4"), constants.PDF)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtraction))
	assert.Empty(t, res.Text)
}

func TestExtractPDFMaxPages(t *testing.T) {
	r := &stubRunner{
		pages:      5,
		ocrByInput: func(path string) string { return fmt.Sprintf("p%d", pageIndex(path)) },
	}
	e := NewExtractor(Config{WorkDir: t.TempDir(), MaxPages: 2}, nil)
	e.runner = r

	res, err := e.Extract(context.Background(), "doc.pdf", []byte("%PDF-1.4"), constants.PDF)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "p1 p2", res.Text)
}

func TestJoinFragments(t *testing.T) {
	assert.Equal(t, "a b c", joinFragments(" a\n b\t\nc \n"))
	assert.Equal(t, "", joinFragments("  \n\t "))
}

func TestSortPages(t *testing.T) {
	paths := []string{"x/page-10.png", "x/page-2.png", "x/page-1.png"}
	sortPages(paths)
	assert.Equal(t, []string{"x/page-1.png", "x/page-2.png", "x/page-10.png"}, paths)
}

func TestDecodeToRGBHandlesJPEG(t *testing.T) {
	// decodeToRGB must accept both accepted kinds and emit PNG bytes
	out, err := decodeToRGB(pngFixture(t))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 4, cfg.Width)
}
