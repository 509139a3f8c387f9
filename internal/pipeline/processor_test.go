package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/classify"
	"github.com/civiclens/grievance-analyzer/internal/common"
	"github.com/civiclens/grievance-analyzer/internal/ocr"
	"github.com/civiclens/grievance-analyzer/internal/translate"
)

// fakeExtractor maps artifact name -> canned text or error.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
	delay time.Duration
}

func (f *fakeExtractor) Extract(_ context.Context, name string, _ []byte, _ constants.FileFormat) (ocr.ExtractionResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.errs[name]; ok {
		return ocr.ExtractionResult{}, err
	}
	return ocr.ExtractionResult{Text: f.texts[name], Pages: 1, Method: "image-ocr"}, nil
}

// identityNormalizer reports every input as already canonical.
type identityNormalizer struct{}

func (identityNormalizer) Normalize(_ context.Context, raw string) (string, translate.Outcome) {
	return raw, translate.Outcome{Translated: true}
}

func newProcessor(t *testing.T, cfg Config, ex TextExtractor) *Processor {
	t.Helper()
	return NewProcessor(cfg, ex, identityNormalizer{}, classify.NewExtractor(classify.DefaultRules()), nil, nil)
}

func artifactsFixture() []Artifact {
	return []Artifact{
		{Name: "a.png", Data: []byte{1}, Format: constants.PNG},
		{Name: "b.pdf", Data: []byte{2}, Format: constants.PDF},
		{Name: "c.jpg", Data: []byte{3}, Format: constants.JPEG},
	}
}

func TestRunProducesOrderedRecords(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{
		"a.png": "pothole on main road",
		"b.pdf": "URGENT: water pipeline leak, please help",
		"c.jpg": "garbage everywhere",
	}}
	p := newProcessor(t, Config{}, ex)

	res := p.Run(context.Background(), artifactsFixture())
	require.Len(t, res.Records, 3)

	assert.Equal(t, []string{"a.png", "b.pdf", "c.jpg"},
		[]string{res.Records[0].File, res.Records[1].File, res.Records[2].File})

	assert.Equal(t, constants.RoadTransport, res.Records[0].Category)
	assert.Equal(t, constants.WaterSupply, res.Records[1].Category)
	assert.Equal(t, 25, res.Records[1].Score)
	assert.Equal(t, constants.TierMedium, res.Records[1].Priority)
	assert.Equal(t, constants.Sanitation, res.Records[2].Category)
}

func TestRunPreservesOrderWithWorkers(t *testing.T) {
	const n = 40
	texts := make(map[string]string, n)
	arts := make([]Artifact, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("doc-%03d.png", i)
		texts[name] = fmt.Sprintf("complaint number %d about the road", i)
		arts = append(arts, Artifact{Name: name, Data: []byte{byte(i)}, Format: constants.PNG})
	}
	ex := &fakeExtractor{texts: texts, delay: time.Millisecond}
	p := newProcessor(t, Config{Workers: 8}, ex)

	res := p.Run(context.Background(), arts)
	require.Len(t, res.Records, n)
	for i, r := range res.Records {
		assert.Equal(t, fmt.Sprintf("doc-%03d.png", i), r.File)
	}
}

func TestRunSurfacesExclusions(t *testing.T) {
	ex := &fakeExtractor{
		texts: map[string]string{"ok.png": "street light broken"},
		errs: map[string]error{
			"notes.txt": common.NewAppError("UNSUPPORTED_FORMAT", "txt", common.ErrUnsupportedFormat),
			"bad.png":   common.NewAppError("DECODE_ERROR", "truncated", common.ErrDecode),
		},
	}
	p := newProcessor(t, Config{}, ex)

	res := p.Run(context.Background(), []Artifact{
		{Name: "notes.txt", Format: ""},
		{Name: "ok.png", Format: constants.PNG},
		{Name: "bad.png", Format: constants.PNG},
	})

	require.Len(t, res.Records, 1)
	assert.Equal(t, "ok.png", res.Records[0].File)

	require.Len(t, res.Excluded, 2)
	assert.Equal(t, "UnsupportedFormat", res.Excluded[0].Reason)
	assert.Equal(t, "notes.txt", res.Excluded[0].File)
	assert.Equal(t, "DecodeError", res.Excluded[1].Reason)
	assert.Equal(t, "bad.png", res.Excluded[1].File)

	assert.Equal(t, 1, res.Summary.Total)
}

func TestRunDegradesOnExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{
		texts: map[string]string{"good.png": "water problem"},
		errs: map[string]error{
			"broken.pdf": common.NewAppError("EXTRACTION_FAILURE", "ocr died",
				fmt.Errorf("%w: ocr died", common.ErrExtraction)),
		},
	}
	p := newProcessor(t, Config{}, ex)

	res := p.Run(context.Background(), []Artifact{
		{Name: "broken.pdf", Format: constants.PDF},
		{Name: "good.png", Format: constants.PNG},
	})

	// the failed artifact still yields a record, on empty text
	require.Len(t, res.Records, 2)
	assert.Equal(t, "broken.pdf", res.Records[0].File)
	assert.Equal(t, "", res.Records[0].Complaint)
	assert.Equal(t, constants.Other, res.Records[0].Category)
	assert.Equal(t, 0, res.Records[0].Score)
	assert.Equal(t, constants.TierLow, res.Records[0].Priority)

	// and the occurrence is observable
	require.NotEmpty(t, res.Events)
	assert.Equal(t, "ExtractionFailure", res.Events[0].Kind)
	assert.Equal(t, "broken.pdf", res.Events[0].File)
}

func TestRunCountsMatchRecords(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{
		"a.png": "fire emergency near bridge, injury reported", // High, Road & Transport
		"b.pdf": "URGENT: water pipeline leak, please help",    // Medium, Water Supply
		"c.jpg": "garbage everywhere",                          // Low, Sanitation
	}}
	p := newProcessor(t, Config{}, ex)

	res := p.Run(context.Background(), artifactsFixture())

	tierTotal := 0
	for _, tier := range constants.Tiers {
		count := 0
		for _, r := range res.Records {
			if r.Priority == tier {
				count++
			}
		}
		assert.Equal(t, count, res.Summary.ByTier[tier], "tier %s", tier)
		tierTotal += res.Summary.ByTier[tier]
	}
	assert.Equal(t, res.Summary.Total, tierTotal)

	catTotal := 0
	for cat, n := range res.Summary.ByCategory {
		count := 0
		for _, r := range res.Records {
			if r.Category == cat {
				count++
			}
		}
		assert.Equal(t, count, n, "category %s", cat)
		catTotal += n
	}
	assert.Equal(t, res.Summary.Total, catTotal)
}

func TestRunIdempotent(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{
		"a.png": "pothole on main road",
		"b.pdf": "URGENT: water pipeline leak, please help",
		"c.jpg": "garbage everywhere",
	}}
	p := newProcessor(t, Config{Workers: 4}, ex)

	first := p.Run(context.Background(), artifactsFixture())
	second := p.Run(context.Background(), artifactsFixture())

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestRunEmptyInput(t *testing.T) {
	p := newProcessor(t, Config{}, &fakeExtractor{})

	res := p.Run(context.Background(), nil)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Excluded)
	assert.Equal(t, 0, res.Summary.Total)
}

// countingRecorder checks the recorder is handed the finished result.
type countingRecorder struct {
	mu   sync.Mutex
	runs int
	last *BatchResult
}

func (c *countingRecorder) RecordRun(_ context.Context, res *BatchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	c.last = res
	return nil
}

func TestRunRecordsHistory(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{"a.png": "road issue"}}
	rec := &countingRecorder{}
	p := NewProcessor(Config{}, ex, identityNormalizer{}, classify.NewExtractor(classify.DefaultRules()), rec, nil)

	res := p.Run(context.Background(), []Artifact{{Name: "a.png", Format: constants.PNG}})
	require.Equal(t, 1, rec.runs)
	assert.Equal(t, res.RunID, rec.last.RunID)
}
