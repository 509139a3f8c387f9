package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/common"
	"github.com/civiclens/grievance-analyzer/internal/ocr"
	"github.com/civiclens/grievance-analyzer/internal/translate"
)

// TextExtractor is stage 1: artifact bytes -> raw text.
type TextExtractor interface {
	Extract(ctx context.Context, name string, data []byte, format constants.FileFormat) (ocr.ExtractionResult, error)
}

// Normalizer is stage 2: raw text -> canonical-language text, with an
// explicit fallback outcome instead of an error.
type Normalizer interface {
	Normalize(ctx context.Context, raw string) (string, translate.Outcome)
}

// SignalExtractor is stage 3: normalized text -> title/category/priority.
type SignalExtractor interface {
	Title(text string) string
	Category(text string) constants.Category
	Priority(text string) (int, constants.Tier)
}

// RunRecorder persists run summaries and per-artifact events for later
// inspection. Implementations must tolerate partial data.
type RunRecorder interface {
	RecordRun(ctx context.Context, res *BatchResult) error
}

type Config struct {
	Workers         int           // concurrent artifacts; default 1 (sequential)
	ArtifactTimeout time.Duration // per-artifact bound; 0 = unbounded
}

// Processor coordinates extract -> normalize -> classify per artifact and
// assembles the ordered BatchResult.
type Processor struct {
	cfg        Config
	extractor  TextExtractor
	normalizer Normalizer
	signals    SignalExtractor
	recorder   RunRecorder // optional
	logger     *slog.Logger
}

func NewProcessor(cfg Config, ex TextExtractor, n Normalizer, sig SignalExtractor, rec RunRecorder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Processor{cfg: cfg, extractor: ex, normalizer: n, signals: sig, recorder: rec, logger: logger}
}

// outcome is the result slot for one artifact. Exactly one of record and
// exclusion is set.
type outcome struct {
	record    *ComplaintRecord
	exclusion *Exclusion
	events    []Event
}

// Run processes every artifact, isolating per-artifact failures, and
// returns the BatchResult in upload order. An empty input yields an empty
// zero-count result, not an error.
func (p *Processor) Run(ctx context.Context, artifacts []Artifact) *BatchResult {
	started := time.Now()
	res := &BatchResult{
		RunID:     uuid.New(),
		StartedAt: started,
	}

	slots := make([]outcome, len(artifacts))
	if p.cfg.Workers == 1 || len(artifacts) <= 1 {
		for i, a := range artifacts {
			slots[i] = p.processOne(ctx, a)
		}
	} else {
		// bounded pool; slots are indexed so upload order survives
		idx := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < p.cfg.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idx {
					slots[i] = p.processOne(ctx, artifacts[i])
				}
			}()
		}
		for i := range artifacts {
			idx <- i
		}
		close(idx)
		wg.Wait()
	}

	for _, s := range slots {
		if s.record != nil {
			res.Records = append(res.Records, *s.record)
		}
		if s.exclusion != nil {
			res.Excluded = append(res.Excluded, *s.exclusion)
		}
		res.Events = append(res.Events, s.events...)
	}
	res.Summary = summarize(res.Records)
	res.Duration = time.Since(started)

	if p.recorder != nil {
		if err := p.recorder.RecordRun(ctx, res); err != nil {
			p.logger.Error("pipeline.history.record_failed", "run_id", res.RunID, "error", err)
		}
	}

	p.logger.Info("pipeline.run.done",
		"run_id", res.RunID,
		"artifacts", len(artifacts),
		"records", len(res.Records),
		"excluded", len(res.Excluded),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res
}

func (p *Processor) processOne(ctx context.Context, a Artifact) outcome {
	if p.cfg.ArtifactTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ArtifactTimeout)
		defer cancel()
	}

	var out outcome

	raw := ""
	extraction, err := p.extractor.Extract(ctx, a.Name, a.Data, a.Format)
	switch {
	case err == nil:
		raw = extraction.Text
	case errors.Is(err, common.ErrUnsupportedFormat):
		p.logger.Warn("pipeline.artifact.excluded", "file", a.Name, "reason", "UnsupportedFormat")
		out.exclusion = &Exclusion{File: a.Name, Reason: "UnsupportedFormat", Detail: err.Error()}
		return out
	case errors.Is(err, common.ErrDecode):
		p.logger.Warn("pipeline.artifact.excluded", "file", a.Name, "reason", "DecodeError")
		out.exclusion = &Exclusion{File: a.Name, Reason: "DecodeError", Detail: err.Error()}
		return out
	default:
		// extraction failure degrades to empty text; the record still exists
		p.logger.Warn("pipeline.artifact.extraction_failed", "file", a.Name, "error", err)
		out.events = append(out.events, Event{File: a.Name, Kind: "ExtractionFailure", Message: err.Error()})
	}

	text, norm := p.normalizer.Normalize(ctx, raw)
	if !norm.Translated && norm.FailureReason != "" && raw != "" {
		out.events = append(out.events, Event{File: a.Name, Kind: "NormalizationFallback", Message: norm.FailureReason})
	}

	score, tier := p.signals.Priority(text)
	rec := ComplaintRecord{
		File:      a.Name,
		Title:     p.signals.Title(text),
		Complaint: text,
		Category:  p.signals.Category(text),
		Priority:  tier,
		Score:     score,
	}
	out.record = &rec

	p.logger.Debug("pipeline.artifact.ok",
		"file", a.Name,
		"category", rec.Category,
		"tier", rec.Priority,
		"score", rec.Score,
		"method", extraction.Method,
		"pages", extraction.Pages,
	)
	return out
}
