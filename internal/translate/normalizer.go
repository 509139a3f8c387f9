package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sony/gobreaker/v2"
)

// Outcome says whether normalization actually translated the text. The
// fallback to the original text is a visible result value, never an error:
// downstream classification always runs, at worst on untranslated text.
type Outcome struct {
	Translated    bool
	FailureReason string
}

// Normalizer maps raw extracted text to the canonical working language.
type Normalizer struct {
	tr     Translator // nil disables translation entirely
	logger *slog.Logger
}

func NewNormalizer(tr Translator, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{tr: tr, logger: logger}
}

// Normalize returns the canonical-language text for raw. On any translation
// failure it returns raw unchanged and reports why in the Outcome.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, Outcome) {
	if strings.TrimSpace(raw) == "" {
		return raw, Outcome{FailureReason: "empty input"}
	}
	if n.tr == nil {
		return raw, Outcome{FailureReason: "translation disabled"}
	}

	out, err := n.tr.Translate(ctx, raw)
	if err != nil {
		if isExpectedFailure(err) {
			n.logger.Warn("normalize.fallback", "reason", err.Error())
		} else {
			// an unexpected failure kind still degrades, but loudly
			n.logger.Error("normalize.fallback.unexpected", "error", err)
		}
		return raw, Outcome{FailureReason: err.Error()}
	}
	if strings.TrimSpace(out) == "" {
		return raw, Outcome{FailureReason: "empty translation"}
	}
	return out, Outcome{Translated: true}
}

// isExpectedFailure narrows the degrade-gracefully policy to failure kinds
// we anticipate from a remote endpoint: timeouts, transport errors, non-2xx
// statuses, and an open breaker.
func isExpectedFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) || isRetryable(err)
}
