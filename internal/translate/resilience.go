package translate

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ResilienceConfig bounds how hard we lean on the translate endpoint.
type ResilienceConfig struct {
	RPS        float64 // default 5
	Burst      int     // default 5
	MaxRetries int     // default 2 retries after the first attempt

	BreakerMinRequests  uint32        // default 5
	BreakerFailureRatio float64       // default 0.6
	BreakerOpenTimeout  time.Duration // default 30s
}

func (c ResilienceConfig) normalize() ResilienceConfig {
	out := c
	if out.RPS <= 0 {
		out.RPS = 5
	}
	if out.Burst <= 0 {
		out.Burst = 5
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 2
	}
	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = 5
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = 0.6
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = 30 * time.Second
	}
	return out
}

// ResilientTranslator wraps a Translator with a rate limiter, retries for
// transient failures, and a circuit breaker so a dead endpoint degrades to
// the caller's fallback quickly instead of stalling every artifact.
type ResilientTranslator struct {
	inner   Translator
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	retries int
	logger  *slog.Logger
}

func NewResilientTranslator(inner Translator, cfg ResilienceConfig, logger *slog.Logger) *ResilientTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.normalize()

	settings := gobreaker.Settings{
		Name:    "translate",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.BreakerMinRequests && ratio >= cfg.BreakerFailureRatio
		},
	}

	return &ResilientTranslator{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		retries: cfg.MaxRetries,
		logger:  logger,
	}
}

func (t *ResilientTranslator) Translate(ctx context.Context, text string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", err
		}

		out, err := t.breaker.Execute(func() (string, error) {
			return t.inner.Translate(ctx, text)
		})
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return "", err
		}
		t.logger.Warn("translate.retry", "attempt", attempt+1, "error", err)
	}
	return "", lastErr
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
