// Package backoff retries failed delivery attempts with exponential delay
// and jitter.
package backoff

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Defaults applied by New for unset Config fields.
const (
	DefaultMaxRetries     = 3
	DefaultBaseDelay      = 1 * time.Second
	DefaultMaxDelay       = 10 * time.Second
	DefaultMultiplier     = 2.0
	DefaultJitterFraction = 0.1
)

// Config tunes a Handler. Zero fields take the package defaults.
type Config struct {
	// MaxRetries is the total number of attempts, the first included.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFraction adds a uniform random share of each delay, up to this
	// fraction, to keep clients from retrying in lockstep.
	JitterFraction float64

	// Sleep replaces the inter-attempt wait in tests. When nil, a
	// context-aware timer is used.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

// Handler executes operations with bounded retries. Safe for concurrent use.
type Handler struct {
	cfg Config
}

// New creates a Handler, filling unset fields with defaults.
func New(cfg Config) *Handler {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{cfg: cfg}
}

// Do runs op up to MaxRetries times. The wait before attempt n+1 is
// BaseDelay·Multiplier^n plus jitter, capped at MaxDelay. Errors wrapped
// with Permanent stop the loop immediately; context cancellation aborts
// the wait. The error from the final attempt propagates to the caller.
func (h *Handler) Do(ctx context.Context, label string, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < h.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := h.cfg.Sleep(ctx, h.delay(attempt-1)); err != nil {
				return errors.Join(err, lastErr)
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		if attempt < h.cfg.MaxRetries-1 {
			h.cfg.Logger.Warn("keywordsai: retrying after error",
				"operation", label,
				"attempt", attempt+1,
				"max_retries", h.cfg.MaxRetries,
				"error", err,
			)
		}
	}
	return lastErr
}

// MaxRetries reports the resolved attempt budget.
func (h *Handler) MaxRetries() int {
	return h.cfg.MaxRetries
}

func (h *Handler) delay(n int) time.Duration {
	d := float64(h.cfg.BaseDelay) * math.Pow(h.cfg.Multiplier, float64(n))
	if h.cfg.JitterFraction > 0 {
		d += rand.Float64() * h.cfg.JitterFraction * d
	}
	if limit := float64(h.cfg.MaxDelay); d > limit {
		d = limit
	}
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PermanentError marks an error Do must not retry.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do stops immediately and returns err unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
