package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedSleep captures requested delays without actually sleeping.
func recordedSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	h := New(Config{
		MaxRetries:     3,
		BaseDelay:      time.Second,
		MaxDelay:       time.Minute,
		Multiplier:     2,
		JitterFraction: 0.1,
		Sleep:          recordedSleep(&delays),
	})

	attempts := 0
	err := h.Do(context.Background(), "ingest", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("upstream 503")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	require.Len(t, delays, 2)

	// delay n = base·multiplier^n plus jitter up to 10%.
	assert.GreaterOrEqual(t, delays[0], 1*time.Second)
	assert.LessOrEqual(t, delays[0], 1100*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 2*time.Second)
	assert.LessOrEqual(t, delays[1], 2200*time.Millisecond)
}

func TestDoReturnsFinalErrorAfterExhaustion(t *testing.T) {
	var delays []time.Duration
	h := New(Config{MaxRetries: 3, Sleep: recordedSleep(&delays)})

	final := errors.New("still broken")
	attempts := 0
	err := h.Do(context.Background(), "ingest", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return final
	})

	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, final)
	assert.Len(t, delays, 2)
}

func TestDoPermanentErrorStopsImmediately(t *testing.T) {
	var delays []time.Duration
	h := New(Config{MaxRetries: 5, Sleep: recordedSleep(&delays)})

	terminal := errors.New("400 bad request")
	attempts := 0
	err := h.Do(context.Background(), "ingest", func(context.Context) error {
		attempts++
		return Permanent(terminal)
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, terminal, err, "the wrapped error is returned unchanged")
	assert.Empty(t, delays)
}

func TestDoDelayCappedAtMaxDelay(t *testing.T) {
	var delays []time.Duration
	h := New(Config{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   3 * time.Second,
		Multiplier: 10,
		Sleep:      recordedSleep(&delays),
	})

	_ = h.Do(context.Background(), "ingest", func(context.Context) error {
		return errors.New("transient")
	})

	require.Len(t, delays, 2)
	assert.Equal(t, 1*time.Second, delays[0])
	assert.Equal(t, 3*time.Second, delays[1], "10s uncapped delay is clamped")
}

func TestDoContextCancellationAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := New(Config{
		MaxRetries: 3,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})

	attempts := 0
	err := h.Do(ctx, "ingest", func(context.Context) error {
		attempts++
		return errors.New("transient")
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAppliesDefaults(t *testing.T) {
	h := New(Config{})
	assert.Equal(t, DefaultMaxRetries, h.MaxRetries())

	h = New(Config{MaxRetries: -2})
	assert.Equal(t, DefaultMaxRetries, h.MaxRetries())
}

func TestPermanentNilPassesThrough(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
