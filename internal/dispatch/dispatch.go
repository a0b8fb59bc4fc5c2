// Package dispatch delivers record batches in the background so callers on
// hot paths never block on network I/O.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/Keywords-AI/keywordsai-go/internal/telemetry"
)

// Defaults applied by New for unset Config fields.
const (
	DefaultQueueSize  = 2048
	DefaultWorkers    = 2
	DefaultMaxBatch   = 100
	DefaultFlushEvery = 1 * time.Second
)

// Config tunes a Queue. Send is required; everything else has defaults.
type Config[T any] struct {
	// Name identifies this queue in self-telemetry. Gauge observations
	// carry it as the queue.name attribute so queues sharing a provider
	// stay distinguishable.
	Name string
	// QueueSize bounds how many records may wait for delivery. Enqueue
	// drops instead of blocking once the queue is full.
	QueueSize int
	// Workers is the number of background delivery goroutines.
	Workers int
	// MaxBatch is the largest batch handed to Send in one call.
	MaxBatch int
	// FlushEvery bounds how long a partial batch may linger.
	FlushEvery time.Duration

	// Send delivers one batch. Implementations own their retries; an error
	// here is logged and the batch is counted as failed, never re-queued.
	Send func(ctx context.Context, batch []T) error

	// MeterProvider routes the queue's self-telemetry. Nil falls back to
	// the global provider.
	MeterProvider metric.MeterProvider

	Logger *slog.Logger
}

// Queue accepts records from any goroutine and delivers them in batches
// from a fixed worker pool. Enqueue never blocks: when the queue is full
// the records are dropped and counted. Drain flushes everything still
// queued on shutdown.
type Queue[T any] struct {
	cfg    Config[T]
	logger *slog.Logger

	ch chan T

	dropped   atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
	inflight  atomic.Int64

	stopOnce sync.Once
	stopped  atomic.Bool
	cancel   context.CancelFunc
	group    *errgroup.Group
	drainCtx context.Context // set by Drain so final sends respect the caller's deadline
}

// New creates a Queue. Call Start before records are expected to move;
// Enqueue before Start only buffers.
func New[T any](cfg Config[T]) *Queue[T] {
	if cfg.Name == "" {
		cfg.Name = "dispatch"
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = DefaultFlushEvery
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue[T]{
		cfg:    cfg,
		logger: logger,
		ch:     make(chan T, cfg.QueueSize),
	}
}

// Start launches the worker pool and registers the self-telemetry gauges
// against Config.MeterProvider, or the global provider when unset.
func (q *Queue[T]) Start(ctx context.Context) {
	q.registerMetrics()

	loopCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.group = new(errgroup.Group)
	for range q.cfg.Workers {
		q.group.Go(func() error { return q.worker(loopCtx) })
	}
}

// Enqueue queues records for background delivery and reports whether all
// were accepted. Records that do not fit, or arrive after Drain, are
// dropped and counted.
func (q *Queue[T]) Enqueue(items ...T) bool {
	if q.stopped.Load() {
		q.dropped.Add(int64(len(items)))
		return false
	}
	for i, item := range items {
		select {
		case q.ch <- item:
			q.inflight.Add(1)
		default:
			n := len(items) - i
			q.dropped.Add(int64(n))
			q.logger.Warn("keywordsai: dispatch queue full, dropping records",
				"dropped", n,
				"queue_size", cap(q.ch),
			)
			return false
		}
	}
	return true
}

// Drain stops intake, delivers everything still queued, and waits for the
// workers to exit. The context bounds the final deliveries; on expiry the
// remaining records are abandoned.
func (q *Queue[T]) Drain(ctx context.Context) error {
	q.stopOnce.Do(func() {
		q.stopped.Store(true)
		q.drainCtx = ctx
		if q.cancel != nil {
			q.cancel()
		}
	})
	if q.group == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		_ = q.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		q.logger.Warn("keywordsai: dispatch drain timed out", "still_queued", len(q.ch))
		return ctx.Err()
	}
}

// Len returns the number of records waiting in the queue.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Idle reports whether every accepted record has been delivered, failed, or
// abandoned. Records count as in flight from the moment Enqueue accepts them,
// so Idle never reports true while one sits between the queue and a worker's
// batch. Flush-style callers poll it to find a quiet point without stopping
// the queue.
func (q *Queue[T]) Idle() bool { return q.inflight.Load() == 0 }

// Dropped returns the total number of records dropped because the queue was
// full or already stopped. A non-zero value indicates data loss.
func (q *Queue[T]) Dropped() int64 { return q.dropped.Load() }

// Delivered returns the total number of records handed to Send successfully.
func (q *Queue[T]) Delivered() int64 { return q.delivered.Load() }

// Failed returns the total number of records whose final delivery attempt
// errored.
func (q *Queue[T]) Failed() int64 { return q.failed.Load() }

func (q *Queue[T]) worker(ctx context.Context) error {
	ticker := time.NewTicker(q.cfg.FlushEvery)
	defer ticker.Stop()

	batch := make([]T, 0, q.cfg.MaxBatch)

	flush := func(fctx context.Context) {
		if len(batch) == 0 {
			return
		}
		out := batch
		batch = make([]T, 0, q.cfg.MaxBatch)
		defer q.inflight.Add(-int64(len(out)))

		if err := q.cfg.Send(fctx, out); err != nil {
			q.failed.Add(int64(len(out)))
			q.logger.Warn("keywordsai: batch delivery failed",
				"batch_size", len(out),
				"error", err,
			)
			return
		}
		q.delivered.Add(int64(len(out)))
	}

	for {
		select {
		case <-ctx.Done():
			// Final drain. Everything already queued is delivered under the
			// drain context's deadline.
			fctx := q.drainCtx
			if fctx == nil {
				fctx = context.Background()
			}
			for {
				select {
				case item := <-q.ch:
					batch = append(batch, item)
					if len(batch) >= q.cfg.MaxBatch {
						flush(fctx)
					}
				default:
					flush(fctx)
					return nil
				}
			}
		case item := <-q.ch:
			batch = append(batch, item)
			if len(batch) >= q.cfg.MaxBatch {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}

// registerMetrics publishes queue health as observable gauges, each tagged
// with the queue's name. No-op instruments are returned when neither a
// configured nor a global meter provider exists.
func (q *Queue[T]) registerMetrics() {
	meter := telemetry.MeterFrom(q.cfg.MeterProvider, "keywordsai/dispatch")
	attrs := metric.WithAttributes(attribute.String("queue.name", q.cfg.Name))

	_, _ = meter.Int64ObservableGauge("keywordsai.dispatch.queue_depth",
		metric.WithDescription("Records waiting for background delivery"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(q.Len()), attrs)
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("keywordsai.dispatch.dropped_total",
		metric.WithDescription("Total records dropped due to queue exhaustion"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(q.Dropped(), attrs)
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("keywordsai.dispatch.delivered_total",
		metric.WithDescription("Total records delivered to the ingestion API"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(q.Delivered(), attrs)
			return nil
		}),
	)
}
