// Package otelexport exports OpenTelemetry spans to the Keywords AI platform
// as canonical log records. Register the exporter with a tracer provider and
// every ended span flows through the usual batch processor:
//
//	client := keywordsai.NewClient()
//	tp := sdktrace.NewTracerProvider(
//		sdktrace.WithBatcher(otelexport.New(client)),
//	)
//
// Spans instrumented with the gen_ai, Traceloop, or OpenInference attribute
// conventions carry their model, prompt, completion, and usage into the
// record; everything else is preserved as metadata.
package otelexport

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	keywordsai "github.com/Keywords-AI/keywordsai-go"
	"github.com/Keywords-AI/keywordsai-go/internal/dedupe"
)

var _ sdktrace.SpanExporter = (*Exporter)(nil)

// Exporter converts ReadOnlySpans to canonical log records and delivers them
// through a Client. Spans seen before are skipped, so a processor retrying
// an overlapping batch cannot double-report work.
type Exporter struct {
	client  *keywordsai.Client
	builder *keywordsai.Builder
	seen    *dedupe.Cache
	stopped atomic.Bool
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithCacheSize bounds the duplicate-tracking cache. Older entries are
// evicted first once the bound is hit.
func WithCacheSize(n int) Option {
	return func(e *Exporter) { e.seen = dedupe.New(n) }
}

// New creates an Exporter delivering through client. The client's builder
// supplies the record defaults (workflow name, static metadata, estimates).
func New(client *keywordsai.Client, opts ...Option) *Exporter {
	e := &Exporter{
		client:  client,
		builder: client.Builder(),
		seen:    dedupe.New(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExportSpans builds one record per unseen span and posts the batch
// synchronously, retrying per the client's settings. After Shutdown the
// batch is silently dropped.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if e.stopped.Load() || len(spans) == 0 {
		return nil
	}

	payloads := make([]keywordsai.Payload, 0, len(spans))
	for _, span := range spans {
		if span == nil {
			continue
		}
		sc := span.SpanContext()
		var traceID, spanID string
		if sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		if sc.HasSpanID() {
			spanID = sc.SpanID().String()
		}
		if !e.seen.Add(traceID, spanID) {
			continue
		}
		p, err := e.builder.Build(&otelSpan{span: span, attrs: parseAttributes(span.Attributes())})
		if err != nil {
			continue
		}
		payloads = append(payloads, *p)
	}
	if len(payloads) == 0 {
		return nil
	}
	return e.client.Ingest(ctx, payloads)
}

// Shutdown stops the exporter; later ExportSpans calls drop their batches.
// The client is left running since the caller owns it.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.stopped.Store(true)
	e.seen.Reset()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// otelSpan adapts a ReadOnlySpan to the builder's Span view.
type otelSpan struct {
	span  sdktrace.ReadOnlySpan
	attrs spanAttrs
}

func (s *otelSpan) SpanID() string {
	if sc := s.span.SpanContext(); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}

func (s *otelSpan) ParentSpanID() string {
	if p := s.span.Parent(); p.HasSpanID() {
		return p.SpanID().String()
	}
	return ""
}

func (s *otelSpan) TraceID() string {
	if sc := s.span.SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

func (s *otelSpan) Name() string { return s.span.Name() }

func (s *otelSpan) Kind() string { return s.attrs.kind }

func (s *otelSpan) StartTime() time.Time { return s.span.StartTime() }

func (s *otelSpan) EndTime() time.Time { return s.span.EndTime() }

func (s *otelSpan) Input() any { return s.attrs.input }

func (s *otelSpan) Output() any { return s.attrs.output }

func (s *otelSpan) Model() string { return s.attrs.model }

// ErrorText reports the status description of a failed span, falling back
// to the recorded exception message.
func (s *otelSpan) ErrorText() string {
	st := s.span.Status()
	if st.Code != codes.Error {
		return ""
	}
	if st.Description != "" {
		return st.Description
	}
	for _, ev := range s.span.Events() {
		if ev.Name != "exception" {
			continue
		}
		for _, kv := range ev.Attributes {
			if kv.Key == "exception.message" {
				return kv.Value.AsString()
			}
		}
	}
	return "error"
}

func (s *otelSpan) Metrics() map[string]any { return s.attrs.metrics }

func (s *otelSpan) Metadata() map[string]any { return s.attrs.metadata }
