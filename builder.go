package keywordsai

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Keywords-AI/keywordsai-go/internal/normalize"
	"github.com/Keywords-AI/keywordsai-go/internal/usage"
)

// TokenEstimator estimates the token count of text for a model. The second
// return reports whether an estimate could be produced.
type TokenEstimator func(model, text string) (int, bool)

// Builder turns Spans into canonical Payloads. The zero value works; fields
// customize the defaults applied to every payload. Build does no I/O and is
// safe for concurrent use as long as the fields are not mutated.
type Builder struct {
	// Metadata is merged into every payload before per-span metadata, so
	// per-span keys win on collision.
	Metadata map[string]any

	// CustomerID and SessionID fill customer_identifier and
	// session_identifier when the span's own metadata does not set them.
	CustomerID string
	SessionID  string

	// WorkflowName names root spans whose own name is empty.
	WorkflowName string

	// EstimateCosts enables the static price-table fallback when no cost
	// is reported. Estimates are flagged metadata["cost_is_estimate"].
	EstimateCosts bool

	// EstimateTokens, when set, estimates usage for generation spans that
	// report none. Estimates are flagged metadata["tokens_are_estimate"].
	EstimateTokens TokenEstimator
}

// Build constructs the canonical record for one span. It fails soft: the
// only error is a nil span, everything else degrades to string fallbacks
// through the value normalizer.
func (b *Builder) Build(span Span) (*Payload, error) {
	if span == nil {
		return nil, fmt.Errorf("keywordsai: build payload: nil span")
	}

	p := &Payload{
		SpanName: span.Name(),
		LogType:  LogTypeForKind(span.Kind()),
		Model:    span.Model(),
	}

	// Identifiers. A span without a usable ID gets a minted one so manual
	// records stay linkable.
	spanID, ok := normalize.ID(span.SpanID())
	if !ok || spanID == "" {
		spanID = mintID()
	}
	p.SpanUniqueID = spanID

	if parentID, ok := normalize.ID(span.ParentSpanID()); ok && parentID != "" {
		p.SpanParentID = &parentID
		traceID, _ := normalize.ID(span.TraceID())
		if traceID == "" {
			traceID = mintID()
		}
		p.TraceUniqueID = traceID
	} else {
		// Root span: the trace shares its ID and takes its name.
		p.TraceUniqueID = spanID
		p.TraceName = span.Name()
		if p.TraceName == "" {
			p.TraceName = b.WorkflowName
		}
	}

	// Timestamps. A missing start is stamped with the build time so the
	// record is still placeable; latency needs both real endpoints.
	start := span.StartTime()
	if start.IsZero() {
		start = time.Now()
	}
	if ts, ok := normalize.Timestamp(start); ok {
		p.StartTime = ts
		p.Timestamp = ts
	}
	if lat, ok := normalize.Latency(span.StartTime(), span.EndTime()); ok {
		p.Latency = &lat
	}

	metrics := span.Metrics()
	meta := mergeMetadata(b.Metadata, span.Metadata())

	u := usage.Extract(metrics, meta)
	p.PromptTokens = u.PromptTokens
	p.CompletionTokens = u.CompletionTokens

	tokensEstimated := false
	if p.PromptTokens == nil && p.CompletionTokens == nil &&
		p.LogType == LogTypeGeneration && b.EstimateTokens != nil {
		if n, ok := estimateText(b.EstimateTokens, p.Model, span.Input()); ok {
			p.PromptTokens = &n
			tokensEstimated = true
		}
		if n, ok := estimateText(b.EstimateTokens, p.Model, span.Output()); ok {
			p.CompletionTokens = &n
			tokensEstimated = true
		}
	}
	p.TotalRequestTokens = usage.Total(p.PromptTokens, p.CompletionTokens)

	costEstimated := false
	if c, ok := costFrom(metrics, meta); ok {
		p.Cost = &c
	} else if b.EstimateCosts && p.Model != "" && p.TotalRequestTokens != nil {
		pt := valueOrZero(p.PromptTokens)
		ct := valueOrZero(p.CompletionTokens)
		if c, ok := usage.EstimateCost(p.Model, pt, ct); ok {
			p.Cost = &c
			costEstimated = true
		}
	}

	if msg := span.ErrorText(); msg != "" {
		p.ErrorMessage = msg
	}
	if code, ok := statusFrom(metrics, meta); ok {
		p.StatusCode = code
	} else if p.ErrorMessage != "" {
		p.StatusCode = 500
	}

	// Identity fields lift out of metadata so they are not stored twice.
	p.CustomerIdentifier = b.CustomerID
	if s, ok := meta["customer_identifier"].(string); ok {
		if s != "" {
			p.CustomerIdentifier = s
		}
		delete(meta, "customer_identifier")
	}
	p.SessionIdentifier = b.SessionID
	if s, ok := meta["session_identifier"].(string); ok {
		if s != "" {
			p.SessionIdentifier = s
		}
		delete(meta, "session_identifier")
	}

	if costEstimated {
		meta["cost_is_estimate"] = true
	}
	if tokensEstimated {
		meta["tokens_are_estimate"] = true
	}

	if in := span.Input(); in != nil {
		p.Input = normalize.Value(in)
	}
	if out := span.Output(); out != nil {
		p.Output = normalize.Value(out)
	}
	if len(meta) > 0 {
		if m, ok := normalize.Value(meta).(map[string]any); ok {
			p.Metadata = m
		}
	}

	return p, nil
}

// BuildAll builds payloads for a batch of spans, skipping nil entries.
func (b *Builder) BuildAll(spans []Span) []Payload {
	out := make([]Payload, 0, len(spans))
	for _, span := range spans {
		p, err := b.Build(span)
		if err != nil {
			continue
		}
		out = append(out, *p)
	}
	return out
}

func mergeMetadata(static, perSpan map[string]any) map[string]any {
	meta := make(map[string]any, len(static)+len(perSpan))
	for k, v := range static {
		meta[k] = v
	}
	for k, v := range perSpan {
		meta[k] = v
	}
	return meta
}

// costFrom reads a vendor-reported cost, metrics first. Reported costs
// always win over estimates.
func costFrom(metrics, metadata map[string]any) (float64, bool) {
	for _, m := range []map[string]any{metrics, metadata} {
		for _, key := range []string{"cost", "total_cost"} {
			if c, ok := usage.Float(m[key]); ok {
				return c, true
			}
		}
	}
	return 0, false
}

// statusFrom reads an HTTP status reported by the vendor. Only the merged
// metadata copy is consumed; the caller's metrics map is left untouched.
func statusFrom(metrics, meta map[string]any) (int, bool) {
	if code, ok := usage.Int(metrics["status_code"]); ok {
		return code, true
	}
	if code, ok := usage.Int(meta["status_code"]); ok {
		delete(meta, "status_code")
		return code, true
	}
	return 0, false
}

// estimateText applies the estimator to string content only; structured
// inputs are skipped rather than guessed at.
func estimateText(fn TokenEstimator, model string, v any) (int, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, false
	}
	return fn(model, s)
}

func valueOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// mintID returns a fresh 32-character lowercase hex identifier.
func mintID() string {
	id, _ := normalize.ID(uuid.New())
	return id
}
