// Package hooks adapts callback-based framework instrumentation into
// canonical log records. Frameworks that report work as start/finish
// callback pairs (tool runners, agent executors, chain steps) feed both
// callbacks to a Listener, which joins them into one span and queues it
// on the client's background dispatcher.
//
// Hook callbacks never block and never fail the host: an end without a
// matching start is ignored, and a start whose end never arrives stays as
// an inspectable pending entry for the life of the process.
package hooks

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	keywordsai "github.com/Keywords-AI/keywordsai-go"
)

// StartEvent describes a unit of work a framework reported as started.
// InvocationID is the framework's correlation key; the matching EndEvent
// must carry the same value.
type StartEvent struct {
	InvocationID string
	Name         string
	// Kind classifies the work (tool, task, agent, llm, ...). Empty
	// defaults to "tool".
	Kind string
	// TraceID and ParentSpanID link the span into an existing trace.
	// Both empty makes the span a trace root.
	TraceID      string
	ParentSpanID string
	Model        string
	Input        any
	Metadata     map[string]any
	// StartTime stamps the invocation; zero means the callback instant.
	StartTime time.Time
}

// EndEvent completes a started invocation.
type EndEvent struct {
	InvocationID string
	Output       any
	// ErrorText marks the invocation failed when non-empty.
	ErrorText string
	// Metrics carries usage reported at completion (token counts, cost,
	// status_code).
	Metrics  map[string]any
	Metadata map[string]any
	// EndTime stamps completion; zero means the callback instant.
	EndTime time.Time
}

// pendingSpan is one in-flight invocation between its start and end
// callbacks.
type pendingSpan struct {
	spanID  string
	started time.Time
	event   StartEvent
}

// Listener joins start/end callback pairs into spans and logs them through
// a Client. Safe for concurrent use.
type Listener struct {
	client *keywordsai.Client

	mu      sync.Mutex
	pending map[string]pendingSpan
}

// New returns a Listener logging through client.
func New(client *keywordsai.Client) *Listener {
	return &Listener{
		client:  client,
		pending: make(map[string]pendingSpan),
	}
}

// OnStart records an invocation as in flight and returns the span ID
// assigned to it, so nested invocations can parent onto it. A second start
// with the same invocation ID replaces the first.
func (l *Listener) OnStart(ev StartEvent) (spanID string) {
	if ev.StartTime.IsZero() {
		ev.StartTime = time.Now()
	}
	spanID = strings.ReplaceAll(uuid.NewString(), "-", "")

	l.mu.Lock()
	l.pending[ev.InvocationID] = pendingSpan{
		spanID:  spanID,
		started: ev.StartTime,
		event:   ev,
	}
	l.mu.Unlock()
	return spanID
}

// OnEnd completes the invocation and queues the joined span for delivery.
// It reports whether a matching start was found and the record accepted by
// the dispatch queue. An end with no matching start is ignored.
func (l *Listener) OnEnd(ev EndEvent) bool {
	l.mu.Lock()
	p, ok := l.pending[ev.InvocationID]
	if ok {
		delete(l.pending, ev.InvocationID)
	}
	l.mu.Unlock()
	if !ok {
		return false
	}

	if ev.EndTime.IsZero() {
		ev.EndTime = time.Now()
	}
	kind := p.event.Kind
	if kind == "" {
		kind = "tool"
	}

	return l.client.LogSpan(keywordsai.SpanRecord{
		SpanID:       p.spanID,
		ParentSpanID: p.event.ParentSpanID,
		TraceID:      p.event.TraceID,
		Name:         p.event.Name,
		Kind:         kind,
		StartTime:    p.started,
		EndTime:      ev.EndTime,
		Input:        p.event.Input,
		Output:       ev.Output,
		Model:        p.event.Model,
		ErrorText:    ev.ErrorText,
		Metrics:      ev.Metrics,
		Metadata:     mergeMeta(p.event.Metadata, ev.Metadata),
	})
}

// Pending returns the number of invocations started but not yet ended.
// Entries whose end callback never fires stay here for the process
// lifetime; that leak is accepted rather than guessed at with timeouts.
func (l *Listener) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func mergeMeta(start, end map[string]any) map[string]any {
	if len(start) == 0 {
		return end
	}
	if len(end) == 0 {
		return start
	}
	merged := make(map[string]any, len(start)+len(end))
	for k, v := range start {
		merged[k] = v
	}
	for k, v := range end {
		merged[k] = v
	}
	return merged
}
