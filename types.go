package keywordsai

import (
	"strings"
	"time"
)

// LogType classifies a unit of LLM or agent work in a canonical log record.
type LogType string

// Canonical log types. Generation covers chat and completion model calls;
// workflow groups the spans of one end-to-end run.
const (
	LogTypeGeneration    LogType = "generation"
	LogTypeChat          LogType = "chat"
	LogTypeCompletion    LogType = "completion"
	LogTypeResponse      LogType = "response"
	LogTypeTask          LogType = "task"
	LogTypeTool          LogType = "tool"
	LogTypeFunction      LogType = "function"
	LogTypeAgent         LogType = "agent"
	LogTypeWorkflow      LogType = "workflow"
	LogTypeEmbedding     LogType = "embedding"
	LogTypeTranscription LogType = "transcription"
	LogTypeSpeech        LogType = "speech"
	LogTypeHandoff       LogType = "handoff"
	LogTypeGuardrail     LogType = "guardrail"
	LogTypeScore         LogType = "score"
	LogTypeCustom        LogType = "custom"
	LogTypeUnknown       LogType = "unknown"
)

var canonicalLogTypes = map[string]LogType{
	string(LogTypeGeneration):    LogTypeGeneration,
	string(LogTypeChat):          LogTypeChat,
	string(LogTypeCompletion):    LogTypeCompletion,
	string(LogTypeResponse):      LogTypeResponse,
	string(LogTypeTask):          LogTypeTask,
	string(LogTypeTool):          LogTypeTool,
	string(LogTypeFunction):      LogTypeFunction,
	string(LogTypeAgent):         LogTypeAgent,
	string(LogTypeWorkflow):      LogTypeWorkflow,
	string(LogTypeEmbedding):     LogTypeEmbedding,
	string(LogTypeTranscription): LogTypeTranscription,
	string(LogTypeSpeech):        LogTypeSpeech,
	string(LogTypeHandoff):       LogTypeHandoff,
	string(LogTypeGuardrail):     LogTypeGuardrail,
	string(LogTypeScore):         LogTypeScore,
	string(LogTypeCustom):        LogTypeCustom,
	string(LogTypeUnknown):       LogTypeUnknown,
}

// LogTypeForKind maps a vendor span kind to a canonical LogType. Matching is
// case-insensitive; the alias table wins over the passthrough of exact
// canonical names, so a "function" kind classifies as tool. Unrecognized
// kinds map to LogTypeUnknown.
func LogTypeForKind(kind string) LogType {
	k := strings.ToLower(strings.TrimSpace(kind))
	switch k {
	case "llm", "generation", "model":
		return LogTypeGeneration
	case "workflow", "trace", "chain":
		return LogTypeWorkflow
	case "task", "step", "retriever", "reranker":
		return LogTypeTask
	case "tool", "function":
		return LogTypeTool
	case "agent":
		return LogTypeAgent
	}
	if lt, ok := canonicalLogTypes[k]; ok {
		return lt
	}
	return LogTypeUnknown
}

// Payload is the canonical log record accepted by the trace-ingestion API.
// The JSON field names are fixed by the platform's wire format.
type Payload struct {
	TraceUniqueID string  `json:"trace_unique_id"`
	SpanUniqueID  string  `json:"span_unique_id"`
	SpanParentID  *string `json:"span_parent_id"` // null marks a root span
	TraceName     string  `json:"trace_name,omitempty"`
	SpanName      string  `json:"span_name"`
	LogType       LogType `json:"log_type"`

	// StartTime and Timestamp carry the same ISO-8601 UTC instant; the
	// platform reads either depending on the ingestion path.
	StartTime string `json:"start_time"`
	Timestamp string `json:"timestamp"`

	// Latency is the span duration in seconds, omitted when either
	// endpoint was unavailable.
	Latency *float64 `json:"latency,omitempty"`

	Model              string   `json:"model,omitempty"`
	PromptTokens       *int     `json:"prompt_tokens,omitempty"`
	CompletionTokens   *int     `json:"completion_tokens,omitempty"`
	TotalRequestTokens *int     `json:"total_request_tokens,omitempty"`
	Cost               *float64 `json:"cost,omitempty"`

	Input  any `json:"input,omitempty"`
	Output any `json:"output,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
	StatusCode   int    `json:"status_code,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`

	CustomerIdentifier string `json:"customer_identifier,omitempty"`
	SessionIdentifier  string `json:"session_identifier,omitempty"`
}

// Span is the adapter view of one unit of work. Exporters and hook listeners
// implement it over their native span types; SpanRecord is a ready-made
// implementation for manual logging.
type Span interface {
	// SpanID returns the vendor-native span ID. Empty lets the builder
	// mint one.
	SpanID() string
	// ParentSpanID returns the parent's span ID; empty marks a root span.
	ParentSpanID() string
	TraceID() string
	Name() string
	// Kind is the vendor's span classification, mapped by LogTypeForKind.
	Kind() string
	StartTime() time.Time
	// EndTime is zero while the span is still open.
	EndTime() time.Time
	Input() any
	Output() any
	Model() string
	// ErrorText is non-empty when the span ended in error.
	ErrorText() string
	Metrics() map[string]any
	Metadata() map[string]any
}

// SpanRecord captures one unit of work as a plain value for manual logging.
// Snapshot converts it to the Span view consumed by the payload builder.
type SpanRecord struct {
	SpanID       string
	ParentSpanID string
	TraceID      string
	Name         string
	Kind         string
	StartTime    time.Time
	EndTime      time.Time
	Input        any
	Output       any
	Model        string
	ErrorText    string
	Metrics      map[string]any
	Metadata     map[string]any
}

// Snapshot returns the Span view of the record.
func (r SpanRecord) Snapshot() Span { return recordSpan{r} }

type recordSpan struct{ r SpanRecord }

func (s recordSpan) SpanID() string { return s.r.SpanID }

func (s recordSpan) ParentSpanID() string { return s.r.ParentSpanID }

func (s recordSpan) TraceID() string { return s.r.TraceID }

func (s recordSpan) Name() string { return s.r.Name }

func (s recordSpan) Kind() string { return s.r.Kind }

func (s recordSpan) StartTime() time.Time { return s.r.StartTime }

func (s recordSpan) EndTime() time.Time { return s.r.EndTime }

func (s recordSpan) Input() any { return s.r.Input }

func (s recordSpan) Output() any { return s.r.Output }

func (s recordSpan) Model() string { return s.r.Model }

func (s recordSpan) ErrorText() string { return s.r.ErrorText }

func (s recordSpan) Metrics() map[string]any { return s.r.Metrics }

func (s recordSpan) Metadata() map[string]any { return s.r.Metadata }
