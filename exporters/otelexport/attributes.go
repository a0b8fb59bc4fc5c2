package otelexport

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"go.opentelemetry.io/otel/attribute"
)

// spanAttrs is the builder-facing view of one span's attributes after the
// vendor conventions (OTel gen_ai, Traceloop, OpenInference) are resolved.
// Attributes not claimed by a known convention ride along in metadata.
type spanAttrs struct {
	kind     string
	model    string
	input    any
	output   any
	metrics  map[string]any
	metadata map[string]any
}

func parseAttributes(kvs []attribute.KeyValue) spanAttrs {
	attrs := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	a := spanAttrs{metrics: make(map[string]any)}
	a.kind = takeKind(attrs)
	a.model = takeString(attrs,
		"gen_ai.response.model",
		"gen_ai.request.model",
		"llm.model_name",
	)
	if v, ok := take(attrs, "gen_ai.prompt", "traceloop.entity.input", "input.value"); ok {
		a.input = decodeJSONish(v)
	}
	if v, ok := take(attrs, "gen_ai.completion", "traceloop.entity.output", "output.value"); ok {
		a.output = decodeJSONish(v)
	}
	if v, ok := take(attrs, "gen_ai.usage.input_tokens", "gen_ai.usage.prompt_tokens", "llm.token_count.prompt"); ok {
		a.metrics["prompt_tokens"] = v
	}
	if v, ok := take(attrs, "gen_ai.usage.output_tokens", "gen_ai.usage.completion_tokens", "llm.token_count.completion"); ok {
		a.metrics["completion_tokens"] = v
	}
	if v, ok := take(attrs, "gen_ai.usage.cost"); ok {
		a.metrics["cost"] = v
	}
	if v, ok := take(attrs, "http.response.status_code", "http.status_code"); ok {
		a.metrics["status_code"] = v
	}

	// Identity attributes become the metadata keys the builder lifts into
	// the record's identifier fields.
	if s := takeString(attrs, "keywordsai.customer_identifier", "user.id"); s != "" {
		attrs["customer_identifier"] = s
	}
	if s := takeString(attrs, "keywordsai.session_identifier", "session.id"); s != "" {
		attrs["session_identifier"] = s
	}

	a.metadata = attrs
	return a
}

// takeKind resolves the span classification. Explicit framework kinds win;
// the gen_ai operation name is mapped next; a bare gen_ai.system marker
// still pins the span as a model call.
func takeKind(attrs map[string]any) string {
	if s := takeString(attrs, "traceloop.span.kind", "openinference.span.kind"); s != "" {
		return strings.ToLower(s)
	}
	if op := takeString(attrs, "gen_ai.operation.name"); op != "" {
		switch strings.ToLower(op) {
		case "chat", "text_completion", "generate_content":
			return "llm"
		case "embeddings", "embedding":
			return "embedding"
		case "execute_tool":
			return "tool"
		case "invoke_agent", "create_agent":
			return "agent"
		default:
			return op
		}
	}
	if _, ok := attrs["gen_ai.system"]; ok {
		return "llm"
	}
	return ""
}

// take returns the value of the first present key and removes every listed
// key, so lower-priority aliases do not leak into metadata.
func take(attrs map[string]any, keys ...string) (any, bool) {
	var v any
	found := false
	for _, k := range keys {
		if val, ok := attrs[k]; ok {
			if !found {
				v = val
				found = true
			}
			delete(attrs, k)
		}
	}
	return v, found
}

func takeString(attrs map[string]any, keys ...string) string {
	v, ok := take(attrs, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// decodeJSONish turns JSON-looking attribute strings into structured data.
// Instrumentations stringify prompts and completions, often with Python-repr
// quirks like single quotes; jsonrepair recovers those before a retry.
// Values that are not JSON, or that cannot be repaired, pass through as-is.
func decodeJSONish(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return s
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return decoded
	}
	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		return s
	}
	if err := json.Unmarshal([]byte(repaired), &decoded); err != nil {
		return s
	}
	return decoded
}
