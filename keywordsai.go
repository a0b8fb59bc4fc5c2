// Package keywordsai is the Go SDK for the Keywords AI LLM-observability
// platform (also sold as Respan). It normalizes units of LLM and agent work
// from OpenTelemetry spans, framework hook callbacks, and manual logging into
// one canonical record shape, then delivers batches to the platform's
// trace-ingestion endpoint with retries, deduplication, and fail-soft error
// handling.
//
// The SDK never takes the host application down. A client constructed without
// an API key logs one warning and becomes a no-op; delivery failures are
// retried, then surfaced through callbacks and logs rather than errors on the
// hot path.
//
// Construct a client once and share it:
//
//	client := keywordsai.NewClient(
//		keywordsai.WithAPIKey(os.Getenv("KEYWORDSAI_API_KEY")),
//	)
//	defer client.Shutdown(context.Background())
//
//	client.LogSpan(keywordsai.SpanRecord{
//		Name:      "summarize",
//		Kind:      "llm",
//		Model:     "gpt-4o-mini",
//		StartTime: started,
//		EndTime:   time.Now(),
//		Input:     prompt,
//		Output:    completion,
//		Metrics:   map[string]any{"prompt_tokens": 412, "completion_tokens": 88},
//	})
//
// OpenTelemetry users plug the exporters/otelexport package into their tracer
// provider instead; callback-based frameworks use the hooks package.
package keywordsai
