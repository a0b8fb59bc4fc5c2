package keywordsai

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a Client.
type Option func(*resolvedOptions)

// resolvedOptions holds all settings after applying options, environment
// variables, and defaults. Unexported, callers use the With* functions.
type resolvedOptions struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	logger         *slog.Logger
	maxRetries     int
	retryBase      time.Duration
	retryMax       time.Duration
	raiseOnError   bool
	metadata       map[string]any
	customerID     string
	sessionID      string
	workflowName   string
	estimateCosts  bool
	tokenEstimator TokenEstimator
	queueSize      int
	workers        int
	batchSize      int
	flushEvery     time.Duration
	meterProvider  metric.MeterProvider
}

func resolveOptions(opts []Option) resolvedOptions {
	o := resolvedOptions{
		apiKey:  apiKeyFromEnv(),
		baseURL: baseURLFromEnv(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return o
}

// WithAPIKey sets the API key, overriding the KEYWORDSAI_API_KEY and
// RESPAN_API_KEY environment variables.
func WithAPIKey(key string) Option {
	return func(o *resolvedOptions) { o.apiKey = key }
}

// WithBaseURL overrides the platform endpoint from KEYWORDSAI_BASE_URL,
// RESPAN_BASE_URL, or the hosted default. Both "https://host" and
// "https://host/api" forms are accepted.
func WithBaseURL(url string) Option {
	return func(o *resolvedOptions) { o.baseURL = url }
}

// WithHTTPClient replaces the default HTTP client. When set, WithTimeout is
// ignored; the supplied client owns its own timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *resolvedOptions) { o.httpClient = client }
}

// WithTimeout bounds each delivery request. Defaults to 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *resolvedOptions) { o.timeout = d }
}

// WithLogger sets the structured logger for SDK warnings.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithMaxRetries sets the total number of delivery attempts per batch,
// including the first. Values below 1 clamp to 1 (a single attempt, no
// retries). Unset keeps the default of 3.
func WithMaxRetries(n int) Option {
	return func(o *resolvedOptions) {
		if n < 1 {
			n = 1
		}
		o.maxRetries = n
	}
}

// WithRetryDelays tunes the exponential backoff between delivery attempts.
func WithRetryDelays(base, max time.Duration) Option {
	return func(o *resolvedOptions) {
		o.retryBase = base
		o.retryMax = max
	}
}

// WithRaiseOnError makes terminal rejections in the [300, 500) status range
// surface as errors from synchronous calls. Without it they are logged as
// warnings and swallowed, keeping telemetry from breaking the host.
func WithRaiseOnError(raise bool) Option {
	return func(o *resolvedOptions) { o.raiseOnError = raise }
}

// WithMetadata merges static metadata into every payload. Per-span metadata
// wins on key collisions.
func WithMetadata(metadata map[string]any) Option {
	return func(o *resolvedOptions) { o.metadata = metadata }
}

// WithCustomerID sets the default customer_identifier stamped on payloads
// whose spans do not carry their own.
func WithCustomerID(id string) Option {
	return func(o *resolvedOptions) { o.customerID = id }
}

// WithSessionID sets the default session_identifier stamped on payloads
// whose spans do not carry their own.
func WithSessionID(id string) Option {
	return func(o *resolvedOptions) { o.sessionID = id }
}

// WithWorkflowName names root spans whose own name is empty; it becomes the
// trace_name of their traces.
func WithWorkflowName(name string) Option {
	return func(o *resolvedOptions) { o.workflowName = name }
}

// WithCostEstimates enables cost estimation from the built-in per-model
// price table when no cost is reported. Estimated payloads carry
// metadata["cost_is_estimate"] = true and are never authoritative.
func WithCostEstimates(enable bool) Option {
	return func(o *resolvedOptions) { o.estimateCosts = enable }
}

// WithTokenEstimator installs a token-count fallback, applied to generation
// spans that report no usage. Estimated payloads carry
// metadata["tokens_are_estimate"] = true. The tokenizer package provides a
// tiktoken-backed implementation.
func WithTokenEstimator(fn TokenEstimator) Option {
	return func(o *resolvedOptions) { o.tokenEstimator = fn }
}

// WithQueueSize bounds the asynchronous dispatch queue. Records beyond the
// bound are dropped, never blocked on. Defaults to 2048.
func WithQueueSize(n int) Option {
	return func(o *resolvedOptions) { o.queueSize = n }
}

// WithWorkers sets the number of background delivery goroutines. Defaults to 2.
func WithWorkers(n int) Option {
	return func(o *resolvedOptions) { o.workers = n }
}

// WithBatchSize caps how many records one ingest request carries. Defaults to 100.
func WithBatchSize(n int) Option {
	return func(o *resolvedOptions) { o.batchSize = n }
}

// WithFlushInterval bounds how long a partial batch may wait before it is
// sent anyway. Defaults to 1 second.
func WithFlushInterval(d time.Duration) Option {
	return func(o *resolvedOptions) { o.flushEvery = d }
}

// WithMeterProvider routes the SDK's own queue gauges to the given provider
// instead of the OpenTelemetry global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *resolvedOptions) { o.meterProvider = mp }
}
