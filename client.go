package keywordsai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Keywords-AI/keywordsai-go/internal/backoff"
	"github.com/Keywords-AI/keywordsai-go/internal/dispatch"
)

// Client delivers canonical log records to the Keywords AI platform.
// All methods are safe for concurrent use.
//
// Telemetry methods (LogSpan, Enqueue, Ingest, CreateRequestLog) fail soft:
// a client without an API key no-ops, and terminal rejections are logged
// rather than raised unless WithRaiseOnError is set. Management services
// (Datasets, Prompts, Evaluators) return their errors.
type Client struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	logger       *slog.Logger
	retry        *backoff.Handler
	raiseOnError bool
	disabled     bool

	builder   *Builder
	callbacks *CallbackRegistry
	queue     *dispatch.Queue[Payload]

	// Datasets, Prompts, and Evaluators expose the platform's management
	// APIs on the same connection settings.
	Datasets   *DatasetsService
	Prompts    *PromptsService
	Evaluators *EvaluatorsService
}

// NewClient constructs a Client. Settings come from options first, then the
// KEYWORDSAI_*/RESPAN_* environment variables, then defaults. A missing API
// key does not fail construction: the client warns once and becomes a no-op,
// so instrumented applications run unchanged without credentials.
func NewClient(opts ...Option) *Client {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	o := resolveOptions(opts)

	c := &Client{
		baseURL:      strings.TrimRight(o.baseURL, "/"),
		apiKey:       o.apiKey,
		client:       o.httpClient,
		logger:       o.logger,
		raiseOnError: o.raiseOnError,
		callbacks:    &CallbackRegistry{},
		builder: &Builder{
			Metadata:       o.metadata,
			CustomerID:     o.customerID,
			SessionID:      o.sessionID,
			WorkflowName:   o.workflowName,
			EstimateCosts:  o.estimateCosts,
			EstimateTokens: o.tokenEstimator,
		},
	}

	c.retry = backoff.New(backoff.Config{
		MaxRetries: o.maxRetries,
		BaseDelay:  o.retryBase,
		MaxDelay:   o.retryMax,
		Logger:     o.logger,
	})

	c.queue = dispatch.New(dispatch.Config[Payload]{
		Name:          "traces",
		QueueSize:     o.queueSize,
		Workers:       o.workers,
		MaxBatch:      o.batchSize,
		FlushEvery:    o.flushEvery,
		Logger:        o.logger,
		Send:          c.deliver,
		MeterProvider: o.meterProvider,
	})

	if c.apiKey == "" {
		c.disabled = true
		c.logger.Warn("keywordsai: no API key configured, telemetry disabled",
			"env", EnvAPIKey,
		)
	} else {
		c.queue.Start(context.Background())
	}

	c.Datasets = &DatasetsService{client: c}
	c.Prompts = &PromptsService{client: c}
	c.Evaluators = &EvaluatorsService{client: c}
	return c
}

// Disabled reports whether the client is in no-op mode (no API key).
func (c *Client) Disabled() bool { return c.disabled }

// Builder returns the payload builder carrying this client's defaults.
// Adapters use it to construct payloads before Enqueue.
func (c *Client) Builder() *Builder { return c.builder }

// ---------------------------------------------------------------------------
// Telemetry
// ---------------------------------------------------------------------------

// LogSpan queues one manually recorded span for background delivery. It
// never blocks: when the queue is full the record is dropped and counted.
// The return reports acceptance into the queue, not delivery.
func (c *Client) LogSpan(rec SpanRecord) bool {
	if c.disabled {
		return true
	}
	p, err := c.builder.Build(rec.Snapshot())
	if err != nil {
		c.logger.Warn("keywordsai: dropping unloggable span", "error", err)
		return false
	}
	return c.queue.Enqueue(*p)
}

// Enqueue queues prebuilt payloads for background delivery. Adapters that
// build their own payloads use this instead of LogSpan.
func (c *Client) Enqueue(payloads ...Payload) bool {
	if c.disabled {
		return true
	}
	return c.queue.Enqueue(payloads...)
}

// Ingest synchronously posts a batch to the trace-ingestion endpoint,
// retrying transient failures. Terminal rejections in [300, 500) are logged
// and swallowed unless the client was built WithRaiseOnError.
func (c *Client) Ingest(ctx context.Context, payloads []Payload) error {
	if c.disabled || len(payloads) == 0 {
		return nil
	}
	err := c.ingest(ctx, payloads)
	return c.softenTerminal("trace ingest", err)
}

// CreateRequestLog builds and synchronously delivers a single record through
// the manual logging endpoint. The built payload is returned so callers can
// correlate by its IDs. Terminal rejections follow the Ingest rules.
func (c *Client) CreateRequestLog(ctx context.Context, rec SpanRecord) (*Payload, error) {
	if c.disabled {
		return nil, nil
	}
	p, err := c.builder.Build(rec.Snapshot())
	if err != nil {
		return nil, err
	}
	err = c.withRetry(ctx, "request log", func(ctx context.Context) error {
		return c.post(ctx, "/request-logs/create", p, nil)
	})
	if err := c.softenTerminal("request log", err); err != nil {
		return nil, err
	}
	return p, nil
}

// Flush blocks until everything queued so far has been handed to the
// ingestion API or ctx expires. The client stays usable afterwards; use
// Shutdown for terminal draining.
func (c *Client) Flush(ctx context.Context) error {
	if c.disabled {
		return nil
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.queue.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown stops intake, delivers queued records under ctx's deadline, and
// stops the workers. Records enqueued after Shutdown are dropped.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.disabled {
		return nil
	}
	return c.queue.Drain(ctx)
}

// Dropped returns the number of records lost to queue exhaustion or
// post-shutdown enqueues. Non-zero values indicate the queue needs sizing up.
func (c *Client) Dropped() int64 {
	return c.queue.Dropped()
}

// OnSuccess registers fn to run after each batch the platform accepts.
// The returned function unregisters it.
func (c *Client) OnSuccess(fn SuccessFunc) (unregister func()) {
	return c.callbacks.OnSuccess(fn)
}

// OnFailure registers fn to run when a batch is dropped after its final
// delivery attempt. The returned function unregisters it.
func (c *Client) OnFailure(fn FailureFunc) (unregister func()) {
	return c.callbacks.OnFailure(fn)
}

// deliver is the dispatch queue's send hook: ingest with retries, then fan
// out to callbacks. The raw error goes back to the queue for counting.
func (c *Client) deliver(ctx context.Context, batch []Payload) error {
	err := c.ingest(ctx, batch)
	if err == nil {
		c.notifySuccess(batch)
		return nil
	}
	c.notifyFailure(batch, err)
	return err
}

func (c *Client) ingest(ctx context.Context, payloads []Payload) error {
	return c.withRetry(ctx, "trace ingest", func(ctx context.Context) error {
		return c.post(ctx, "/v1/traces/ingest", payloads, nil)
	})
}

// softenTerminal downgrades terminal rejections in [300, 500) to a warning
// unless the client was built WithRaiseOnError. Retryable failures that
// survived the retry budget pass through unchanged.
func (c *Client) softenTerminal(label string, err error) error {
	if err == nil || c.raiseOnError {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 300 && apiErr.StatusCode < 500 {
		c.logger.Warn("keywordsai: "+label+" rejected",
			"status", apiErr.StatusCode,
			"message", apiErr.Message,
		)
		return nil
	}
	return err
}

func (c *Client) notifySuccess(batch []Payload) {
	for _, fn := range c.callbacks.successFuncs() {
		c.safeCall(func() { fn(batch) })
	}
}

func (c *Client) notifyFailure(batch []Payload, err error) {
	for _, fn := range c.callbacks.failureFuncs() {
		c.safeCall(func() { fn(batch, err) })
	}
}

// safeCall keeps a panicking callback from killing a dispatch worker.
func (c *Client) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("keywordsai: delivery callback panicked", "panic", r)
		}
	}()
	fn()
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// withRetry classifies errors for the retry handler: transport errors and
// 5xx responses are retryable, anything else is permanent.
func (c *Client) withRetry(ctx context.Context, label string, call func(ctx context.Context) error) error {
	return c.retry.Do(ctx, label, func(ctx context.Context) error {
		err := call(ctx)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	})
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("keywordsai: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinPath(c.baseURL, path), bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("keywordsai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinPath(c.baseURL, path), nil)
	if err != nil {
		return fmt.Errorf("keywordsai: create request: %w", err)
	}

	return c.doRequest(req, dest)
}

func (c *Client) patch(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("keywordsai: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, joinPath(c.baseURL, path), bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("keywordsai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, dest)
}

func (c *Client) doDelete(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, joinPath(c.baseURL, path), nil)
	if err != nil {
		return fmt.Errorf("keywordsai: create request: %w", err)
	}

	return c.doRequest(req, dest)
}

func (c *Client) doRequest(req *http.Request, dest any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	// Marks SDK traffic so the platform does not re-trace its own ingestion.
	req.Header.Set("X-Keywordsai-Dogfood", "true")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("keywordsai: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func handleResponse(resp *http.Response, dest any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("keywordsai: read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	// 204 No Content has nothing to decode.
	if resp.StatusCode == http.StatusNoContent || dest == nil {
		return nil
	}

	return json.Unmarshal(bodyBytes, dest)
}

// apiErrorEnvelope covers the error body shapes the platform emits.
type apiErrorEnvelope struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   string `json:"error"`
}

func parseErrorResponse(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Code:       http.StatusText(statusCode),
	}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			apiErr.Message = envelope.Message
		case envelope.Detail != "":
			apiErr.Message = envelope.Detail
		case envelope.Error != "":
			apiErr.Message = envelope.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}
