package keywordsai

import (
	"context"
	"net/url"
)

// Evaluator is a scoring function the platform can run against logged
// records, either built in or user defined.
type Evaluator struct {
	ID          string `json:"evaluator_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Type is "llm", "code", or "human".
	Type string `json:"type,omitempty"`
}

// RunEvaluatorRequest is the input for EvaluatorsService.Run.
type RunEvaluatorRequest struct {
	// LogID is the span_unique_id of the record to score.
	LogID        string   `json:"log_id"`
	EvaluatorIDs []string `json:"evaluator_ids"`
}

// EvaluatorResult is one evaluator's score for one record.
type EvaluatorResult struct {
	EvaluatorID string   `json:"evaluator_id"`
	LogID       string   `json:"log_id"`
	Score       *float64 `json:"score,omitempty"`
	Passed      *bool    `json:"passed,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// EvaluatorsService runs platform evaluators against logged records.
type EvaluatorsService struct {
	client *Client
}

// List retrieves the evaluators available to the workspace.
func (s *EvaluatorsService) List(ctx context.Context) ([]Evaluator, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp []Evaluator
	err := s.client.withRetry(ctx, "list evaluators", func(ctx context.Context) error {
		return s.client.get(ctx, "/evaluators", &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Run scores one logged record with the named evaluators. Scoring is
// asynchronous server-side; the results carry whatever has completed.
func (s *EvaluatorsService) Run(ctx context.Context, req RunEvaluatorRequest) ([]EvaluatorResult, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp []EvaluatorResult
	err := s.client.withRetry(ctx, "run evaluators", func(ctx context.Context) error {
		return s.client.post(ctx, "/evaluators/run", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Results retrieves the evaluator scores recorded for one record.
func (s *EvaluatorsService) Results(ctx context.Context, logID string) ([]EvaluatorResult, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp []EvaluatorResult
	err := s.client.withRetry(ctx, "evaluator results", func(ctx context.Context) error {
		return s.client.get(ctx, "/evaluators/results?log_id="+url.QueryEscape(logID), &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
