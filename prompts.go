package keywordsai

import (
	"context"
	"net/url"
	"time"
)

// Prompt is a versioned prompt template managed on the platform.
type Prompt struct {
	ID             string    `json:"prompt_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CurrentVersion int       `json:"current_version,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PromptMessage is one chat message in a prompt template. Template
// variables use {{name}} placeholders in Content.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptVersion is one immutable revision of a prompt.
type PromptVersion struct {
	Version     int             `json:"version"`
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
	Model       string          `json:"model,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_completion_tokens,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreatePromptRequest is the input for PromptsService.Create.
type CreatePromptRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreatePromptVersionRequest is the input for PromptsService.CreateVersion.
type CreatePromptVersionRequest struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
	Model       string          `json:"model,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_completion_tokens,omitempty"`
}

// ListPromptsResponse is the output of PromptsService.List.
type ListPromptsResponse struct {
	Prompts []Prompt `json:"results"`
	Total   int      `json:"count"`
}

// PromptsService manages prompt templates and their versions.
type PromptsService struct {
	client *Client
}

// Create registers a new prompt. Versions are added separately.
func (s *PromptsService) Create(ctx context.Context, req CreatePromptRequest) (*Prompt, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp Prompt
	err := s.client.withRetry(ctx, "create prompt", func(ctx context.Context) error {
		return s.client.post(ctx, "/prompts", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get retrieves a prompt by ID.
func (s *PromptsService) Get(ctx context.Context, promptID string) (*Prompt, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp Prompt
	err := s.client.withRetry(ctx, "get prompt", func(ctx context.Context) error {
		return s.client.get(ctx, "/prompts/"+url.PathEscape(promptID), &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves all prompts in the workspace.
func (s *PromptsService) List(ctx context.Context) (*ListPromptsResponse, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp ListPromptsResponse
	err := s.client.withRetry(ctx, "list prompts", func(ctx context.Context) error {
		return s.client.get(ctx, "/prompts", &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateVersion appends a new immutable version to a prompt.
func (s *PromptsService) CreateVersion(ctx context.Context, promptID string, req CreatePromptVersionRequest) (*PromptVersion, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp PromptVersion
	err := s.client.withRetry(ctx, "create prompt version", func(ctx context.Context) error {
		return s.client.post(ctx, "/prompts/"+url.PathEscape(promptID)+"/versions", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListVersions retrieves every version of a prompt, newest first.
func (s *PromptsService) ListVersions(ctx context.Context, promptID string) ([]PromptVersion, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp []PromptVersion
	err := s.client.withRetry(ctx, "list prompt versions", func(ctx context.Context) error {
		return s.client.get(ctx, "/prompts/"+url.PathEscape(promptID)+"/versions", &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
