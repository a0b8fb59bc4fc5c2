package keywordsai

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// Dataset is a curated collection of request logs used for evaluation and
// fine-tuning.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"` // "sampling" or "freezed"
	Status      string    `json:"status,omitempty"`
	LogCount    int       `json:"log_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateDatasetRequest is the input for DatasetsService.Create.
type CreateDatasetRequest struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Type         string         `json:"type,omitempty"`
	SamplingSize int            `json:"sampling,omitempty"`
	StartTime    string         `json:"start_time,omitempty"`
	EndTime      string         `json:"end_time,omitempty"`
	Filters      map[string]any `json:"initial_log_filters,omitempty"`
}

// UpdateDatasetRequest is the input for DatasetsService.Update. Zero-valued
// fields are left unchanged.
type UpdateDatasetRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListDatasetsResponse is the output of DatasetsService.List.
type ListDatasetsResponse struct {
	Datasets []Dataset `json:"results"`
	Total    int       `json:"count"`
}

// ManageDatasetLogsRequest attaches or detaches request logs from a dataset.
type ManageDatasetLogsRequest struct {
	// Action is "add" or "remove".
	Action string `json:"action"`
	// LogIDs are canonical record IDs (span_unique_id values).
	LogIDs []string `json:"unique_ids,omitempty"`
	// Filters selects logs server-side when LogIDs is empty.
	Filters map[string]any `json:"filters,omitempty"`
}

// DatasetsService manages dataset resources. Unlike the telemetry paths,
// its methods return API errors to the caller.
type DatasetsService struct {
	client *Client
}

// Create creates a dataset.
func (s *DatasetsService) Create(ctx context.Context, req CreateDatasetRequest) (*Dataset, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp Dataset
	err := s.client.withRetry(ctx, "create dataset", func(ctx context.Context) error {
		return s.client.post(ctx, "/datasets", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get retrieves a dataset by ID.
func (s *DatasetsService) Get(ctx context.Context, datasetID string) (*Dataset, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp Dataset
	err := s.client.withRetry(ctx, "get dataset", func(ctx context.Context) error {
		return s.client.get(ctx, "/datasets/"+url.PathEscape(datasetID), &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves datasets, newest first. Zero limit uses the server default.
func (s *DatasetsService) List(ctx context.Context, limit, offset int) (*ListDatasetsResponse, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	params := url.Values{}
	if limit > 0 {
		params.Set("page_size", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	path := "/datasets"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var resp ListDatasetsResponse
	err := s.client.withRetry(ctx, "list datasets", func(ctx context.Context) error {
		return s.client.get(ctx, path, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update modifies a dataset's mutable fields.
func (s *DatasetsService) Update(ctx context.Context, datasetID string, req UpdateDatasetRequest) (*Dataset, error) {
	if s.client.disabled {
		return nil, ErrDisabled
	}
	var resp Dataset
	err := s.client.withRetry(ctx, "update dataset", func(ctx context.Context) error {
		return s.client.patch(ctx, "/datasets/"+url.PathEscape(datasetID), req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes a dataset. The attached logs are kept.
func (s *DatasetsService) Delete(ctx context.Context, datasetID string) error {
	if s.client.disabled {
		return ErrDisabled
	}
	return s.client.withRetry(ctx, "delete dataset", func(ctx context.Context) error {
		return s.client.doDelete(ctx, "/datasets/"+url.PathEscape(datasetID), nil)
	})
}

// ManageLogs attaches or detaches request logs.
func (s *DatasetsService) ManageLogs(ctx context.Context, datasetID string, req ManageDatasetLogsRequest) error {
	if s.client.disabled {
		return ErrDisabled
	}
	return s.client.withRetry(ctx, "manage dataset logs", func(ctx context.Context) error {
		return s.client.post(ctx, "/datasets/"+url.PathEscape(datasetID)+"/logs/manage", req, nil)
	})
}
