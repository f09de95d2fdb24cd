package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
)

// TransformationService manages transformation jobs. Its client must carry the bearer transport.
type TransformationService struct {
	backend
}

// NewTransformationService creates a TransformationService against baseURL.
func NewTransformationService(baseURL string, client *http.Client, logger *log.Logger) *TransformationService {
	return &TransformationService{backend: newBackend(baseURL, client, logger)}
}

// CreateJob submits a job and returns its backend id.
func (s *TransformationService) CreateJob(ctx context.Context, req models.TransformationRequest) (models.ID, error) {
	var resp models.TransformationResponse
	if err := s.doRequest(ctx, http.MethodPost, "/MediaTransformation", req, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("%w: response carried no jobId", shared.ErrAPIRequest)
	}
	return resp.JobID, nil
}

// ListJobs fetches one page of jobs.
//
// The backend answers with a bare array or a page object with items or data.
func (s *TransformationService) ListJobs(ctx context.Context, page, pageSize int) ([]models.TransformationJob, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var raw json.RawMessage
	if err := s.doRequest(ctx, http.MethodGet, "/MediaTransformation?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}
	return decodeJobs(raw)
}

func decodeJobs(raw json.RawMessage) ([]models.TransformationJob, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var jobs []models.TransformationJob
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &jobs); err != nil {
			return nil, fmt.Errorf("failed to decode jobs: %w", err)
		}
		return jobs, nil
	}

	var page struct {
		Items []models.TransformationJob `json:"items"`
		Data  []models.TransformationJob `json:"data"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	if page.Items != nil {
		return page.Items, nil
	}
	return page.Data, nil
}

// GetJob fetches a job with its items.
func (s *TransformationService) GetJob(ctx context.Context, jobID models.ID) (*models.TransformationJob, error) {
	var job models.TransformationJob
	err := s.doRequest(ctx, http.MethodGet, "/MediaTransformation/"+url.PathEscape(string(jobID)), nil, &job)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, jobID)
		}
		return nil, err
	}
	if job.JobID == "" {
		job.JobID = jobID
	}
	return &job, nil
}

// CancelJob deletes a queued job.
func (s *TransformationService) CancelJob(ctx context.Context, jobID models.ID) error {
	return s.doRequest(ctx, http.MethodDelete, "/MediaTransformation/"+url.PathEscape(string(jobID)), nil, nil)
}

// TransformedMedia fetches a single transformed item.
func (s *TransformationService) TransformedMedia(ctx context.Context, id models.ID) (*models.TransformedItem, error) {
	var item models.TransformedItem
	if err := s.doRequest(ctx, http.MethodGet, "/transformations/media/"+url.PathEscape(string(id)), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
