package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/shared"
)

// FallbackMessage is shown when the backend error carries no message.
const FallbackMessage = "Something went wrong"

// DefaultBaseURL is the production backend.
const DefaultBaseURL = "https://api.mazeed.ai/api"

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// Message extracts the user-facing text of err: the backend message when there is one.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}

// backend holds what every mazeed service needs to issue requests.
type backend struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

func newBackend(baseURL string, client *http.Client, logger *log.Logger) backend {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return backend{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client, logger: logger}
}

// doRequest sends body as JSON and decodes a 2xx response into result.
func (b *backend) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.logger.Debug("request failed", "method", method, "endpoint", endpoint, "error", err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	b.logger.Debug("request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// errorMessage reads the "message" field of an error body.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		return FallbackMessage
	}
	return body.Message
}
