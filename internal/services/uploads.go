package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
)

// UploadService publishes transformed media through the backend.
type UploadService struct {
	backend
}

// NewUploadService creates an UploadService against baseURL.
func NewUploadService(baseURL string, client *http.Client, logger *log.Logger) *UploadService {
	return &UploadService{backend: newBackend(baseURL, client, logger)}
}

// UploadTikTok posts media to the user's TikTok account.
func (s *UploadService) UploadTikTok(ctx context.Context, req models.TikTokUploadRequest) error {
	if len(req.Media) == 0 {
		return fmt.Errorf("%w: no media to upload", shared.ErrInvalidInput)
	}
	return s.doRequest(ctx, http.MethodPost, "/TikTok/upload", req, nil)
}

// UploadYouTube posts videos to the user's YouTube channel.
func (s *UploadService) UploadYouTube(ctx context.Context, req models.YouTubeUploadRequest) error {
	if len(req.Videos) == 0 {
		return fmt.Errorf("%w: no videos to upload", shared.ErrInvalidInput)
	}
	return s.doRequest(ctx, http.MethodPost, "/Youtube/upload-videos", req, nil)
}

// ConnectURL builds the address of a platform's connect flow.
//
// state and redirectURI are omitted when empty.
func ConnectURL(base string, platform models.Platform, userID models.ID, state, redirectURI string) (string, error) {
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: connect url: %v", shared.ErrInvalidConfig, err)
	}
	u = u.JoinPath(platform.ConnectPath(), "connect")

	q := u.Query()
	q.Set("user_id", string(userID))
	if state != "" {
		q.Set("state", state)
	}
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
