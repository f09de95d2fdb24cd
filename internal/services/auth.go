package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/models"
)

// AuthService calls the /Auth endpoints. It must use a client without the bearer
// transport so a refresh never triggers another refresh.
type AuthService struct {
	backend
}

// NewAuthService creates an AuthService against baseURL.
func NewAuthService(baseURL string, client *http.Client, logger *log.Logger) *AuthService {
	return &AuthService{backend: newBackend(baseURL, client, logger)}
}

// Login exchanges email and password for a credential.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Credential, error) {
	var raw json.RawMessage
	if err := s.doRequest(ctx, http.MethodPost, "/Auth/login", req, &raw); err != nil {
		return nil, err
	}
	return models.DecodeCredential(raw)
}

// Register creates an account. The returned credential is nil when the backend
// withholds one until the email is verified.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.Credential, error) {
	var raw json.RawMessage
	if err := s.doRequest(ctx, http.MethodPost, "/Auth/register", req, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	cred, err := models.DecodeCredential(raw)
	if err != nil {
		s.logger.Debug("register returned no credential", "error", err)
		return nil, nil
	}
	return cred, nil
}

// SendOTP asks the backend to email a one-time code.
func (s *AuthService) SendOTP(ctx context.Context, req models.SendOTPRequest) error {
	return s.doRequest(ctx, http.MethodPost, "/Auth/verifyOTP", req, nil)
}

// VerifyOTP confirms a one-time code.
func (s *AuthService) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) error {
	return s.doRequest(ctx, http.MethodPost, "/Auth/verify-otp", req, nil)
}

// ForgotPassword starts the password reset flow.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	return s.doRequest(ctx, http.MethodPost, "/Auth/forgot-password", req, nil)
}

// ResetPassword sets a new password using the emailed code.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return s.doRequest(ctx, http.MethodPost, "/Auth/reset-password", req, nil)
}

// Refresh trades a refresh token for a new credential.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.Credential, error) {
	var raw json.RawMessage
	body := models.RefreshRequest{RefreshToken: refreshToken}
	if err := s.doRequest(ctx, http.MethodPost, "/Auth/refresh-token", body, &raw); err != nil {
		return nil, err
	}
	return models.DecodeCredential(raw)
}
