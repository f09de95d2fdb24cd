package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrJobNotFound        = fmt.Errorf("transformation job not found")
	ErrJobFailed          = fmt.Errorf("transformation job failed")
	ErrKeyNotFound        = fmt.Errorf("storage key not found")

	// Workflow errors
	ErrEmptyImport          = fmt.Errorf("no content imported")
	ErrEmptySelection       = fmt.Errorf("no content selected")
	ErrNoDestination        = fmt.Errorf("no destination platform chosen")
	ErrPlatformNotConnected = fmt.Errorf("platform not connected")
	ErrStepLocked           = fmt.Errorf("workflow step not reachable")

	// Connect flow errors
	ErrConnectFailed      = fmt.Errorf("platform connect failed")
	ErrInvalidState       = fmt.Errorf("invalid state parameter")
	ErrBrowserUnavailable = fmt.Errorf("could not open browser")

	// Download and upload errors
	ErrDownloadFailed      = fmt.Errorf("download failed")
	ErrUploadFailed        = fmt.Errorf("upload failed")
	ErrUnsupportedPlatform = fmt.Errorf("unsupported platform")
	ErrMediaNotReady       = fmt.Errorf("transformed media not ready")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
