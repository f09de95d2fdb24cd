package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/services"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/toast"
)

// DefaultPacing is the pause between a success message and the following navigation.
const DefaultPacing = time.Second

// AuthClient is the backend surface the manager needs; [services.AuthService] implements it.
type AuthClient interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.Credential, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.Credential, error)
	SendOTP(ctx context.Context, req models.SendOTPRequest) error
	VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) error
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
}

// CredentialStore persists the credential.
type CredentialStore interface {
	Load() (*models.Credential, error)
	Save(cred *models.Credential) error
	Delete() error
	ClearAll() error
}

var _ AuthClient = (*services.AuthService)(nil)

// ManagerOpts configures a [Manager].
type ManagerOpts struct {
	Auth      AuthClient
	Store     CredentialStore
	Navigator Navigator
	Notifier  toast.Notifier
	Pacing    time.Duration
	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *log.Logger
}

// Manager owns the credential and the account flows.
type Manager struct {
	auth     AuthClient
	store    CredentialStore
	nav      Navigator
	notifier toast.Notifier
	pacing   time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *log.Logger
}

// NewManager creates a Manager. A zero Pacing selects [DefaultPacing]; a negative one disables it.
func NewManager(opts ManagerOpts) *Manager {
	m := &Manager{
		auth:     opts.Auth,
		store:    opts.Store,
		nav:      opts.Navigator,
		notifier: opts.Notifier,
		pacing:   opts.Pacing,
		sleep:    opts.Sleep,
		logger:   opts.Logger,
	}
	if m.nav == nil {
		m.nav = NavigatorFunc(func(string) {})
	}
	if m.notifier == nil {
		m.notifier = toast.Discard{}
	}
	if m.pacing == 0 {
		m.pacing = DefaultPacing
	}
	if m.sleep == nil {
		m.sleep = sleep
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Login authenticates and stores the returned credential.
func (m *Manager) Login(ctx context.Context, form models.LoginRequest) error {
	if err := Validate(form); err != nil {
		return err
	}

	cred, err := m.auth.Login(ctx, form)
	if err != nil {
		return m.backendError("login failed", err)
	}
	if err := m.store.Save(cred); err != nil {
		return m.backendError("failed to store credential", err)
	}

	m.logger.Info("logged in", "user_id", cred.UserID)
	m.nav.Navigate(string(RouteDashboard))
	return nil
}

// SignUp registers an account and dispatches the verification code.
func (m *Manager) SignUp(ctx context.Context, form models.RegisterRequest) error {
	if err := Validate(form); err != nil {
		return err
	}

	cred, err := m.auth.Register(ctx, form)
	if err != nil {
		return m.backendError("registration failed", err)
	}

	m.notifier.Show(toast.Success, "OTP sent to your email")

	otp := models.SendOTPRequest{Email: form.Email, Purpose: models.OTPSignup}
	if err := m.auth.SendOTP(ctx, otp); err != nil {
		m.logger.Warn("failed to dispatch OTP", "email", form.Email, "error", err)
	}

	if cred != nil {
		if err := m.store.Save(cred); err != nil {
			m.logger.Warn("failed to store provisional credential", "error", err)
		}
	}

	m.nav.Navigate(RouteVerifyOTP.With(url.Values{"email": {form.Email}}))
	return nil
}

// VerifyOTP confirms the emailed code.
func (m *Manager) VerifyOTP(ctx context.Context, form models.VerifyOTPRequest) error {
	if err := Validate(form); err != nil {
		return err
	}
	if err := m.auth.VerifyOTP(ctx, form); err != nil {
		return m.backendError("OTP verification failed", err)
	}
	m.nav.Navigate(string(RouteDashboard))
	return nil
}

// SendResetEmail starts the forgot-password flow.
func (m *Manager) SendResetEmail(ctx context.Context, email string) error {
	form := models.ForgotPasswordRequest{Email: email}
	if err := Validate(form); err != nil {
		return err
	}
	if err := m.auth.ForgotPassword(ctx, form); err != nil {
		return m.backendError("password reset request failed", err)
	}

	m.notifier.Show(toast.Success, "OTP sent to your email")
	if err := m.sleep(ctx, m.pacing); err != nil {
		return err
	}
	m.nav.Navigate(RouteResetPassword.With(url.Values{"email": {email}}))
	return nil
}

// ResetPassword sets a new password.
func (m *Manager) ResetPassword(ctx context.Context, form models.ResetPasswordRequest) error {
	if form.Email == "" {
		m.notifier.Show(toast.Error, services.FallbackMessage)
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}
	if err := Validate(form); err != nil {
		return err
	}
	if err := m.auth.ResetPassword(ctx, form); err != nil {
		return m.backendError("password reset failed", err)
	}

	m.notifier.Show(toast.Success, "Password reset successfully")
	if err := m.sleep(ctx, m.pacing); err != nil {
		return err
	}
	m.nav.Navigate(string(RouteLogin))
	return nil
}

// Logout forgets the credential.
func (m *Manager) Logout() error {
	if err := m.store.Delete(); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	m.nav.Navigate(string(RouteLogin))
	return nil
}

// Current returns the stored credential.
func (m *Manager) Current() (*models.Credential, error) {
	return m.store.Load()
}

// RequireAuth runs next only when a credential is stored. Otherwise it navigates
// to the login screen and returns [shared.ErrNotAuthenticated].
func (m *Manager) RequireAuth(next func(cred *models.Credential) error) error {
	cred, err := m.store.Load()
	if err != nil {
		m.nav.Navigate(string(RouteLogin))
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return err
		}
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	return next(cred)
}

// ForceLogout handles an unrecoverable credential reported by the transport.
// Storage has already been cleared by the time a refresh failure arrives here.
func (m *Manager) ForceLogout(err error) {
	if errors.Is(err, shared.ErrRefreshFailed) {
		m.logger.Warn("session expired", "error", err)
		m.notifier.Show(toast.Warning, "Your session has expired. Please log in again.")
	}
	m.nav.Navigate(string(RouteLogin))
}

func (m *Manager) backendError(msg string, err error) error {
	m.logger.Debug(msg, "error", err)
	m.notifier.Show(toast.Error, services.Message(err))
	return fmt.Errorf("%s: %w", msg, err)
}
