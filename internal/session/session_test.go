package session

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/repositories"
	"github.com/desertthunder/mazeed/internal/services"
	"github.com/desertthunder/mazeed/internal/shared"
	tu "github.com/desertthunder/mazeed/internal/testing"
	"github.com/desertthunder/mazeed/internal/toast"
)

type fakeAuth struct {
	cred     *models.Credential
	err      error
	otpErr   error
	calls    []string
	otpSent  []models.SendOTPRequest
	verified []models.VerifyOTPRequest
}

func (f *fakeAuth) Login(_ context.Context, _ models.LoginRequest) (*models.Credential, error) {
	f.calls = append(f.calls, "login")
	return f.cred, f.err
}

func (f *fakeAuth) Register(_ context.Context, _ models.RegisterRequest) (*models.Credential, error) {
	f.calls = append(f.calls, "register")
	return f.cred, f.err
}

func (f *fakeAuth) SendOTP(_ context.Context, req models.SendOTPRequest) error {
	f.calls = append(f.calls, "send-otp")
	f.otpSent = append(f.otpSent, req)
	return f.otpErr
}

func (f *fakeAuth) VerifyOTP(_ context.Context, req models.VerifyOTPRequest) error {
	f.calls = append(f.calls, "verify-otp")
	f.verified = append(f.verified, req)
	return f.err
}

func (f *fakeAuth) ForgotPassword(_ context.Context, _ models.ForgotPasswordRequest) error {
	f.calls = append(f.calls, "forgot-password")
	return f.err
}

func (f *fakeAuth) ResetPassword(_ context.Context, _ models.ResetPasswordRequest) error {
	f.calls = append(f.calls, "reset-password")
	return f.err
}

type harness struct {
	auth   *fakeAuth
	kv     *repositories.MemoryStore
	store  *repositories.CredentialStore
	routes *tu.Routes
	toasts *tu.ToastRecorder
	slept  []time.Duration
	mgr    *Manager
}

func newHarness(auth *fakeAuth) *harness {
	h := &harness{auth: auth, kv: repositories.NewMemoryStore(), routes: &tu.Routes{}, toasts: &tu.ToastRecorder{}}
	h.store = repositories.NewCredentialStore(h.kv)
	h.mgr = NewManager(ManagerOpts{
		Auth:      auth,
		Store:     h.store,
		Navigator: h.routes,
		Notifier:  h.toasts,
		Sleep: func(_ context.Context, d time.Duration) error {
			h.slept = append(h.slept, d)
			return nil
		},
	})
	return h
}

func validSignUp() models.RegisterRequest {
	return models.RegisterRequest{
		FirstName:       "Sam",
		LastName:        "Lee",
		Email:           "sam@mazeed.ai",
		PhoneNumber:     "0123456789",
		Password:        "secret",
		ConfirmPassword: "secret",
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		t.Run("stores credential and navigates", func(t *testing.T) {
			h := newHarness(&fakeAuth{cred: &models.Credential{AccessToken: "a", UserID: "42"}})

			if err := h.mgr.Login(ctx, models.LoginRequest{Email: "sam@mazeed.ai", Password: "pw"}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			cred, err := h.mgr.Current()
			if err != nil || cred.UserID != "42" {
				t.Errorf("Current() = %+v, %v", cred, err)
			}
			if h.routes.Last() != string(RouteDashboard) {
				t.Errorf("expected navigation to dashboard, got %q", h.routes.Last())
			}
		})

		t.Run("backend error is toasted once and not retried", func(t *testing.T) {
			apiErr := &services.APIError{StatusCode: 401, Message: "Invalid credentials"}
			h := newHarness(&fakeAuth{err: apiErr})

			err := h.mgr.Login(ctx, models.LoginRequest{Email: "sam@mazeed.ai", Password: "pw"})
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if len(h.auth.calls) != 1 {
				t.Errorf("expected a single attempt, got %v", h.auth.calls)
			}
			msg, _ := h.toasts.Last()
			if msg.Kind != toast.Error || msg.Text != "Invalid credentials" {
				t.Errorf("unexpected toast %+v", msg)
			}
			if len(h.routes.Visited) != 0 {
				t.Errorf("failed login must not navigate, got %v", h.routes.Visited)
			}
		})

		t.Run("invalid form never reaches backend", func(t *testing.T) {
			h := newHarness(&fakeAuth{})
			err := h.mgr.Login(ctx, models.LoginRequest{Email: "not-an-email"})

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Message("email") != "Email is not valid" || verr.Message("password") != "Password is a required field" {
				t.Errorf("unexpected field messages %+v", verr.Fields)
			}
			if len(h.auth.calls) != 0 {
				t.Errorf("backend called with invalid form: %v", h.auth.calls)
			}
		})
	})

	t.Run("SignUp", func(t *testing.T) {
		t.Run("dispatches OTP and navigates to verification", func(t *testing.T) {
			h := newHarness(&fakeAuth{cred: &models.Credential{AccessToken: "provisional"}})

			if err := h.mgr.SignUp(ctx, validSignUp()); err != nil {
				t.Fatalf("SignUp() error = %v", err)
			}
			if len(h.auth.otpSent) != 1 || h.auth.otpSent[0].Purpose != models.OTPSignup {
				t.Errorf("expected signup OTP dispatch, got %+v", h.auth.otpSent)
			}
			if msg, _ := h.toasts.Last(); msg.Text != "OTP sent to your email" {
				t.Errorf("unexpected toast %q", msg.Text)
			}
			if _, err := h.store.Load(); err != nil {
				t.Errorf("provisional credential should be stored: %v", err)
			}
			want := RouteVerifyOTP.With(url.Values{"email": {"sam@mazeed.ai"}})
			if h.routes.Last() != want {
				t.Errorf("expected %s, got %s", want, h.routes.Last())
			}
		})

		t.Run("OTP dispatch failure is not fatal", func(t *testing.T) {
			h := newHarness(&fakeAuth{otpErr: errors.New("smtp down")})
			if err := h.mgr.SignUp(ctx, validSignUp()); err != nil {
				t.Fatalf("SignUp() error = %v", err)
			}
			if h.routes.Last() == "" {
				t.Error("signup should still navigate")
			}
		})

		t.Run("validation", func(t *testing.T) {
			tc := []struct {
				name  string
				edit  func(f *models.RegisterRequest)
				field string
				want  string
			}{
				{name: "letters in phone", edit: func(f *models.RegisterRequest) { f.PhoneNumber = "01234abcde" }, field: "phoneNumber", want: "Phone number must be only digits"},
				{name: "short phone", edit: func(f *models.RegisterRequest) { f.PhoneNumber = "012345" }, field: "phoneNumber", want: "Phone number must be at least 10 digits"},
				{name: "long phone", edit: func(f *models.RegisterRequest) { f.PhoneNumber = "0123456789012345" }, field: "phoneNumber", want: "Phone number must be at most 15 digits"},
				{name: "password mismatch", edit: func(f *models.RegisterRequest) { f.ConfirmPassword = "other" }, field: "confirmPassword", want: "Passwords must match"},
				{name: "missing first name", edit: func(f *models.RegisterRequest) { f.FirstName = "" }, field: "firstName", want: "Please add this field"},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					form := validSignUp()
					tt.edit(&form)

					h := newHarness(&fakeAuth{})
					err := h.mgr.SignUp(ctx, form)

					var verr *ValidationError
					if !errors.As(err, &verr) {
						t.Fatalf("expected ValidationError, got %v", err)
					}
					if got := verr.Message(tt.field); got != tt.want {
						t.Errorf("Message(%q) = %q, want %q", tt.field, got, tt.want)
					}
					if !errors.Is(err, shared.ErrValidation) {
						t.Error("ValidationError should wrap ErrValidation")
					}
				})
			}
		})
	})

	t.Run("VerifyOTP", func(t *testing.T) {
		h := newHarness(&fakeAuth{})
		form := models.VerifyOTPRequest{Email: "sam@mazeed.ai", OTPCode: "123456", Purpose: models.OTPSignup}
		if err := h.mgr.VerifyOTP(ctx, form); err != nil {
			t.Fatalf("VerifyOTP() error = %v", err)
		}
		if h.routes.Last() != string(RouteDashboard) {
			t.Errorf("expected dashboard, got %s", h.routes.Last())
		}
	})

	t.Run("SendResetEmail paces navigation", func(t *testing.T) {
		h := newHarness(&fakeAuth{})
		if err := h.mgr.SendResetEmail(ctx, "sam+1@mazeed.ai"); err != nil {
			t.Fatalf("SendResetEmail() error = %v", err)
		}
		if len(h.slept) != 1 || h.slept[0] != DefaultPacing {
			t.Errorf("expected one %v pause, got %v", DefaultPacing, h.slept)
		}
		if h.routes.Last() != "/reset-password?email=sam%2B1%40mazeed.ai" {
			t.Errorf("unexpected route %s", h.routes.Last())
		}
	})

	t.Run("ResetPassword", func(t *testing.T) {
		t.Run("success", func(t *testing.T) {
			h := newHarness(&fakeAuth{})
			form := models.ResetPasswordRequest{Email: "sam@mazeed.ai", OTPCode: "1", NewPassword: "n", ConfirmNewPassword: "n"}
			if err := h.mgr.ResetPassword(ctx, form); err != nil {
				t.Fatalf("ResetPassword() error = %v", err)
			}
			if h.routes.Last() != string(RouteLogin) || len(h.slept) != 1 {
				t.Errorf("expected paced navigation to login, got %v %v", h.routes.Visited, h.slept)
			}
		})

		t.Run("missing email", func(t *testing.T) {
			h := newHarness(&fakeAuth{})
			err := h.mgr.ResetPassword(ctx, models.ResetPasswordRequest{OTPCode: "1"})
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
			if h.toasts.Count(toast.Error) != 1 {
				t.Error("expected error toast")
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		h := newHarness(&fakeAuth{})
		h.store.Save(&models.Credential{AccessToken: "a"})

		if err := h.mgr.Logout(); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}
		if _, err := h.mgr.Current(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("credential should be gone, got %v", err)
		}
		if h.routes.Last() != string(RouteLogin) {
			t.Errorf("expected login route, got %s", h.routes.Last())
		}
	})

	t.Run("RequireAuth", func(t *testing.T) {
		h := newHarness(&fakeAuth{})
		ran := false
		err := h.mgr.RequireAuth(func(*models.Credential) error { ran = true; return nil })
		if !errors.Is(err, shared.ErrNotAuthenticated) || ran {
			t.Errorf("guard should block, err=%v ran=%v", err, ran)
		}
		if h.routes.Last() != string(RouteLogin) {
			t.Errorf("expected redirect to login, got %q", h.routes.Last())
		}

		h.store.Save(&models.Credential{AccessToken: "a"})
		if err := h.mgr.RequireAuth(func(*models.Credential) error { ran = true; return nil }); err != nil || !ran {
			t.Errorf("guard should pass, err=%v ran=%v", err, ran)
		}
	})

	t.Run("ForceLogout", func(t *testing.T) {
		h := newHarness(&fakeAuth{})
		h.mgr.ForceLogout(shared.ErrRefreshFailed)
		if h.toasts.Count(toast.Warning) != 1 || h.routes.Last() != string(RouteLogin) {
			t.Errorf("unexpected toasts %+v routes %v", h.toasts.Messages, h.routes.Visited)
		}
	})
}

func TestRoutes(t *testing.T) {
	if RouteRoot.Resolve() != RouteDashboard {
		t.Error("root should resolve to dashboard")
	}
	if !RouteRoot.Protected() || RouteLogin.Protected() || RoutePlans.Protected() {
		t.Error("only the dashboard is protected")
	}
	if RouteLogin.With(nil) != "/login" {
		t.Errorf("unexpected route %s", RouteLogin.With(nil))
	}
}
