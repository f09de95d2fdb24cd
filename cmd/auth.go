package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/session"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin logs in and stores the returned credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	form := models.LoginRequest{
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
	}
	return r.formError(r.session.Login(ctx, form))
}

// AuthSignup registers an account. The backend emails a code to confirm with verify-otp.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	form := models.RegisterRequest{
		FirstName:       cmd.String("first-name"),
		LastName:        cmd.String("last-name"),
		Email:           cmd.String("email"),
		PhoneNumber:     cmd.String("phone"),
		Password:        cmd.String("password"),
		ConfirmPassword: cmd.String("confirm-password"),
	}
	return r.formError(r.session.SignUp(ctx, form))
}

// AuthVerifyOTP confirms the sign up code.
func (r *Runner) AuthVerifyOTP(ctx context.Context, cmd *cli.Command) error {
	form := models.VerifyOTPRequest{
		Email:   cmd.String("email"),
		OTPCode: cmd.String("otp"),
		Purpose: models.OTPSignup,
	}
	return r.formError(r.session.VerifyOTP(ctx, form))
}

// AuthForgotPassword emails a password reset code.
func (r *Runner) AuthForgotPassword(ctx context.Context, cmd *cli.Command) error {
	return r.formError(r.session.SendResetEmail(ctx, cmd.String("email")))
}

// AuthResetPassword sets a new password using the emailed code.
func (r *Runner) AuthResetPassword(ctx context.Context, cmd *cli.Command) error {
	form := models.ResetPasswordRequest{
		Email:              cmd.String("email"),
		OTPCode:            cmd.String("otp"),
		NewPassword:        cmd.String("password"),
		ConfirmNewPassword: cmd.String("confirm-password"),
	}
	return r.formError(r.session.ResetPassword(ctx, form))
}

// AuthLogout removes the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(); err != nil {
		return err
	}
	r.writePlain("✓ Logged out\n")
	return nil
}

type authStatus struct {
	LoggedIn  bool      `json:"loggedIn"`
	UserID    models.ID `json:"userId,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
	Expired   bool      `json:"expired"`
}

// AuthStatus shows the stored credential without contacting the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status := authStatus{}
	cred, err := r.session.Current()
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
	case err != nil:
		return err
	default:
		status = authStatus{
			LoggedIn:  true,
			UserID:    cred.UserID,
			Name:      cred.DisplayName(),
			Email:     cred.Email,
			ExpiresAt: cred.Expiry(),
			Expired:   cred.Expired(time.Now()),
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.LoggedIn {
		r.writePlain("Not logged in\n")
		r.Navigate(string(session.RouteLogin))
		return nil
	}

	r.writePlainHeader("mazeed account")
	r.writePlain("User:    %s (%s)\n", status.Name, status.UserID)
	if status.Email != "" {
		r.writePlain("Email:   %s\n", status.Email)
	}
	switch {
	case status.ExpiresAt.IsZero():
		r.writePlain("Token:   no expiry\n")
	case status.Expired:
		r.writePlain("Token:   expired %s (refreshed on the next request)\n", status.ExpiresAt.Local().Format(time.DateTime))
	default:
		r.writePlain("Token:   valid until %s\n", status.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}

// formError prints per-field validation messages before returning err.
func (r *Runner) formError(err error) error {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			r.writePlain("  %s: %s\n", f.Field, f.Message)
		}
		return fmt.Errorf("%w: fix the fields above", shared.ErrValidation)
	}
	return err
}

// requireAuth runs next with the stored credential, pointing at the login command otherwise.
func (r *Runner) requireAuth(next func(cred *models.Credential) error) error {
	return r.session.RequireAuth(next)
}
