package session

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/go-playground/validator/v10"
)

var digits = regexp.MustCompile(`^[0-9]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return digits.MatchString(s) && len(s) >= 10 && len(s) <= 15
	})
	return v
}

// FieldError is one invalid form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field of a form. Nothing is sent to the backend.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", shared.ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

// Message returns the message for field, or "" if it is valid.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Validate checks a request struct against its validate tags.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

var labels = map[string]string{
	"email":              "Email",
	"password":           "Password",
	"newPassword":        "Password",
	"confirmPassword":    "Confirm password",
	"confirmNewPassword": "Confirm password",
	"phoneNumber":        "Phone number",
	"otpCode":            "OTP",
	"OTPCode":            "OTP",
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if label, ok := labels[fe.Field()]; ok {
			return label + " is a required field"
		}
		return "Please add this field"
	case "email":
		return "Email is not valid"
	case "eqfield":
		return "Passwords must match"
	case "phone":
		s := fmt.Sprint(fe.Value())
		switch {
		case !digits.MatchString(s):
			return "Phone number must be only digits"
		case len(s) < 10:
			return "Phone number must be at least 10 digits"
		default:
			return "Phone number must be at most 15 digits"
		}
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
