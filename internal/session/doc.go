// Package session manages the signed-in user.
//
// [Manager] runs the login, signup, OTP and password reset flows against the
// backend, persists the resulting credential and tells a [Navigator] which
// [Route] to show next. Forms are checked with go-playground/validator before any
// request is made; failures come back as [*ValidationError] with one entry per field.
//
// Backend failures are shown through the toast notifier and also returned.
package session
