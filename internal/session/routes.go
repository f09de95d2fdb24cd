package session

import "net/url"

// Route is a screen of the client.
type Route string

const (
	RouteLogin          Route = "/login"
	RouteSignup         Route = "/signup"
	RouteVerifyOTP      Route = "/verifyOTP"
	RouteForgotPassword Route = "/forgot-password"
	RouteResetPassword  Route = "/reset-password"
	RouteDashboard      Route = "/dashboard"
	RoutePlans          Route = "/plans"
	RouteRoot           Route = "/"
)

// Resolve follows the root redirect.
func (r Route) Resolve() Route {
	if r == RouteRoot || r == "" {
		return RouteDashboard
	}
	return r
}

// Protected reports whether the route requires a credential.
func (r Route) Protected() bool {
	switch r.Resolve() {
	case RouteDashboard:
		return true
	default:
		return false
	}
}

// With appends a query string.
func (r Route) With(q url.Values) string {
	if len(q) == 0 {
		return string(r)
	}
	return string(r) + "?" + q.Encode()
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }
