package server

import (
	"net/http"
	"strings"
)

// BasicRouter routes requests on the connect callback listener.
//
// It is a thin layer over [http.ServeMux] that adds a middleware stack and
// per-route method checks; the listener only ever serves /callback.
type BasicRouter struct {
	mux   *http.ServeMux
	stack []Middleware
}

// NewBasicRouter returns an empty router for one callback listener.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware; the first added runs outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.stack = append(r.stack, middleware...)
}

// Handle registers handler for path, answering 405 with an Allow header for other methods.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	next := r.Apply(handler)
	r.mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.EqualFold(req.Method, method) {
			w.Header().Set("Allow", strings.ToUpper(method))
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, req)
	}))
}

// Handler registers a callback handler under every path it reports.
// The handler does its own method checks.
func (r *BasicRouter) Handler(handler Handler) {
	next := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, next)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler in the middleware stack.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for i := len(r.stack) - 1; i >= 0; i-- {
		handler = r.stack[i](handler)
	}
	return handler
}
