package server

import (
	"net/http"
	"strings"
)

// BasicRouter routes the auth and user-read endpoints over an [http.ServeMux],
// wrapping every registered handler with the shared middleware stack. Unmatched
// paths and disallowed methods get the JSON error envelope the rest of the
// surface speaks, not the mux's plain-text defaults.
type BasicRouter struct {
	mux   *http.ServeMux
	stack []Middleware
}

// NewBasicRouter creates an empty router. Middleware added with
// [BasicRouter.Use] only wraps handlers registered after the call.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware to the stack applied around every handler.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.stack = append(r.stack, middleware...)
}

// Handle registers a handler restricted to a single HTTP method. Every
// endpoint this backend serves is a GET; other methods receive a 405 envelope
// with the Allow header set.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	wrapped := r.apply(handler)

	r.mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.EqualFold(req.Method, method) {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		wrapped.ServeHTTP(w, req)
	}))
}

// Handler registers every route a [Handler] claims against its ServeHTTP.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP dispatches through the mux; paths no handler claimed are answered
// with the 404 envelope.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, pattern := r.mux.Handler(req); pattern == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	r.mux.ServeHTTP(w, req)
}

// apply wraps handler in the middleware stack; the first middleware added
// runs outermost.
func (r *BasicRouter) apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.stack) - 1; i >= 0; i-- {
		wrapped = r.stack[i](wrapped)
	}

	return wrapped
}
