package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter routes callback requests through an [http.ServeMux] using method patterns.
//
// The mux answers 405 for a known path requested with another method.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	patterns    []string
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware; the first added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path, wrapped with the current middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	pattern := strings.ToUpper(method) + " " + path
	r.patterns = append(r.patterns, pattern)
	r.mux.Handle(pattern, r.Apply(handler))
}

// Handler registers every route of handler for GET, the only method an OAuth redirect uses.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(http.MethodGet, route, handler)
	}
}

// Routes returns the registered patterns, sorted.
func (r *BasicRouter) Routes() []string {
	routes := slices.Clone(r.patterns)
	slices.Sort(routes)
	return routes
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler with the registered middleware.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for _, mw := range slices.Backward(r.middlewares) {
		wrapped = mw(wrapped)
	}
	return wrapped
}
