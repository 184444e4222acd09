package httpserver

import (
	"fmt"

	"github.com/zep-us/workerhttpd/internal/httpframe"
	"github.com/zep-us/workerhttpd/internal/worker"
)

// Registry maps a (Verb, URI) Method to the handler that serves it. A
// Registry is built entirely before Serve starts and is read-only for the
// rest of the server's lifetime, so it needs no internal locking.
type Registry struct {
	handlers map[httpframe.Method]worker.Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[httpframe.Method]worker.Handler)}
}

// Link registers handler under method. Linking a method that is already
// registered is a programming error and panics.
func (r *Registry) Link(method httpframe.Method, handler worker.Handler) {
	if _, exists := r.handlers[method]; exists {
		panic(fmt.Sprintf("httpserver: duplicate handler registration for %s", method))
	}
	r.handlers[method] = handler
}

// Get looks up the handler for method.
func (r *Registry) Get(method httpframe.Method) (worker.Handler, bool) {
	h, ok := r.handlers[method]
	return h, ok
}

// Methods returns the registered (verb, URI) pairs, for the routes CLI
// subcommand. The order is unspecified.
func (r *Registry) Methods() []httpframe.Method {
	out := make([]httpframe.Method, 0, len(r.handlers))
	for m := range r.handlers {
		out = append(out, m)
	}
	return out
}
