// Package health exposes a liveness/readiness pair over the raw wire
// protocol: no JSON body, no status-code middleware, just a
// Content-Length-framed 200 or 503.
package health

import (
	"go.uber.org/atomic"

	"github.com/zep-us/workerhttpd/internal/httpframe"
)

var statusServiceUnavailable = httpframe.Status{Code: 503, Phrase: "SERVICE UNAVAILABLE"}

// Handler serves /healthz and /readyz against a shared readiness flag.
type Handler struct {
	readiness *atomic.Bool
}

// NewHandler wires handler to readiness, the flag internal/app sets true when
// it starts the dispatch server and false once the server's Serve has
// returned.
func NewHandler(readiness *atomic.Bool) *Handler {
	return &Handler{readiness: readiness}
}

// Liveness always answers 200: it confirms the process is alive, not that
// it's ready to take traffic.
func (h *Handler) Liveness(req *httpframe.Request) *httpframe.Response {
	return req.Respond(httpframe.StatusOK, nil)
}

// Readiness answers 200 while readiness is true, 503 while it's false.
func (h *Handler) Readiness(req *httpframe.Request) *httpframe.Response {
	if h.readiness.Load() {
		return req.Respond(httpframe.StatusOK, nil)
	}
	return req.Respond(statusServiceUnavailable, nil)
}
