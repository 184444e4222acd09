package health

import (
	"github.com/zep-us/workerhttpd/internal/httpframe"
	"github.com/zep-us/workerhttpd/internal/httpserver"
)

// SetupRoutes registers /healthz and /readyz with reg.
func (h *Handler) SetupRoutes(reg *httpserver.Registry) {
	must := func(s string) httpframe.URI {
		u, err := httpframe.NewURI(s)
		if err != nil {
			panic(err)
		}
		return u
	}
	reg.Link(httpframe.Method{Verb: httpframe.VerbGET, URI: must("/healthz")}, h.Liveness)
	reg.Link(httpframe.Method{Verb: httpframe.VerbGET, URI: must("/readyz")}, h.Readiness)
}
