// Package httpiface defines the route-registration contract every handler
// group implements, so internal/app can hold a slice of handler groups and
// loop over them without knowing their concrete types.
package httpiface

import "github.com/zep-us/workerhttpd/internal/httpserver"

// HttpRouter registers a handler group's (Verb, URI) methods with reg.
type HttpRouter interface {
	SetupRoutes(reg *httpserver.Registry)
}
