// Package demo ships the three demo routes: an index page, a 404 fallback,
// and a deliberately slow route that proves worker pool concurrency.
package demo

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/zep-us/workerhttpd/internal/httpframe"
	"github.com/zep-us/workerhttpd/internal/httpserver"
)

// Handler serves the three demo templates read once from templatesRoot at
// construction time; template bodies are opaque byte blobs, never re-read
// per request.
type Handler struct {
	index       []byte
	slowRequest []byte
	notFound    []byte
	slowFor     time.Duration
}

// NewHandler loads index.html, slow_request.html, and not_found.html from
// templatesRoot. slowFor is the artificial delay the slow route sleeps for
// before responding (5s in production).
func NewHandler(templatesRoot string, slowFor time.Duration) (*Handler, error) {
	load := func(name string) ([]byte, error) {
		body, err := httpframe.ReadBodyFile(filepath.Join(templatesRoot, name))
		if err != nil {
			return nil, fmt.Errorf("demo: load %s: %w", name, err)
		}
		return body, nil
	}

	index, err := load("index.html")
	if err != nil {
		return nil, err
	}
	slowRequest, err := load("slow_request.html")
	if err != nil {
		return nil, err
	}
	notFound, err := load("not_found.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		index:       index,
		slowRequest: slowRequest,
		notFound:    notFound,
		slowFor:     slowFor,
	}, nil
}

// Index serves scenario 1: GET / returns index.html verbatim.
func (h *Handler) Index(req *httpframe.Request) *httpframe.Response {
	return req.Respond(httpframe.StatusOK, h.index)
}

// SlowRequest serves scenario 3: sleeps slowFor, then returns
// slow_request.html. The sleep happens inside the handler, which the base
// spec's handler API explicitly permits ("handlers may block").
func (h *Handler) SlowRequest(req *httpframe.Request) *httpframe.Response {
	time.Sleep(h.slowFor)
	return req.Respond(httpframe.StatusOK, h.slowRequest)
}

// NotFound serves scenario 2: any unregistered route falls back to this,
// returning not_found.html with a 404 status.
func (h *Handler) NotFound(req *httpframe.Request) *httpframe.Response {
	return req.Respond(httpframe.StatusNotFound, h.notFound)
}

// SetupRoutes registers the index and slow_request routes. NotFound is
// installed separately via httpserver.Server.SetNotFound, since it isn't a
// linked Method — it's the registry-miss fallback.
func (h *Handler) SetupRoutes(reg *httpserver.Registry) {
	indexURI, err := httpframe.NewURI("/")
	if err != nil {
		panic(err)
	}
	slowURI, err := httpframe.NewURI("/slow_request")
	if err != nil {
		panic(err)
	}
	reg.Link(httpframe.Method{Verb: httpframe.VerbGET, URI: indexURI}, h.Index)
	reg.Link(httpframe.Method{Verb: httpframe.VerbGET, URI: slowURI}, h.SlowRequest)
}
