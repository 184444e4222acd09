// Package worker implements the fixed-size worker pool that drains the job
// queue: each worker pops a job, runs its handler, and writes the result
// back on the request's connection.
package worker

import "github.com/zep-us/workerhttpd/internal/httpframe"

// Handler produces a Response for a Request. Handlers may block (sleep,
// file I/O) but must never touch the request's connection directly; all
// outbound traffic goes through the Response returned here.
type Handler func(*httpframe.Request) *httpframe.Response

// Job is a deferred unit of work: an owned Request paired with the
// handler selected for it at dispatch time.
type Job struct {
	Request *httpframe.Request
	Handler Handler
}

// run invokes the handler and sends its response. Used internally from the
// worker loop, where its panics are recovered at the caller's boundary.
func (j Job) run() error {
	resp := j.Handler(j.Request)
	return resp.Send()
}
