package httpframe

import (
	"errors"
	"fmt"
	"net"
)

// ErrInvalidRequest is raised when the accumulated bytes never match the
// request-line grammar. The caller is expected to close the connection with
// no body written.
var ErrInvalidRequest = errors.New("httpframe: invalid HTTP request")

// ErrReceiveTooBig is raised when the request line was never found within
// the configured maximum line length. A 422 response has already been
// written and the connection already gracefully closed by the time this
// error is returned.
var ErrReceiveTooBig = errors.New("httpframe: request line exceeds maximum length")

// PartiallySentError reports that Send wrote fewer bytes than the
// serialized response required.
type PartiallySentError struct {
	Missing int
	Peer    net.Addr
}

func (e *PartiallySentError) Error() string {
	return fmt.Sprintf("httpframe: response partially sent: %d bytes missing (peer %s)", e.Missing, e.Peer)
}
