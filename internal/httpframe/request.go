package httpframe

import (
	"bytes"
	"fmt"
	"net"
	"regexp"
)

// Request is a parsed request line plus the connection it was read from.
// Request owns the connection until exactly one Response is derived from
// it via Respond, which inherits the connection.
type Request struct {
	Method  Method
	Version Version

	conn net.Conn
}

// Conn returns the underlying connection. Handlers must not read from or
// write to it directly; all outbound traffic goes through Respond/Send.
func (r *Request) Conn() net.Conn {
	return r.conn
}

// Respond builds the Response for this request, transferring ownership of
// the connection to it. Respond must be called at most once per Request.
func (r *Request) Respond(status Status, body []byte) *Response {
	return &Response{
		Version: r.Version,
		Status:  status,
		Body:    body,
		conn:    r.conn,
	}
}

// requestLineRE is the canonical first-line grammar: verb token (ASCII
// case-insensitive), one or more '/'-led path segments, and a version
// token, terminated by CRLF. UPDATE stands in for VerbPUT on the wire; see
// Verb.wireToken.
var requestLineRE = regexp.MustCompile(
	`^(?i:GET|POST|UPDATE|PATCH|DELETE|HEAD|OPTIONS|TRACE|CONNECT) (/[^ ]*(?:/[^ ]*)*) (HTTP/(?:1\.1|[1-3](?:\.0)?))\r\n`,
)

// verbTokenRE extracts just the leading verb token, used to re-derive the
// matched Verb after requestLineRE confirms a match (Go's regexp package
// does not expose per-alternative case normalization, so the verb token is
// recovered from the raw match text).
var verbTokenRE = regexp.MustCompile(`^\S+`)

// versionTokenRE finds a version token anywhere in a buffer; used only for
// the too-big-request recovery path, where the full line never arrived.
var versionTokenRE = regexp.MustCompile(`HTTP/(?:1\.1|[1-3](?:\.0)?)`)

// ReadRequest reads from conn until the first "\r\n" appears or maxLine
// bytes have been accumulated with no delimiter found. On a grammar match
// it returns a *Request. On an oversized line it writes a framed 422
// response, performs a graceful close, and returns ErrReceiveTooBig. On any
// other grammar mismatch it returns ErrInvalidRequest without touching the
// connection; the caller is responsible for closing it.
func ReadRequest(conn net.Conn, maxLine int) (*Request, error) {
	buf := make([]byte, 0, maxLine)
	chunk := make([]byte, maxLine)

	for {
		n, readErr := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}

		if idx := bytes.Index(buf, []byte("\r\n")); idx >= 0 {
			return parseRequestLine(buf[:idx+2], conn)
		}

		if len(buf) >= maxLine {
			return nil, rejectTooBig(conn, buf)
		}

		if readErr != nil {
			return nil, fmt.Errorf("httpframe: read request line: %w", readErr)
		}
	}
}

func parseRequestLine(line []byte, conn net.Conn) (*Request, error) {
	if !requestLineRE.Match(line) {
		return nil, ErrInvalidRequest
	}

	fields := bytes.SplitN(line, []byte(" "), 3)
	if len(fields) != 3 {
		return nil, ErrInvalidRequest
	}

	verbTok := string(bytes.ToUpper(verbTokenRE.Find(fields[0])))
	verb, ok := verbFromWireToken(verbTok)
	if !ok {
		return nil, ErrInvalidRequest
	}

	uri, err := NewURI(string(fields[1]))
	if err != nil {
		return nil, ErrInvalidRequest
	}

	versionTok := string(bytes.TrimRight(fields[2], "\r\n"))
	version, ok := versionFromWireToken(versionTok)
	if !ok {
		return nil, ErrInvalidRequest
	}

	return &Request{
		Method:  Method{Verb: verb, URI: uri},
		Version: version,
		conn:    conn,
	}, nil
}

// rejectTooBig writes the framed 422 response for an oversized request
// line, performs the graceful close, and returns ErrReceiveTooBig.
func rejectTooBig(conn net.Conn, partial []byte) error {
	version := DefaultVersion
	if m := versionTokenRE.Find(partial); m != nil {
		if v, ok := versionFromWireToken(string(m)); ok {
			version = v
		}
	}

	line := fmt.Sprintf("%s %d %s\r\n\r\n", version, StatusUnprocessableContent.Code, StatusUnprocessableContent.Phrase)
	_, _ = conn.Write([]byte(line))
	gracefulClose(conn)

	return ErrReceiveTooBig
}
