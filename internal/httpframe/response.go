package httpframe

import (
	"fmt"
	"net"
	"time"
)

// Response is the outbound reply: a version/status/body plus the
// connection inherited from the Request it was derived from.
type Response struct {
	Version Version
	Status  Status
	Body    []byte

	conn net.Conn
}

// serialize renders the exact wire bytes: status line, a single
// Content-Length header, a blank line, then the body. No other headers are
// ever emitted.
func (r *Response) serialize() []byte {
	head := fmt.Sprintf("%s %d %s\r\nContent-Length: %d\r\n\r\n", r.Version, r.Status.Code, r.Status.Phrase, len(r.Body))
	out := make([]byte, 0, len(head)+len(r.Body))
	out = append(out, head...)
	out = append(out, r.Body...)
	return out
}

// Send writes the serialized response to the connection and performs a
// graceful close. A write failure or a short write means the peer is
// already gone or broken, so Send closes the connection outright (no
// half-close/drain dance, which assumes a peer still reading) before
// returning the error; per §7 no I/O failure here is ever left holding the
// socket open.
func (r *Response) Send() error {
	msg := r.serialize()

	n, err := r.conn.Write(msg)
	if err != nil {
		_ = r.conn.Close()
		return fmt.Errorf("httpframe: write response: %w", err)
	}
	if n < len(msg) {
		_ = r.conn.Close()
		return &PartiallySentError{Missing: len(msg) - n, Peer: r.conn.RemoteAddr()}
	}

	gracefulClose(r.conn)
	return nil
}

// gracefulClose performs the half-close + drain dance: shut down the send
// half (if supported), read the receive half to EOF (ignored as a normal
// signal, not an error), then close. This prevents RST and truncated
// responses against clients that keep reading after their own half-close.
func gracefulClose(conn net.Conn) {
	type writeCloser interface {
		CloseWrite() error
	}
	if wc, ok := conn.(writeCloser); ok {
		_ = wc.CloseWrite()
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	drain := make([]byte, 4096)
	for {
		_, err := conn.Read(drain)
		if err != nil {
			break
		}
	}

	_ = conn.Close()
}
