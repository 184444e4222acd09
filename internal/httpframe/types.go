// Package httpframe implements the wire-level request/response framing: the
// request-line grammar, the fixed (Verb, URI) dispatch key, and the
// Content-Length-only response serialization. It owns no sockets itself —
// Request and Response each carry the net.Conn they were built from.
package httpframe

import (
	"fmt"
	"regexp"
)

// Verb is the closed set of HTTP methods this server's grammar accepts.
// VerbPUT is wire-compatible with the historical "UPDATE" token rather than
// the standard "PUT" token; see the doc comment on requestLineRE.
type Verb string

const (
	VerbGET     Verb = "GET"
	VerbPOST    Verb = "POST"
	VerbPUT     Verb = "PUT"
	VerbPATCH   Verb = "PATCH"
	VerbDELETE  Verb = "DELETE"
	VerbHEAD    Verb = "HEAD"
	VerbOPTIONS Verb = "OPTIONS"
	VerbTRACE   Verb = "TRACE"
	VerbCONNECT Verb = "CONNECT"
)

// wireToken is the verb's exact token, case-normalized to the wire grammar.
// VerbPUT is a deliberate departure from the standard "PUT" token: the
// source this grammar was distilled from only ever recognized the literal
// "UPDATE" token on the wire for the PUT-shaped verb, so that is what is
// parsed and re-emitted.
func (v Verb) wireToken() string {
	if v == VerbPUT {
		return "UPDATE"
	}
	return string(v)
}

func verbFromWireToken(tok string) (Verb, bool) {
	switch Verb(tok) {
	case VerbGET, VerbPOST, VerbPATCH, VerbDELETE, VerbHEAD, VerbOPTIONS, VerbTRACE, VerbCONNECT:
		return Verb(tok), true
	}
	if Verb(tok) == "UPDATE" {
		return VerbPUT, true
	}
	return "", false
}

// URI is a validated request path: a non-empty string matching
// `(?:/[^ ]*)+`, i.e. one or more path segments each beginning with '/' and
// containing no spaces.
type URI string

var uriRE = regexp.MustCompile(`^(?:/[^ ]*)+$`)

// NewURI validates s against the path grammar and returns a URI.
func NewURI(s string) (URI, error) {
	if !uriRE.MatchString(s) {
		return "", fmt.Errorf("httpframe: invalid URI %q", s)
	}
	return URI(s), nil
}

// Method is the (Verb, URI) composite used as the handler registry's
// dispatch key. Method has structural equality and is hashable, so it can
// key a Go map directly.
type Method struct {
	Verb Verb
	URI  URI
}

func (m Method) String() string {
	return fmt.Sprintf("%s %s", m.Verb, m.URI)
}

// Version is the closed set of HTTP versions accepted on the wire.
type Version int

const (
	Version1_0 Version = iota
	Version1_1
	Version2
	Version3
)

// DefaultVersion is used wherever a version is needed and none was
// successfully parsed from the wire.
const DefaultVersion = Version1_1

// String renders the canonical wire token for v.
func (v Version) String() string {
	switch v {
	case Version1_0:
		return "HTTP/1"
	case Version1_1:
		return "HTTP/1.1"
	case Version2:
		return "HTTP/2"
	case Version3:
		return "HTTP/3"
	default:
		return "HTTP/1.1"
	}
}

func versionFromWireToken(tok string) (Version, bool) {
	switch tok {
	case "HTTP/1.1":
		return Version1_1, true
	case "HTTP/1", "HTTP/1.0":
		return Version1_0, true
	case "HTTP/2", "HTTP/2.0":
		return Version2, true
	case "HTTP/3", "HTTP/3.0":
		return Version3, true
	default:
		return DefaultVersion, false
	}
}

// Status is a response status code and phrase. The framing and demo routes
// use the three values below; the health handler defines its own 503.
type Status struct {
	Code   int
	Phrase string
}

var (
	StatusOK                   = Status{200, "OK"}
	StatusNotFound             = Status{404, "NOT FOUND"}
	StatusUnprocessableContent = Status{422, "UNPROCESSABLE CONTENT"}
)
