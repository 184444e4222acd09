package httpserver

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zep-us/workerhttpd/internal/httpframe"
	"github.com/zep-us/workerhttpd/internal/metrics"
)

func startTestServer(t *testing.T, opts Options, reg *Registry) *Server {
	t.Helper()
	if opts.ListenAddr == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}
	if opts.Workers == 0 {
		opts.Workers = 4
	}
	if opts.MaxLineBytes == 0 {
		opts.MaxLineBytes = 8192
	}

	s, err := New(opts, reg)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve()
	}()
	t.Cleanup(func() {
		s.Shutdown()
		<-done
	})
	return s
}

func indexMethod(t *testing.T) httpframe.Method {
	t.Helper()
	uri, err := httpframe.NewURI("/")
	require.NoError(t, err)
	return httpframe.Method{Verb: httpframe.VerbGET, URI: uri}
}

// TestServer_ScenarioOneIndexRoute: GET / returns the registered body.
func TestServer_ScenarioOneIndexRoute(t *testing.T) {
	reg := NewRegistry()
	reg.Link(indexMethod(t), func(req *httpframe.Request) *httpframe.Response {
		return req.Respond(httpframe.StatusOK, []byte("hello world"))
	})

	s := startTestServer(t, Options{}, reg)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	status, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "HTTP/1.1 200 OK\r\n", status)

	header, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("Content-Length: %d\r\n", len("hello world")), header)
}

// TestServer_ScenarioTwoFallback404: unregistered route gets the 404
// fallback installed via SetNotFound.
func TestServer_ScenarioTwoFallback404(t *testing.T) {
	reg := NewRegistry()
	reg.Link(indexMethod(t), func(req *httpframe.Request) *httpframe.Response {
		return req.Respond(httpframe.StatusOK, []byte("hi"))
	})

	s, err := New(Options{ListenAddr: "127.0.0.1:0", Workers: 2, MaxLineBytes: 8192}, reg)
	require.NoError(t, err)
	s.SetNotFound(func(req *httpframe.Request) *httpframe.Response {
		return req.Respond(httpframe.StatusNotFound, []byte("nope"))
	})
	done := make(chan struct{})
	go func() { defer close(done); _ = s.Serve() }()
	t.Cleanup(func() { s.Shutdown(); <-done })

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /missing HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	status, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "HTTP/1.1 404 NOT FOUND\r\n", status)
}

// TestServer_ScenarioFourInvalidVerbClosesConnection: an out-of-grammar
// verb gets the connection closed with no body written.
func TestServer_ScenarioFourInvalidVerbClosesConnection(t *testing.T) {
	reg := NewRegistry()
	s := startTestServer(t, Options{}, reg)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("BREW / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _ := conn.Read(buf)
	require.Equal(t, 0, n)
}

// TestServer_ScenarioFiveOversizedRequestLine: an oversized request line is
// framed as a 422 and the connection closed.
func TestServer_ScenarioFiveOversizedRequestLine(t *testing.T) {
	reg := NewRegistry()
	s := startTestServer(t, Options{MaxLineBytes: 64}, reg)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	longPath := "/" + strings.Repeat("A", 10000)
	_, err = conn.Write([]byte("GET " + longPath + " HTTP/1.1\r\n"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, _ := conn.Read(buf)
	require.Equal(t, "HTTP/1.1 422 UNPROCESSABLE CONTENT\r\n\r\n", string(buf[:n]))
}

// TestServer_ScenarioSixIdleShutdownReturnsPromptly verifies Serve returns
// after a shutdown request even with no traffic.
func TestServer_ScenarioSixIdleShutdownReturnsPromptly(t *testing.T) {
	reg := NewRegistry()
	s, err := New(Options{ListenAddr: "127.0.0.1:0", Workers: 2, MaxLineBytes: 8192}, reg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	s.Shutdown()

	select {
	case err := <-done:
		require.NoError(t, err)
		require.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return within 2s of Shutdown")
	}
}

// TestServer_ConcurrentSlowAndFastRequests proves pool concurrency: a slow
// handler in flight does not block a fast one on a different connection
// (scenario 3, requires Workers >= 2).
func TestServer_ConcurrentSlowAndFastRequests(t *testing.T) {
	reg := NewRegistry()
	reg.Link(indexMethod(t), func(req *httpframe.Request) *httpframe.Response {
		return req.Respond(httpframe.StatusOK, []byte("fast"))
	})
	slowURI, err := httpframe.NewURI("/slow")
	require.NoError(t, err)
	reg.Link(httpframe.Method{Verb: httpframe.VerbGET, URI: slowURI}, func(req *httpframe.Request) *httpframe.Response {
		time.Sleep(300 * time.Millisecond)
		return req.Respond(httpframe.StatusOK, []byte("slow"))
	})

	s := startTestServer(t, Options{Workers: 2}, reg)

	slowConn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer slowConn.Close()
	_, err = slowConn.Write([]byte("GET /slow HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond) // let the slow request be dispatched first

	fastConn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer fastConn.Close()

	start := time.Now()
	_, err = fastConn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	_ = fastConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := fastConn.Read(buf)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 250*time.Millisecond)
	require.Contains(t, string(buf[:n]), "fast")
}

// TestServer_WiresRequestCountersAndRejectionReasons verifies that a wired
// Collectors observes both a dispatched request and an invalid-verb
// rejection, not just requests that reach a handler.
func TestServer_WiresRequestCountersAndRejectionReasons(t *testing.T) {
	collectors := metrics.New()
	reg := NewRegistry()
	reg.Link(indexMethod(t), func(req *httpframe.Request) *httpframe.Response {
		return req.Respond(httpframe.StatusOK, []byte("ok"))
	})

	s := startTestServer(t, Options{Metrics: collectors}, reg)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _ = bufio.NewReader(conn).ReadString('\n')
	_ = conn.Close()

	badConn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	_, err = badConn.Write([]byte("BREW / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	_ = badConn.Close()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(collectors.RequestsHandled) == 1 &&
			testutil.ToFloat64(collectors.RequestsRejected.WithLabelValues("invalid_request")) == 1
	}, time.Second, 10*time.Millisecond)
}
