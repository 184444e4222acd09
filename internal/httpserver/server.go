package httpserver

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	uberatomic "go.uber.org/atomic"

	"github.com/zep-us/workerhttpd/internal/httpframe"
	"github.com/zep-us/workerhttpd/internal/metrics"
	"github.com/zep-us/workerhttpd/internal/worker"
	"github.com/zep-us/workerhttpd/pkg/logger"
)

// DefaultListenAddr is the fixed network endpoint the dispatch server
// binds; there is no configuration surface for it in the shipped binary,
// only for tests, which bind an ephemeral port instead.
const DefaultListenAddr = "127.0.0.1:8000"

// acceptPollInterval bounds how often the accept loop polls the running
// flag while idle. Go's net.Listener has no non-blocking accept primitive,
// so a short per-iteration deadline stands in for a would-block poll loop.
const acceptPollInterval = 200 * time.Millisecond

// Server owns the listening socket, the handler registry, and the worker
// pool. A signal channel drives a running flag (an atomic.Bool), and
// teardown stops accepting, then drops the pool so its destructor closes
// the queue and joins workers.
type Server struct {
	listener   *net.TCPListener
	registry   *Registry
	pool       *worker.Pool
	running    *uberatomic.Bool
	debug      bool
	maxLine    int
	notFound   worker.Handler
	reqCounter uint64 // owned exclusively by the accept-loop goroutine
	metrics    *metrics.Collectors
}

// Options configures a Server at construction time.
type Options struct {
	ListenAddr   string // defaults to DefaultListenAddr if empty
	Workers      int    // worker pool size, must be >= 1
	MaxLineBytes int    // maximum accepted request-line length
	Debug        bool   // log "Request {n}: {verb} {uri}" before dispatch
	Metrics      *metrics.Collectors
}

// New binds the listening socket and constructs the worker pool. The
// registry must already contain every route the caller wants served;
// Server treats it as read-only from this point on.
func New(opts Options, registry *Registry) (*Server, error) {
	addr := opts.ListenAddr
	if addr == "" {
		addr = DefaultListenAddr
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("httpserver: resolve %s: %w", addr, err)
	}

	ln, err := net.ListenTCP("tcp4", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("httpserver: listen on %s: %w", addr, err)
	}

	var activeWorkersGauge prometheus.Gauge
	if opts.Metrics != nil {
		activeWorkersGauge = opts.Metrics.ActiveWorkers
	}

	return &Server{
		listener: ln,
		registry: registry,
		pool:     worker.NewPool(opts.Workers, activeWorkersGauge),
		running:  uberatomic.NewBool(false),
		debug:    opts.Debug,
		maxLine:  opts.MaxLineBytes,
		notFound: defaultNotFound,
		metrics:  opts.Metrics,
	}, nil
}

// defaultNotFound is used when no handler has been installed via
// SetNotFound: an empty-bodied 404, so the server never dispatches a nil
// handler even before a caller configures the demo not_found.html handler.
func defaultNotFound(req *httpframe.Request) *httpframe.Response {
	return req.Respond(httpframe.StatusNotFound, nil)
}

// Addr returns the bound listen address, useful in tests that bind an
// ephemeral port (":0").
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve installs the shutdown signal handler and runs the accept loop until
// a SIGINT, SIGTERM, or SIGABRT is received (or Shutdown is called
// directly, e.g. from a test). It always returns nil on clean shutdown; the
// worker pool is closed and joined before Serve returns.
func (s *Server) Serve() error {
	s.running.Store(true)
	defer s.pool.Close()
	defer s.listener.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		s.running.Store(false)
	}()

	s.acceptLoop()
	return nil
}

// Shutdown requests that the accept loop stop, for callers (tests) that
// want to trigger shutdown without sending a real OS signal.
func (s *Server) Shutdown() {
	s.running.Store(false)
}

func (s *Server) acceptLoop() {
	for s.running.Load() {
		_ = s.listener.SetDeadline(time.Now().Add(acceptPollInterval))

		conn, err := s.listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue // no pending connection; poll again
			}
			if !s.running.Load() {
				return
			}
			logger.Error("Error during the acceptation of a new connection: %v", err)
			continue
		}

		s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetDeadline(time.Time{}) // blocking mode for the handler's lifetime
	}

	req, err := httpframe.ReadRequest(conn, s.maxLine)
	if err != nil {
		switch {
		case errors.Is(err, httpframe.ErrReceiveTooBig):
			logger.Error("ReceiveTooBigMessage: %v", err)
			s.countRejection("too_big")
		case errors.Is(err, httpframe.ErrInvalidRequest):
			logger.Error("InvalidHTTPRequest: %v", err)
			_ = conn.Close()
			s.countRejection("invalid_request")
		default:
			logger.Error("httpserver: read request: %v", err)
			_ = conn.Close()
			s.countRejection("read_error")
		}
		return
	}

	handler, ok := s.registry.Get(req.Method)
	if !ok {
		handler = s.notFound
	}

	if s.debug {
		n := atomic.AddUint64(&s.reqCounter, 1)
		logger.Info("Request %d: %s %s", n, req.Method.Verb, req.Method.URI)
	}

	if s.metrics != nil {
		s.metrics.RequestsHandled.Inc()
	}
	s.pool.Submit(worker.Job{Request: req, Handler: handler})
}

// countRejection increments the requests-rejected counter under reason, a
// no-op when no Collectors were wired at construction time.
func (s *Server) countRejection(reason string) {
	if s.metrics != nil {
		s.metrics.RequestsRejected.WithLabelValues(reason).Inc()
	}
}

// QueueDepth exposes the worker pool's backlog for metrics.
func (s *Server) QueueDepth() int {
	return s.pool.QueueDepth()
}

// SetNotFound installs the fallback handler invoked when no registered
// Method matches a request. It must be set before Serve is called.
func (s *Server) SetNotFound(h worker.Handler) {
	s.notFound = h
}
