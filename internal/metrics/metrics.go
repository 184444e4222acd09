// Package metrics exposes the worker pool and dispatch counters on their own
// prometheus registry, served by a dedicated admin listener rather than
// multiplexed onto the raw HTTP/1.x socket (that wire protocol only knows
// Content-Length framing, with no room for a metrics route).
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zep-us/workerhttpd/pkg/logger"
)

// Collectors bundles the gauges and counters the dispatch server updates.
// Each Collectors is bound to its own registry so tests can construct one
// without colliding with prometheus's default global registry.
type Collectors struct {
	Registry *prometheus.Registry

	QueueDepth      prometheus.Gauge
	ActiveWorkers   prometheus.Gauge
	RequestsHandled prometheus.Counter
	RequestsRejected *prometheus.CounterVec
}

// New registers a fresh set of collectors on a dedicated registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collectors{
		Registry: reg,
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "workerhttpd",
			Name:      "queue_depth",
			Help:      "Current number of jobs waiting in the worker pool queue",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "workerhttpd",
			Name:      "active_workers",
			Help:      "Current number of workers executing a handler",
		}),
		RequestsHandled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workerhttpd",
			Name:      "requests_handled_total",
			Help:      "Total number of requests dispatched to the worker pool, including not-found fallbacks",
		}),
		RequestsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workerhttpd",
			Name:      "requests_rejected_total",
			Help:      "Total number of connections rejected before reaching a handler",
		}, []string{"reason"}),
	}
}

// AdminServer serves /metrics on its own listener, independent of the
// hand-rolled wire protocol the dispatch server speaks.
type AdminServer struct {
	httpServer *http.Server
}

// NewAdminServer wires c onto a promhttp.HandlerFor mux bound to addr.
func NewAdminServer(addr string, c *Collectors) *AdminServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))

	return &AdminServer{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// ListenAndServe blocks until the admin listener is closed via Shutdown.
func (a *AdminServer) ListenAndServe() error {
	logger.Info("Metrics admin listener starting on %s", a.httpServer.Addr)
	err := a.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the admin listener.
func (a *AdminServer) Shutdown(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}

// AddrString renders a host:port for the given port, bound to loopback only:
// the metrics surface is an operator-facing concern, not part of the public
// wire protocol.
func AddrString(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}

// PollQueueDepth starts a goroutine that samples depth() into c.QueueDepth
// every interval, until ctx is canceled. Sampling rather than updating on
// every enqueue/dequeue, since the worker pool's queue has no observer hook.
func (c *Collectors) PollQueueDepth(ctx context.Context, interval time.Duration, depth func() int) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.QueueDepth.Set(float64(depth()))
			}
		}
	}()
}
