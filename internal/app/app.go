// Package app wires the dispatch server, its handler registry, and the
// metrics admin listener into one process lifecycle. It supervises two
// independent listeners (the raw wire protocol and the metrics admin HTTP
// mux) with an errgroup.Group so either's fatal error tears the other down.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/zep-us/workerhttpd/internal/config"
	"github.com/zep-us/workerhttpd/internal/handler/http/demo"
	"github.com/zep-us/workerhttpd/internal/handler/http/health"
	httpiface "github.com/zep-us/workerhttpd/internal/handler/http/interface"
	"github.com/zep-us/workerhttpd/internal/httpserver"
	"github.com/zep-us/workerhttpd/internal/metrics"
	"github.com/zep-us/workerhttpd/pkg/logger"
)

// shutdownTimeout bounds how long the metrics admin listener is given to
// drain once the dispatch server's accept loop has returned.
const shutdownTimeout = 5 * time.Second

// App owns the registry, the dispatch server, and the metrics admin server
// for the lifetime of one process run.
type App struct {
	config     *config.Config
	registry   *httpserver.Registry
	server     *httpserver.Server
	collectors *metrics.Collectors
	admin      *metrics.AdminServer
	readiness  *atomic.Bool
}

// BuildRegistry constructs the registry (index, slow_request, healthz,
// readyz) without binding any listener, so the routes CLI subcommand can
// inspect it without opening the dispatch server's socket.
func BuildRegistry(cfg *config.Config, readiness *atomic.Bool) (*httpserver.Registry, *demo.Handler, error) {
	registry := httpserver.NewRegistry()

	demoHandler, err := demo.NewHandler(cfg.TemplatesRoot, 5*time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("app: load demo templates: %w", err)
	}

	// Each handler group declares its own routes via HttpRouter.SetupRoutes.
	routers := []httpiface.HttpRouter{
		demoHandler,
		health.NewHandler(readiness),
	}
	for _, r := range routers {
		r.SetupRoutes(registry)
	}

	return registry, demoHandler, nil
}

// NewApp constructs the registry, binds the dispatch server's listener, and
// prepares the metrics admin server. It does not start accepting
// connections; call Run for that.
func NewApp(cfg *config.Config) (*App, error) {
	readiness := atomic.NewBool(false)

	registry, demoHandler, err := BuildRegistry(cfg, readiness)
	if err != nil {
		return nil, err
	}

	collectors := metrics.New()

	server, err := httpserver.New(httpserver.Options{
		Workers:      cfg.WorkerPoolSize,
		MaxLineBytes: cfg.MaxLineBytes,
		Debug:        cfg.Debug,
		Metrics:      collectors,
	}, registry)
	if err != nil {
		return nil, fmt.Errorf("app: construct server: %w", err)
	}
	server.SetNotFound(demoHandler.NotFound)

	admin := metrics.NewAdminServer(metrics.AddrString(cfg.MetricsAdminPort), collectors)

	return &App{
		config:     cfg,
		registry:   registry,
		server:     server,
		collectors: collectors,
		admin:      admin,
		readiness:  readiness,
	}, nil
}

// Run starts the dispatch server and the metrics admin listener, and blocks
// until both have shut down. The dispatch server's own signal handling
// (SIGINT/SIGTERM/SIGABRT) drives shutdown; once its accept loop returns,
// Run tears down the metrics admin listener and returns.
func (a *App) Run() error {
	logger.Info("Starting server on %s", a.server.Addr())

	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	a.collectors.PollQueueDepth(pollCtx, time.Second, a.server.QueueDepth)

	group, ctx := errgroup.WithContext(context.Background())
	serverDone := make(chan struct{})

	group.Go(func() error {
		defer close(serverDone)
		a.readiness.Store(true)
		return a.server.Serve()
	})

	group.Go(func() error {
		return a.admin.ListenAndServe()
	})

	group.Go(func() error {
		select {
		case <-serverDone:
		case <-ctx.Done():
			a.server.Shutdown()
		}
		a.readiness.Store(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down metrics admin listener...")
		return a.admin.Shutdown(shutdownCtx)
	})

	err := group.Wait()
	logger.Info("Server stopped")
	return err
}

// Registry exposes the handler registry the App was built with.
func (a *App) Registry() *httpserver.Registry {
	return a.registry
}
