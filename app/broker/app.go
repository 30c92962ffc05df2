package broker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/core/metrics"
	"github.com/dmitrymomot/pubsub/core/pubsub"
	"github.com/dmitrymomot/pubsub/core/router"
	"github.com/dmitrymomot/pubsub/core/server"
)

// MetricWSConnections is the gauge of open WebSocket connections.
const MetricWSConnections = "ws_connections"

// App wires the registry, metrics, HTTP router and WebSocket hub into one
// process. Create it with New and start it with Run.
type App struct {
	cfg      Config
	logger   *slog.Logger
	registry *pubsub.Registry
	metrics  *metrics.Store
	server   *server.Server
	router   router.Router[*router.Context]
	hub      *hub

	startedAt time.Time
	running   atomic.Bool
	accepting atomic.Bool
}

// Option configures an App.
type Option func(*App) error

// WithLogger sets the logger used by the app and every component it builds.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) error {
		if log == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = log
		return nil
	}
}

// WithRegistry uses an existing registry instead of building one from Config.
func WithRegistry(reg *pubsub.Registry) Option {
	return func(a *App) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		a.registry = reg
		return nil
	}
}

// WithMetrics uses an existing metrics store.
func WithMetrics(store *metrics.Store) Option {
	return func(a *App) error {
		if store == nil {
			return errors.New("metrics store cannot be nil")
		}
		a.metrics = store
		return nil
	}
}

// WithServer uses an existing HTTP server instead of one built from Config.Server.
func WithServer(srv *server.Server) Option {
	return func(a *App) error {
		if srv == nil {
			return errors.New("server cannot be nil")
		}
		a.server = srv
		return nil
	}
}

// New builds an App from cfg. Components not supplied through options are
// created from the configuration.
func New(cfg Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		startedAt: time.Now(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.metrics == nil {
		a.metrics = metrics.New(metrics.WithRuntimeCollectors())
	}

	if a.registry == nil {
		a.registry = pubsub.NewRegistry(
			pubsub.WithLogger(a.logger),
			pubsub.WithMetrics(a.metrics),
			pubsub.WithQueueCapacity(cfg.SubscriberQueueSize),
			pubsub.WithReplayCapacity(cfg.ReplayBufferSize),
		)
	}

	if a.server == nil {
		srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		a.server = srv
	}

	a.hub = newHub(a.logger, a.metrics)
	a.router = a.routes()

	return a, nil
}

// Handler returns the HTTP handler serving the /api/v1 surface.
func (a *App) Handler() http.Handler { return a.router }

// Registry returns the broker registry.
func (a *App) Registry() *pubsub.Registry { return a.registry }

// Metrics returns the metrics store.
func (a *App) Metrics() *metrics.Store { return a.metrics }

// Addr returns the address the HTTP server is bound to.
func (a *App) Addr() string { return a.server.Addr() }

// Connections returns the number of open WebSocket connections.
func (a *App) Connections() int { return a.hub.len() }

// Uptime returns the time elapsed since New.
func (a *App) Uptime() time.Duration { return time.Since(a.startedAt) }

// AcceptingConnections reports ErrNotAccepting unless Run is serving.
// It has the signature expected by health.Readiness.
func (a *App) AcceptingConnections(context.Context) error {
	if !a.accepting.Load() {
		return ErrNotAccepting
	}
	return nil
}

// Run serves HTTP and WebSocket traffic and sends heartbeats until ctx is
// cancelled or the server fails. Open WebSocket connections are closed on
// the way out since http.Server does not track hijacked connections.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return server.ErrServerAlreadyRunning
	}
	defer a.running.Store(false)

	a.accepting.Store(true)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.server.Run(gctx, a.Handler()))
	g.Go(a.heartbeat(gctx))
	g.Go(func() error {
		<-gctx.Done()
		a.accepting.Store(false)
		n := a.hub.closeAll()
		a.logger.Info("websocket connections closed",
			logger.Component("broker"),
			logger.Count("connections", n),
		)
		return nil
	})

	a.logger.Info("broker started",
		logger.Component("broker"),
		slog.String("app", a.cfg.AppName),
		slog.String("env", a.cfg.Env),
		slog.Duration("heartbeat_interval", a.cfg.HeartbeatInterval()),
	)

	err := g.Wait()
	a.logger.Info("broker stopped", logger.Component("broker"), logger.Uptime(a.startedAt), logger.Error(err))
	return err
}

// heartbeat returns the errgroup task that pings every open connection.
func (a *App) heartbeat(ctx context.Context) func() error {
	return func() error {
		interval := a.cfg.HeartbeatInterval()
		if interval <= 0 {
			return nil
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				a.hub.heartbeat()
			}
		}
	}
}
