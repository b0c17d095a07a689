package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hearthlabs/hearth-core/internal/command"
	"github.com/hearthlabs/hearth-core/internal/history"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/influxdb"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/mqtt"
	"github.com/hearthlabs/hearth-core/internal/peripheral"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *peripheral.Registry
	Router   *command.Router
	History  *history.Store
	MQTT     *mqtt.Client     // optional, health reporting only
	Influx   *influxdb.Client // optional, health reporting only
	Version  string
}

// Server is the HTTP API server for the Hearth hub.
//
// It manages the HTTP listener, routes, middleware, and the monitor
// channel. The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	registry *peripheral.Registry
	router   *command.Router
	history  *history.Store
	mqtt     *mqtt.Client
	influx   *influxdb.Client
	version  string
	server   *http.Server
	channel  *Channel
	cancel   context.CancelFunc
}

// New creates a new API server with the given dependencies. The server
// is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("peripheral registry is required")
	}
	if deps.Router == nil {
		return nil, fmt.Errorf("command router is required")
	}
	if deps.History == nil {
		return nil, fmt.Errorf("history store is required")
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		registry: deps.Registry,
		router:   deps.Router,
		history:  deps.History,
		mqtt:     deps.MQTT,
		influx:   deps.Influx,
		version:  deps.Version,
	}
	s.channel = NewChannel(deps.WS, deps.Router, deps.Logger)

	return s, nil
}

// Channel returns the monitor channel, for wiring it as a registry
// lifecycle notifier.
func (s *Server) Channel() *Channel {
	return s.channel
}

// Start begins listening for HTTP connections. The listener runs in a
// background goroutine; stop it with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.channel.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server. It disconnects the
// monitor channel and waits for in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
