// Package api provides the HTTP surface of the bridge: device listing,
// state inspection, control commands, health, and Prometheus metrics.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fluxlink/solarflow-bridge/internal/device"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/config"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/logging"
	"github.com/fluxlink/solarflow-bridge/internal/state"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// CommandExecutor runs a control command for a device property. The
// bridge's command dispatcher implements it.
type CommandExecutor interface {
	Execute(ctx context.Context, productKey, deviceKey, property string, value any) error
}

// HealthChecker reports the health of one component.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry *device.Registry
	Store    state.Store

	// Commands is optional; without it control endpoints return 503.
	Commands CommandExecutor

	// Checks are component health checks surfaced on /healthz, keyed
	// by component name.
	Checks map[string]HealthChecker

	Version string
}

// Server is the bridge's HTTP API server.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	registry *device.Registry
	store    state.Store
	commands CommandExecutor
	checks   map[string]HealthChecker
	version  string
	server   *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		registry: deps.Registry,
		store:    deps.Store,
		commands: deps.Commands,
		checks:   deps.Checks,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
