package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	api "github.com/oshokin/commute-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/commute-alarm/internal/api/httpapi"
	"github.com/oshokin/commute-alarm/internal/config"
	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/metrics"
	"github.com/oshokin/commute-alarm/internal/service/common"
	"github.com/oshokin/commute-alarm/internal/service/poller"
	"github.com/oshokin/commute-alarm/internal/service/reconciler"
	"github.com/oshokin/commute-alarm/internal/version"
)

// Options controls the commute-alarmd process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// LogLevel overrides the log level from the settings file when set.
	LogLevel string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// errUnknownLogLevel is returned for an unparseable log level name.
var errUnknownLogLevel = errors.New("unknown log level")

// Run starts the daemon and blocks until context is canceled or the gRPC server stops.
// Loads configuration first, re-arms every enabled alarm, then serves the control API.
//
//nolint:funlen // Startup wiring reads best as one sequence.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "commute-alarmd")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = applyLogLevel(settings.LogLevel, opts.LogLevel); err != nil {
		return err
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.GRPCAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	metrics.Init()

	app, err := build(ctx, settings)
	if err != nil {
		return err
	}

	defer app.Close()

	// Re-arm every enabled alarm; individual failures are reported, not fatal.
	report, err := reconciler.New(app.alarmRepo, app.scheduler).ReconcileOnStartup(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Startup reconciliation failed", "error", err)
	} else {
		logger.InfoKV(ctx, "Startup reconciliation finished", "scheduled", len(report.Scheduled), "failed", report.Failed)
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with the alarm service and health checks.
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(common.AuditInterceptor))
	api.RegisterAlarmServiceServer(grpcServer, api.NewServer(app.alarms, app.dispatcher, app.lines))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if settings.HTTPAddress != "" {
		httpLis, err := lc.Listen(ctx, "tcp", settings.HTTPAddress)
		if err != nil {
			_ = lis.Close()

			return fmt.Errorf("listen on %s: %w", settings.HTTPAddress, err)
		}

		go func() {
			if err := httpapi.Serve(ctx, httpLis, httpapi.NewHandler(app.lines)); err != nil {
				logger.ErrorKV(ctx, "HTTP server failed", "error", err)
			}
		}()

		logger.InfoKV(ctx, "HTTP endpoints listening", "http_address", settings.HTTPAddress)
	}

	go poller.Run(ctx, app.lines, poller.Options{Interval: settings.RefreshInterval, Immediate: true})

	logger.InfoKV(
		ctx,
		"Commute alarm daemon listening",
		"listen_address", listenAddress,
		"store", settings.Store.Driver,
		"precise", settings.Precise(),
		"version", version.Short(),
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// applyLogLevel sets the global level from override, falling back to configured.
func applyLogLevel(configured, override string) error {
	name := configured
	if override != "" {
		name = override
	}

	if name == "" {
		return nil
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownLogLevel, name)
	}

	logger.SetLevel(level)

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
