// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/authz"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/console"
	"github.com/gatewarden/gatewarden/internal/control"
	"github.com/gatewarden/gatewarden/internal/credential"
	"github.com/gatewarden/gatewarden/internal/gate"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/observability"
	"github.com/gatewarden/gatewarden/internal/session"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway daemon",
		Long: `Run the gateway daemon: load the credential and authorization stores,
listen on the control socket for host events and operator commands, and
serve metrics and health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().String("data-dir", "", "data directory (default: XDG_DATA_HOME/gatewarden)")
	cmd.Flags().String("credentials-file", "", "credential table path, relative to data dir")
	cmd.Flags().String("authorization-file", "", "allow-list store path, relative to data dir")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", "", "log format (json or text)")
	cmd.Flags().Duration("movement-notify-interval", 0, "spacing between movement-denial reminders")

	return cmd
}

// runServe wires the stores and services together and blocks until shutdown.
func runServe(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	logging.SetDefault("gatewarden", version, cfg.LogFormat)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Stores fall back to built-in defaults on load failure; a missing or
	// corrupt file never prevents startup.
	credentials := credential.NewStore(cfg.CredentialsPath())
	credentials.Load()

	authorization := authz.NewStore(cfg.AuthorizationPath())
	authorization.Load()

	registry := session.NewRegistry()

	authService, err := auth.NewService(credentials, registry)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	g, err := gate.NewGate(registry, authorization, gate.SlogNotifier{}, gate.Config{
		MovementNotifyInterval: cfg.MovementNotifyInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create gate: %w", err)
	}

	front, err := console.New(authService, authorization, credentials)
	if err != nil {
		return fmt.Errorf("failed to create console: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controlServer, err := control.NewServer(front, g, front, registry, func() { cancel() })
	if err != nil {
		return fmt.Errorf("failed to create control server: %w", err)
	}
	if err := controlServer.Start(); err != nil {
		return fmt.Errorf("failed to start control server: %w", err)
	}

	slog.Info("control socket listening", "path", control.SocketPath())

	// Start observability server if configured
	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool { return true })
		gate.RegisterMetrics(obsServer.Registry())
		auth.RegisterMetrics(obsServer.Registry())

		obsErrChan, err := obsServer.Start()
		if err != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if stopErr := controlServer.Stop(shutdownCtx); stopErr != nil {
				slog.Warn("failed to stop control server during cleanup", "error", stopErr)
			}
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		// Monitor observability server errors - cancel context on error
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Gateway started")
	slog.Info("gateway ready",
		"credentials", credentials.Count(),
		"data_dir", cfg.DataDir,
		"metrics_addr", cfg.MetricsAddr,
	)

	// Wait for shutdown signal or cancellation
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	if err := controlServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping control server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the run context when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}
