// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/auth/postgres"
	"github.com/opendiary/opendiary/internal/config"
	"github.com/opendiary/opendiary/internal/httpapi"
	"github.com/opendiary/opendiary/internal/logging"
	"github.com/opendiary/opendiary/pkg/errutil"
)

const (
	serviceName     = "opendiary"
	shutdownTimeout = 5 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return newServeCmd(nil)
}

func newServeCmd(deps *Deps) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the student HTTP API and, unless metrics-addr is empty, the
metrics and health server. Shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServeWithDeps(ctx, cfg, migrateFirst, cmd, deps)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")

	return cmd
}

// runServeWithDeps runs the server until ctx is cancelled or a listener fails.
func runServeWithDeps(ctx context.Context, cfg config.Config, migrateFirst bool, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "validate configuration").Wrap(err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.SetDefault(serviceName, version, cfg.LogFormat, level)

	logger.Info("starting server",
		"http_addr", cfg.HTTPAddr,
		"metrics_addr", cfg.MetricsAddr,
		"session_lifetime", cfg.SessionLifetime,
	)

	if migrateFirst {
		if err := migrateUp(deps, cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL, cfg.DBConnectRetries)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	logger.Info("connected to database")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	apiOpts := []httpapi.Option{httpapi.WithLogger(logger)}
	authMetrics := auth.NewMetrics(nil)

	var obsServer ObservabilityServer
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, pool.Ping)
		authMetrics = auth.NewMetrics(obsServer.Registry())
		apiOpts = append(apiOpts, httpapi.WithMetrics(obsServer.Metrics()))

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	registry, err := auth.NewRegistry(
		postgres.NewAccountRepository(pool),
		auth.NewArgon2idHasherWithParams(cfg.Argon2Params()),
		auth.WithLogger(logger),
		auth.WithMetrics(authMetrics),
	)
	if err != nil {
		stopObservability(logger, obsServer)
		return err
	}
	authOpts := append([]auth.Option{auth.WithLogger(logger), auth.WithMetrics(authMetrics)}, cfg.AuthOptions()...)
	authority, err := auth.NewAuthority(registry, postgres.NewSessionRepository(pool), authOpts...)
	if err != nil {
		stopObservability(logger, obsServer)
		return err
	}

	api, err := httpapi.New(registry, authority, apiOpts...)
	if err != nil {
		stopObservability(logger, obsServer)
		return err
	}

	listener, err := deps.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		stopObservability(logger, obsServer)
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
		close(errChan)
	}()

	cmd.Printf("OpenDiary listening on http://%s\n", listener.Addr())
	logger.Info("server ready", "http_addr", listener.Addr().String())

	var serveErr error
	select {
	case err, ok := <-errChan:
		if ok {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errutil.LogError(logger, "error stopping HTTP server", err)
	}
	stopObservability(logger, obsServer)

	logger.Info("shutdown complete")
	return serveErr
}

func migrateUp(deps *Deps, databaseURL string) error {
	m, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() { _ = m.Close() }()

	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

func stopObservability(logger *slog.Logger, s ObservabilityServer) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		errutil.LogError(logger, "error stopping observability server", err)
	}
}

// monitorServerErrors cancels ctx when a background server reports an error.
// It exits when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
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
	}
}
