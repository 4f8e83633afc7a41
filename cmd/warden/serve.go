// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

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

	"github.com/wardenhq/warden/internal/httpapi"
	"github.com/wardenhq/warden/internal/logging"
	"github.com/wardenhq/warden/internal/xdg"
	"github.com/wardenhq/warden/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of both listeners.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account API server",
		Long: `Start the HTTP account API together with the metrics and health
endpoints. Configuration is read from the config file, DATABASE_URL and flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), configSource{
				Path:        configFile,
				DefaultPath: xdg.ConfigFile,
				Getenv:      os.Getenv,
			})
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	addServerFlags(cmd.Flags())

	return cmd
}

// newLogger builds the process logger from cfg.
func newLogger(cfg Config, cmd *cobra.Command) (*slog.Logger, error) {
	logger, err := logging.Setup(logging.Options{
		Service: "warden",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, cmd.ErrOrStderr())
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded CONFIG_INVALID
	}
	slog.SetDefault(logger)
	return logger, nil
}

// runServeWithDeps runs the server until ctx is cancelled, a signal arrives
// or a listener fails.
func runServeWithDeps(ctx context.Context, cfg Config, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd)
	if err != nil {
		return err
	}

	st, err := deps.StoreFactory(ctx, cfg.Store)
	if err != nil {
		return oops.With("operation", "open store").With("backend", cfg.Store.Backend).Wrap(err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			errutil.LogError(context.Background(), logger, "error closing store", closeErr)
		}
	}()

	svc, err := newService(st, cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		obsServer ObservabilityServer
		recorder  httpapi.Recorder
	)
	if cfg.Metrics.Addr != "" {
		obsServer, recorder = deps.ObservabilityServerFactory(cfg.Metrics.Addr, svc.Ping, logger)
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
	}

	api := httpapi.NewServer(svc, httpapi.Options{
		ConflictRetries: cfg.HTTP.ConflictRetries,
		Logger:          logger,
		Metrics:         recorder,
	})

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	httpSrv := &http.Server{
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	cmd.Println("Warden server started")
	logger.Info("warden ready",
		"http_addr", listener.Addr().String(),
		"store", cfg.Store.Backend,
		"hasher", cfg.Auth.Hasher,
	)

	var serveErr error
	select {
	case serveErr = <-errChan:
		serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(serveErr)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping account API server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return serveErr
}

func stopObservability(srv ObservabilityServer, logger *slog.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
