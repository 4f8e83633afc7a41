// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/account"
	"github.com/wardenhq/warden/internal/httpapi"
	"github.com/wardenhq/warden/internal/observability"
	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/internal/store/memory"
	"github.com/wardenhq/warden/internal/store/postgres"
	"github.com/wardenhq/warden/internal/store/redis"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// StoreFactory opens the configured entity store.
	// Default: openStore
	StoreFactory func(ctx context.Context, cfg StoreConfig) (store.Store, error)

	// ObservabilityServerFactory creates an observability server and the
	// recorder request metrics go to.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, checker observability.ReadinessChecker, logger *slog.Logger) (ObservabilityServer, httpapi.Recorder)

	// ListenerFactory creates the account API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.StoreFactory == nil {
		out.StoreFactory = openStore
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, checker observability.ReadinessChecker, logger *slog.Logger) (ObservabilityServer, httpapi.Recorder) {
			srv := observability.NewServer(addr, checker, logger)
			return srv, srv.Metrics()
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	return &out
}

// openStore opens the backend named by cfg and checks it is reachable.
func openStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	var st store.Store
	switch cfg.Backend {
	case backendMemory:
		return memory.New(), nil
	case backendPostgres:
		pg, err := postgres.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err //nolint:wrapcheck // already coded STORE_CONNECT_FAILED
		}
		st = pg
	case backendRedis:
		st = redis.New(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		return nil, oops.Code("CONFIG_INVALID").With("backend", cfg.Backend).Errorf("unknown store backend")
	}

	if err := st.Ping(ctx); err != nil {
		_ = st.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.With("backend", cfg.Backend).With("operation", "ping store").Wrap(err)
	}
	return st, nil
}

// newHasher returns the password hasher named by name.
func newHasher(name string) (account.PasswordHasher, error) {
	switch name {
	case hasherSHA512:
		return account.NewSHA512Hasher(), nil
	case hasherArgon2id:
		return account.NewArgon2idHasher(), nil
	}
	return nil, oops.Code("CONFIG_INVALID").With("hasher", name).Errorf("unknown password hasher")
}

// newService builds the account service the commands share.
func newService(st store.Store, cfg Config, logger *slog.Logger) (*account.Service, error) {
	hasher, err := newHasher(cfg.Auth.Hasher)
	if err != nil {
		return nil, err
	}
	svc, err := account.NewService(st,
		account.WithHasher(hasher),
		account.WithTokenTTL(cfg.Auth.TokenTTL),
		account.WithLogger(logger),
	)
	if err != nil {
		return nil, oops.With("operation", "create account service").Wrap(err)
	}
	return svc, nil
}
