// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"context"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/seed"
	"github.com/wardenhq/warden/internal/xdg"
	"github.com/wardenhq/warden/pkg/errutil"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision accounts from a seed file",
		Long: `Creates the accounts listed in a YAML seed file with their explicit roles.
This command is idempotent - existing usernames are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := loadConfig(cmd.Flags(), configSource{
				Path:        configFile,
				DefaultPath: xdg.ConfigFile,
				Getenv:      os.Getenv,
			})
			if err != nil {
				return err
			}
			return runSeed(cmd, cfg, appCfg, nil)
		},
	}

	cmd.Flags().StringVarP(&cfg.file, "file", "f", "", "seed file path (required)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for store operations (e.g., 30s, 1m)")
	addStoreFlags(cmd.Flags())

	return cmd
}

func runSeed(cmd *cobra.Command, cfg *seedConfig, appCfg Config, deps *ServeDeps) error {
	if cfg.file == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--file is required")
	}
	deps = deps.withDefaults()

	logger, err := newLogger(appCfg, cmd)
	if err != nil {
		return err
	}

	f, err := seed.Load(cfg.file)
	if err != nil {
		return err //nolint:wrapcheck // already coded with path
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to store...")
	st, err := deps.StoreFactory(ctx, appCfg.Store)
	if err != nil {
		return oops.With("operation", "open store").With("backend", appCfg.Store.Backend).Wrap(err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			errutil.LogError(context.Background(), logger, "error closing store", closeErr)
		}
	}()

	svc, err := newService(st, appCfg, logger)
	if err != nil {
		return err
	}

	res, err := seed.Apply(ctx, svc, f, logger)
	if err != nil {
		return err //nolint:wrapcheck // already coded SEED_FAILED
	}

	cmd.Printf("Seeded %d account(s), skipped %d existing\n", len(res.Created), len(res.Skipped))
	return nil
}
