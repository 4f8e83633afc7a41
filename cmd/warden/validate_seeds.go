// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/seed"
)

// NewValidateSeedsCmd creates the validate-seeds subcommand.
func NewValidateSeedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-seeds FILE...",
		Short: "Validate seed files without touching the store",
		Long: `Validates each seed file against the seed schema and the role names.
Does NOT open the store. Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch seed errors early:
  warden validate-seeds seeds/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateSeeds(cmd, args)
		},
	}
}

func runValidateSeeds(cmd *cobra.Command, paths []string) error {
	var failed int
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
		if err != nil {
			failed++
			slog.Error("seed validation failed", "path", path, "error", err)
			continue
		}
		f, err := seed.Parse(data)
		if err == nil {
			err = seed.Check(f)
		}
		if err != nil {
			failed++
			slog.Error("seed validation failed", "path", path, "detail", seed.FormatSchemaError(err))
			continue
		}
		cmd.Printf("%s: %d account(s) valid\n", path, len(f.Accounts))
	}

	if failed > 0 {
		return oops.Code("SEED_INVALID").Errorf("validation failed: %d of %d seed files invalid", failed, len(paths))
	}

	slog.Info("all seed files valid", "count", len(paths))
	return nil
}
