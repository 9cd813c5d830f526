// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/auth/postgres"
)

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd() *cobra.Command {
	return newSessionsCmd(nil)
}

func newSessionsCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every expired session",
		Long: `Delete every session whose expiry has passed. Validation already
removes an expired session when it is presented; this sweeps the ones that
never are.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPurge(cmd, deps)
		},
	})

	return cmd
}

func runPurge(cmd *cobra.Command, deps *Deps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").With("key", "database-url").
			Errorf("database URL is required (--database-url or $DATABASE_URL)")
	}

	ctx := cmd.Context()
	pool, err := deps.withDefaults().PoolFactory(ctx, cfg.DatabaseURL, cfg.DBConnectRetries)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	registry, err := auth.NewRegistry(postgres.NewAccountRepository(pool), auth.NewArgon2idHasher())
	if err != nil {
		return err
	}
	authority, err := auth.NewAuthority(registry, postgres.NewSessionRepository(pool))
	if err != nil {
		return err
	}

	n, err := authority.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Purged %d expired session(s)\n", n)
	return nil
}
