// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/opendiary/opendiary/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the OpenDiary CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opendiary",
		Short: "OpenDiary - student accounts and sessions",
		Long: `OpenDiary registers student accounts, verifies their passwords,
and issues server-side sessions over a small JSON HTTP API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newSessionsCmd(deps))
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadConfig resolves configuration for cmd from --config and its flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}
