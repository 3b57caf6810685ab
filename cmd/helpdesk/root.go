// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/logging"
)

// serviceName tags every log record.
const serviceName = "helpdesk"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the helpdesk CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "helpdesk",
		Short: "Helpdesk - ticketing system front end",
		Long: `Helpdesk serves the ticketing system's sign-in pages: account
registration, username/password login and logout, backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file path (default: $XDG_CONFIG_HOME/helpdesk/config.yaml)")

	cmd.AddCommand(NewServeCmd(nil))
	cmd.AddCommand(NewMigrateCmd(nil))
	cmd.AddCommand(NewAccountCmd(nil))

	return cmd
}

// loadConfig layers the config file, environment and cmd's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}

// setupLogging installs the default logger described by cfg.
func setupLogging(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.SetDefault(serviceName, version, cfg.Format, level), nil
}
