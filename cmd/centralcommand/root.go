// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/unitystation/centralcommand/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Central Command CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "centralcommand",
		Short: "Central Command - Unitystation account backend",
		Long: `Central Command manages Unitystation accounts: registration with
email confirmation, token login, password resets and account
identifier validation.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/centralcommand/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewValidateIdentifierCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// loadConfig loads the configuration with the command's flags applied last.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.Options{File: configFile, Flags: cmd.Flags()})
}
