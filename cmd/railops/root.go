// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raillab/railops/internal/config"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/opserr"
)

// version is stamped by release builds with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "railops",
	Short: "Backup, restore, and deployment operations for Django compose stacks",
	Long: `Railops runs the operational chores of a Django compose stack:
database and media backups with retention pruning, restores, secret
and directory provisioning, deployment rollout, and a supervised
daemon that runs scheduled backups and serves the ops API.

Configuration comes from the same .env file the stack's containers
read, so DATABASE_URL, MEDIA_ROOT and friends mean the same thing to
the application and to this tool.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return opserr.NewUsage(fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath()))
	},
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return opserr.NewUsage(err.Error())
	})
}

// loadConfig loads the layered configuration and points the global
// logger at the configured level and format. Leaf commands call it
// first, so help and usage errors never require a valid environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, nil
}

// requireSubcommand is the RunE of group commands. Called bare it
// prints help and reports a usage error; called with an unrecognized
// subcommand it names the stray argument.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		_ = cmd.Help()
		return opserr.NewUsage(fmt.Sprintf("%q needs a subcommand", cmd.CommandPath()))
	}
	return opserr.NewUsage(fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath()))
}

// exactArgs mirrors cobra.ExactArgs but reports the mismatch as a
// usage error, so a missing argument exits 2 like an unknown command.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return opserr.NewUsage(fmt.Sprintf("usage: %s", cmd.UseLine()))
		}
		return nil
	}
}

// noArgs rejects stray positional arguments with a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return opserr.NewUsage(fmt.Sprintf("unknown argument %q for %q", args[0], cmd.CommandPath()))
	}
	return nil
}
