// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raillab/railops/internal/provision"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Prepare secrets and directories for the stack",
	RunE:  requireSubcommand,
}

var provisionForce bool

var provisionSecretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Generate any missing stack secrets",
	Long: `Ensure every stack secret has a value in SECRETS_FILE, generating
cryptographically random values for the missing ones. Existing values
are kept unless --force regenerates the whole set. The file is written
with owner-only permissions and secret values are never printed.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		set, err := provision.NewSecretProvisioner(cfg.Secrets.File).
			Ensure(cmd.Context(), provision.DefaultSecrets(), provisionForce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Secrets ready in %s: %d generated, %d kept\n",
			set.File, len(set.Generated), len(set.Kept))
		return nil
	},
}

var provisionDirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Create the stack's directory layout",
	Long: `Create the backup, log, and TLS directories the stack expects,
applying restrictive permissions where the contents are sensitive.
Existing directories are left in place.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		specs := provision.DefaultLayout(cfg)
		if err := provision.EnsureLayout(cmd.Context(), specs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ensured %d directories\n", len(specs))
		return nil
	},
}

func init() {
	provisionSecretsCmd.Flags().BoolVar(&provisionForce, "force", false, "regenerate all secrets, replacing existing values")
	provisionCmd.AddCommand(provisionSecretsCmd, provisionDirsCmd)
	rootCmd.AddCommand(provisionCmd)
}
