// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raillab/railops/internal/deploy"
	"github.com/raillab/railops/internal/execx"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Roll out the compose stack and wait for it to become healthy",
	Long: `Bring the compose services up, apply database migrations, collect
static assets, then poll HEALTHCHECK_URL until the application answers
healthy or the attempt budget runs out. Any failing step aborts the
rollout with the failing tool's output.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := deploy.NewOrchestrator(cfg, execx.NewRunner()).Deploy(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deployment complete, application healthy")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
}
