// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/raillab/railops/internal/preflight"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report backing service reachability",
	Long: `Check that the configured backing services (PostgreSQL, Redis) are
reachable. Services without configuration are skipped. Exits non-zero
when any configured service is unreachable.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		services := preflight.Check(cmd.Context(), cfg)
		out := cmd.OutOrStdout()

		if statusJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(services); err != nil {
				return err
			}
		} else if len(services) == 0 {
			fmt.Fprintln(out, "No backing services configured")
		} else {
			for _, s := range services {
				if s.Reachable {
					fmt.Fprintf(out, "%-10s reachable\n", s.Name)
				} else {
					fmt.Fprintf(out, "%-10s unreachable: %s\n", s.Name, s.Error)
				}
			}
		}

		var down int
		for _, s := range services {
			if !s.Reachable {
				down++
			}
		}
		if down > 0 {
			return fmt.Errorf("%d of %d backing services unreachable", down, len(services))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit service status as JSON")
	rootCmd.AddCommand(statusCmd)
}
