// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/raillab/railops/internal/backup"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Inspect the database backup catalog",
	RunE:  requireSubcommand,
}

var backupsListJSON bool

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List database backup artifacts, newest first",
	Args:  noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		artifacts, err := backup.List(cfg.Backups.DBDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if backupsListJSON {
			if artifacts == nil {
				artifacts = []backup.Artifact{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(artifacts)
		}
		if len(artifacts) == 0 {
			fmt.Fprintf(out, "No database backups in %s\n", cfg.Backups.DBDir)
			return nil
		}
		for _, a := range artifacts {
			fmt.Fprintf(out, "%s  %s  %d bytes\n", a.Name, a.CreatedAt.Format("2006-01-02 15:04:05"), a.SizeBytes)
		}
		return nil
	},
}

func init() {
	backupsListCmd.Flags().BoolVar(&backupsListJSON, "json", false, "emit the catalog as JSON")
	backupsCmd.AddCommand(backupsListCmd)
	rootCmd.AddCommand(backupsCmd)
}
