// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raillab/railops/internal/dburl"
	"github.com/raillab/railops/internal/execx"
	"github.com/raillab/railops/internal/preflight"
	"github.com/raillab/railops/internal/restore"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a database artifact or media snapshot",
	RunE:  requireSubcommand,
}

var restoreDBCmd = &cobra.Command{
	Use:   "db <artifact>",
	Short: "Replay a database backup artifact",
	Long: `Replay a db-<timestamp>.sql.gz artifact (or an uncompressed .sql
dump) against DATABASE_URL with psql. The replay halts at the first
SQL error; a replay stopped partway leaves the database partially
restored, so rerun with the same artifact after fixing the cause.`,
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, err := dburl.Parse(cfg.Database.URL); err != nil {
			return err
		}
		// Reach the database before touching anything, so an unreachable
		// server fails the restore with zero side effects.
		if err := preflight.Postgres(cmd.Context(), cfg.Database.URL); err != nil {
			return err
		}
		if err := restore.NewExecutor(cfg, execx.NewRunner()).RestoreDatabase(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database restored from %s\n", args[0])
		return nil
	},
}

var restoreMediaCmd = &cobra.Command{
	Use:   "media <snapshot-dir>",
	Short: "Mirror a media snapshot back into the live media root",
	Long: `Mirror the snapshot directory into MEDIA_ROOT with rsync. The
mirror is delete-synchronizing: files in the live media root that are
not part of the snapshot are removed.`,
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := restore.NewExecutor(cfg, execx.NewRunner()).RestoreMedia(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Media restored from %s\n", args[0])
		return nil
	},
}

func init() {
	restoreCmd.AddCommand(restoreDBCmd, restoreMediaCmd)
	rootCmd.AddCommand(restoreCmd)
}
