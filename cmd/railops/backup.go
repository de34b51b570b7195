// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raillab/railops/internal/backup"
	"github.com/raillab/railops/internal/execx"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a database or media backup",
	RunE:  requireSubcommand,
}

var backupDBCmd = &cobra.Command{
	Use:   "db",
	Short: "Dump the database into a compressed, timestamped artifact",
	Long: `Dump the configured PostgreSQL database with pg_dump, compress the
stream, and land it atomically in DB_BACKUPS_DIR. After a successful
dump, database artifacts older than DB_BACKUP_RETENTION_DAYS are
pruned.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		artifact, err := backup.NewExecutor(cfg, execx.NewRunner()).BackupDatabase(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database backup written to %s (%d bytes)\n", artifact.Path, artifact.SizeBytes)
		return nil
	},
}

var backupMediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Mirror the media root onto the backup target",
	Long: `Mirror MEDIA_ROOT onto the backup target with rsync. The mirror is
delete-synchronizing: after a successful run the target matches the
source exactly. The target may be a local directory or a remote
user@host:path destination.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		artifact, err := backup.NewExecutor(cfg, execx.NewRunner()).BackupMedia(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Media backup mirrored to %s\n", artifact.Path)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupDBCmd, backupMediaCmd)
	rootCmd.AddCommand(backupCmd)
}
