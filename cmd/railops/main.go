// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Command railops runs the operational chores of a Django compose
// stack: database and media backups with retention pruning, restores,
// secret and directory provisioning, deployment rollout, and the ops
// daemon that schedules backups and serves the ops API.
package main

import (
	"fmt"
	"os"

	"github.com/raillab/railops/internal/opserr"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if opserr.IsUsage(err) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "Run 'railops --help' for usage.")
			os.Exit(opserr.ExitUsage)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(opserr.ExitCode(err))
	}
}
