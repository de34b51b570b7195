// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raillab/railops/internal/backup"
	"github.com/raillab/railops/internal/config"
	"github.com/raillab/railops/internal/execx"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/opserr"
	"github.com/raillab/railops/internal/schedule"
	"github.com/raillab/railops/internal/server"
	"github.com/raillab/railops/internal/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ops daemon: scheduled backups and the ops API",
	Long: `Run the long-lived ops daemon. A supervision tree keeps two
services alive: the backup scheduler firing DB_BACKUP_CRON and
MEDIA_BACKUP_CRON, and the ops API server with the backup catalog,
service status, Prometheus metrics, and manual backup triggering.
SIGINT or SIGTERM shuts both down gracefully.`,
	Args: noArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logging.Info().Str("version", version).Msg("Starting railops daemon")

	sched, err := buildScheduler(cfg)
	if err != nil {
		return err
	}

	creds, err := loadServeCredentials(cfg)
	if err != nil {
		return err
	}

	handlers := server.NewHandlers(cfg, creds, sched.Trigger, sched.NextRuns)
	httpSrv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handlers.Router(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	// Added first, shut down last: the HTTP server stops accepting
	// triggers before the scheduler waits out in-flight runs.
	tree.Add(sched)
	tree.Add(supervisor.NewHTTPService("ops-api", httpSrv, tree.Config().ShutdownTimeout))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpSrv.Addr).Msg("Ops daemon starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Ops daemon stopped")
	return nil
}

// buildScheduler wires both backup kinds into one scheduler: a cron
// entry when the kind has a configured schedule, a trigger-only
// registration otherwise, so the manual trigger endpoint works either
// way.
func buildScheduler(cfg *config.Config) (*schedule.Scheduler, error) {
	executor := backup.NewExecutor(cfg, execx.NewRunner())
	sched := schedule.NewScheduler()

	kinds := []struct {
		kind   backup.Kind
		cron   string
		envVar string
	}{
		{backup.KindDatabase, cfg.Backups.DBCron, "DB_BACKUP_CRON"},
		{backup.KindMedia, cfg.Backups.MediaCron, "MEDIA_BACKUP_CRON"},
	}
	for _, k := range kinds {
		run := func(ctx context.Context) error {
			_, err := executor.Run(ctx, k.kind)
			return err
		}
		if k.cron == "" {
			sched.Register(k.kind, run)
			continue
		}
		if err := sched.SetEntry(k.kind, k.cron, run); err != nil {
			return nil, opserr.NewConfiguration(k.envVar, err.Error())
		}
	}
	return sched, nil
}

// loadServeCredentials loads the ops API basic-auth credentials. A
// missing sidecar only disables the trigger endpoint, because secret
// provisioning may simply not have run yet; a malformed sidecar
// refuses to start the daemon.
func loadServeCredentials(cfg *config.Config) (*server.Credentials, error) {
	creds, err := server.LoadCredentials(cfg.Secrets.HtpasswdFile())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logging.Warn().
			Str("path", cfg.Secrets.HtpasswdFile()).
			Msg("No ops API credentials; backup trigger endpoint disabled until secrets are provisioned")
		return nil, nil
	}
	return creds, nil
}
