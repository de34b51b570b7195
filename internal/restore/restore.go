// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package restore reverses backups: it replays a database dump into
// the configured PostgreSQL instance, or mirrors a media snapshot back
// onto the live media root.
//
// Both operations are idempotent. Replaying the same dump twice yields
// the same schema and data (dumps are taken with --clean --if-exists),
// and the media mirror-back produces the same end state on every run,
// so a failed restore is safe to repeat.
//
// Validation happens before side effects: a missing artifact or
// snapshot fails with NotFoundError while the live database and media
// root are still untouched.
package restore

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raillab/railops/internal/backup"
	"github.com/raillab/railops/internal/config"
	"github.com/raillab/railops/internal/dburl"
	"github.com/raillab/railops/internal/execx"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/metrics"
	"github.com/raillab/railops/internal/opserr"
)

// Executor performs restore operations synchronously.
type Executor struct {
	cfg    *config.Config
	runner execx.Runner
}

// NewExecutor creates a restore executor using the given command runner.
func NewExecutor(cfg *config.Config, runner execx.Runner) *Executor {
	return &Executor{cfg: cfg, runner: runner}
}

// RestoreDatabase replays the SQL dump at artifactPath against the
// configured database. Compression is detected by the .gz suffix and
// decompressed transparently. The replay runs with ON_ERROR_STOP, so
// psql aborts at the first failing statement; a dump may then be
// partially applied, which re-running the restore repairs.
func (e *Executor) RestoreDatabase(ctx context.Context, artifactPath string) error {
	ctx = logging.EnsureOperationID(ctx)

	conn, err := dburl.Parse(e.cfg.Database.URL)
	if err != nil {
		return err
	}

	info, statErr := os.Stat(artifactPath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return opserr.NewNotFound(artifactPath, statErr)
		}
		return fmt.Errorf("stat artifact: %w", statErr)
	}
	if info.IsDir() {
		return opserr.NewNotFound(artifactPath, errors.New("is a directory, not a dump file"))
	}

	logging.Ctx(ctx).Info().
		Str("artifact", artifactPath).
		Str("database", conn.Redacted()).
		Msg("Database restore starting")

	err = e.replayDump(ctx, conn, artifactPath)
	metrics.RecordRestore(string(backup.KindDatabase), err)
	if err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Str("artifact", artifactPath).
		Msg("Database restore completed")
	return nil
}

// replayDump streams the (possibly compressed) dump into psql.
func (e *Executor) replayDump(ctx context.Context, conn dburl.Conn, artifactPath string) error {
	f, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var stream io.Reader = f
	if strings.HasSuffix(artifactPath, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("read compressed artifact %s: %w", artifactPath, err)
		}
		defer gz.Close() //nolint:errcheck // Read-only stream
		stream = gz
	}

	args := append([]string{"--no-psqlrc", "--quiet", "-v", "ON_ERROR_STOP=1"}, conn.ToolArgs()...)
	res, runErr := e.runner.Run(ctx, execx.Command{
		Label: "psql",
		Name:  "psql",
		Args:  args,
		Env:   conn.Env(),
		Stdin: stream,
	})
	if runErr != nil {
		return opserr.NewExecution("db-restore", "psql", res.ExitCode, res.Output, runErr)
	}
	return nil
}

// RestoreMedia mirrors the snapshot directory back onto the live media
// root. The mirror is delete-synchronizing: anything in the live root
// that is not part of the snapshot is removed.
func (e *Executor) RestoreMedia(ctx context.Context, snapshotDir string) error {
	ctx = logging.EnsureOperationID(ctx)

	root := e.cfg.Media.Root
	if root == "" {
		return opserr.NewConfiguration("MEDIA_ROOT", "must be set")
	}

	info, statErr := os.Stat(snapshotDir)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return opserr.NewNotFound(snapshotDir, statErr)
		}
		return fmt.Errorf("stat snapshot: %w", statErr)
	}
	if !info.IsDir() {
		return opserr.NewNotFound(snapshotDir, errors.New("is not a directory"))
	}

	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("create media root: %w", err)
	}

	logging.Ctx(ctx).Warn().
		Str("snapshot", snapshotDir).
		Str("media_root", root).
		Msg("Media restore overwrites the live media root; files not in the snapshot will be removed")

	err := backup.MirrorTree(ctx, e.runner, "media-restore", snapshotDir, root)
	metrics.RecordRestore(string(backup.KindMedia), err)
	if err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Str("media_root", root).
		Msg("Media restore completed")
	return nil
}
