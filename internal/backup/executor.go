// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package backup

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raillab/railops/internal/config"
	"github.com/raillab/railops/internal/dburl"
	"github.com/raillab/railops/internal/execx"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/metrics"
	"github.com/raillab/railops/internal/opserr"
)

// Executor performs backup operations synchronously. One invocation
// produces exactly one artifact (db) or one mirrored tree (media).
type Executor struct {
	cfg    *config.Config
	runner execx.Runner

	// now is replaceable in tests for deterministic artifact names.
	now func() time.Time
}

// NewExecutor creates a backup executor using the given command runner.
func NewExecutor(cfg *config.Config, runner execx.Runner) *Executor {
	return &Executor{
		cfg:    cfg,
		runner: runner,
		now:    time.Now,
	}
}

// Run performs the backup of the given kind. Scheduler and API callers
// dispatch through here; the per-kind methods remain for direct use.
func (e *Executor) Run(ctx context.Context, kind Kind) (*Artifact, error) {
	switch kind {
	case KindDatabase:
		return e.BackupDatabase(ctx)
	case KindMedia:
		return e.BackupMedia(ctx)
	default:
		return nil, fmt.Errorf("unknown backup kind %q", kind)
	}
}

// BackupDatabase dumps the configured PostgreSQL database into a
// gzip-compressed artifact in the backup directory, then applies
// retention pruning. A pruning failure is logged and swallowed; the
// backup that just succeeded is never invalidated by it.
func (e *Executor) BackupDatabase(ctx context.Context) (*Artifact, error) {
	ctx = logging.EnsureOperationID(ctx)

	conn, err := dburl.Parse(e.cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	dir := e.cfg.Backups.DBDir
	if dir == "" {
		return nil, opserr.NewConfiguration("DB_BACKUPS_DIR", "must be set")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	start := e.now()
	name := ArtifactName(start)
	path := filepath.Join(dir, name)

	logging.Ctx(ctx).Info().
		Str("kind", string(KindDatabase)).
		Str("database", conn.Redacted()).
		Str("artifact", name).
		Msg("Database backup starting")

	if err := e.dumpDatabase(ctx, conn, path); err != nil {
		metrics.RecordBackup(string(KindDatabase), e.now().Sub(start), 0, err)
		return nil, err
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	elapsed := e.now().Sub(start)
	metrics.RecordBackup(string(KindDatabase), elapsed, size, nil)
	logging.Ctx(ctx).Info().
		Str("artifact", path).
		Int64("bytes", size).
		Dur("elapsed", elapsed).
		Msg("Database backup completed")

	e.pruneAfterBackup(ctx)

	return &Artifact{
		Kind:      KindDatabase,
		Name:      name,
		Path:      path,
		CreatedAt: start,
		SizeBytes: size,
	}, nil
}

// dumpDatabase streams pg_dump output through gzip into a temporary
// file and renames it into place, so no partial artifact is ever
// visible under the final name.
func (e *Executor) dumpDatabase(ctx context.Context, conn dburl.Conn, path string) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	gz := gzip.NewWriter(f)

	args := append([]string{"--no-owner", "--no-acl", "--clean", "--if-exists"}, conn.ToolArgs()...)
	res, runErr := e.runner.Run(ctx, execx.Command{
		Label:  "pg_dump",
		Name:   "pg_dump",
		Args:   args,
		Env:    conn.Env(),
		Stdout: gz,
	})
	if runErr != nil {
		gz.Close()           //nolint:errcheck // Best effort cleanup on error
		f.Close()            //nolint:errcheck // Best effort cleanup on error
		os.Remove(tmpPath)   //nolint:errcheck // Best effort cleanup on error
		return opserr.NewExecution("db-dump", "pg_dump", res.ExitCode, res.Output, runErr)
	}

	return publishArtifact(f, gz, tmpPath, path)
}

// publishArtifact finalizes the compressed stream, flushes the file to
// disk, and atomically renames it to its final name.
func publishArtifact(f *os.File, gz *gzip.Writer, tmpPath, path string) error {
	if err := gz.Close(); err != nil {
		f.Close()          //nolint:errcheck // Best effort cleanup on error
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("finalize compression: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()          //nolint:errcheck // Best effort cleanup on error
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// pruneAfterBackup applies the retention policy after a successful
// database backup. Failures are logged, never propagated.
func (e *Executor) pruneAfterBackup(ctx context.Context) {
	removed, err := Prune(e.cfg.Backups.DBDir, e.cfg.Backups.RetentionDays, e.now())
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Retention pruning failed, backup unaffected")
		return
	}
	if removed > 0 {
		logging.Ctx(ctx).Info().
			Int("removed", removed).
			Int("max_age_days", e.cfg.Backups.RetentionDays).
			Msg("Stale database artifacts pruned")
	}
}
