// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package backup

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/raillab/railops/internal/execx"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/metrics"
	"github.com/raillab/railops/internal/opserr"
)

// windowsDrivePattern matches local paths that start with a drive
// letter (C:\media, C:/media). Such paths contain a colon without
// naming a remote host.
var windowsDrivePattern = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// IsRemoteTarget reports whether target names a remote rsync
// destination (user@host:path or host:path). A colon marks a remote
// target unless the path is a drive-letter local path.
func IsRemoteTarget(target string) bool {
	if windowsDrivePattern.MatchString(target) {
		return false
	}
	return strings.Contains(target, ":")
}

// BackupMedia mirrors the configured media root onto the backup
// target. The mirror is delete-synchronizing: after a successful run
// the target matches the source exactly, including removal of files no
// longer present in the source. Repeated runs with an unchanged source
// are no-ops.
func (e *Executor) BackupMedia(ctx context.Context) (*Artifact, error) {
	ctx = logging.EnsureOperationID(ctx)

	root := e.cfg.Media.Root
	if root == "" {
		return nil, opserr.NewConfiguration("MEDIA_ROOT", "must be set")
	}
	target := e.cfg.Media.Target()
	if target == "" {
		return nil, opserr.NewConfiguration("MEDIA_BACKUPS_DIR", "must be set (or MEDIA_BACKUP_TARGET)")
	}

	remote := IsRemoteTarget(target)
	if !remote {
		if err := os.MkdirAll(target, 0o750); err != nil {
			return nil, fmt.Errorf("create media backup directory: %w", err)
		}
	}

	start := e.now()
	logging.Ctx(ctx).Info().
		Str("kind", string(KindMedia)).
		Str("src", root).
		Str("dst", target).
		Bool("remote", remote).
		Msg("Media backup starting")

	if err := MirrorTree(ctx, e.runner, "media-sync", root, target); err != nil {
		metrics.RecordBackup(string(KindMedia), e.now().Sub(start), 0, err)
		return nil, err
	}

	elapsed := e.now().Sub(start)
	metrics.RecordBackup(string(KindMedia), elapsed, 0, nil)
	logging.Ctx(ctx).Info().
		Str("dst", target).
		Dur("elapsed", elapsed).
		Msg("Media backup completed")

	return &Artifact{
		Kind:      KindMedia,
		Name:      target,
		Path:      target,
		CreatedAt: start,
	}, nil
}

// MirrorTree runs a delete-synchronizing rsync of src onto dst. Both
// sides get a trailing slash so rsync copies directory contents rather
// than nesting src inside dst. RestoreExecutor reuses this for the
// mirror-back direction.
func MirrorTree(ctx context.Context, runner execx.Runner, phase, src, dst string) error {
	args := []string{"-a", "--delete", ensureTrailingSlash(src), ensureTrailingSlash(dst)}
	res, err := runner.Run(ctx, execx.Command{
		Label: "rsync",
		Name:  "rsync",
		Args:  args,
	})
	if err != nil {
		return opserr.NewExecution(phase, "rsync", res.ExitCode, res.Output, err)
	}
	return nil
}

// ensureTrailingSlash appends a path separator if p lacks one. rsync
// treats "dir" and "dir/" differently; mirror semantics need the
// latter.
func ensureTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
