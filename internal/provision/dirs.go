// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package provision

import (
	"context"
	"io/fs"
	"os"

	"github.com/raillab/railops/internal/backup"
	"github.com/raillab/railops/internal/config"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/opserr"
)

// PathSpec names one directory and the permission mode it should carry.
type PathSpec struct {
	Path string
	Mode fs.FileMode
}

// DefaultLayout returns the directory layout the stack needs. A remote
// media backup target has no local directory and is omitted.
func DefaultLayout(cfg *config.Config) []PathSpec {
	specs := []PathSpec{
		{Path: cfg.Backups.DBDir, Mode: 0o750},
	}
	if target := cfg.Media.Target(); target != "" && !backup.IsRemoteTarget(target) {
		specs = append(specs, PathSpec{Path: target, Mode: 0o750})
	}
	return append(specs,
		PathSpec{Path: cfg.Provision.LogsDir, Mode: 0o755},
		PathSpec{Path: cfg.Provision.TLSDir, Mode: 0o700},
	)
}

// EnsureLayout creates missing directories recursively and applies the
// requested mode to each. Existing directories are left untouched apart
// from the mode attempt. Creation failures are fatal; a mode that
// cannot be applied is only a warning, so a provisioning run never
// fails on a filesystem that ignores permission bits.
func EnsureLayout(ctx context.Context, specs []PathSpec) error {
	for _, spec := range specs {
		if spec.Path == "" {
			continue
		}

		if err := os.MkdirAll(spec.Path, spec.Mode); err != nil {
			return opserr.NewPermission(spec.Path, spec.Mode, err)
		}

		if err := os.Chmod(spec.Path, spec.Mode); err != nil {
			logging.Ctx(ctx).Warn().
				Err(err).
				Str("path", spec.Path).
				Str("mode", spec.Mode.String()).
				Msg("Could not apply directory mode")
			continue
		}

		logging.Ctx(ctx).Debug().
			Str("path", spec.Path).
			Str("mode", spec.Mode.String()).
			Msg("Directory ensured")
	}
	return nil
}
