// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/raillab/railops/internal/config"
)

func TestEnsureLayoutCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	specs := []PathSpec{
		{Path: filepath.Join(base, "backups", "db"), Mode: 0o750},
		{Path: filepath.Join(base, "logs"), Mode: 0o755},
		{Path: filepath.Join(base, "tls"), Mode: 0o700},
	}

	if err := EnsureLayout(context.Background(), specs); err != nil {
		t.Fatalf("EnsureLayout() error: %v", err)
	}

	for _, spec := range specs {
		info, err := os.Stat(spec.Path)
		if err != nil {
			t.Fatalf("stat %s: %v", spec.Path, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", spec.Path)
		}
		if perm := info.Mode().Perm(); perm != spec.Mode {
			t.Errorf("%s mode = %04o, want %04o", spec.Path, perm, spec.Mode)
		}
	}
}

func TestEnsureLayoutIdempotent(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "backups", "db")
	specs := []PathSpec{{Path: dir, Mode: 0o750}}

	if err := EnsureLayout(context.Background(), specs); err != nil {
		t.Fatalf("first EnsureLayout() error: %v", err)
	}

	// Existing content must survive a second run untouched.
	marker := filepath.Join(dir, "db-20260314-031500.sql.gz")
	if err := os.WriteFile(marker, []byte("artifact"), 0o640); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	if err := EnsureLayout(context.Background(), specs); err != nil {
		t.Fatalf("second EnsureLayout() error: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("existing content disturbed: %v", err)
	}
}

func TestEnsureLayoutSkipsEmptyPaths(t *testing.T) {
	if err := EnsureLayout(context.Background(), []PathSpec{{Path: "", Mode: 0o750}}); err != nil {
		t.Fatalf("EnsureLayout() error: %v", err)
	}
}

func TestDefaultLayoutUsesLocalMediaTarget(t *testing.T) {
	cfg := &config.Config{
		Backups:   config.BackupsConfig{DBDir: "/srv/backups/db"},
		Media:     config.MediaConfig{BackupsDir: "/srv/backups/media"},
		Provision: config.ProvisionConfig{LogsDir: "/srv/logs", TLSDir: "/srv/tls"},
	}

	specs := DefaultLayout(cfg)
	if len(specs) != 4 {
		t.Fatalf("got %d specs, want 4", len(specs))
	}
	if specs[1].Path != "/srv/backups/media" {
		t.Errorf("specs[1].Path = %q, want media backups dir", specs[1].Path)
	}
}

func TestDefaultLayoutOmitsRemoteMediaTarget(t *testing.T) {
	cfg := &config.Config{
		Backups: config.BackupsConfig{DBDir: "/srv/backups/db"},
		Media: config.MediaConfig{
			BackupsDir:   "/srv/backups/media",
			BackupTarget: "backup@vault.internal:/srv/media",
		},
		Provision: config.ProvisionConfig{LogsDir: "/srv/logs", TLSDir: "/srv/tls"},
	}

	for _, spec := range DefaultLayout(cfg) {
		if spec.Path == cfg.Media.BackupTarget {
			t.Error("remote media target must not appear in the local layout")
		}
	}
}
