// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/raillab/railops/internal/backup"
	"github.com/raillab/railops/internal/config"
	"github.com/raillab/railops/internal/opserr"
)

func TestBuildSchedulerMixedKinds(t *testing.T) {
	cfg := &config.Config{}
	cfg.Backups.DBCron = "0 2 * * *"

	sched, err := buildScheduler(cfg)
	if err != nil {
		t.Fatalf("buildScheduler: %v", err)
	}

	runs := sched.NextRuns()
	if _, ok := runs[backup.KindDatabase]; !ok {
		t.Error("db kind should have a scheduled next run")
	}
	if _, ok := runs[backup.KindMedia]; ok {
		t.Error("media kind without a cron should be trigger-only")
	}

	// Trigger-only kinds still accept manual runs.
	if err := sched.Trigger(backup.KindMedia); err != nil {
		t.Errorf("Trigger(media): %v", err)
	}
}

func TestBuildSchedulerRejectsBadCron(t *testing.T) {
	cfg := &config.Config{}
	cfg.Backups.MediaCron = "not-a-cron"

	_, err := buildScheduler(cfg)
	if err == nil {
		t.Fatal("expected error for malformed cron expression")
	}
	if !opserr.IsConfiguration(err) {
		t.Errorf("expected ConfigurationError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "MEDIA_BACKUP_CRON") {
		t.Errorf("error should name the environment variable, got %q", err)
	}
}

func TestLoadServeCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.Secrets.File = filepath.Join(t.TempDir(), "railops.env")

	// Missing sidecar: the daemon starts with the trigger endpoint
	// disabled.
	creds, err := loadServeCredentials(cfg)
	if err != nil {
		t.Fatalf("missing sidecar should not fail: %v", err)
	}
	if creds != nil {
		t.Fatal("expected nil credentials for a missing sidecar")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generating hash: %v", err)
	}
	sidecar := cfg.Secrets.HtpasswdFile()
	if err := os.WriteFile(sidecar, []byte("admin:"+string(hash)+"\n"), 0o600); err != nil {
		t.Fatalf("writing sidecar: %v", err)
	}

	creds, err = loadServeCredentials(cfg)
	if err != nil {
		t.Fatalf("loadServeCredentials: %v", err)
	}
	if creds == nil || creds.Username() != "admin" {
		t.Fatalf("expected admin credentials, got %+v", creds)
	}

	// A malformed sidecar is a hard startup failure, not a silent 401.
	if err := os.WriteFile(sidecar, []byte("garbage\n"), 0o600); err != nil {
		t.Fatalf("writing sidecar: %v", err)
	}
	if _, err := loadServeCredentials(cfg); err == nil {
		t.Fatal("expected error for malformed sidecar")
	}
}
