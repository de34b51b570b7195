// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raillab/railops/internal/opserr"
)

// stackEnvVars are the variables Load consults; tests unset them so a
// developer's real environment cannot leak into assertions.
var stackEnvVars = []string{
	"DATABASE_URL", "REDIS_URL",
	"MEDIA_ROOT", "MEDIA_BACKUPS_DIR", "MEDIA_BACKUP_TARGET",
	"DB_BACKUPS_DIR", "DB_BACKUP_RETENTION_DAYS", "DB_BACKUP_CRON", "MEDIA_BACKUP_CRON",
	"SECRETS_FILE", "LOGS_DIR", "TLS_DIR",
	"COMPOSE_FILE", "COMPOSE_WEB_SERVICE",
	"HEALTHCHECK_URL", "HEALTHCHECK_ATTEMPTS", "HEALTHCHECK_SLEEP_SECONDS",
	"OPS_HTTP_HOST", "OPS_HTTP_PORT", "OPS_HTTP_TIMEOUT",
	"OPS_RATE_LIMIT_REQUESTS", "OPS_RATE_LIMIT_WINDOW",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_CALLER",
	"RAILOPS_CONFIG", "RAILOPS_ENV_FILE",
}

func clearStackEnv(t *testing.T) {
	t.Helper()
	for _, key := range stackEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearStackEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Backups.RetentionDays != 7 {
		t.Errorf("expected default retention 7, got %d", cfg.Backups.RetentionDays)
	}
	if cfg.Backups.DBDir != "backups/db" {
		t.Errorf("expected default db backups dir, got %q", cfg.Backups.DBDir)
	}
	if cfg.Deploy.HealthAttempts != 20 {
		t.Errorf("expected default health attempts 20, got %d", cfg.Deploy.HealthAttempts)
	}
	if cfg.Deploy.HealthSleepSeconds != 3 {
		t.Errorf("expected default health sleep 3, got %d", cfg.Deploy.HealthSleepSeconds)
	}
	if cfg.Deploy.WebService != "web" {
		t.Errorf("expected default web service, got %q", cfg.Deploy.WebService)
	}
	if cfg.Server.Port != 9640 {
		t.Errorf("expected default port 9640, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearStackEnv(t)
	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/rail")
	t.Setenv("DB_BACKUP_RETENTION_DAYS", "14")
	t.Setenv("DB_BACKUP_CRON", "0 3 * * *")
	t.Setenv("HEALTHCHECK_ATTEMPTS", "5")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("OPS_RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.URL != "postgres://app:secret@db:5432/rail" {
		t.Errorf("DATABASE_URL not applied, got %q", cfg.Database.URL)
	}
	if cfg.Backups.RetentionDays != 14 {
		t.Errorf("DB_BACKUP_RETENTION_DAYS not applied, got %d", cfg.Backups.RetentionDays)
	}
	if cfg.Backups.DBCron != "0 3 * * *" {
		t.Errorf("DB_BACKUP_CRON not applied, got %q", cfg.Backups.DBCron)
	}
	if cfg.Deploy.HealthAttempts != 5 {
		t.Errorf("HEALTHCHECK_ATTEMPTS not applied, got %d", cfg.Deploy.HealthAttempts)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("LOG_FORMAT not applied, got %q", cfg.Logging.Format)
	}
	if cfg.Server.RateLimitWindow != 30*time.Second {
		t.Errorf("OPS_RATE_LIMIT_WINDOW not applied, got %v", cfg.Server.RateLimitWindow)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearStackEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "railops.yaml")
	content := []byte("backups:\n  retention_days: 30\nmedia:\n  root: /srv/media\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("RAILOPS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Backups.RetentionDays != 30 {
		t.Errorf("file retention not applied, got %d", cfg.Backups.RetentionDays)
	}
	if cfg.Media.Root != "/srv/media" {
		t.Errorf("file media root not applied, got %q", cfg.Media.Root)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	clearStackEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "railops.yaml")
	if err := os.WriteFile(path, []byte("backups:\n  retention_days: 30\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("RAILOPS_CONFIG", path)
	t.Setenv("DB_BACKUP_RETENTION_DAYS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Backups.RetentionDays != 3 {
		t.Errorf("expected env to beat file, got %d", cfg.Backups.RetentionDays)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	clearStackEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, "stack.env")
	if err := os.WriteFile(envFile, []byte("MEDIA_BACKUP_TARGET=deploy@vault:/srv/media-backups\n"), 0o644); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	t.Setenv("RAILOPS_ENV_FILE", envFile)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := cfg.Media.Target(); got != "deploy@vault:/srv/media-backups" {
		t.Errorf("expected .env target, got %q", got)
	}
}

func TestMediaTarget(t *testing.T) {
	t.Parallel()

	m := MediaConfig{BackupsDir: "backups/media"}
	if m.Target() != "backups/media" {
		t.Errorf("expected fallback to backups dir, got %q", m.Target())
	}

	m.BackupTarget = "deploy@vault:/srv/media"
	if m.Target() != "deploy@vault:/srv/media" {
		t.Errorf("expected explicit target to win, got %q", m.Target())
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative retention", "DB_BACKUP_RETENTION_DAYS", "-1"},
		{"zero attempts", "HEALTHCHECK_ATTEMPTS", "0"},
		{"negative sleep", "HEALTHCHECK_SLEEP_SECONDS", "-2"},
		{"bad port", "OPS_HTTP_PORT", "70000"},
		{"bad level", "LOG_LEVEL", "verbose"},
		{"bad format", "LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearStackEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
			if !opserr.IsConfiguration(err) {
				t.Errorf("expected ConfigurationError, got %T: %v", err, err)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"DATABASE_URL", "database.url"},
		{"database_url", "database.url"},
		{"DB_BACKUPS_DIR", "backups.db_dir"},
		{"MEDIA_BACKUP_TARGET", "media.backup_target"},
		{"HEALTHCHECK_SLEEP_SECONDS", "deploy.health_sleep_seconds"},
		{"PATH", ""},
		{"HOME", ""},
		{"POSTGRES_PASSWORD", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
