// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package config

import (
	"github.com/raillab/railops/internal/opserr"
)

// Validate checks structural configuration constraints. Presence of
// operation-specific inputs (DATABASE_URL for db backup, MEDIA_ROOT for
// media backup) is checked by the component that needs them, so unrelated
// commands keep working with a partial environment.
func (c *Config) Validate() error {
	if err := c.validateBackups(); err != nil {
		return err
	}
	if err := c.validateDeploy(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackups() error {
	if c.Backups.RetentionDays < 0 {
		return opserr.NewConfiguration("DB_BACKUP_RETENTION_DAYS", "must be 0 or a positive number of days")
	}
	return nil
}

func (c *Config) validateDeploy() error {
	if c.Deploy.HealthAttempts < 1 {
		return opserr.NewConfiguration("HEALTHCHECK_ATTEMPTS", "must be at least 1")
	}
	if c.Deploy.HealthSleepSeconds < 0 {
		return opserr.NewConfiguration("HEALTHCHECK_SLEEP_SECONDS", "must be 0 or positive")
	}
	if c.Deploy.WebService == "" {
		return opserr.NewConfiguration("COMPOSE_WEB_SERVICE", "must not be empty")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return opserr.NewConfiguration("OPS_HTTP_PORT", "must be between 1 and 65535")
	}
	if c.Server.RateLimitReqs < 1 {
		return opserr.NewConfiguration("OPS_RATE_LIMIT_REQUESTS", "must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return opserr.NewConfiguration("LOG_LEVEL", "must be one of: trace, debug, info, warn, error, fatal, disabled")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return opserr.NewConfiguration("LOG_FORMAT", "must be json or console")
	}
	return nil
}
