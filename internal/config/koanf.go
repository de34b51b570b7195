// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/raillab/railops/internal/logging"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"railops.yaml",
	"railops.yml",
	"/etc/railops/railops.yaml",
	"/etc/railops/railops.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "RAILOPS_CONFIG"

// EnvFileEnvVar overrides the .env file location.
const EnvFileEnvVar = "RAILOPS_ENV_FILE"

// defaultConfig returns a Config with all default values. The defaults
// match the directory layout the Django compose stack ships with, so a
// bare `railops backup db` works from the project root.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "",
		},
		Redis: RedisConfig{
			URL: "",
		},
		Media: MediaConfig{
			Root:         "media",
			BackupsDir:   "backups/media",
			BackupTarget: "",
		},
		Backups: BackupsConfig{
			DBDir:         "backups/db",
			RetentionDays: 7,
			DBCron:        "",
			MediaCron:     "",
		},
		Secrets: SecretsConfig{
			File: "secrets/railops.env",
		},
		Provision: ProvisionConfig{
			LogsDir: "logs",
			TLSDir:  "tls",
		},
		Deploy: DeployConfig{
			ComposeFile:        "docker-compose.yml",
			WebService:         "web",
			HealthURL:          "http://localhost:8000/health/",
			HealthAttempts:     20,
			HealthSleepSeconds: 3,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            9640,
			Timeout:         30 * time.Second,
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML (if found)
//  3. .env file: loaded into the process environment if present
//  4. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	loadDotEnv()

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadDotEnv merges a .env file into the process environment without
// overriding variables that are already set, so real environment always
// wins over file contents.
func loadDotEnv() {
	path := os.Getenv(EnvFileEnvVar)
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to load .env file")
	}
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, so stray environment
// never pollutes the config.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Stack connection strings (shared with the Django containers)
		"database_url": "database.url",
		"redis_url":    "redis.url",

		// Media tree
		"media_root":          "media.root",
		"media_backups_dir":   "media.backups_dir",
		"media_backup_target": "media.backup_target",

		// Database backups + schedules
		"db_backups_dir":           "backups.db_dir",
		"db_backup_retention_days": "backups.retention_days",
		"db_backup_cron":           "backups.db_cron",
		"media_backup_cron":        "backups.media_cron",

		// Provisioning
		"secrets_file": "secrets.file",
		"logs_dir":     "provision.logs_dir",
		"tls_dir":      "provision.tls_dir",

		// Deployment
		"compose_file":              "deploy.compose_file",
		"compose_web_service":       "deploy.web_service",
		"healthcheck_url":           "deploy.health_url",
		"healthcheck_attempts":      "deploy.health_attempts",
		"healthcheck_sleep_seconds": "deploy.health_sleep_seconds",

		// Ops daemon
		"ops_http_host":           "server.host",
		"ops_http_port":           "server.port",
		"ops_http_timeout":        "server.timeout",
		"ops_rate_limit_requests": "server.rate_limit_reqs",
		"ops_rate_limit_window":   "server.rate_limit_window",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
