// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package preflight verifies that the stack's backing services are
// reachable. Restore runs these checks before touching live data, and the
// status surfaces report their results.
package preflight

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/raillab/railops/internal/config"
	"github.com/raillab/railops/internal/logging"
)

// checkTimeout bounds one reachability check.
const checkTimeout = 5 * time.Second

// Postgres connects to the database and pings it.
func Postgres(ctx context.Context, dsn string) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer conn.Close(ctx) //nolint:errcheck // Best effort close

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("pinging postgres: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Str("dsn", logging.RedactDSN(dsn)).
		Msg("Postgres reachable")
	return nil
}

// Redis parses the URL, connects, and pings.
func Redis(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parsing redis url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	client := redis.NewClient(opts)
	defer client.Close() //nolint:errcheck // Best effort close

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Str("url", logging.RedactDSN(url)).
		Msg("Redis reachable")
	return nil
}

// ServiceStatus reports one backing service's reachability.
type ServiceStatus struct {
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// Check runs a reachability check for every configured backing service.
// Services without configuration are skipped, not reported as down.
func Check(ctx context.Context, cfg *config.Config) []ServiceStatus {
	// Non-nil so JSON consumers see an empty array, not null.
	out := make([]ServiceStatus, 0, 2)
	if dsn := cfg.Database.URL; dsn != "" {
		out = append(out, newStatus("postgres", Postgres(ctx, dsn)))
	}
	if url := cfg.Redis.URL; url != "" {
		out = append(out, newStatus("redis", Redis(ctx, url)))
	}
	return out
}

func newStatus(name string, err error) ServiceStatus {
	s := ServiceStatus{Name: name, Reachable: err == nil}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
