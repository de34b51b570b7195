// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package dburl decomposes the stack's DATABASE_URL for the libpq
// command-line tools. pg_dump and psql receive host/port/user/database as
// arguments and the password through PGPASSWORD, keeping credentials out
// of process listings and log lines.
package dburl

import (
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/raillab/railops/internal/opserr"
)

// Conn is a PostgreSQL connection decomposed for pg_dump and psql.
type Conn struct {
	Host     string
	Port     uint16
	User     string
	Password string
	Database string
}

// Parse validates and decomposes a DATABASE_URL connection string.
func Parse(dsn string) (Conn, error) {
	if dsn == "" {
		return Conn{}, opserr.NewConfiguration("DATABASE_URL", "must be set")
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return Conn{}, opserr.NewConfiguration("DATABASE_URL", "not a valid PostgreSQL connection string")
	}
	return Conn{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
	}, nil
}

// ToolArgs returns the connection arguments for pg_dump and psql.
func (c Conn) ToolArgs() []string {
	return []string{
		"-h", c.Host,
		"-p", strconv.Itoa(int(c.Port)),
		"-U", c.User,
		"-d", c.Database,
	}
}

// Env returns the PGPASSWORD entry for tool invocation, or nil when the
// connection string carries no password.
func (c Conn) Env() []string {
	if c.Password == "" {
		return nil
	}
	return []string{"PGPASSWORD=" + c.Password}
}

// Redacted describes the connection for log lines without credentials.
func (c Conn) Redacted() string {
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}
