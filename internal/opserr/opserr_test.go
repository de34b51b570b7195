// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package opserr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"configuration", NewConfiguration("DATABASE_URL", "must be set"), ExitFailure},
		{"not found", NewNotFound("/backups/db-20260101-000000.sql.gz", nil), ExitFailure},
		{"execution", NewExecution("db-dump", "pg_dump", 1, "", nil), ExitFailure},
		{"health timeout", &HealthCheckTimeoutError{Attempts: 20}, ExitFailure},
		{"usage", NewUsage("unknown command \"bakcup\""), ExitUsage},
		{"wrapped configuration", fmt.Errorf("loading: %w", NewConfiguration("MEDIA_ROOT", "must be set")), ExitFailure},
		{"wrapped usage", fmt.Errorf("cli: %w", NewUsage("bad args")), ExitUsage},
		{"plain error", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestTypeMatching(t *testing.T) {
	t.Parallel()

	cfgErr := fmt.Errorf("backup: %w", NewConfiguration("DATABASE_URL", "must be set"))
	if !IsConfiguration(cfgErr) {
		t.Error("expected wrapped ConfigurationError to match")
	}
	if IsNotFound(cfgErr) {
		t.Error("ConfigurationError must not match NotFoundError")
	}

	nfErr := NewNotFound("/media/snapshot", errors.New("stat failed"))
	if !IsNotFound(nfErr) {
		t.Error("expected NotFoundError to match")
	}
	if nfErr.Unwrap() == nil {
		t.Error("expected NotFoundError to unwrap its cause")
	}
}

func TestExecutionErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewExecution("migrate", "docker compose", 2, "relation does not exist", nil)

	msg := err.Error()
	for _, want := range []string{"migrate", "docker compose", "code 2", "relation does not exist"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in message %q", want, msg)
		}
	}
}

func TestRetentionPruneErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("permission denied")
	err := &RetentionPruneError{Failures: []error{inner, errors.New("busy")}}

	if !strings.Contains(err.Error(), "2 artifact(s)") {
		t.Errorf("expected count in message, got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to traverse aggregated failures")
	}
}

func TestHealthCheckTimeoutErrorMessage(t *testing.T) {
	t.Parallel()

	withStatus := &HealthCheckTimeoutError{Attempts: 20, LastStatus: 502}
	if !strings.Contains(withStatus.Error(), "last status 502") {
		t.Errorf("expected last status in message, got %q", withStatus.Error())
	}

	withErr := &HealthCheckTimeoutError{Attempts: 3, LastErr: errors.New("connection refused")}
	if strings.Contains(withErr.Error(), "status") {
		t.Errorf("expected no status when probe errored, got %q", withErr.Error())
	}
	if !errors.Is(withErr, withErr.LastErr) {
		t.Error("expected unwrap to expose the probe error")
	}
}

func TestPermissionErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewPermission("/etc/railops/secrets.env", 0o600, errors.New("operation not permitted"))
	if !strings.Contains(err.Error(), "0600") {
		t.Errorf("expected octal mode in message, got %q", err.Error())
	}
	if !IsPermission(fmt.Errorf("secrets: %w", err)) {
		t.Error("expected wrapped PermissionError to match")
	}
}
