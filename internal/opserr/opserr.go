// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package opserr defines the error taxonomy shared by all Railops
// operations and its mapping to process exit codes.
//
// The taxonomy separates errors by how the caller must react:
//
//   - ConfigurationError: required input absent or invalid. Never retried,
//     surfaced immediately.
//   - NotFoundError: a referenced artifact or directory does not exist.
//   - ExecutionError: an underlying tool (pg_dump, psql, rsync,
//     docker compose) exited non-zero. Surfaced with exit detail.
//   - RetentionPruneError: pruning failed after a successful backup.
//     Logged, never propagated as the operation's failure.
//   - PermissionError: a permission bit could not be applied. Warning
//     unless it compromises secret confidentiality.
//   - HealthCheckTimeoutError: the deploy health budget was exhausted.
//   - UsageError: unrecognized command or arguments.
//
// Errors are matched with errors.As via the Is* helpers; construction is
// through the New* functions so messages stay uniform.
package opserr

import (
	"errors"
	"fmt"
	"io/fs"
)

// ConfigurationError reports a missing or invalid required input.
type ConfigurationError struct {
	// Key is the configuration key or environment variable at fault.
	Key string
	// Reason describes what is wrong with it.
	Reason string
}

// NewConfiguration creates a ConfigurationError for the given key.
func NewConfiguration(key, reason string) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Key + ": " + e.Reason
}

// NotFoundError reports a referenced artifact or directory that does not exist.
type NotFoundError struct {
	Path  string
	Cause error
}

// NewNotFound creates a NotFoundError for the given path.
func NewNotFound(path string, cause error) *NotFoundError {
	return &NotFoundError{Path: path, Cause: cause}
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Path
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// ExecutionError reports an external tool that exited non-zero.
type ExecutionError struct {
	// Phase names the operation step that failed (db-dump, media-sync,
	// db-restore, media-restore, compose-up, migrate, collectstatic).
	Phase string
	// Cmd is the command that was run, without sensitive arguments.
	Cmd string
	// ExitCode is the tool's exit code, or -1 if it did not run.
	ExitCode int
	// Output holds the tail of the tool's combined output, if captured.
	Output string
	Cause  error
}

// NewExecution creates an ExecutionError for a failed tool invocation.
func NewExecution(phase, cmd string, exitCode int, output string, cause error) *ExecutionError {
	return &ExecutionError{Phase: phase, Cmd: cmd, ExitCode: exitCode, Output: output, Cause: cause}
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s failed: %s exited with code %d", e.Phase, e.Cmd, e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// RetentionPruneError aggregates failures from a pruning pass.
// Backup success and retention are independent concerns: a backup is never
// invalidated by a pruning error, so this error is logged and swallowed by
// the executor rather than returned to the operator.
type RetentionPruneError struct {
	Failures []error
}

func (e *RetentionPruneError) Error() string {
	return fmt.Sprintf("retention pruning failed for %d artifact(s)", len(e.Failures))
}

// Unwrap returns the individual failures for errors.Is/As traversal.
func (e *RetentionPruneError) Unwrap() []error {
	return e.Failures
}

// PermissionError reports a permission mode that could not be applied.
type PermissionError struct {
	Path  string
	Mode  fs.FileMode
	Cause error
}

// NewPermission creates a PermissionError for the given path and mode.
func NewPermission(path string, mode fs.FileMode, cause error) *PermissionError {
	return &PermissionError{Path: path, Mode: mode, Cause: cause}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot apply mode %04o to %s", e.Mode, e.Path)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *PermissionError) Unwrap() error {
	return e.Cause
}

// HealthCheckTimeoutError reports an exhausted health-poll budget.
type HealthCheckTimeoutError struct {
	// Attempts is the number of probes issued before giving up.
	Attempts int
	// LastStatus is the HTTP status of the final probe, or 0 if it errored.
	LastStatus int
	// LastErr is the final probe's transport error, if any.
	LastErr error
}

func (e *HealthCheckTimeoutError) Error() string {
	if e.LastStatus != 0 {
		return fmt.Sprintf("service not healthy after %d attempts (last status %d)", e.Attempts, e.LastStatus)
	}
	return fmt.Sprintf("service not healthy after %d attempts", e.Attempts)
}

// Unwrap returns the final probe error for error unwrapping.
func (e *HealthCheckTimeoutError) Unwrap() error {
	return e.LastErr
}

// UsageError reports an unrecognized command or malformed arguments.
type UsageError struct {
	Message string
}

// NewUsage creates a UsageError with the given message.
func NewUsage(message string) *UsageError {
	return &UsageError{Message: message}
}

func (e *UsageError) Error() string {
	return e.Message
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsExecution reports whether err is an ExecutionError.
func IsExecution(err error) bool {
	var target *ExecutionError
	return errors.As(err, &target)
}

// IsPermission reports whether err is a PermissionError.
func IsPermission(err error) bool {
	var target *PermissionError
	return errors.As(err, &target)
}

// IsHealthCheckTimeout reports whether err is a HealthCheckTimeoutError.
func IsHealthCheckTimeout(err error) bool {
	var target *HealthCheckTimeoutError
	return errors.As(err, &target)
}

// IsUsage reports whether err is a UsageError.
func IsUsage(err error) bool {
	var target *UsageError
	return errors.As(err, &target)
}

// Process exit codes. Any failure exits non-zero; unrecognized commands
// are distinguished so wrapping scripts can tell operator typos from
// genuine operation failures.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsUsage(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}
