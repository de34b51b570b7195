// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package execx runs the external tools Railops orchestrates (pg_dump,
// psql, rsync, docker compose) behind a small Runner interface so
// components stay testable without spawning processes.
//
// Commands carry a Label used for logging and error reporting instead of
// the raw argument list; connection strings and other sensitive arguments
// therefore never appear in log events.
package execx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/raillab/railops/internal/logging"
)

// outputTailLimit bounds captured tool output so a chatty dump cannot
// balloon error messages or memory.
const outputTailLimit = 4096

// Command describes one external tool invocation.
type Command struct {
	// Label names the invocation in logs and errors (e.g. "pg_dump").
	Label string
	// Name is the executable to run.
	Name string
	// Args are the command arguments.
	Args []string
	// Env holds extra KEY=value entries appended to the inherited
	// environment (e.g. PGPASSWORD).
	Env []string
	// Stdin, when set, is streamed to the tool.
	Stdin io.Reader
	// Stdout, when set, receives the tool's stdout; otherwise stdout is
	// captured into the output tail alongside stderr.
	Stdout io.Writer
}

// Result holds the outcome of a completed command.
type Result struct {
	// ExitCode is the tool's exit code; -1 if the tool did not start.
	ExitCode int
	// Output is the tail of the captured output.
	Output string
}

// Runner executes external commands. Implementations must be safe for
// concurrent use.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner is the os/exec-backed Runner used outside tests.
type ExecRunner struct{}

// NewRunner returns the default Runner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command, waiting for completion. A nil error means the
// tool exited zero. Non-zero exits return the exit code and output tail in
// Result together with the underlying error.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	tail := &tailWriter{limit: outputTailLimit}
	c.Stderr = tail
	if cmd.Stdout != nil {
		c.Stdout = cmd.Stdout
	} else {
		c.Stdout = tail
	}
	c.Stdin = cmd.Stdin

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)

	result := Result{ExitCode: exitCode(err), Output: tail.String()}

	if err != nil {
		logging.Debug().
			Str("cmd", cmd.Label).
			Int("exit_code", result.ExitCode).
			Dur("elapsed", elapsed).
			Msg("Command failed")
		return result, fmt.Errorf("%s: %w", cmd.Label, err)
	}

	logging.Debug().
		Str("cmd", cmd.Label).
		Dur("elapsed", elapsed).
		Msg("Command completed")
	return result, nil
}

// exitCode extracts the exit code from a Run error: 0 for nil, the tool's
// code for exits, -1 when the tool did not start.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// tailWriter keeps the last limit bytes written to it.
type tailWriter struct {
	limit int
	buf   []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if len(w.buf) > w.limit {
		w.buf = w.buf[len(w.buf)-w.limit:]
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	return strings.TrimSpace(string(w.buf))
}
