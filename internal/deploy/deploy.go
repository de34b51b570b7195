// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package deploy sequences a stack deployment: container bring-up, schema
// migration, static asset publishing, then health polling until the
// application answers or the attempt budget runs out.
//
// The pipeline is a one-way state machine. Healthy and Failed are
// absorbing: a finished Orchestrator never retries, the operator runs a
// fresh deployment instead.
package deploy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/raillab/railops/internal/config"
	"github.com/raillab/railops/internal/execx"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/metrics"
	"github.com/raillab/railops/internal/opserr"
)

// State names one step of the deployment pipeline.
type State string

const (
	StateIdle             State = "idle"
	StateBringingUp       State = "bringing-up"
	StateMigrating        State = "migrating"
	StateCollectingStatic State = "collecting-static"
	StateHealthPolling    State = "health-polling"
	StateHealthy          State = "healthy"
	StateFailed           State = "failed"
)

const (
	defaultWebService     = "web"
	defaultHealthURL      = "http://localhost:8000/health/"
	defaultHealthAttempts = 20

	// probeTimeout bounds a single health probe so one hung request
	// cannot eat the whole poll budget.
	probeTimeout = 5 * time.Second
)

// Orchestrator runs one deployment to completion or failure.
type Orchestrator struct {
	cfg    *config.Config
	runner execx.Runner
	client *http.Client
	state  State
}

// NewOrchestrator creates an Orchestrator in the Idle state.
func NewOrchestrator(cfg *config.Config, runner execx.Runner) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		runner: runner,
		client: &http.Client{Timeout: probeTimeout},
		state:  StateIdle,
	}
}

// State reports the pipeline's current step.
func (o *Orchestrator) State() State {
	return o.state
}

// Deploy runs the full pipeline once. Calling Deploy again on the same
// Orchestrator is rejected without side effects.
func (o *Orchestrator) Deploy(ctx context.Context) error {
	if o.state != StateIdle {
		return fmt.Errorf("deployment already ran (state %s)", o.state)
	}

	ctx = logging.EnsureOperationID(ctx)
	started := time.Now()
	err := o.run(ctx)
	metrics.RecordDeploy(err)
	if err != nil {
		o.state = StateFailed
		return err
	}
	o.state = StateHealthy
	logging.Ctx(ctx).Info().
		Dur("elapsed", time.Since(started)).
		Msg("Deployment healthy")
	return nil
}

func (o *Orchestrator) run(ctx context.Context) error {
	o.state = StateBringingUp
	logging.Ctx(ctx).Info().
		Str("compose_file", o.cfg.Deploy.ComposeFile).
		Msg("Bringing up services")
	if err := o.compose(ctx, "compose-up", "up", "-d", "--remove-orphans"); err != nil {
		return err
	}

	o.state = StateMigrating
	logging.Ctx(ctx).Info().Msg("Applying database migrations")
	if err := o.manage(ctx, "migrate", "migrate", "--noinput"); err != nil {
		return err
	}

	o.state = StateCollectingStatic
	logging.Ctx(ctx).Info().Msg("Collecting static assets")
	if err := o.manage(ctx, "collectstatic", "collectstatic", "--noinput"); err != nil {
		return err
	}

	o.state = StateHealthPolling
	return o.pollHealth(ctx)
}

// manage runs a manage.py subcommand inside the web service container.
func (o *Orchestrator) manage(ctx context.Context, phase string, args ...string) error {
	full := append([]string{"exec", "-T", o.webService(), "python", "manage.py"}, args...)
	return o.compose(ctx, phase, full...)
}

// compose runs a docker compose subcommand, inserting -f when a compose
// file is configured.
func (o *Orchestrator) compose(ctx context.Context, phase string, args ...string) error {
	full := []string{"compose"}
	if o.cfg.Deploy.ComposeFile != "" {
		full = append(full, "-f", o.cfg.Deploy.ComposeFile)
	}
	full = append(full, args...)

	res, err := o.runner.Run(ctx, execx.Command{
		Label: phase,
		Name:  "docker",
		Args:  full,
	})
	if err != nil {
		return opserr.NewExecution(phase, "docker compose", res.ExitCode, res.Output, err)
	}
	return nil
}

func (o *Orchestrator) webService() string {
	if s := o.cfg.Deploy.WebService; s != "" {
		return s
	}
	return defaultWebService
}

// pollHealth probes the health endpoint until it answers 2xx or the
// attempt budget is exhausted. A rate limiter paces the attempts so the
// sleep between probes honors context cancellation.
func (o *Orchestrator) pollHealth(ctx context.Context) error {
	url := o.cfg.Deploy.HealthURL
	if url == "" {
		url = defaultHealthURL
	}
	attempts := o.cfg.Deploy.HealthAttempts
	if attempts <= 0 {
		attempts = defaultHealthAttempts
	}
	sleep := time.Duration(o.cfg.Deploy.HealthSleepSeconds) * time.Second

	logging.Ctx(ctx).Info().
		Str("url", url).
		Int("attempts", attempts).
		Dur("sleep", sleep).
		Msg("Polling health endpoint")

	limiter := rate.NewLimiter(rate.Every(sleep), 1)
	var lastStatus int
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("health polling interrupted: %w", err)
		}

		metrics.HealthPollAttempts.Inc()
		status, err := o.probe(ctx, url)
		if err == nil && status >= 200 && status < 300 {
			logging.Ctx(ctx).Info().
				Int("attempt", attempt).
				Int("status", status).
				Msg("Service healthy")
			return nil
		}
		lastStatus, lastErr = status, err
		logging.Ctx(ctx).Debug().
			Int("attempt", attempt).
			Int("status", status).
			Err(err).
			Msg("Service not yet healthy")
	}

	return &opserr.HealthCheckTimeoutError{
		Attempts:   attempts,
		LastStatus: lastStatus,
		LastErr:    lastErr,
	}
}

// probe issues one health GET. The status is 0 when the request itself
// failed.
func (o *Orchestrator) probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort drain
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
