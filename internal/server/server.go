// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package server exposes the ops API over HTTP: liveness, Prometheus
// metrics, the backup catalog, service status, and manual backup
// triggering.
//
// Read endpoints under /api/v1 are rate limited per client IP. The
// backup trigger additionally requires basic auth, checked against the
// bcrypt credential that secret provisioning writes next to the env
// file. The daemon binds to loopback by default; exposing it further is
// a deployment decision.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raillab/railops/internal/backup"
	"github.com/raillab/railops/internal/config"
)

// TriggerFunc starts a backup run of the given kind in the background.
// It returns schedule.ErrRunInProgress while a run of that kind is
// still active.
type TriggerFunc func(kind backup.Kind) error

// NextRunsFunc reports the next scheduled run per backup kind.
type NextRunsFunc func() map[backup.Kind]time.Time

// Handlers carries the dependencies of the ops API endpoints.
type Handlers struct {
	cfg      *config.Config
	creds    *Credentials
	trigger  TriggerFunc
	nextRuns NextRunsFunc
}

// NewHandlers wires the ops API endpoints to their collaborators. The
// trigger and nextRuns functions are usually the scheduler's Trigger
// and NextRuns methods.
func NewHandlers(cfg *config.Config, creds *Credentials, trigger TriggerFunc, nextRuns NextRunsFunc) *Handlers {
	return &Handlers{
		cfg:      cfg,
		creds:    creds,
		trigger:  trigger,
		nextRuns: nextRuns,
	}
}

// Router assembles the ops API router: open liveness and metrics
// endpoints at the root, rate-limited endpoints under /api/v1, and
// basic auth on the backup trigger.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			h.cfg.Server.RateLimitReqs,
			h.cfg.Server.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))

		r.Get("/backups", h.handleListBackups)
		r.Get("/status", h.handleStatus)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/backups", h.handleTriggerBackup)
		})
	})

	return r
}
