// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/raillab/railops/internal/backup"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/preflight"
	"github.com/raillab/railops/internal/schedule"
	"github.com/raillab/railops/internal/validation"
)

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listBackupsResponse is the GET /api/v1/backups body.
type listBackupsResponse struct {
	Backups []backup.Artifact `json:"backups"`
	Count   int               `json:"count"`
}

func (h *Handlers) handleListBackups(w http.ResponseWriter, r *http.Request) {
	artifacts, err := backup.List(h.cfg.Backups.DBDir)
	if err != nil {
		logging.Error().Err(err).Msg("Listing backup artifacts failed")
		writeError(w, http.StatusInternalServerError, "listing backups failed")
		return
	}
	if artifacts == nil {
		artifacts = []backup.Artifact{}
	}

	writeJSON(w, http.StatusOK, listBackupsResponse{
		Backups: artifacts,
		Count:   len(artifacts),
	})
}

// statusResponse is the GET /api/v1/status body: reachability of the
// backing services, the next scheduled backup runs, and the newest
// database artifact.
type statusResponse struct {
	Services     []preflight.ServiceStatus `json:"services"`
	NextRuns     map[backup.Kind]time.Time `json:"next_runs,omitempty"`
	LatestBackup *backup.Artifact          `json:"latest_backup,omitempty"`
}

func (h *Handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Services: preflight.Check(r.Context(), h.cfg)}
	if h.nextRuns != nil {
		resp.NextRuns = h.nextRuns()
	}

	latest, err := backup.Latest(h.cfg.Backups.DBDir)
	if err != nil {
		logging.Warn().Err(err).Msg("Reading latest backup artifact failed")
	}
	resp.LatestBackup = latest

	writeJSON(w, http.StatusOK, resp)
}

// triggerBackupRequest is the POST /api/v1/backups body.
type triggerBackupRequest struct {
	Kind string `json:"kind" validate:"required,oneof=db media"`
}

// triggerBackupResponse acknowledges a started backup run.
type triggerBackupResponse struct {
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

func (h *Handlers) handleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	var req triggerBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}

	if err := h.trigger(backup.Kind(req.Kind)); err != nil {
		if errors.Is(err, schedule.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		logging.Error().Err(err).Str("kind", req.Kind).Msg("Manual backup trigger failed")
		writeError(w, http.StatusInternalServerError, "backup trigger failed")
		return
	}

	logging.Info().Str("kind", req.Kind).Msg("Manual backup triggered")
	writeJSON(w, http.StatusAccepted, triggerBackupResponse{
		Kind:   req.Kind,
		Status: "started",
	})
}
