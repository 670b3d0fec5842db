/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/syncerr"
	"github.com/carverauto/r1sync/pkg/version"
)

type errorResponse struct {
	Error string `json:"error"`
}

type syncResponse struct {
	*models.SyncOutcome
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a sync error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, models.ErrConfigNotFound) {
		return http.StatusNotFound
	}

	switch syncerr.KindOf(err) {
	case syncerr.KindConfiguration:
		return http.StatusUnprocessableEntity
	case syncerr.KindAuthentication, syncerr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func configID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})

			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.GetVersion()})
}

// handleListConfigs returns every config with its client secret removed.
func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	cfgs, err := s.configs.ListConfigs(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list configs")
		writeError(w, http.StatusInternalServerError, "failed to list configs")

		return
	}

	out := make([]models.TenantConfig, 0, len(cfgs))

	for _, c := range cfgs {
		redacted := *c
		redacted.ClientSecret = ""
		out = append(out, redacted)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid config id")
		return
	}

	limit := defaultRunLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		limit = min(n, maxRunLimit)
	}

	runs, err := s.runs.ListRuns(r.Context(), id, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("config_id", id).Msg("Failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")

		return
	}

	if runs == nil {
		runs = []*models.SyncRun{}
	}

	writeJSON(w, http.StatusOK, runs)
}

// handleSync runs one sync synchronously. Concurrent triggers for the same
// id get 409.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid config id")
		return
	}

	if !s.claim(id) {
		writeError(w, http.StatusConflict, "sync already running for this config")
		return
	}
	defer s.release(id)

	outcome, err := s.syncer.RunSync(r.Context(), id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("config_id", id).Msg("Triggered sync failed")

		if outcome == nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		writeJSON(w, statusFor(err), syncResponse{
			SyncOutcome: outcome,
			Error:       err.Error(),
			Kind:        syncerr.KindOf(err).String(),
		})

		return
	}

	writeJSON(w, http.StatusOK, syncResponse{SyncOutcome: outcome})
}

func (s *Server) handleRefreshVenues(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid config id")
		return
	}

	venues, err := s.syncer.RefreshVenues(r.Context(), id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("config_id", id).Msg("Venue refresh failed")
		writeError(w, statusFor(err), err.Error())

		return
	}

	if venues == nil {
		venues = []models.VenueRef{}
	}

	writeJSON(w, http.StatusOK, venues)
}
