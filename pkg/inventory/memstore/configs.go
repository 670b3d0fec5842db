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

package memstore

import (
	"context"
	"sort"

	"github.com/carverauto/r1sync/pkg/models"
)

func copyConfig(c models.TenantConfig) *models.TenantConfig {
	c.VenuesCache = append([]models.VenueRef(nil), c.VenuesCache...)
	c.VenuesSelected = append([]string(nil), c.VenuesSelected...)

	if c.LastSync != nil {
		t := *c.LastSync
		c.LastSync = &t
	}

	return &c
}

// PutConfig inserts or replaces cfg. A zero ID is assigned.
func (s *Store) PutConfig(_ context.Context, cfg *models.TenantConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.ID == 0 {
		s.nextCfg++
		cfg.ID = s.nextCfg
	} else if cfg.ID > s.nextCfg {
		s.nextCfg = cfg.ID
	}

	s.configs[cfg.ID] = *copyConfig(*cfg)

	return nil
}

func (s *Store) GetConfig(_ context.Context, id int64) (*models.TenantConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.configs[id]
	if !ok {
		return nil, models.ErrConfigNotFound
	}

	return copyConfig(c), nil
}

// ConfigByTenant returns the lowest-id config bound to tenantID.
func (s *Store) ConfigByTenant(_ context.Context, tenantID int64) (*models.TenantConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := first(s.configs, func(x models.TenantConfig) bool { return x.TenantID == tenantID })
	if !ok {
		return nil, models.ErrConfigNotFound
	}

	return copyConfig(c), nil
}

// ListConfigs returns every config ordered by id.
func (s *Store) ListConfigs(context.Context) ([]*models.TenantConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := sorted(s.configs)
	out := make([]*models.TenantConfig, 0, len(rows))

	for _, c := range rows {
		out = append(out, copyConfig(c))
	}

	return out, nil
}

func (s *Store) withConfig(id int64, fn func(c *models.TenantConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.configs[id]
	if !ok {
		return models.ErrConfigNotFound
	}

	fn(&c)
	s.configs[id] = c

	return nil
}

// SaveSyncStatus persists the last-run fields of cfg.
func (s *Store) SaveSyncStatus(_ context.Context, cfg *models.TenantConfig) error {
	return s.withConfig(cfg.ID, func(c *models.TenantConfig) {
		c.LastSync = cfg.LastSync
		c.LastSyncStatus = cfg.LastSyncStatus
		c.LastSyncMessage = cfg.LastSyncMessage
	})
}

func (s *Store) SaveVenues(_ context.Context, id int64, venues []models.VenueRef) error {
	return s.withConfig(id, func(c *models.TenantConfig) {
		c.VenuesCache = append([]models.VenueRef(nil), venues...)
	})
}

// ResetFailures clears the consecutive failure counter.
func (s *Store) ResetFailures(_ context.Context, id int64) error {
	return s.withConfig(id, func(c *models.TenantConfig) { c.SyncFailures = 0 })
}

// RecordFailure increments the failure counter and disables the config once
// it reaches limit.
func (s *Store) RecordFailure(_ context.Context, id int64, limit int) (int, bool, error) {
	var (
		failures int
		disabled bool
	)

	err := s.withConfig(id, func(c *models.TenantConfig) {
		c.SyncFailures++
		failures = c.SyncFailures

		if limit > 0 && failures >= limit {
			c.Enabled = false
			disabled = true
		}
	})

	return failures, disabled, err
}

// StartRun appends run to the log.
func (s *Store) StartRun(_ context.Context, run *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, *run)

	return nil
}

// FinishRun stores the final state of a running run.
func (s *Store) FinishRun(_ context.Context, run *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.runs {
		if s.runs[i].ID != run.ID {
			continue
		}

		if s.runs[i].Status.Final() {
			return models.ErrRunFinalized
		}

		s.runs[i] = *run

		return nil
	}

	return models.ErrRunNotFound
}

// ListRuns returns the newest runs of a config first. A non-positive limit
// returns all of them.
func (s *Store) ListRuns(_ context.Context, configID int64, limit int) ([]*models.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.SyncRun

	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].ConfigID == configID {
			r := s.runs[i]
			out = append(out, &r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Started.After(out[j].Started) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}
