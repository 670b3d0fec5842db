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

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/r1sync/pkg/models"
)

const configSelect = `
SELECT id, tenant_id, name, api_base_url, r1_tenant_id, client_id, client_secret, enabled,
    toggles, allow_stub, authoritative, default_site_group, default_device_role, default_manufacturer,
    venue_mapping, venues_cache, venues_selected, last_sync, last_sync_status, last_sync_message,
    sync_failures
FROM tenant_configs`

func scanConfig(row pgx.Row) (*models.TenantConfig, error) {
	var (
		c                            models.TenantConfig
		toggles, stub, auth, mapping []byte
		venuesCache, venuesSelected  []byte
		lastSync                     *time.Time
		lastStatus                   string
	)

	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.APIBaseURL, &c.R1TenantID, &c.ClientID, &c.ClientSecret,
		&c.Enabled, &toggles, &stub, &auth, &c.DefaultSiteGroup, &c.DefaultDeviceRole, &c.DefaultManufacturer,
		&mapping, &venuesCache, &venuesSelected, &lastSync, &lastStatus, &c.LastSyncMessage, &c.SyncFailures)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrConfigNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("scan tenant config: %w", err)
	}

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{toggles, &c.Toggles},
		{stub, &c.AllowStub},
		{auth, &c.Authoritative},
		{mapping, &c.VenueMapping},
		{venuesCache, &c.VenuesCache},
		{venuesSelected, &c.VenuesSelected},
	} {
		if err := fromJSONB(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("tenant config %d: %w", c.ID, err)
		}
	}

	c.LastSync = lastSync
	c.LastSyncStatus = models.LastSyncStatus(lastStatus)

	return &c, nil
}

type configColumns struct {
	toggles, stub, auth, mapping, venuesCache, venuesSelected []byte
}

func encodeConfig(cfg *models.TenantConfig) (configColumns, error) {
	var (
		cols configColumns
		err  error
	)

	for _, col := range []struct {
		dst *[]byte
		v   any
	}{
		{&cols.toggles, cfg.Toggles},
		{&cols.stub, cfg.AllowStub},
		{&cols.auth, cfg.Authoritative},
		{&cols.mapping, cfg.VenueMapping},
		{&cols.venuesCache, cfg.VenuesCache},
		{&cols.venuesSelected, cfg.VenuesSelected},
	} {
		if *col.dst, err = jsonb(col.v); err != nil {
			return cols, fmt.Errorf("tenant config %q: %w", cfg.Name, err)
		}
	}

	return cols, nil
}

// PutConfig inserts cfg when its ID is zero and assigns the new ID, otherwise
// it replaces the stored config.
func (s *Store) PutConfig(ctx context.Context, cfg *models.TenantConfig) error {
	cols, err := encodeConfig(cfg)
	if err != nil {
		return err
	}

	status := cfg.LastSyncStatus
	if status == "" {
		status = models.LastSyncNever
	}

	if cfg.ID == 0 {
		err = s.pool.QueryRow(ctx, `
INSERT INTO tenant_configs (tenant_id, name, api_base_url, r1_tenant_id, client_id, client_secret, enabled,
    toggles, allow_stub, authoritative, default_site_group, default_device_role, default_manufacturer,
    venue_mapping, venues_cache, venues_selected, last_sync, last_sync_status, last_sync_message, sync_failures)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
RETURNING id`,
			cfg.TenantID, cfg.Name, cfg.APIBaseURL, cfg.R1TenantID, cfg.ClientID, cfg.ClientSecret, cfg.Enabled,
			cols.toggles, cols.stub, cols.auth, cfg.DefaultSiteGroup, cfg.DefaultDeviceRole, cfg.DefaultManufacturer,
			cols.mapping, cols.venuesCache, cols.venuesSelected, cfg.LastSync, string(status), cfg.LastSyncMessage,
			cfg.SyncFailures).Scan(&cfg.ID)
		if err != nil {
			return fmt.Errorf("insert tenant config: %w", err)
		}

		return nil
	}

	tag, err := s.pool.Exec(ctx, `
UPDATE tenant_configs SET tenant_id = $2, name = $3, api_base_url = $4, r1_tenant_id = $5, client_id = $6,
    client_secret = $7, enabled = $8, toggles = $9, allow_stub = $10, authoritative = $11,
    default_site_group = $12, default_device_role = $13, default_manufacturer = $14, venue_mapping = $15,
    venues_cache = $16, venues_selected = $17, last_sync = $18, last_sync_status = $19,
    last_sync_message = $20, sync_failures = $21
WHERE id = $1`,
		cfg.ID, cfg.TenantID, cfg.Name, cfg.APIBaseURL, cfg.R1TenantID, cfg.ClientID, cfg.ClientSecret, cfg.Enabled,
		cols.toggles, cols.stub, cols.auth, cfg.DefaultSiteGroup, cfg.DefaultDeviceRole, cfg.DefaultManufacturer,
		cols.mapping, cols.venuesCache, cols.venuesSelected, cfg.LastSync, string(status), cfg.LastSyncMessage,
		cfg.SyncFailures)
	if err != nil {
		return fmt.Errorf("update tenant config: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrConfigNotFound
	}

	return nil
}

func (s *Store) GetConfig(ctx context.Context, id int64) (*models.TenantConfig, error) {
	return scanConfig(s.pool.QueryRow(ctx, configSelect+` WHERE id = $1`, id))
}

// ConfigByTenant returns the lowest-id config bound to tenantID.
func (s *Store) ConfigByTenant(ctx context.Context, tenantID int64) (*models.TenantConfig, error) {
	return scanConfig(s.pool.QueryRow(ctx, configSelect+` WHERE tenant_id = $1 ORDER BY id LIMIT 1`, tenantID))
}

// ListConfigs returns every config ordered by id.
func (s *Store) ListConfigs(ctx context.Context) ([]*models.TenantConfig, error) {
	rows, err := s.pool.Query(ctx, configSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tenant configs: %w", err)
	}
	defer rows.Close()

	var out []*models.TenantConfig

	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenant configs: %w", err)
	}

	return out, nil
}

// SaveSyncStatus persists the last-run fields of cfg.
func (s *Store) SaveSyncStatus(ctx context.Context, cfg *models.TenantConfig) error {
	return s.execConfig(ctx, `
UPDATE tenant_configs SET last_sync = $2, last_sync_status = $3, last_sync_message = $4
WHERE id = $1`, cfg.ID, cfg.LastSync, string(cfg.LastSyncStatus), cfg.LastSyncMessage)
}

func (s *Store) SaveVenues(ctx context.Context, id int64, venues []models.VenueRef) error {
	raw, err := jsonb(venues)
	if err != nil {
		return err
	}

	return s.execConfig(ctx, `UPDATE tenant_configs SET venues_cache = $2 WHERE id = $1`, id, raw)
}

// ResetFailures clears the consecutive failure counter.
func (s *Store) ResetFailures(ctx context.Context, id int64) error {
	return s.execConfig(ctx, `UPDATE tenant_configs SET sync_failures = 0 WHERE id = $1`, id)
}

// RecordFailure increments the failure counter and disables the config once
// it reaches limit. The increment and the check happen in one statement.
func (s *Store) RecordFailure(ctx context.Context, id int64, limit int) (int, bool, error) {
	var (
		failures int
		disabled bool
	)

	err := s.pool.QueryRow(ctx, `
UPDATE tenant_configs
SET sync_failures = sync_failures + 1,
    enabled = CASE WHEN $2::int > 0 AND sync_failures + 1 >= $2::int THEN FALSE ELSE enabled END
WHERE id = $1
RETURNING sync_failures, ($2::int > 0 AND sync_failures >= $2::int)`, id, limit).Scan(&failures, &disabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, models.ErrConfigNotFound
	}

	if err != nil {
		return 0, false, fmt.Errorf("record sync failure: %w", err)
	}

	return failures, disabled, nil
}

func (s *Store) execConfig(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update tenant config: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrConfigNotFound
	}

	return nil
}
