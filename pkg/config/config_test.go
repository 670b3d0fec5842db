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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/r1sync/pkg/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "r1sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 3, cfg.Sync.FailureLimit)
	assert.Equal(t, "r1", cfg.Sync.SlugPrefix)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Controller.Timeout)
	assert.Equal(t, uint32(5), cfg.Controller.Breaker.ConsecutiveFailures)
	assert.Equal(t, "R1SYNC_EVENTS", cfg.NATS.Stream)
	assert.False(t, cfg.NATS.Enabled)
	assert.Empty(t, cfg.Tenants)

	assert.Equal(t, 30*time.Minute, cfg.Sync.Service().RunTimeout)
	assert.Equal(t, 3, cfg.Sync.Scheduler().FailureLimit)
}

func TestLoadFileAndTenantDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: pg.internal
  max_conn_lifetime: 10m
sync:
  interval: 5m
  run_on_start: true
tenants:
  - tenant_id: 7
    name: acme
    r1_tenant_id: r1-acme
    client_id: id
    client_secret: secret
    toggles:
      vlans: true
    venues_selected: [v1, v2]
  - tenant_id: 8
    name: globex
    r1_tenant_id: r1-globex
    client_id: id
    client_secret: secret
    venue_mapping:
      mode: locations
      parent_site_ref: HQ
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, 10*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.True(t, cfg.Sync.RunOnStart)

	require.Len(t, cfg.Tenants, 2)

	acme := cfg.Tenants[0]
	assert.Equal(t, int64(7), acme.TenantID)
	assert.True(t, acme.Toggles.VLANs, "explicit toggle")
	assert.True(t, acme.Toggles.APs, "default toggle kept")
	assert.True(t, acme.Enabled)
	assert.Equal(t, models.DefaultAPIBaseURL, acme.APIBaseURL)
	assert.Equal(t, []string{"v1", "v2"}, acme.VenuesSelected)

	globex := cfg.Tenants[1]
	assert.Equal(t, models.VenueMappingLocations, globex.MappingMode())
	assert.Equal(t, models.DefaultChildLocationName, globex.VenueMapping.ChildLocationName)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  listen: \":9000\"\n")

	t.Setenv("R1SYNC_DATABASE__MAX_CONNS", "25")
	t.Setenv("R1SYNC_LOG_LEVEL", "debug")
	t.Setenv("R1SYNC_SYNC_INTERVAL", "1h")
	t.Setenv("R1SYNC_SERVER__LISTEN", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, time.Hour, cfg.Sync.Interval)
	assert.Equal(t, ":9100", cfg.Server.Listen)
}

func TestLoadRejectsInvalidTenant(t *testing.T) {
	path := writeConfig(t, `
tenants:
  - tenant_id: 7
    name: acme
    venue_mapping:
      mode: regions
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsDuplicateTenant(t *testing.T) {
	path := writeConfig(t, `
tenants:
  - {tenant_id: 7, name: acme, r1_tenant_id: a, client_id: id, client_secret: s}
  - {tenant_id: 7, name: acme, r1_tenant_id: b, client_id: id, client_secret: s}
`)

	_, err := Load(path)
	require.ErrorIs(t, err, errDuplicateTenant)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.url", envKey("R1SYNC_DATABASE_URL"))
	assert.Equal(t, "controller.breaker.open_timeout", envKey("R1SYNC_CONTROLLER__BREAKER__OPEN_TIMEOUT"))
	assert.Equal(t, "nats.enabled", envKey("R1SYNC_NATS_ENABLED"))
}
