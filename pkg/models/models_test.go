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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *TenantConfig {
	cfg := NewTenantConfig()
	cfg.ID = 7
	cfg.TenantID = 3
	cfg.Name = "acme"
	cfg.R1TenantID = "r1-tenant"
	cfg.ClientID = "client"
	cfg.ClientSecret = "secret"

	return cfg
}

func TestNewTenantConfigDefaults(t *testing.T) {
	cfg := NewTenantConfig()

	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.Toggles.VLANs)
	assert.True(t, cfg.Toggles.APs)
	assert.True(t, cfg.Toggles.WirelessLinks)
	assert.True(t, cfg.AllowStub.Devices)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, VenueMappingSites, cfg.MappingMode())
	assert.Equal(t, LastSyncNever, cfg.LastSyncStatus)
	assert.Equal(t, "none", cfg.Authoritative.String())
}

func TestTenantConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TenantConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*TenantConfig) {}},
		{name: "missing secret", mutate: func(c *TenantConfig) { c.ClientSecret = "" }, wantErr: true},
		{name: "bad url", mutate: func(c *TenantConfig) { c.APIBaseURL = "not a url" }, wantErr: true},
		{name: "bad mode", mutate: func(c *TenantConfig) { c.VenueMapping.Mode = "zones" }, wantErr: true},
		{
			name:    "locations without parent",
			mutate:  func(c *TenantConfig) { c.VenueMapping.Mode = VenueMappingLocations },
			wantErr: true,
		},
		{
			name: "locations with parent",
			mutate: func(c *TenantConfig) {
				c.VenueMapping.Mode = VenueMappingLocations
				c.VenueMapping.ParentSiteRef = "campus"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestVenueSelected(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.VenueSelected("anything"))

	cfg.VenuesSelected = []string{"v1", "v3"}
	assert.True(t, cfg.VenueSelected("v1"))
	assert.True(t, cfg.VenueSelected("", "v3"))
	assert.False(t, cfg.VenueSelected("v2"))
	assert.False(t, cfg.VenueSelected(""))
}

func TestRedacted(t *testing.T) {
	cfg := validConfig()
	red := cfg.Redacted()

	assert.Equal(t, "********", red.ClientSecret)
	assert.Equal(t, "secret", cfg.ClientSecret)
}

func TestAuthoritativeString(t *testing.T) {
	a := AuthoritativePolicy{VLANs: true, Devices: true}
	assert.Equal(t, "devices,vlans", a.String())
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	require.NoError(t, json.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, time.Duration(d))

	require.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"2s"`, string(out))
}

func TestSyncRunLifecycleHelpers(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	run := NewSyncRun(validConfig(), start)

	assert.Equal(t, RunStatusRunning, run.Status)
	assert.False(t, run.Status.Final())
	assert.Zero(t, run.Duration())

	end := start.Add(3 * time.Second)
	run.Finished = &end
	run.Status = RunStatusSuccess

	assert.True(t, run.Status.Final())
	assert.Equal(t, 3*time.Second, run.Duration())

	ev := NewSyncRunEvent(run)
	assert.Equal(t, run.ID.String(), ev.RunID)
	assert.Equal(t, Duration(3*time.Second), ev.Duration)
}

func TestSameRef(t *testing.T) {
	assert.True(t, SameRef(nil, nil))
	assert.False(t, SameRef(Int64Ptr(1), nil))
	assert.True(t, SameRef(Int64Ptr(2), Int64Ptr(2)))
	assert.False(t, SameRef(Int64Ptr(2), Int64Ptr(3)))
}
