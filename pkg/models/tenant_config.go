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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// VenueMappingMode selects how controller venues land in the location hierarchy.
type VenueMappingMode string

const (
	// VenueMappingSites maps each venue to its own top-level site.
	VenueMappingSites VenueMappingMode = "sites"
	// VenueMappingLocations maps each venue to a location under one parent site.
	VenueMappingLocations VenueMappingMode = "locations"
	// VenueMappingBoth maps each venue to a site plus a child location.
	VenueMappingBoth VenueMappingMode = "both"
)

// LastSyncStatus is the outcome recorded on a TenantConfig.
type LastSyncStatus string

const (
	LastSyncNever   LastSyncStatus = "never"
	LastSyncSuccess LastSyncStatus = "success"
	LastSyncFailed  LastSyncStatus = "failed"
)

const (
	DefaultAPIBaseURL        = "https://api.eu.ruckus.cloud"
	DefaultManufacturer      = "RUCKUS Networks"
	DefaultChildLocationName = "Venue"
	DefaultDeviceRole        = "Device"
)

// SyncToggles gates each category of synchronized data.
type SyncToggles struct {
	WLANs         bool `json:"wlans" koanf:"wlans"`
	VLANs         bool `json:"vlans" koanf:"vlans"`
	APs           bool `json:"aps" koanf:"aps"`
	Switches      bool `json:"switches" koanf:"switches"`
	Interfaces    bool `json:"interfaces" koanf:"interfaces"`
	WifiClients   bool `json:"wifi_clients" koanf:"wifi_clients"`
	WiredClients  bool `json:"wired_clients" koanf:"wired_clients"`
	Cabling       bool `json:"cabling" koanf:"cabling"`
	WirelessLinks bool `json:"wireless_links" koanf:"wireless_links"`
}

func (t SyncToggles) String() string {
	return fmt.Sprintf("wlans=%t vlans=%t aps=%t switches=%t interfaces=%t wifi_clients=%t wired_clients=%t cabling=%t wireless_links=%t",
		t.WLANs, t.VLANs, t.APs, t.Switches, t.Interfaces, t.WifiClients, t.WiredClients, t.Cabling, t.WirelessLinks)
}

// StubPolicy permits placeholder objects when a peer is only partially known.
type StubPolicy struct {
	Devices  bool `json:"devices" koanf:"devices"`
	VLANs    bool `json:"vlans" koanf:"vlans"`
	Wireless bool `json:"wireless" koanf:"wireless"`
}

// AuthoritativePolicy marks categories this sync fully owns. Stale object
// removal is not implemented; the flags are carried and reported only.
type AuthoritativePolicy struct {
	Devices    bool `json:"devices" koanf:"devices"`
	Interfaces bool `json:"interfaces" koanf:"interfaces"`
	IPs        bool `json:"ips" koanf:"ips"`
	VLANs      bool `json:"vlans" koanf:"vlans"`
	Wireless   bool `json:"wireless" koanf:"wireless"`
	Cabling    bool `json:"cabling" koanf:"cabling"`
}

func (a AuthoritativePolicy) String() string {
	var owned []string

	for name, on := range map[string]bool{
		"cabling": a.Cabling, "devices": a.Devices, "interfaces": a.Interfaces,
		"ips": a.IPs, "vlans": a.VLANs, "wireless": a.Wireless,
	} {
		if on {
			owned = append(owned, name)
		}
	}

	if len(owned) == 0 {
		return "none"
	}

	sort.Strings(owned)

	return strings.Join(owned, ",")
}

// VenueMapping configures the venue mapper.
type VenueMapping struct {
	Mode              VenueMappingMode `json:"mode" koanf:"mode" validate:"omitempty,oneof=sites locations both"`
	ChildLocationName string           `json:"child_location_name" koanf:"child_location_name" validate:"max=100"`
	ParentSiteRef     string           `json:"parent_site_ref" koanf:"parent_site_ref" validate:"required_if=Mode locations"`
}

// VenueRef is a cached (id, name) venue pair.
type VenueRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TenantConfig binds one controller tenant to one inventory tenant.
type TenantConfig struct {
	ID       int64  `json:"id" koanf:"id"`
	TenantID int64  `json:"tenant_id" koanf:"tenant_id" validate:"required"`
	Name     string `json:"name" koanf:"name" validate:"required,max=200"`

	APIBaseURL   string `json:"api_base_url" koanf:"api_base_url" validate:"required,url"`
	R1TenantID   string `json:"r1_tenant_id" koanf:"r1_tenant_id" validate:"required,max=128"`
	ClientID     string `json:"client_id" koanf:"client_id" validate:"required,max=256"`
	ClientSecret string `json:"client_secret,omitempty" koanf:"client_secret" validate:"required,max=256"`
	Enabled      bool   `json:"enabled" koanf:"enabled"`

	Toggles       SyncToggles         `json:"toggles" koanf:"toggles"`
	AllowStub     StubPolicy          `json:"allow_stub" koanf:"allow_stub"`
	Authoritative AuthoritativePolicy `json:"authoritative" koanf:"authoritative"`

	DefaultSiteGroup    string `json:"default_site_group" koanf:"default_site_group" validate:"max=200"`
	DefaultDeviceRole   string `json:"default_device_role" koanf:"default_device_role" validate:"max=200"`
	DefaultManufacturer string `json:"default_manufacturer" koanf:"default_manufacturer" validate:"max=200"`

	VenueMapping   VenueMapping `json:"venue_mapping" koanf:"venue_mapping"`
	VenuesCache    []VenueRef   `json:"venues_cache" koanf:"-"`
	VenuesSelected []string     `json:"venues_selected" koanf:"venues_selected"`

	LastSync        *time.Time     `json:"last_sync,omitempty" koanf:"-"`
	LastSyncStatus  LastSyncStatus `json:"last_sync_status" koanf:"-"`
	LastSyncMessage string         `json:"last_sync_message" koanf:"-"`
	SyncFailures    int            `json:"sync_failures" koanf:"-"`
}

// NewTenantConfig returns a config populated with the documented defaults.
func NewTenantConfig() *TenantConfig {
	return &TenantConfig{
		APIBaseURL: DefaultAPIBaseURL,
		Enabled:    true,
		Toggles: SyncToggles{
			WLANs:         true,
			APs:           true,
			Switches:      true,
			Interfaces:    true,
			WifiClients:   true,
			WiredClients:  true,
			Cabling:       true,
			WirelessLinks: true,
		},
		AllowStub:           StubPolicy{Devices: true, VLANs: true, Wireless: true},
		DefaultManufacturer: DefaultManufacturer,
		VenueMapping: VenueMapping{
			Mode:              VenueMappingSites,
			ChildLocationName: DefaultChildLocationName,
		},
		LastSyncStatus: LastSyncNever,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the static shape of the config.
func (c *TenantConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("tenant config %q: %w", c.Name, err)
	}

	return nil
}

// MappingMode returns the configured mode, lower-cased, defaulting to sites.
func (c *TenantConfig) MappingMode() VenueMappingMode {
	mode := VenueMappingMode(strings.ToLower(strings.TrimSpace(string(c.VenueMapping.Mode))))
	if mode == "" {
		return VenueMappingSites
	}

	return mode
}

// VenueSelected reports whether the venue passes the selection filter. A
// selection without any non-blank id admits every venue.
func (c *TenantConfig) VenueSelected(ids ...string) bool {
	filtered := false

	for _, sel := range c.VenuesSelected {
		if sel = strings.TrimSpace(sel); sel == "" {
			continue
		}

		filtered = true

		for _, id := range ids {
			if strings.TrimSpace(id) == sel {
				return true
			}
		}
	}

	return !filtered
}

// Redacted returns a copy safe for display.
func (c *TenantConfig) Redacted() *TenantConfig {
	cp := *c
	if cp.ClientSecret != "" {
		cp.ClientSecret = "********"
	}

	return &cp
}
