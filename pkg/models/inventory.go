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

// Inventory object types. IDs are assigned by the store; zero means not yet
// persisted. Optional references are pointers.

const (
	StatusActive = "active"

	CableStatusConnected = "connected"

	WLANAuthOpen = "open"

	PoEModePSE = "pse"

	DefaultRoleColor = "9e9e9e"
)

type SiteGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Site struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	GroupID     *int64 `json:"group_id,omitempty"`
	TenantID    int64  `json:"tenant_id"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// Location is a sub-location under a site. Unique per (SiteID, Slug).
type Location struct {
	ID     int64  `json:"id"`
	SiteID int64  `json:"site_id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
}

type DeviceRole struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

type Manufacturer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type DeviceType struct {
	ID             int64  `json:"id"`
	ManufacturerID int64  `json:"manufacturer_id"`
	Model          string `json:"model"`
	Slug           string `json:"slug"`
}

// Device is either infrastructure (AP, switch, topology node) or a client.
// Serial is unique when non-empty; (SiteID, Name) is unique otherwise.
type Device struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Serial       string `json:"serial"`
	SiteID       int64  `json:"site_id"`
	LocationID   *int64 `json:"location_id,omitempty"`
	TenantID     int64  `json:"tenant_id"`
	DeviceTypeID int64  `json:"device_type_id"`
	RoleID       int64  `json:"role_id"`
	Status       string `json:"status"`
	Description  string `json:"description"`
	PrimaryIP4ID *int64 `json:"primary_ip4_id,omitempty"`
}

// Interface is unique per (DeviceID, Name).
type Interface struct {
	ID          int64  `json:"id"`
	DeviceID    int64  `json:"device_id"`
	Name        string `json:"name"`
	MACAddress  string `json:"mac_address"`
	Enabled     bool   `json:"enabled"`
	SpeedKbps   *int64 `json:"speed_kbps,omitempty"`
	PoEMode     string `json:"poe_mode"`
	Description string `json:"description"`
}

// MACAddress is unique per MAC across all tenants.
type MACAddress struct {
	ID          int64  `json:"id"`
	MAC         string `json:"mac"`
	InterfaceID *int64 `json:"interface_id,omitempty"`
}

// IPAddress is unique per (Address, TenantID). Address carries a prefix length.
type IPAddress struct {
	ID          int64  `json:"id"`
	Address     string `json:"address"`
	TenantID    int64  `json:"tenant_id"`
	Status      string `json:"status"`
	InterfaceID *int64 `json:"interface_id,omitempty"`
}

// VLAN is unique per (TenantID, VID, SiteID).
type VLAN struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	SiteID   *int64 `json:"site_id,omitempty"`
	VID      int    `json:"vid"`
	Name     string `json:"name"`
}

// WirelessLAN is unique per (TenantID, SSID).
type WirelessLAN struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	SSID     string `json:"ssid"`
	Status   string `json:"status"`
	AuthType string `json:"auth_type"`
}

// Cable joins two interfaces. The pair is unordered.
type Cable struct {
	ID           int64  `json:"id"`
	AInterfaceID int64  `json:"a_interface_id"`
	BInterfaceID int64  `json:"b_interface_id"`
	Status       string `json:"status"`
}

// WirelessLink joins two mesh interfaces. The pair is unordered.
type WirelessLink struct {
	ID           int64  `json:"id"`
	AInterfaceID int64  `json:"a_interface_id"`
	BInterfaceID int64  `json:"b_interface_id"`
	TenantID     int64  `json:"tenant_id"`
	Status       string `json:"status"`
	Description  string `json:"description"`
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// SameRef reports whether two optional references point at the same row.
func SameRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
