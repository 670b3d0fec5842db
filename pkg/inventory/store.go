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

// Package inventory is the get-or-create-then-reconcile layer between the
// sync orchestrator and the inventory-of-record store.
package inventory

import (
	"context"
	"errors"

	"github.com/carverauto/r1sync/pkg/models"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("inventory object not found")

// Capabilities describes optional features of the backing schema. A store
// resolves them once when it is constructed.
type Capabilities struct {
	// MACObjects means MAC addresses are standalone rows bound to interfaces.
	MACObjects bool `json:"mac_objects"`
	// DeviceLocation means devices carry an optional location reference.
	DeviceLocation bool `json:"device_location"`
	// VLANSiteScope means VLANs are keyed per site rather than per tenant.
	VLANSiteScope bool `json:"vlan_site_scope"`
	WirelessLinks bool `json:"wireless_links"`
	PoEMode       bool `json:"poe_mode"`
}

// AllCapabilities is the capability set of a current schema.
func AllCapabilities() Capabilities {
	return Capabilities{
		MACObjects:     true,
		DeviceLocation: true,
		VLANSiteScope:  true,
		WirelessLinks:  true,
		PoEMode:        true,
	}
}

// Store opens transactions against the inventory.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Capabilities() Capabilities
}

// Tx is a Repo whose writes become visible together on Commit.
type Tx interface {
	Repo
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repo is the natural-key access surface of the store.
//
// Ensure* inserts the given object unless a row with the same natural key
// exists, and returns the stored row plus whether it was created. It must be
// safe against concurrent inserts of the same key. Update* writes every
// reconcilable field of an existing row. Lookups return ErrNotFound when
// nothing matches.
type Repo interface {
	Capabilities() Capabilities

	// EnsureSiteGroup is keyed by slug.
	EnsureSiteGroup(ctx context.Context, g *models.SiteGroup) (*models.SiteGroup, bool, error)
	UpdateSiteGroup(ctx context.Context, g *models.SiteGroup) error

	SiteByID(ctx context.Context, id int64) (*models.Site, error)
	SiteBySlug(ctx context.Context, slug string) (*models.Site, error)
	// SiteByName matches case-insensitively and prefers the lowest id.
	SiteByName(ctx context.Context, name string) (*models.Site, error)
	// EnsureSite is keyed by slug.
	EnsureSite(ctx context.Context, s *models.Site) (*models.Site, bool, error)
	UpdateSite(ctx context.Context, s *models.Site) error

	// EnsureLocation is keyed by (site, slug).
	EnsureLocation(ctx context.Context, l *models.Location) (*models.Location, bool, error)
	UpdateLocation(ctx context.Context, l *models.Location) error

	// EnsureDeviceRole is keyed by slug.
	EnsureDeviceRole(ctx context.Context, r *models.DeviceRole) (*models.DeviceRole, bool, error)
	// EnsureManufacturer is keyed by slug.
	EnsureManufacturer(ctx context.Context, m *models.Manufacturer) (*models.Manufacturer, bool, error)
	UpdateManufacturer(ctx context.Context, m *models.Manufacturer) error
	// EnsureDeviceType is keyed by (manufacturer, slug).
	EnsureDeviceType(ctx context.Context, t *models.DeviceType) (*models.DeviceType, bool, error)

	DeviceBySerial(ctx context.Context, serial string) (*models.Device, error)
	// DeviceBySiteName prefers a device without a serial when several share
	// the name.
	DeviceBySiteName(ctx context.Context, siteID int64, name string) (*models.Device, error)
	// DeviceByMAC resolves a device of the tenant at the site through a bound
	// MAC object first, then through an interface MAC.
	DeviceByMAC(ctx context.Context, tenantID, siteID int64, mac string) (*models.Device, error)
	// EnsureDevice is keyed by serial when set, else by (site, name).
	EnsureDevice(ctx context.Context, d *models.Device) (*models.Device, bool, error)
	UpdateDevice(ctx context.Context, d *models.Device) error

	// EnsureInterface is keyed by (device, name).
	EnsureInterface(ctx context.Context, i *models.Interface) (*models.Interface, bool, error)
	UpdateInterface(ctx context.Context, i *models.Interface) error

	// EnsureMACAddress is keyed by MAC, across tenants.
	EnsureMACAddress(ctx context.Context, m *models.MACAddress) (*models.MACAddress, bool, error)
	UpdateMACAddress(ctx context.Context, m *models.MACAddress) error

	// EnsureIPAddress is keyed by (address, tenant).
	EnsureIPAddress(ctx context.Context, ip *models.IPAddress) (*models.IPAddress, bool, error)
	UpdateIPAddress(ctx context.Context, ip *models.IPAddress) error

	// EnsureVLAN is keyed by (tenant, vid, site).
	EnsureVLAN(ctx context.Context, v *models.VLAN) (*models.VLAN, bool, error)
	UpdateVLAN(ctx context.Context, v *models.VLAN) error

	// EnsureWirelessLAN is keyed by (tenant, ssid).
	EnsureWirelessLAN(ctx context.Context, w *models.WirelessLAN) (*models.WirelessLAN, bool, error)

	// EnsureCable is keyed by the unordered interface pair.
	EnsureCable(ctx context.Context, c *models.Cable) (*models.Cable, bool, error)
	// EnsureWirelessLink is keyed by the unordered interface pair.
	EnsureWirelessLink(ctx context.Context, l *models.WirelessLink) (*models.WirelessLink, bool, error)

	// UpsertClient overwrites the record for (tenant, mac).
	UpsertClient(ctx context.Context, c *models.ClientRecord) error
}
