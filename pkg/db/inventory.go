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

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/models"
)

var _ inventory.Tx = (*tx)(nil)

const (
	siteGroupSelect    = `SELECT id, name, slug FROM site_groups`
	siteSelect         = `SELECT id, name, slug, group_id, tenant_id, status, description FROM sites`
	locationSelect     = `SELECT id, site_id, name, slug FROM locations`
	roleSelect         = `SELECT id, name, slug, color FROM device_roles`
	manufacturerSelect = `SELECT id, name, slug FROM manufacturers`
	deviceTypeSelect   = `SELECT id, manufacturer_id, model, slug FROM device_types`
	macSelect          = `SELECT id, mac, interface_id FROM mac_addresses`
	ipSelect           = `SELECT id, address, tenant_id, status, interface_id FROM ip_addresses`
	wlanSelect         = `SELECT id, tenant_id, ssid, status, auth_type FROM wireless_lans`
	cableSelect        = `SELECT id, a_interface_id, b_interface_id, status FROM cables`
	wirelessLinkSelect = `SELECT id, a_interface_id, b_interface_id, tenant_id, status, description FROM wireless_links`

	pairWhere = ` WHERE LEAST(a_interface_id, b_interface_id) = LEAST($1::bigint, $2::bigint)
  AND GREATEST(a_interface_id, b_interface_id) = GREATEST($1::bigint, $2::bigint)`
)

func scanSiteGroup(row pgx.Row) (*models.SiteGroup, error) {
	var g models.SiteGroup
	return one(&g, row.Scan(&g.ID, &g.Name, &g.Slug))
}

func scanSite(row pgx.Row) (*models.Site, error) {
	var s models.Site
	return one(&s, row.Scan(&s.ID, &s.Name, &s.Slug, &s.GroupID, &s.TenantID, &s.Status, &s.Description))
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	var l models.Location
	return one(&l, row.Scan(&l.ID, &l.SiteID, &l.Name, &l.Slug))
}

func scanDevice(row pgx.Row) (*models.Device, error) {
	var d models.Device

	return one(&d, row.Scan(&d.ID, &d.Name, &d.Serial, &d.SiteID, &d.LocationID, &d.TenantID,
		&d.DeviceTypeID, &d.RoleID, &d.Status, &d.Description, &d.PrimaryIP4ID))
}

func scanInterface(row pgx.Row) (*models.Interface, error) {
	var i models.Interface

	return one(&i, row.Scan(&i.ID, &i.DeviceID, &i.Name, &i.MACAddress, &i.Enabled, &i.SpeedKbps,
		&i.PoEMode, &i.Description))
}

func scanVLAN(row pgx.Row) (*models.VLAN, error) {
	var v models.VLAN
	return one(&v, row.Scan(&v.ID, &v.TenantID, &v.SiteID, &v.VID, &v.Name))
}

func (t *tx) EnsureSiteGroup(ctx context.Context, g *models.SiteGroup) (*models.SiteGroup, bool, error) {
	id, err := insertOrNothing(ctx, t.q,
		`INSERT INTO site_groups (name, slug) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING RETURNING id`,
		g.Name, g.Slug)
	if err != nil {
		return nil, false, fmt.Errorf("insert site group: %w", err)
	}

	if id != 0 {
		row := *g
		row.ID = id

		return &row, true, nil
	}

	cur, err := scanSiteGroup(t.q.QueryRow(ctx, siteGroupSelect+` WHERE slug = $1`, g.Slug))

	return cur, false, err
}

func (t *tx) UpdateSiteGroup(ctx context.Context, g *models.SiteGroup) error {
	return exec(ctx, t.q, `UPDATE site_groups SET name = $2, slug = $3 WHERE id = $1`, g.ID, g.Name, g.Slug)
}

func (t *tx) SiteByID(ctx context.Context, id int64) (*models.Site, error) {
	return scanSite(t.q.QueryRow(ctx, siteSelect+` WHERE id = $1`, id))
}

func (t *tx) SiteBySlug(ctx context.Context, slug string) (*models.Site, error) {
	return scanSite(t.q.QueryRow(ctx, siteSelect+` WHERE slug = $1`, slug))
}

func (t *tx) SiteByName(ctx context.Context, name string) (*models.Site, error) {
	return scanSite(t.q.QueryRow(ctx, siteSelect+` WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`, name))
}

func (t *tx) EnsureSite(ctx context.Context, s *models.Site) (*models.Site, bool, error) {
	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO sites (name, slug, group_id, tenant_id, status, description)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (slug) DO NOTHING
RETURNING id`, s.Name, s.Slug, s.GroupID, s.TenantID, s.Status, s.Description)
	if err != nil {
		return nil, false, fmt.Errorf("insert site: %w", err)
	}

	if id != 0 {
		row := *s
		row.ID = id

		return &row, true, nil
	}

	cur, err := t.SiteBySlug(ctx, s.Slug)

	return cur, false, err
}

func (t *tx) UpdateSite(ctx context.Context, s *models.Site) error {
	return exec(ctx, t.q, `
UPDATE sites SET name = $2, slug = $3, group_id = $4, tenant_id = $5, status = $6, description = $7
WHERE id = $1`, s.ID, s.Name, s.Slug, s.GroupID, s.TenantID, s.Status, s.Description)
}

func (t *tx) EnsureLocation(ctx context.Context, l *models.Location) (*models.Location, bool, error) {
	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO locations (site_id, name, slug) VALUES ($1, $2, $3)
ON CONFLICT (site_id, slug) DO NOTHING
RETURNING id`, l.SiteID, l.Name, l.Slug)
	if err != nil {
		return nil, false, fmt.Errorf("insert location: %w", err)
	}

	if id != 0 {
		row := *l
		row.ID = id

		return &row, true, nil
	}

	cur, err := scanLocation(t.q.QueryRow(ctx, locationSelect+` WHERE site_id = $1 AND slug = $2`, l.SiteID, l.Slug))

	return cur, false, err
}

func (t *tx) UpdateLocation(ctx context.Context, l *models.Location) error {
	return exec(ctx, t.q, `UPDATE locations SET site_id = $2, name = $3, slug = $4 WHERE id = $1`,
		l.ID, l.SiteID, l.Name, l.Slug)
}

func (t *tx) EnsureDeviceRole(ctx context.Context, r *models.DeviceRole) (*models.DeviceRole, bool, error) {
	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO device_roles (name, slug, color) VALUES ($1, $2, $3)
ON CONFLICT (slug) DO NOTHING
RETURNING id`, r.Name, r.Slug, r.Color)
	if err != nil {
		return nil, false, fmt.Errorf("insert device role: %w", err)
	}

	if id != 0 {
		row := *r
		row.ID = id

		return &row, true, nil
	}

	var cur models.DeviceRole

	out, err := one(&cur, t.q.QueryRow(ctx, roleSelect+` WHERE slug = $1`, r.Slug).
		Scan(&cur.ID, &cur.Name, &cur.Slug, &cur.Color))

	return out, false, err
}

func (t *tx) EnsureManufacturer(ctx context.Context, m *models.Manufacturer) (*models.Manufacturer, bool, error) {
	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO manufacturers (name, slug) VALUES ($1, $2)
ON CONFLICT (slug) DO NOTHING
RETURNING id`, m.Name, m.Slug)
	if err != nil {
		return nil, false, fmt.Errorf("insert manufacturer: %w", err)
	}

	if id != 0 {
		row := *m
		row.ID = id

		return &row, true, nil
	}

	var cur models.Manufacturer

	out, err := one(&cur, t.q.QueryRow(ctx, manufacturerSelect+` WHERE slug = $1`, m.Slug).
		Scan(&cur.ID, &cur.Name, &cur.Slug))

	return out, false, err
}

func (t *tx) UpdateManufacturer(ctx context.Context, m *models.Manufacturer) error {
	return exec(ctx, t.q, `UPDATE manufacturers SET name = $2, slug = $3 WHERE id = $1`, m.ID, m.Name, m.Slug)
}

func (t *tx) EnsureDeviceType(ctx context.Context, d *models.DeviceType) (*models.DeviceType, bool, error) {
	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO device_types (manufacturer_id, model, slug) VALUES ($1, $2, $3)
ON CONFLICT (manufacturer_id, slug) DO NOTHING
RETURNING id`, d.ManufacturerID, d.Model, d.Slug)
	if err != nil {
		return nil, false, fmt.Errorf("insert device type: %w", err)
	}

	if id != 0 {
		row := *d
		row.ID = id

		return &row, true, nil
	}

	var cur models.DeviceType

	out, err := one(&cur, t.q.QueryRow(ctx, deviceTypeSelect+` WHERE manufacturer_id = $1 AND slug = $2`,
		d.ManufacturerID, d.Slug).Scan(&cur.ID, &cur.ManufacturerID, &cur.Model, &cur.Slug))

	return out, false, err
}

func (t *tx) DeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	if serial == "" {
		return nil, inventory.ErrNotFound
	}

	return scanDevice(t.q.QueryRow(ctx, t.sql.deviceSelect+` WHERE serial = $1`, serial))
}

func (t *tx) DeviceBySiteName(ctx context.Context, siteID int64, name string) (*models.Device, error) {
	return scanDevice(t.q.QueryRow(ctx,
		t.sql.deviceSelect+` WHERE site_id = $1 AND name = $2 ORDER BY serial <> '', id LIMIT 1`, siteID, name))
}

func (t *tx) DeviceByMAC(ctx context.Context, tenantID, siteID int64, mac string) (*models.Device, error) {
	if t.caps.MACObjects {
		d, err := scanDevice(t.q.QueryRow(ctx, t.sql.deviceSelect+`
WHERE tenant_id = $1 AND site_id = $2 AND id = (
    SELECT i.device_id FROM mac_addresses m JOIN interfaces i ON i.id = m.interface_id
    WHERE m.mac = $3
)`, tenantID, siteID, mac))
		if !errors.Is(err, inventory.ErrNotFound) {
			return d, err
		}
	}

	return scanDevice(t.q.QueryRow(ctx, t.sql.deviceSelect+`
WHERE tenant_id = $1 AND site_id = $2 AND id = (
    SELECT i.device_id FROM interfaces i JOIN devices d ON d.id = i.device_id
    WHERE lower(i.mac_address) = lower($3) AND d.tenant_id = $1 AND d.site_id = $2
    ORDER BY i.id LIMIT 1
)`, tenantID, siteID, mac))
}

func (t *tx) EnsureDevice(ctx context.Context, d *models.Device) (*models.Device, bool, error) {
	id, err := insertOrNothing(ctx, t.q, t.sql.deviceInsert, t.sql.deviceInsertArgs(d)...)
	if err != nil {
		return nil, false, fmt.Errorf("insert device: %w", err)
	}

	if id != 0 {
		row := *d
		row.ID = id

		return &row, true, nil
	}

	var cur *models.Device
	if d.Serial != "" {
		cur, err = t.DeviceBySerial(ctx, d.Serial)
	} else {
		cur, err = scanDevice(t.q.QueryRow(ctx,
			t.sql.deviceSelect+` WHERE site_id = $1 AND name = $2 AND serial = ''`, d.SiteID, d.Name))
	}

	return cur, false, err
}

func (t *tx) UpdateDevice(ctx context.Context, d *models.Device) error {
	return exec(ctx, t.q, t.sql.deviceUpdate, t.sql.deviceUpdateArgs(d)...)
}

func (t *tx) EnsureInterface(ctx context.Context, i *models.Interface) (*models.Interface, bool, error) {
	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO interfaces (device_id, name, mac_address, enabled, speed_kbps, description)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (device_id, name) DO NOTHING
RETURNING id`, i.DeviceID, i.Name, i.MACAddress, i.Enabled, i.SpeedKbps, i.Description)
	if err != nil {
		return nil, false, fmt.Errorf("insert interface: %w", err)
	}

	if id != 0 {
		row := *i
		row.ID = id

		if t.caps.PoEMode && row.PoEMode != "" {
			if err := t.UpdateInterface(ctx, &row); err != nil {
				return nil, false, err
			}
		}

		return &row, true, nil
	}

	cur, err := scanInterface(t.q.QueryRow(ctx,
		t.sql.interfaceSelect+` WHERE device_id = $1 AND name = $2`, i.DeviceID, i.Name))

	return cur, false, err
}

func (t *tx) UpdateInterface(ctx context.Context, i *models.Interface) error {
	return exec(ctx, t.q, t.sql.interfaceUpdate, t.sql.interfaceUpdateArgs(i)...)
}

func (t *tx) EnsureMACAddress(ctx context.Context, m *models.MACAddress) (*models.MACAddress, bool, error) {
	if !t.caps.MACObjects {
		return nil, false, errUnsupported
	}

	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO mac_addresses (mac, interface_id) VALUES ($1, $2)
ON CONFLICT (mac) DO NOTHING
RETURNING id`, m.MAC, m.InterfaceID)
	if err != nil {
		return nil, false, fmt.Errorf("insert mac address: %w", err)
	}

	if id != 0 {
		row := *m
		row.ID = id

		return &row, true, nil
	}

	var cur models.MACAddress

	out, err := one(&cur, t.q.QueryRow(ctx, macSelect+` WHERE mac = $1`, m.MAC).
		Scan(&cur.ID, &cur.MAC, &cur.InterfaceID))

	return out, false, err
}

func (t *tx) UpdateMACAddress(ctx context.Context, m *models.MACAddress) error {
	if !t.caps.MACObjects {
		return errUnsupported
	}

	return exec(ctx, t.q, `UPDATE mac_addresses SET mac = $2, interface_id = $3 WHERE id = $1`,
		m.ID, m.MAC, m.InterfaceID)
}

func (t *tx) EnsureIPAddress(ctx context.Context, ip *models.IPAddress) (*models.IPAddress, bool, error) {
	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO ip_addresses (address, tenant_id, status, interface_id) VALUES ($1, $2, $3, $4)
ON CONFLICT (address, tenant_id) DO NOTHING
RETURNING id`, ip.Address, ip.TenantID, ip.Status, ip.InterfaceID)
	if err != nil {
		return nil, false, fmt.Errorf("insert ip address: %w", err)
	}

	if id != 0 {
		row := *ip
		row.ID = id

		return &row, true, nil
	}

	var cur models.IPAddress

	out, err := one(&cur, t.q.QueryRow(ctx, ipSelect+` WHERE address = $1 AND tenant_id = $2`,
		ip.Address, ip.TenantID).Scan(&cur.ID, &cur.Address, &cur.TenantID, &cur.Status, &cur.InterfaceID))

	return out, false, err
}

func (t *tx) UpdateIPAddress(ctx context.Context, ip *models.IPAddress) error {
	return exec(ctx, t.q, `
UPDATE ip_addresses SET address = $2, tenant_id = $3, status = $4, interface_id = $5
WHERE id = $1`, ip.ID, ip.Address, ip.TenantID, ip.Status, ip.InterfaceID)
}

func (t *tx) EnsureVLAN(ctx context.Context, v *models.VLAN) (*models.VLAN, bool, error) {
	id, err := insertOrNothing(ctx, t.q, t.sql.vlanInsert, t.sql.vlanInsertArgs(v)...)
	if err != nil {
		return nil, false, fmt.Errorf("insert vlan: %w", err)
	}

	if id != 0 {
		row := *v
		row.ID = id

		if !t.caps.VLANSiteScope {
			row.SiteID = nil
		}

		return &row, true, nil
	}

	cur, err := scanVLAN(t.q.QueryRow(ctx,
		t.sql.vlanSelect+` WHERE `+t.sql.vlanByScope+` ORDER BY id LIMIT 1`, t.sql.vlanScopeArgs(v)...))

	return cur, false, err
}

func (t *tx) UpdateVLAN(ctx context.Context, v *models.VLAN) error {
	return exec(ctx, t.q, `UPDATE vlans SET vid = $2, name = $3 WHERE id = $1`, v.ID, v.VID, v.Name)
}

func (t *tx) EnsureWirelessLAN(ctx context.Context, w *models.WirelessLAN) (*models.WirelessLAN, bool, error) {
	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO wireless_lans (tenant_id, ssid, status, auth_type) VALUES ($1, $2, $3, $4)
ON CONFLICT (tenant_id, ssid) DO NOTHING
RETURNING id`, w.TenantID, w.SSID, w.Status, w.AuthType)
	if err != nil {
		return nil, false, fmt.Errorf("insert wireless lan: %w", err)
	}

	if id != 0 {
		row := *w
		row.ID = id

		return &row, true, nil
	}

	var cur models.WirelessLAN

	out, err := one(&cur, t.q.QueryRow(ctx, wlanSelect+` WHERE tenant_id = $1 AND ssid = $2`,
		w.TenantID, w.SSID).Scan(&cur.ID, &cur.TenantID, &cur.SSID, &cur.Status, &cur.AuthType))

	return out, false, err
}

func (t *tx) EnsureCable(ctx context.Context, c *models.Cable) (*models.Cable, bool, error) {
	if c.AInterfaceID == c.BInterfaceID {
		return nil, false, errCableEnds
	}

	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO cables (a_interface_id, b_interface_id, status) VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING
RETURNING id`, c.AInterfaceID, c.BInterfaceID, c.Status)
	if err != nil {
		return nil, false, fmt.Errorf("insert cable: %w", err)
	}

	if id != 0 {
		row := *c
		row.ID = id

		return &row, true, nil
	}

	var cur models.Cable

	out, err := one(&cur, t.q.QueryRow(ctx, cableSelect+pairWhere, c.AInterfaceID, c.BInterfaceID).
		Scan(&cur.ID, &cur.AInterfaceID, &cur.BInterfaceID, &cur.Status))

	return out, false, err
}

func (t *tx) EnsureWirelessLink(ctx context.Context, l *models.WirelessLink) (*models.WirelessLink, bool, error) {
	if !t.caps.WirelessLinks {
		return nil, false, errUnsupported
	}

	if l.AInterfaceID == l.BInterfaceID {
		return nil, false, errCableEnds
	}

	id, err := insertOrNothing(ctx, t.q, `
INSERT INTO wireless_links (a_interface_id, b_interface_id, tenant_id, status, description)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT DO NOTHING
RETURNING id`, l.AInterfaceID, l.BInterfaceID, l.TenantID, l.Status, l.Description)
	if err != nil {
		return nil, false, fmt.Errorf("insert wireless link: %w", err)
	}

	if id != 0 {
		row := *l
		row.ID = id

		return &row, true, nil
	}

	var cur models.WirelessLink

	out, err := one(&cur, t.q.QueryRow(ctx, wirelessLinkSelect+pairWhere, l.AInterfaceID, l.BInterfaceID).
		Scan(&cur.ID, &cur.AInterfaceID, &cur.BInterfaceID, &cur.TenantID, &cur.Status, &cur.Description))

	return out, false, err
}

func (t *tx) UpsertClient(ctx context.Context, c *models.ClientRecord) error {
	err := t.q.QueryRow(ctx, `
INSERT INTO r1_clients (tenant_id, venue_id, network_id, r1_id, mac, ip_address, hostname, ssid, vlan, last_seen, raw)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (tenant_id, mac) DO UPDATE SET
    venue_id = EXCLUDED.venue_id,
    network_id = EXCLUDED.network_id,
    r1_id = EXCLUDED.r1_id,
    ip_address = EXCLUDED.ip_address,
    hostname = EXCLUDED.hostname,
    ssid = EXCLUDED.ssid,
    vlan = EXCLUDED.vlan,
    last_seen = EXCLUDED.last_seen,
    raw = EXCLUDED.raw
RETURNING id`, c.TenantID, c.VenueID, c.NetworkID, c.R1ID, c.MAC, c.IPAddress, c.Hostname, c.SSID,
		c.VLAN, c.LastSeen, rawJSON(c.Raw)).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}

	return nil
}
