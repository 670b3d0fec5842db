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
	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/models"
)

// statements holds the SQL whose column lists depend on optional schema
// columns. The matching *Args builders produce the arguments in order.
type statements struct {
	caps inventory.Capabilities

	deviceSelect string
	deviceInsert string
	deviceUpdate string

	interfaceSelect string
	interfaceUpdate string

	vlanSelect  string
	vlanInsert  string
	vlanByScope string
}

func buildStatements(caps inventory.Capabilities) statements {
	s := statements{
		caps: caps,
		deviceSelect: `SELECT id, name, serial, site_id, NULL::bigint, tenant_id, device_type_id, role_id,
    status, description, primary_ip4_id FROM devices`,
		deviceInsert: `
INSERT INTO devices (name, serial, site_id, tenant_id, device_type_id, role_id, status, description, primary_ip4_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT DO NOTHING
RETURNING id`,
		deviceUpdate: `
UPDATE devices SET name = $2, serial = $3, site_id = $4, tenant_id = $5, device_type_id = $6,
    role_id = $7, status = $8, description = $9, primary_ip4_id = $10
WHERE id = $1`,

		interfaceSelect: `SELECT id, device_id, name, mac_address, enabled, speed_kbps, ''::text, description FROM interfaces`,
		interfaceUpdate: `
UPDATE interfaces SET mac_address = $2, enabled = $3, speed_kbps = $4, description = $5
WHERE id = $1`,

		vlanSelect: `SELECT id, tenant_id, NULL::bigint, vid, name FROM vlans`,
		vlanInsert: `
INSERT INTO vlans (tenant_id, vid, name)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING
RETURNING id`,
		vlanByScope: `tenant_id = $1 AND vid = $2`,
	}

	if caps.DeviceLocation {
		s.deviceSelect = `SELECT id, name, serial, site_id, location_id, tenant_id, device_type_id, role_id,
    status, description, primary_ip4_id FROM devices`
		s.deviceInsert = `
INSERT INTO devices (name, serial, site_id, tenant_id, device_type_id, role_id, status, description, primary_ip4_id, location_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT DO NOTHING
RETURNING id`
		s.deviceUpdate = `
UPDATE devices SET name = $2, serial = $3, site_id = $4, tenant_id = $5, device_type_id = $6,
    role_id = $7, status = $8, description = $9, primary_ip4_id = $10, location_id = $11
WHERE id = $1`
	}

	if caps.PoEMode {
		s.interfaceSelect = `SELECT id, device_id, name, mac_address, enabled, speed_kbps, poe_mode, description FROM interfaces`
		s.interfaceUpdate = `
UPDATE interfaces SET mac_address = $2, enabled = $3, speed_kbps = $4, description = $5, poe_mode = $6
WHERE id = $1`
	}

	if caps.VLANSiteScope {
		s.vlanSelect = `SELECT id, tenant_id, site_id, vid, name FROM vlans`
		s.vlanInsert = `
INSERT INTO vlans (tenant_id, vid, name, site_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT DO NOTHING
RETURNING id`
		s.vlanByScope = `tenant_id = $1 AND vid = $2 AND site_id IS NOT DISTINCT FROM $3`
	}

	return s
}

func (s *statements) deviceInsertArgs(d *models.Device) []any {
	args := []any{d.Name, d.Serial, d.SiteID, d.TenantID, d.DeviceTypeID, d.RoleID, d.Status, d.Description, d.PrimaryIP4ID}
	if s.caps.DeviceLocation {
		args = append(args, d.LocationID)
	}

	return args
}

func (s *statements) deviceUpdateArgs(d *models.Device) []any {
	args := []any{d.ID, d.Name, d.Serial, d.SiteID, d.TenantID, d.DeviceTypeID, d.RoleID, d.Status, d.Description, d.PrimaryIP4ID}
	if s.caps.DeviceLocation {
		args = append(args, d.LocationID)
	}

	return args
}

func (s *statements) interfaceUpdateArgs(i *models.Interface) []any {
	args := []any{i.ID, i.MACAddress, i.Enabled, i.SpeedKbps, i.Description}
	if s.caps.PoEMode {
		args = append(args, i.PoEMode)
	}

	return args
}

func (s *statements) vlanInsertArgs(v *models.VLAN) []any {
	args := []any{v.TenantID, v.VID, v.Name}
	if s.caps.VLANSiteScope {
		args = append(args, v.SiteID)
	}

	return args
}

func (s *statements) vlanScopeArgs(v *models.VLAN) []any {
	args := []any{v.TenantID, v.VID}
	if s.caps.VLANSiteScope {
		args = append(args, v.SiteID)
	}

	return args
}
