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

package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/models"
)

// ClientSpec describes an end-user device seen by an AP or a switch.
type ClientSpec struct {
	Wired       bool
	MAC         string
	Hostname    string
	Model       string
	Description string
	IP          string
}

// ClientDevice is the result of reconciling a client.
type ClientDevice struct {
	Device    *models.Device
	Interface *models.Interface
	IP        *models.IPAddress
}

var (
	wirelessPlaceholderNames = []string{"wlan0", "unknown", "client"}
	wiredPlaceholderNames    = []string{"unknown", "client"}
)

func isPlaceholderName(name string, placeholders []string) bool {
	if name == "" {
		return true
	}

	for _, p := range placeholders {
		if strings.EqualFold(name, p) {
			return true
		}
	}

	return false
}

// ClientName builds the device name for a client: "CL-" (or "CL-W-" for
// wired clients), an optional hostname slug, then the MAC serial.
func ClientName(wired bool, hostname, serial string) string {
	prefix := "CL-"
	if wired {
		prefix = "CL-W-"
	}

	hostname = strings.TrimSpace(hostname)
	if hostname != "" && !identity.LooksLikeMAC(hostname) {
		prefix += identity.SlugMax(hostname, hostPartMaxLen) + "-"
	}

	return identity.Clip(prefix+identity.Clip(serial, 12), deviceNameMaxLen)
}

// ClientDevice gets or creates the device for a client keyed by its MAC
// serial, ensures its wlan0 or eth0 interface carries the MAC, and assigns
// an IPv4 address as primary. A spec without a usable MAC yields nil.
func (u *Upserter) ClientDevice(ctx context.Context, place Placement, spec ClientSpec) (*ClientDevice, error) {
	mac := identity.NormalizeMAC(spec.MAC)
	if !identity.LooksLikeMAC(mac) {
		return nil, nil
	}

	serial := identity.MACToSerial(mac)

	roleName, ifName, placeholders := RoleWirelessClient, WirelessClientInterface, wirelessPlaceholderNames
	if spec.Wired {
		roleName, ifName, placeholders = RoleWiredClient, WiredClientInterface, wiredPlaceholderNames
	}

	role, err := u.Role(ctx, roleName)
	if err != nil {
		return nil, err
	}

	manu, err := u.Manufacturer(ctx, ClientManufacturer)
	if err != nil {
		return nil, err
	}

	dtype, err := u.DeviceType(ctx, manu, identity.FirstNonEmpty(spec.Model, "Client"))
	if err != nil {
		return nil, err
	}

	name := ClientName(spec.Wired, spec.Hostname, serial)
	desc := identity.Clip(spec.Description, descMaxLen)

	dev, err := u.repo.DeviceBySerial(ctx, serial)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, storeErr("find device", err)
	}

	created := false

	if dev == nil {
		dev, created, err = u.repo.EnsureDevice(ctx, &models.Device{
			Name:         name,
			Serial:       serial,
			SiteID:       place.Site.ID,
			LocationID:   u.locationRef(place),
			TenantID:     u.cfg.TenantID,
			DeviceTypeID: dtype.ID,
			RoleID:       role.ID,
			Status:       models.StatusActive,
			Description:  desc,
		})
		if err != nil {
			return nil, storeErr("ensure device", err)
		}

		u.created("device", serial, created)
	}

	if !created {
		changed := setInt64(&dev.TenantID, u.cfg.TenantID)
		changed = setInt64(&dev.SiteID, place.Site.ID) || changed
		changed = setInt64(&dev.DeviceTypeID, dtype.ID) || changed
		changed = setInt64(&dev.RoleID, role.ID) || changed
		changed = setString(&dev.Description, desc) || changed

		if isPlaceholderName(dev.Name, placeholders) {
			changed = setString(&dev.Name, name) || changed
		}

		if u.caps.DeviceLocation {
			changed = setRef(&dev.LocationID, u.locationRef(place)) || changed
		}

		if changed {
			if err := u.repo.UpdateDevice(ctx, dev); err != nil {
				return nil, storeErr("update device", err)
			}

			u.stats.Updated++
		}
	}

	iface, err := u.Interface(ctx, dev, ifName)
	if err != nil {
		return nil, err
	}

	if err := u.setInterfaceMAC(ctx, iface, mac); err != nil {
		return nil, err
	}

	out := &ClientDevice{Device: dev, Interface: iface}

	ip := strings.TrimSpace(spec.IP)
	if ip == "" || strings.Contains(ip, ":") {
		return out, nil
	}

	if out.IP, err = u.IPAddress(ctx, ip); err != nil {
		return nil, err
	}

	if err := u.AssignIP(ctx, out.IP, iface); err != nil {
		return nil, err
	}

	if err := u.SetPrimaryIP4(ctx, dev, out.IP); err != nil {
		return nil, err
	}

	return out, nil
}
