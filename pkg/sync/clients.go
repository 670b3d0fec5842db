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

package sync

import (
	"context"
	"strconv"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/r1"
)

// UnknownMAC is the shared client record key for clients without a MAC.
const UnknownMAC = "unknown"

const idMaxLen = 128

// clientMAC picks the MAC of a client record: the reported MAC, else the
// first MAC-looking value of the raw record, else UnknownMAC.
func clientMAC(reported string, raw r1.Record) string {
	if mac := identity.NormalizeMAC(reported); identity.LooksLikeMAC(mac) {
		return mac
	}

	if mac := raw.FirstMAC(); mac != "" {
		return mac
	}

	return UnknownMAC
}

func (vs *venueSync) syncWifiClients(ctx context.Context) error {
	clients, err := vs.api.WifiClients(ctx, vs.venueID)
	if err != nil {
		return upstream("list wifi clients", err)
	}

	for _, c := range clients {
		if err := vs.wifiClient(ctx, c); err != nil {
			return err
		}

		vs.acc.clients++
	}

	return nil
}

func (vs *venueSync) wifiClient(ctx context.Context, c r1.WifiClient) error {
	mac, hostname := c.MAC, c.Hostname

	// Some firmware reports the MAC in the hostname field.
	if identity.LooksLikeMAC(hostname) {
		if !identity.LooksLikeMAC(mac) {
			mac = hostname
		}

		hostname = ""
	}

	mac = clientMAC(mac, c.Raw)
	if mac == UnknownMAC {
		vs.anomaly("Wi-Fi client without MAC", map[string]interface{}{"ap_serial": c.APSerial})
	}

	err := vs.up.Client(ctx, &models.ClientRecord{
		VenueID:   identity.FirstNonEmpty(c.VenueID, vs.venueID),
		NetworkID: identity.Clip(c.NetworkID, idMaxLen),
		R1ID:      identity.Clip(c.APSerial, idMaxLen),
		MAC:       mac,
		IPAddress: c.IP,
		Hostname:  hostname,
		SSID:      c.SSID,
		LastSeen:  vs.now(),
		Raw:       c.Raw.JSON(),
	})
	if err != nil {
		return err
	}

	if err := vs.stubWLAN(ctx, c.SSID); err != nil {
		return err
	}

	if mac == UnknownMAC {
		return nil
	}

	desc := "R1 Client"
	if c.Hostname != "" {
		desc += " hostname=" + c.Hostname
	}

	_, err = vs.up.ClientDevice(ctx, vs.place, inventory.ClientSpec{
		MAC:         mac,
		Hostname:    hostname,
		Model:       identity.FirstNonEmpty(c.DeviceType, c.ModelName),
		Description: desc,
		IP:          c.IP,
	})

	return err
}

// stubWLAN creates the WLAN of a client SSID that the network listing did
// not return.
func (vs *venueSync) stubWLAN(ctx context.Context, ssid string) error {
	if ssid == "" || vs.ssids[ssid] || !vs.cfg.Toggles.WLANs || !vs.cfg.AllowStub.Wireless {
		return nil
	}

	if _, err := vs.up.WirelessLAN(ctx, ssid); err != nil {
		return err
	}

	vs.ssids[ssid] = true

	return nil
}

func (vs *venueSync) syncWiredClients(ctx context.Context) error {
	clients, err := vs.api.SwitchClients(ctx, vs.venueID)
	if err != nil {
		return upstream("list switch clients", err)
	}

	for _, c := range clients {
		if err := vs.wiredClient(ctx, c); err != nil {
			return err
		}

		vs.acc.clients++
	}

	return nil
}

func (vs *venueSync) wiredClient(ctx context.Context, c r1.SwitchClient) error {
	mac := clientMAC(c.MAC, c.Raw)
	if mac == UnknownMAC {
		vs.anomaly("Wired client without MAC", map[string]interface{}{"switch_unit_id": c.SwitchUnitID})
	}

	var vlan *int

	if c.VLAN != "" {
		if vid, err := strconv.Atoi(c.VLAN); err == nil {
			vlan = &vid
		} else {
			vs.anomaly("Unparseable client VLAN", map[string]interface{}{"mac": mac, "vlan": c.VLAN})
		}
	}

	err := vs.up.Client(ctx, &models.ClientRecord{
		VenueID:   identity.FirstNonEmpty(c.VenueID, vs.venueID),
		NetworkID: identity.Clip(c.NetworkID, idMaxLen),
		R1ID:      identity.Clip(c.SwitchUnitID, idMaxLen),
		MAC:       mac,
		IPAddress: c.IP,
		Hostname:  c.Hostname,
		VLAN:      vlan,
		LastSeen:  vs.now(),
		Raw:       c.Raw.JSON(),
	})
	if err != nil {
		return err
	}

	if mac == UnknownMAC {
		return nil
	}

	desc := "R1 Wired Client"
	if c.VLANText != "" {
		desc += " vlan=" + c.VLANText
	}

	cd, err := vs.up.ClientDevice(ctx, vs.place, inventory.ClientSpec{
		Wired:       true,
		MAC:         mac,
		Hostname:    c.Hostname,
		Model:       identity.FirstNonEmpty(c.DeviceType, c.ModelName, c.Manufacturer),
		Description: desc,
		IP:          c.IP,
	})
	if err != nil || cd == nil {
		return err
	}

	vs.acc.interfaces++

	if c.SwitchUnitID == "" || c.Port == "" {
		return nil
	}

	sw, err := vs.up.SiteDevice(ctx, vs.site, c.SwitchUnitID)
	if err != nil || sw == nil {
		return err
	}

	port, err := vs.up.Interface(ctx, sw, c.Port)
	if err != nil {
		return err
	}

	vs.acc.interfaces++

	if !vs.cfg.Toggles.Cabling {
		return nil
	}

	created, err := vs.up.Cable(ctx, port, cd.Interface)
	if err != nil {
		return err
	}

	if created {
		vs.acc.cables++
	}

	return nil
}
