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
	"strings"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/r1"
)

const (
	wiredConnection = "wired"
	defaultPort     = "uplink"
)

var wirelessConnections = map[string]bool{
	"mesh": true, "wireless": true, "wirelessmesh": true, "smartmesh": true,
	"apmesh": true, "ap-mesh": true, "wireless-mesh": true,
}

func isWirelessConnection(t string) bool {
	return wirelessConnections[t] || strings.Contains(t, "mesh") || strings.Contains(t, "wireless")
}

// nodeRole infers the device role of a topology node from its type.
func nodeRole(nodeType string) string {
	switch {
	case strings.Contains(nodeType, "switch"):
		return inventory.RoleSwitch
	case strings.Contains(nodeType, "ap"):
		return inventory.RoleAccessPoint
	}

	return models.DefaultDeviceRole
}

func (vs *venueSync) syncTopology(ctx context.Context) error {
	top, err := vs.api.Topology(ctx, vs.venueID)
	if err != nil {
		return upstream("get topology", err)
	}

	if top == nil {
		return nil
	}

	for _, n := range top.Nodes {
		if err := vs.topologyNode(ctx, n); err != nil {
			return err
		}
	}

	for _, e := range top.Edges {
		if err := vs.topologyEdge(ctx, e); err != nil {
			return err
		}
	}

	return nil
}

func (vs *venueSync) topologyNode(ctx context.Context, n r1.TopologyNode) error {
	role := nodeRole(n.Type)

	dev, err := vs.up.InfraDevice(ctx, vs.place, inventory.InfraSpec{
		Role:   role,
		Model:  identity.FirstNonEmpty(n.Model, role),
		Name:   identity.FirstNonEmpty(n.Name, n.Serial, n.MAC, "device"),
		Serial: n.Serial,
	})
	if err != nil {
		return err
	}

	if _, err := vs.up.IPAddress(ctx, n.IP); err != nil {
		return err
	}

	if n.MAC == "" {
		return nil
	}

	mgmt, err := vs.up.Interface(ctx, dev, inventory.MgmtInterface)
	if err != nil {
		return err
	}

	vs.acc.interfaces++

	bound, err := vs.up.BindMAC(ctx, mgmt, n.MAC)
	if err != nil {
		return err
	}

	if bound {
		vs.acc.macs++
	}

	return nil
}

// edgeEnd resolves one end of a topology edge by serial in any site, then
// by MAC at the venue site, then as a stub when the policy allows it.
func (vs *venueSync) edgeEnd(ctx context.Context, serial, mac, name string) (*models.Device, error) {
	dev, err := vs.up.DeviceBySerial(ctx, serial)
	if err != nil || dev != nil {
		return dev, err
	}

	if mac != "" {
		if dev, err = vs.up.DeviceByMAC(ctx, vs.site, mac); err != nil || dev != nil {
			return dev, err
		}
	}

	if !vs.cfg.AllowStub.Devices {
		return nil, nil
	}

	stubSerial := serial
	if stubSerial == "" && identity.LooksLikeMAC(mac) {
		stubSerial = identity.MACToSerial(mac)
	}

	return vs.up.InfraDevice(ctx, vs.place, inventory.InfraSpec{
		Role:   models.DefaultDeviceRole,
		Model:  models.DefaultDeviceRole,
		Name:   identity.FirstNonEmpty(name, stubSerial, "device"),
		Serial: stubSerial,
	})
}

func (vs *venueSync) topologyEdge(ctx context.Context, e r1.TopologyEdge) error {
	wired := e.ConnectionType == wiredConnection
	wireless := !wired && isWirelessConnection(e.ConnectionType)

	if (!wired || !vs.cfg.Toggles.Cabling) && (!wireless || !vs.cfg.Toggles.WirelessLinks) {
		return nil
	}

	a, err := vs.edgeEnd(ctx, e.FromSerial, e.FromMAC, e.FromName)
	if err != nil {
		return err
	}

	b, err := vs.edgeEnd(ctx, e.ToSerial, e.ToMAC, e.ToName)
	if err != nil {
		return err
	}

	if a == nil || b == nil {
		vs.anomaly("Topology edge with unresolved end", map[string]interface{}{
			"from": identity.FirstNonEmpty(e.FromSerial, e.FromMAC, e.FromName),
			"to":   identity.FirstNonEmpty(e.ToSerial, e.ToMAC, e.ToName),
		})

		return nil
	}

	desc := strings.TrimSpace("R1 topology: " + e.Status)

	if wireless {
		created, err := vs.up.WirelessLink(ctx, a, b, e.FromMAC, e.ToMAC, desc)
		if err != nil {
			return err
		}

		if created {
			vs.acc.wlinks++
		}

		return nil
	}

	ai, err := vs.up.Interface(ctx, a, identity.FirstNonEmpty(e.ConnectedPort, defaultPort))
	if err != nil {
		return err
	}

	bi, err := vs.up.Interface(ctx, b, identity.FirstNonEmpty(e.CorrespondingPort, defaultPort))
	if err != nil {
		return err
	}

	vs.acc.interfaces += 2

	attrs := inventory.InterfaceAttrs{PoEEnabled: e.PoEEnabled, Description: desc}
	if kbps, ok := identity.ParseLinkSpeedKbps(e.LinkSpeed); ok {
		attrs.SpeedKbps = &kbps
	}

	if err := vs.up.SetInterfaceAttrs(ctx, ai, attrs); err != nil {
		return err
	}

	created, err := vs.up.Cable(ctx, ai, bi)
	if err != nil {
		return err
	}

	if created {
		vs.acc.cables++
	}

	return nil
}
