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
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/mapping"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/r1"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

// venueSync carries the state shared by the steps of one venue.
type venueSync struct {
	cfg   *models.TenantConfig
	api   ControllerAPI
	up    *inventory.Upserter
	acc   *accumulator
	ssids map[string]bool
	now   func() time.Time
	log   logger.Logger

	venueID string
	site    *models.Site
	place   inventory.Placement
}

func (s *Service) syncVenue(ctx context.Context, mapper *mapping.Mapper, params mapping.Params, vs *venueSync, v r1.Venue) error {
	ctx, span := s.tracer.Start(ctx, "sync.venue", trace.WithAttributes(attribute.String("r1sync.venue_id", v.ID)))
	defer span.End()

	res, err := mapper.MapVenue(ctx, mapping.Venue{ID: v.ID, Name: v.Name}, params)
	if err != nil {
		span.RecordError(err)
		return err
	}

	vs.venueID = v.ID
	vs.site = res.DeviceSite
	vs.place = res.Placement()

	t := vs.cfg.Toggles

	steps := []struct {
		enabled bool
		name    string
		run     func(context.Context) error
	}{
		{t.APs, "aps", vs.syncAPs},
		{t.Switches, "switches", vs.syncSwitches},
		{t.Interfaces, "switch_ports", vs.syncSwitchPorts},
		{t.WifiClients, "wifi_clients", vs.syncWifiClients},
		{t.WiredClients, "wired_clients", vs.syncWiredClients},
		{t.Cabling || t.WirelessLinks, "topology", vs.syncTopology},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}

		if err := step.run(ctx); err != nil {
			span.RecordError(err)
			return err
		}
	}

	vs.log.Debug().Str("site", vs.site.Slug).Msg("Venue synced")

	return nil
}

func upstream(op string, err error) error {
	return classify(syncerr.KindUpstream, op, err)
}

// anomaly logs a record that was skipped or defaulted.
func (vs *venueSync) anomaly(what string, fields map[string]interface{}) {
	vs.log.WithFields(fields).Debug().
		Str("kind", syncerr.KindDataAnomaly.String()).
		Msg(what)
}

func (vs *venueSync) infra(ctx context.Context, role string, d r1.Device, fallbackName string) error {
	_, err := vs.up.InfraDevice(ctx, vs.place, inventory.InfraSpec{
		Role:   role,
		Model:  identity.FirstNonEmpty(d.Model, role),
		Name:   identity.FirstNonEmpty(d.Name, d.Serial, fallbackName),
		Serial: d.Serial,
	})
	if err != nil {
		return err
	}

	vs.acc.devices++

	ip, err := vs.up.IPAddress(ctx, d.IP)
	if err != nil {
		return err
	}

	if ip != nil {
		vs.acc.ips++
	}

	return nil
}

func (vs *venueSync) syncAPs(ctx context.Context) error {
	aps, err := vs.api.APs(ctx, vs.venueID)
	if err != nil {
		return upstream("list aps", err)
	}

	for _, ap := range aps {
		if err := vs.infra(ctx, inventory.RoleAccessPoint, ap, "AP"); err != nil {
			return err
		}

		if !vs.cfg.Toggles.VLANs || ap.MgmtVLAN == "" {
			continue
		}

		vid, err := strconv.Atoi(ap.MgmtVLAN)
		if err != nil {
			vs.anomaly("Unparseable management VLAN", map[string]interface{}{"serial": ap.Serial, "vlan": ap.MgmtVLAN})
			continue
		}

		v, err := vs.up.VLAN(ctx, vs.site, vid, "MGMT VLAN "+ap.MgmtVLAN)
		if err != nil {
			return err
		}

		if v != nil {
			vs.acc.vlans++
		}
	}

	return nil
}

func (vs *venueSync) syncSwitches(ctx context.Context) error {
	switches, err := vs.api.Switches(ctx, vs.venueID)
	if err != nil {
		return upstream("list switches", err)
	}

	for _, sw := range switches {
		if err := vs.infra(ctx, inventory.RoleSwitch, sw, "Switch"); err != nil {
			return err
		}
	}

	return nil
}

// portSwitch finds the switch owning a port at the venue site, creating a
// stub when the policy allows it.
func (vs *venueSync) portSwitch(ctx context.Context, p r1.SwitchPort) (*models.Device, error) {
	sw, err := vs.up.SiteDevice(ctx, vs.site, p.SwitchUnitID)
	if err != nil || sw != nil {
		return sw, err
	}

	if !vs.cfg.AllowStub.Devices {
		return nil, nil
	}

	return vs.up.InfraDevice(ctx, vs.place, inventory.InfraSpec{
		Role:   inventory.RoleSwitch,
		Model:  identity.FirstNonEmpty(p.SwitchModel, inventory.RoleSwitch),
		Name:   identity.FirstNonEmpty(p.SwitchName, p.SwitchModel, p.SwitchUnitID),
		Serial: p.SwitchUnitID,
	})
}

var adminUpValues = map[string]bool{"up": true, "enabled": true, "true": true, "1": true}

func (vs *venueSync) syncSwitchPorts(ctx context.Context) error {
	ports, err := vs.api.SwitchPorts(ctx, vs.venueID)
	if err != nil {
		return upstream("list switch ports", err)
	}

	for _, p := range ports {
		if p.SwitchUnitID == "" {
			continue
		}

		sw, err := vs.portSwitch(ctx, p)
		if err != nil {
			return err
		}

		if sw == nil {
			vs.anomaly("Switch port references unknown switch", map[string]interface{}{"switch_unit_id": p.SwitchUnitID})
			continue
		}

		if p.Name == "" {
			continue
		}

		iface, err := vs.up.Interface(ctx, sw, p.Name)
		if err != nil {
			return err
		}

		vs.acc.interfaces++

		if p.MAC != "" {
			bound, err := vs.up.BindMAC(ctx, iface, p.MAC)
			if err != nil {
				return err
			}

			if bound {
				vs.acc.macs++
			}
		}

		enabled := adminUpValues[p.AdminStatus]

		attrs := inventory.InterfaceAttrs{
			Enabled:     &enabled,
			PoEEnabled:  p.PoEEnabled,
			Description: portDescription(p),
		}

		if kbps, ok := identity.CapacityToKbps(p.Capacity); ok {
			attrs.SpeedKbps = &kbps
		} else if kbps, ok := identity.ParseLinkSpeedKbps(p.Speed); ok {
			attrs.SpeedKbps = &kbps
		}

		if err := vs.up.SetInterfaceAttrs(ctx, iface, attrs); err != nil {
			return err
		}

		if !vs.cfg.Toggles.VLANs || !vs.cfg.AllowStub.VLANs {
			continue
		}

		for _, vid := range vlanIDs(p.VLANs) {
			v, err := vs.up.VLAN(ctx, vs.site, vid, "")
			if err != nil {
				return err
			}

			if v != nil {
				vs.acc.vlans++
			}
		}
	}

	return nil
}

// vlanIDs parses, dedupes and sorts VLAN id strings, dropping the ones that
// are not integers.
func vlanIDs(raw []string) []int {
	seen := make(map[int]bool, len(raw))
	out := make([]int, 0, len(raw))

	for _, s := range raw {
		vid, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || seen[vid] {
			continue
		}

		seen[vid] = true
		out = append(out, vid)
	}

	sort.Ints(out)

	return out
}

func portDescription(p r1.SwitchPort) string {
	var parts []string

	add := func(prefix, v string) {
		if v != "" {
			parts = append(parts, prefix+v)
		}
	}

	add("", p.Tags)
	add("neighbor=", p.NeighborName)
	add("link=", p.LinkStatus)
	add("connector=", p.Connector)
	add("media=", p.Media)
	add("vlans=", p.VLANIDsText)
	add("untag=", p.UntaggedVLAN)

	return strings.Join(parts, " | ")
}
