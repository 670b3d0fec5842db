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

package r1

import (
	"context"
	"net/url"
	"strings"

	"github.com/carverauto/r1sync/pkg/identity"
)

// Page sizes sent as the query limit. Replies are read as a single page.
const (
	VenuePageSize   = 500
	NetworkPageSize = 500
	DevicePageSize  = 1000
	PortPageSize    = 5000
	ClientPageSize  = 5000
)

const (
	pathVenues        = "/venues/query"
	pathWifiNetworks  = "/wifiNetworks/query"
	pathAPs           = "/venues/aps/query"
	pathSwitches      = "/venues/switches/query"
	pathSwitchPorts   = "/venues/switches/switchPorts/query"
	pathWifiClients   = "/venues/aps/clients/query"
	pathSwitchClients = "/venues/switches/clients/query"
)

type Venue struct {
	ID   string
	Name string
}

type WifiNetwork struct {
	ID   string
	SSID string
}

// Device is an access point or switch as listed by the controller.
type Device struct {
	Name     string
	Serial   string
	Model    string
	IP       string
	MgmtVLAN string
}

// SwitchPort is one port row from the switch port query.
type SwitchPort struct {
	SwitchUnitID string
	SwitchName   string
	SwitchModel  string
	Name         string
	MAC          string
	AdminStatus  string
	Capacity     string
	Speed        string
	PoEEnabled   *bool
	// VLANs holds every VLAN id string found on the port, unparsed.
	VLANs []string

	Tags         string
	NeighborName string
	LinkStatus   string
	Connector    string
	Media        string
	VLANIDsText  string
	UntaggedVLAN string
}

type WifiClient struct {
	MAC        string
	IP         string
	Hostname   string
	SSID       string
	APSerial   string
	VenueID    string
	NetworkID  string
	DeviceType string
	ModelName  string
	Raw        Record
}

type SwitchClient struct {
	MAC          string
	IP           string
	Hostname     string
	VLAN         string
	VLANText     string
	SwitchUnitID string
	Port         string
	VenueID      string
	NetworkID    string
	DeviceType   string
	ModelName    string
	Manufacturer string
	Raw          Record
}

type Topology struct {
	Nodes []TopologyNode
	Edges []TopologyEdge
}

type TopologyNode struct {
	Type   string
	Name   string
	MAC    string
	Serial string
	IP     string
	Model  string
}

type TopologyEdge struct {
	ConnectionType    string
	Status            string
	FromSerial        string
	ToSerial          string
	FromMAC           string
	ToMAC             string
	FromName          string
	ToName            string
	ConnectedPort     string
	CorrespondingPort string
	LinkSpeed         string
	PoEEnabled        *bool
}

func optBool(r Record, key string) *bool {
	if v, ok := r.Bool(key); ok {
		return &v
	}

	return nil
}

func venueBody(venueID string) map[string]interface{} {
	return map[string]interface{}{"venueId": venueID}
}

// Venues lists the tenant's venues.
func (c *Client) Venues(ctx context.Context) ([]Venue, error) {
	rows, err := c.QueryAll(ctx, pathVenues, VenuePageSize, nil, "data")
	if err != nil {
		return nil, err
	}

	out := make([]Venue, 0, len(rows))
	for _, r := range rows {
		out = append(out, Venue{
			ID:   identity.Clip(r.Str("id", "venueId"), 128),
			Name: r.Str("name", "venueName"),
		})
	}

	return out, nil
}

func (c *Client) WifiNetworks(ctx context.Context) ([]WifiNetwork, error) {
	rows, err := c.QueryAll(ctx, pathWifiNetworks, NetworkPageSize, nil, "data")
	if err != nil {
		return nil, err
	}

	out := make([]WifiNetwork, 0, len(rows))
	for _, r := range rows {
		out = append(out, WifiNetwork{ID: r.Str("id"), SSID: r.Str("ssid", "name")})
	}

	return out, nil
}

// APs lists the access points of a venue.
func (c *Client) APs(ctx context.Context, venueID string) ([]Device, error) {
	rows, err := c.QueryAll(ctx, pathAPs, DevicePageSize, venueBody(venueID), "data")
	if err != nil {
		return nil, err
	}

	out := make([]Device, 0, len(rows))
	for _, r := range rows {
		ns := r.Obj("networkStatus")
		out = append(out, Device{
			Name:     r.Str("name", "apName", "hostname", "serial", "serialNumber"),
			Serial:   r.Str("serialNumber", "serial", "msn", "apSerial", "deviceSerial"),
			Model:    r.Str("model", "apModel"),
			IP:       identity.FirstNonEmpty(ns.Str("ipAddress"), r.Str("ip", "ipAddress", "mgmtIp")),
			MgmtVLAN: ns.Str("managementTrafficVlan"),
		})
	}

	return out, nil
}

// Switches lists the switches of a venue.
func (c *Client) Switches(ctx context.Context, venueID string) ([]Device, error) {
	rows, err := c.QueryAll(ctx, pathSwitches, DevicePageSize, venueBody(venueID), "data")
	if err != nil {
		return nil, err
	}

	out := make([]Device, 0, len(rows))
	for _, r := range rows {
		ns := r.Obj("networkStatus")
		out = append(out, Device{
			Name:     r.Str("name", "switchName", "hostname", "serial", "serialNumber"),
			Serial:   r.Str("serialNumber", "serial", "msn", "switchSerial", "deviceSerial"),
			Model:    r.Str("model", "switchModel"),
			IP:       identity.FirstNonEmpty(ns.Str("ipAddress"), r.Str("ip", "ipAddress", "mgmtIp")),
			MgmtVLAN: ns.Str("managementTrafficVlan"),
		})
	}

	return out, nil
}

// SwitchPorts lists the switch ports of a venue.
func (c *Client) SwitchPorts(ctx context.Context, venueID string) ([]SwitchPort, error) {
	body := venueBody(venueID)
	body["limit"] = PortPageSize

	rows, err := c.QueryAll(ctx, pathSwitchPorts, PortPageSize, body, "data")
	if err != nil {
		return nil, err
	}

	out := make([]SwitchPort, 0, len(rows))
	for _, r := range rows {
		out = append(out, decodeSwitchPort(r))
	}

	return out, nil
}

func decodeSwitchPort(r Record) SwitchPort {
	p := SwitchPort{
		SwitchUnitID: r.Str("switchUnitId"),
		SwitchName:   r.Str("switchName"),
		SwitchModel:  r.Str("switchModel"),
		Name:         r.Str("portIdentifier", "name"),
		MAC:          r.Str("portMac"),
		AdminStatus:  strings.ToLower(r.Str("adminStatus")),
		Capacity:     r.Str("portSpeedCapacity"),
		Speed:        r.Str("portSpeed"),
		PoEEnabled:   optBool(r, "poeEnabled"),
		Tags:         displayValue(r["tags"]),
		NeighborName: r.Str("neighborName"),
		LinkStatus:   r.Str("status"),
		Connector:    r.Str("portConnectorType"),
		Media:        r.Str("opticsType"),
		VLANIDsText:  displayValue(r["vlanIds"]),
		UntaggedVLAN: r.Str("unTaggedVlan"),
	}

	for _, key := range []string{"unTaggedVlan", "accessVlan", "nativeVlan", "managementTrafficVlan"} {
		if s := r.Str(key); s != "" {
			p.VLANs = append(p.VLANs, s)
		}
	}

	p.VLANs = append(p.VLANs, stringList(r["vlanIds"])...)

	return p
}

// WifiClients lists the wireless clients of a venue.
func (c *Client) WifiClients(ctx context.Context, venueID string) ([]WifiClient, error) {
	body := venueBody(venueID)
	body["limit"] = ClientPageSize

	rows, err := c.QueryAll(ctx, pathWifiClients, ClientPageSize, body, "data")
	if err != nil {
		return nil, err
	}

	out := make([]WifiClient, 0, len(rows))
	for _, r := range rows {
		netinfo := r.Obj("networkInformation")
		out = append(out, WifiClient{
			MAC:        r.Str("macAddress", "mac", "clientMac"),
			IP:         r.Str("ipAddress", "ip"),
			Hostname:   r.Str("hostname"),
			SSID:       identity.FirstNonEmpty(netinfo.Str("ssid"), r.Str("ssid")),
			APSerial:   identity.FirstNonEmpty(r.Obj("apInformation").Str("serialNumber"), r.Str("apSerial", "connectedApSerial")),
			VenueID:    r.Obj("venueInformation").Str("id"),
			NetworkID:  identity.FirstNonEmpty(netinfo.Str("id"), r.Str("networkId")),
			DeviceType: r.Str("deviceType"),
			ModelName:  r.Str("modelName"),
			Raw:        r,
		})
	}

	return out, nil
}

// SwitchClients lists the wired clients seen by the switches of a venue.
func (c *Client) SwitchClients(ctx context.Context, venueID string) ([]SwitchClient, error) {
	body := venueBody(venueID)
	body["limit"] = ClientPageSize

	rows, err := c.QueryAll(ctx, pathSwitchClients, ClientPageSize, body, "data")
	if err != nil {
		return nil, err
	}

	out := make([]SwitchClient, 0, len(rows))
	for _, r := range rows {
		vlanText := r.Str("vlan", "vlanId")
		if vlanText == "" {
			vlanText = displayValue(r["vlanIds"])
		}

		out = append(out, SwitchClient{
			MAC:          r.Str("macAddress", "mac", "clientMac", "deviceMac"),
			IP:           r.Str("ipAddress", "ip"),
			Hostname:     r.Str("hostname", "name"),
			VLAN:         r.Str("vlan", "vlanId", "accessVlan"),
			VLANText:     vlanText,
			SwitchUnitID: r.Str("switchUnitId", "switchSerialNumber", "switchSerial"),
			Port:         r.Str("portIdentifier", "port", "connectedPort"),
			VenueID:      r.Obj("venueInformation").Str("id"),
			NetworkID:    r.Str("networkId"),
			DeviceType:   r.Str("deviceType"),
			ModelName:    r.Str("modelName"),
			Manufacturer: r.Str("manufacturer"),
			Raw:          r,
		})
	}

	return out, nil
}

// Topology fetches the first topology blob of a venue. A venue without
// topology data yields nil.
func (c *Client) Topology(ctx context.Context, venueID string) (*Topology, error) {
	raw, err := c.get(ctx, "/venues/"+url.PathEscape(venueID)+"/topologies", "/venues/{venueId}/topologies", nil)
	if err != nil {
		return nil, err
	}

	top, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil
	}

	data, ok := top["data"].([]interface{})
	if !ok || len(data) == 0 {
		return nil, nil
	}

	blob, ok := data[0].(map[string]interface{})
	if !ok {
		return nil, nil
	}

	return decodeTopology(Record(blob)), nil
}

func decodeTopology(blob Record) *Topology {
	t := &Topology{}

	nodes, _ := blob["nodes"].([]interface{})
	for _, item := range nodes {
		n, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		r := Record(n)
		t.Nodes = append(t.Nodes, TopologyNode{
			Type:   strings.ToLower(r.Str("type", "deviceType")),
			Name:   r.Str("name"),
			MAC:    r.Str("mac"),
			Serial: r.Str("serial", "serialNumber"),
			IP:     r.Str("ipAddress", "ip"),
			Model:  r.Str("model"),
		})
	}

	edges, _ := blob["edges"].([]interface{})
	for _, item := range edges {
		e, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		r := Record(e)
		t.Edges = append(t.Edges, TopologyEdge{
			ConnectionType:    strings.ToLower(r.Str("connectionType")),
			Status:            r.Str("connectionStatus"),
			FromSerial:        r.Str("fromSerial"),
			ToSerial:          r.Str("toSerial"),
			FromMAC:           r.Str("fromMac"),
			ToMAC:             r.Str("toMac"),
			FromName:          r.Str("fromName"),
			ToName:            r.Str("toName"),
			ConnectedPort:     r.Str("connectedPort"),
			CorrespondingPort: r.Str("correspondingPort"),
			LinkSpeed:         r.Str("linkSpeed"),
			PoEEnabled:        optBool(r, "poeEnabled"),
		})
	}

	return t
}
