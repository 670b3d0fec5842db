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
	"fmt"
	"strings"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

const (
	roleNameMaxLen   = 50
	modelMaxLen      = 100
	deviceNameMaxLen = 64
	serialMaxLen     = 50
	ssidMaxLen       = 64
	vlanNameMaxLen   = 64
	descMaxLen       = 200

	hostPartMaxLen = 20

	vidMin = 1
	vidMax = 4094
)

// Fixed role and interface names for client devices.
const (
	RoleWirelessClient = "Wireless Client"
	RoleWiredClient    = "Wired Client"
	RoleAccessPoint    = "Access Point"
	RoleSwitch         = "Switch"

	ClientManufacturer = "Client"

	WirelessClientInterface = "wlan0"
	WiredClientInterface    = "eth0"
	MeshInterface           = "mesh"
	MgmtInterface           = "mgmt"
)

// Stats counts rows the Upserter created or rewrote.
type Stats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Placement is where the objects of one venue are sited.
type Placement struct {
	Site     *models.Site
	Location *models.Location
}

// Upserter reconciles desired objects into a Repo for one tenant config.
// It caches roles, manufacturers and device types for its lifetime, so use
// one per run.
type Upserter struct {
	repo   Repo
	caps   Capabilities
	cfg    *models.TenantConfig
	logger logger.Logger

	roles         map[string]*models.DeviceRole
	manufacturers map[string]*models.Manufacturer
	deviceTypes   map[string]*models.DeviceType

	stats Stats
}

// NewUpserter binds an Upserter to repo and cfg.
func NewUpserter(repo Repo, cfg *models.TenantConfig, log logger.Logger) *Upserter {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Upserter{
		repo:          repo,
		caps:          repo.Capabilities(),
		cfg:           cfg,
		logger:        log,
		roles:         make(map[string]*models.DeviceRole),
		manufacturers: make(map[string]*models.Manufacturer),
		deviceTypes:   make(map[string]*models.DeviceType),
	}
}

// Repo exposes the underlying repository.
func (u *Upserter) Repo() Repo {
	return u.repo
}

func (u *Upserter) Stats() Stats {
	return u.stats
}

func storeErr(op string, err error) error {
	return syncerr.New(syncerr.KindStoreWrite, op, err)
}

func (u *Upserter) created(kind, key string, created bool) {
	if !created {
		return
	}

	u.stats.Created++

	u.logger.Debug().Str("kind", kind).Str("key", key).Msg("Created inventory object")
}

func setInt64(dst *int64, v int64) bool {
	if *dst == v {
		return false
	}

	*dst = v

	return true
}

func setString(dst *string, v string) bool {
	if *dst == v {
		return false
	}

	*dst = v

	return true
}

func setRef(dst **int64, v *int64) bool {
	if models.SameRef(*dst, v) {
		return false
	}

	*dst = v

	return true
}

// SiteGroup returns the tenant config's default site group, or nil when none
// is configured.
func (u *Upserter) SiteGroup(ctx context.Context) (*models.SiteGroup, error) {
	name := strings.TrimSpace(u.cfg.DefaultSiteGroup)
	if name == "" {
		return nil, nil
	}

	slug := identity.Slug(name)

	g, created, err := u.repo.EnsureSiteGroup(ctx, &models.SiteGroup{Name: name, Slug: slug})
	if err != nil {
		return nil, storeErr("ensure site group", err)
	}

	u.created("site_group", slug, created)

	if !created && setString(&g.Name, name) {
		if err := u.repo.UpdateSiteGroup(ctx, g); err != nil {
			return nil, storeErr("update site group", err)
		}

		u.stats.Updated++
	}

	return g, nil
}

// Role returns the device role named name, creating it when absent.
func (u *Upserter) Role(ctx context.Context, name string) (*models.DeviceRole, error) {
	name = identity.FirstNonEmpty(name, "Unknown")
	slug := identity.Slug(name)

	if r, ok := u.roles[slug]; ok {
		return r, nil
	}

	r, created, err := u.repo.EnsureDeviceRole(ctx, &models.DeviceRole{
		Name:  identity.Clip(name, roleNameMaxLen),
		Slug:  slug,
		Color: models.DefaultRoleColor,
	})
	if err != nil {
		return nil, storeErr("ensure device role", err)
	}

	u.created("device_role", slug, created)
	u.roles[slug] = r

	return r, nil
}

// Manufacturer returns the manufacturer named name and keeps its display
// name aligned.
func (u *Upserter) Manufacturer(ctx context.Context, name string) (*models.Manufacturer, error) {
	name = identity.FirstNonEmpty(name, "Unknown")
	slug := identity.Slug(name)

	if m, ok := u.manufacturers[slug]; ok {
		return m, nil
	}

	want := identity.Clip(name, roleNameMaxLen)

	m, created, err := u.repo.EnsureManufacturer(ctx, &models.Manufacturer{Name: want, Slug: slug})
	if err != nil {
		return nil, storeErr("ensure manufacturer", err)
	}

	u.created("manufacturer", slug, created)

	if !created && setString(&m.Name, want) {
		if err := u.repo.UpdateManufacturer(ctx, m); err != nil {
			return nil, storeErr("update manufacturer", err)
		}

		u.stats.Updated++
	}

	u.manufacturers[slug] = m

	return m, nil
}

// DeviceType returns the type for model under manu, keyed by
// slug(manufacturer slug + model).
func (u *Upserter) DeviceType(ctx context.Context, manu *models.Manufacturer, model string) (*models.DeviceType, error) {
	model = identity.FirstNonEmpty(model, "Generic")
	slug := identity.Slug(manu.Slug + "-" + model)
	key := fmt.Sprintf("%d/%s", manu.ID, slug)

	if t, ok := u.deviceTypes[key]; ok {
		return t, nil
	}

	t, created, err := u.repo.EnsureDeviceType(ctx, &models.DeviceType{
		ManufacturerID: manu.ID,
		Model:          identity.Clip(model, modelMaxLen),
		Slug:           slug,
	})
	if err != nil {
		return nil, storeErr("ensure device type", err)
	}

	u.created("device_type", slug, created)
	u.deviceTypes[key] = t

	return t, nil
}

func (u *Upserter) locationRef(place Placement) *int64 {
	if !u.caps.DeviceLocation || place.Location == nil {
		return nil
	}

	return models.Int64Ptr(place.Location.ID)
}

// InfraSpec describes an access point, switch or topology node.
type InfraSpec struct {
	Role   string
	Model  string
	Name   string
	Serial string
}

// InfraDevice gets or creates an infrastructure device, matched by serial
// when one is known and by (site, name) otherwise, then reconciles tenant,
// site, type, role and location. The name is only reconciled for devices
// with a serial.
func (u *Upserter) InfraDevice(ctx context.Context, place Placement, spec InfraSpec) (*models.Device, error) {
	role, err := u.Role(ctx, identity.FirstNonEmpty(spec.Role, u.cfg.DefaultDeviceRole, models.DefaultDeviceRole))
	if err != nil {
		return nil, err
	}

	manu, err := u.Manufacturer(ctx, identity.FirstNonEmpty(u.cfg.DefaultManufacturer, models.DefaultManufacturer))
	if err != nil {
		return nil, err
	}

	dtype, err := u.DeviceType(ctx, manu, spec.Model)
	if err != nil {
		return nil, err
	}

	serial := identity.Clip(strings.TrimSpace(spec.Serial), serialMaxLen)
	name := identity.Clip(identity.FirstNonEmpty(spec.Name, serial, "device"), deviceNameMaxLen)

	dev, err := u.lookupDevice(ctx, place.Site.ID, serial, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, storeErr("find device", err)
	}

	if dev == nil {
		var created bool

		dev, created, err = u.repo.EnsureDevice(ctx, &models.Device{
			Name:         name,
			Serial:       serial,
			SiteID:       place.Site.ID,
			LocationID:   u.locationRef(place),
			TenantID:     u.cfg.TenantID,
			DeviceTypeID: dtype.ID,
			RoleID:       role.ID,
			Status:       models.StatusActive,
		})
		if err != nil {
			return nil, storeErr("ensure device", err)
		}

		u.created("device", identity.FirstNonEmpty(serial, name), created)

		if created {
			return dev, nil
		}
	}

	changed := setInt64(&dev.TenantID, u.cfg.TenantID)
	changed = setInt64(&dev.SiteID, place.Site.ID) || changed
	changed = setInt64(&dev.DeviceTypeID, dtype.ID) || changed
	changed = setInt64(&dev.RoleID, role.ID) || changed

	if serial != "" {
		changed = setString(&dev.Serial, serial) || changed
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

	return dev, nil
}

func (u *Upserter) lookupDevice(ctx context.Context, siteID int64, serial, name string) (*models.Device, error) {
	if serial != "" {
		dev, err := u.repo.DeviceBySerial(ctx, serial)
		if err == nil {
			return dev, nil
		}

		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	dev, err := u.repo.DeviceBySiteName(ctx, siteID, name)
	if err != nil {
		return nil, err
	}

	// A same-named device that already carries another serial is a
	// different device.
	if serial != "" && dev.Serial != "" && dev.Serial != serial {
		return nil, ErrNotFound
	}

	return dev, nil
}

// SiteDevice returns the tenant's device with serial at site, or nil.
func (u *Upserter) SiteDevice(ctx context.Context, site *models.Site, serial string) (*models.Device, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, nil
	}

	dev, err := u.repo.DeviceBySerial(ctx, serial)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, storeErr("find device", err)
	}

	if dev.TenantID != u.cfg.TenantID || dev.SiteID != site.ID {
		return nil, nil
	}

	return dev, nil
}

// DeviceBySerial returns the device with serial in any site, or nil.
func (u *Upserter) DeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, nil
	}

	dev, err := u.repo.DeviceBySerial(ctx, serial)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, storeErr("find device", err)
	}

	return dev, nil
}

// DeviceByMAC resolves a device of this tenant at site from any of its MACs,
// or returns nil.
func (u *Upserter) DeviceByMAC(ctx context.Context, site *models.Site, mac string) (*models.Device, error) {
	mac = identity.NormalizeMAC(mac)
	if !identity.LooksLikeMAC(mac) {
		return nil, nil
	}

	dev, err := u.repo.DeviceByMAC(ctx, u.cfg.TenantID, site.ID, mac)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, storeErr("find device by mac", err)
	}

	return dev, nil
}

// Interface gets or creates the interface name on dev.
func (u *Upserter) Interface(ctx context.Context, dev *models.Device, name string) (*models.Interface, error) {
	iface, created, err := u.repo.EnsureInterface(ctx, &models.Interface{
		DeviceID: dev.ID,
		Name:     name,
		Enabled:  true,
	})
	if err != nil {
		return nil, storeErr("ensure interface", err)
	}

	u.created("interface", fmt.Sprintf("%d/%s", dev.ID, name), created)

	return iface, nil
}

// InterfaceAttrs are optional interface fields. Nil pointers and an empty
// description leave the stored value alone.
type InterfaceAttrs struct {
	Enabled     *bool
	SpeedKbps   *int64
	PoEEnabled  *bool
	Description string
}

// SetInterfaceAttrs writes attrs to iface when any of them differ.
func (u *Upserter) SetInterfaceAttrs(ctx context.Context, iface *models.Interface, attrs InterfaceAttrs) error {
	changed := false

	if attrs.Enabled != nil && iface.Enabled != *attrs.Enabled {
		iface.Enabled = *attrs.Enabled
		changed = true
	}

	if desc := identity.Clip(attrs.Description, descMaxLen); desc != "" {
		changed = setString(&iface.Description, desc) || changed
	}

	if attrs.SpeedKbps != nil {
		changed = setRef(&iface.SpeedKbps, models.Int64Ptr(*attrs.SpeedKbps)) || changed
	}

	if attrs.PoEEnabled != nil && u.caps.PoEMode {
		mode := ""
		if *attrs.PoEEnabled {
			mode = models.PoEModePSE
		}

		changed = setString(&iface.PoEMode, mode) || changed
	}

	if !changed {
		return nil
	}

	if err := u.repo.UpdateInterface(ctx, iface); err != nil {
		return storeErr("update interface", err)
	}

	u.stats.Updated++

	return nil
}

func (u *Upserter) setInterfaceMAC(ctx context.Context, iface *models.Interface, mac string) error {
	if strings.EqualFold(iface.MACAddress, mac) {
		return nil
	}

	iface.MACAddress = mac

	if err := u.repo.UpdateInterface(ctx, iface); err != nil {
		return storeErr("update interface", err)
	}

	u.stats.Updated++

	return nil
}

// BindMAC records mac on iface and, when the schema has MAC objects, binds
// the global MAC row to it. It reports whether a MAC object was touched.
func (u *Upserter) BindMAC(ctx context.Context, iface *models.Interface, mac string) (bool, error) {
	mac = identity.NormalizeMAC(mac)
	if !identity.LooksLikeMAC(mac) {
		return false, nil
	}

	if err := u.setInterfaceMAC(ctx, iface, mac); err != nil {
		return false, err
	}

	if !u.caps.MACObjects {
		return false, nil
	}

	ref := models.Int64Ptr(iface.ID)

	obj, created, err := u.repo.EnsureMACAddress(ctx, &models.MACAddress{MAC: mac, InterfaceID: ref})
	if err != nil {
		return false, storeErr("ensure mac address", err)
	}

	u.created("mac_address", mac, created)

	if !created && setRef(&obj.InterfaceID, ref) {
		if err := u.repo.UpdateMACAddress(ctx, obj); err != nil {
			return false, storeErr("update mac address", err)
		}

		u.stats.Updated++
	}

	return true, nil
}

// IPAddress gets or creates addr for the tenant. A bare address gets /32,
// or /128 when it contains a colon. Blank input yields nil.
func (u *Upserter) IPAddress(ctx context.Context, addr string) (*models.IPAddress, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil
	}

	if !strings.Contains(addr, "/") {
		if strings.Contains(addr, ":") {
			addr += "/128"
		} else {
			addr += "/32"
		}
	}

	ip, created, err := u.repo.EnsureIPAddress(ctx, &models.IPAddress{
		Address:  addr,
		TenantID: u.cfg.TenantID,
		Status:   models.StatusActive,
	})
	if err != nil {
		return nil, storeErr("ensure ip address", err)
	}

	u.created("ip_address", addr, created)

	return ip, nil
}

// AssignIP binds ip to iface.
func (u *Upserter) AssignIP(ctx context.Context, ip *models.IPAddress, iface *models.Interface) error {
	if !setRef(&ip.InterfaceID, models.Int64Ptr(iface.ID)) {
		return nil
	}

	if err := u.repo.UpdateIPAddress(ctx, ip); err != nil {
		return storeErr("update ip address", err)
	}

	u.stats.Updated++

	return nil
}

// SetPrimaryIP4 makes ip the primary IPv4 of dev.
func (u *Upserter) SetPrimaryIP4(ctx context.Context, dev *models.Device, ip *models.IPAddress) error {
	if !setRef(&dev.PrimaryIP4ID, models.Int64Ptr(ip.ID)) {
		return nil
	}

	if err := u.repo.UpdateDevice(ctx, dev); err != nil {
		return storeErr("update device", err)
	}

	u.stats.Updated++

	return nil
}

// VLAN gets or creates vid for the tenant, scoped to site when the schema
// supports it. An empty name means the placeholder "VLAN <vid>", which is
// used on create but never overwrites an existing name. Out of range ids
// yield nil.
func (u *Upserter) VLAN(ctx context.Context, site *models.Site, vid int, name string) (*models.VLAN, error) {
	if vid < vidMin || vid > vidMax {
		return nil, nil
	}

	placeholder := strings.TrimSpace(name) == ""
	name = identity.Clip(identity.FirstNonEmpty(name, fmt.Sprintf("VLAN %d", vid)), vlanNameMaxLen)

	want := &models.VLAN{TenantID: u.cfg.TenantID, VID: vid, Name: name}
	if u.caps.VLANSiteScope && site != nil {
		want.SiteID = models.Int64Ptr(site.ID)
	}

	v, created, err := u.repo.EnsureVLAN(ctx, want)
	if err != nil {
		return nil, storeErr("ensure vlan", err)
	}

	u.created("vlan", fmt.Sprintf("%d", vid), created)

	if !created && !placeholder && setString(&v.Name, name) {
		if err := u.repo.UpdateVLAN(ctx, v); err != nil {
			return nil, storeErr("update vlan", err)
		}

		u.stats.Updated++
	}

	return v, nil
}

// WirelessLAN gets or creates the tenant's WLAN for ssid. Blank input
// yields nil.
func (u *Upserter) WirelessLAN(ctx context.Context, ssid string) (*models.WirelessLAN, error) {
	ssid = identity.Clip(strings.TrimSpace(ssid), ssidMaxLen)
	if ssid == "" {
		return nil, nil
	}

	w, created, err := u.repo.EnsureWirelessLAN(ctx, &models.WirelessLAN{
		TenantID: u.cfg.TenantID,
		SSID:     ssid,
		Status:   models.StatusActive,
		AuthType: models.WLANAuthOpen,
	})
	if err != nil {
		return nil, storeErr("ensure wireless lan", err)
	}

	u.created("wireless_lan", ssid, created)

	return w, nil
}

// Cable connects a and b unless a cable already joins them in either
// orientation. It reports whether a cable was created.
func (u *Upserter) Cable(ctx context.Context, a, b *models.Interface) (bool, error) {
	if a.ID == b.ID {
		return false, nil
	}

	_, created, err := u.repo.EnsureCable(ctx, &models.Cable{
		AInterfaceID: a.ID,
		BInterfaceID: b.ID,
		Status:       models.CableStatusConnected,
	})
	if err != nil {
		return false, storeErr("ensure cable", err)
	}

	u.created("cable", fmt.Sprintf("%d-%d", a.ID, b.ID), created)

	return created, nil
}

// WirelessLink joins the mesh interfaces of a and b, binding their MACs when
// known. It reports whether a link was created.
func (u *Upserter) WirelessLink(ctx context.Context, a, b *models.Device, aMAC, bMAC, description string) (bool, error) {
	if !u.caps.WirelessLinks || a.ID == b.ID {
		return false, nil
	}

	ai, err := u.Interface(ctx, a, MeshInterface)
	if err != nil {
		return false, err
	}

	bi, err := u.Interface(ctx, b, MeshInterface)
	if err != nil {
		return false, err
	}

	if aMAC != "" {
		if _, err := u.BindMAC(ctx, ai, aMAC); err != nil {
			return false, err
		}
	}

	if bMAC != "" {
		if _, err := u.BindMAC(ctx, bi, bMAC); err != nil {
			return false, err
		}
	}

	_, created, err := u.repo.EnsureWirelessLink(ctx, &models.WirelessLink{
		AInterfaceID: ai.ID,
		BInterfaceID: bi.ID,
		TenantID:     u.cfg.TenantID,
		Status:       models.StatusActive,
		Description:  identity.Clip(description, descMaxLen),
	})
	if err != nil {
		return false, storeErr("ensure wireless link", err)
	}

	u.created("wireless_link", fmt.Sprintf("%d-%d", ai.ID, bi.ID), created)

	return created, nil
}

// Client overwrites the tenant's record for rec.MAC.
func (u *Upserter) Client(ctx context.Context, rec *models.ClientRecord) error {
	rec.TenantID = u.cfg.TenantID

	if err := u.repo.UpsertClient(ctx, rec); err != nil {
		return storeErr("upsert client", err)
	}

	return nil
}
