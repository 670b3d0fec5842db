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

// Package memstore is an in-memory inventory, config and run log store.
// Transactions work on a snapshot and are serialized.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/carverauto/r1sync/pkg/inventory"
	"github.com/carverauto/r1sync/pkg/models"
)

var (
	errTxDone      = errors.New("transaction already finished")
	errCableEnds   = errors.New("cable endpoints must differ")
	errNoInterface = errors.New("interface does not exist")
)

type clientKey struct {
	tenantID int64
	mac      string
}

type state struct {
	nextID int64

	siteGroups    map[int64]models.SiteGroup
	sites         map[int64]models.Site
	locations     map[int64]models.Location
	roles         map[int64]models.DeviceRole
	manufacturers map[int64]models.Manufacturer
	deviceTypes   map[int64]models.DeviceType
	devices       map[int64]models.Device
	interfaces    map[int64]models.Interface
	macs          map[int64]models.MACAddress
	ips           map[int64]models.IPAddress
	vlans         map[int64]models.VLAN
	wlans         map[int64]models.WirelessLAN
	cables        map[int64]models.Cable
	wlinks        map[int64]models.WirelessLink
	clients       map[clientKey]models.ClientRecord
}

func newState() *state {
	return &state{
		siteGroups:    make(map[int64]models.SiteGroup),
		sites:         make(map[int64]models.Site),
		locations:     make(map[int64]models.Location),
		roles:         make(map[int64]models.DeviceRole),
		manufacturers: make(map[int64]models.Manufacturer),
		deviceTypes:   make(map[int64]models.DeviceType),
		devices:       make(map[int64]models.Device),
		interfaces:    make(map[int64]models.Interface),
		macs:          make(map[int64]models.MACAddress),
		ips:           make(map[int64]models.IPAddress),
		vlans:         make(map[int64]models.VLAN),
		wlans:         make(map[int64]models.WirelessLAN),
		cables:        make(map[int64]models.Cable),
		wlinks:        make(map[int64]models.WirelessLink),
		clients:       make(map[clientKey]models.ClientRecord),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func (s *state) clone() *state {
	return &state{
		nextID:        s.nextID,
		siteGroups:    cloneMap(s.siteGroups),
		sites:         cloneMap(s.sites),
		locations:     cloneMap(s.locations),
		roles:         cloneMap(s.roles),
		manufacturers: cloneMap(s.manufacturers),
		deviceTypes:   cloneMap(s.deviceTypes),
		devices:       cloneMap(s.devices),
		interfaces:    cloneMap(s.interfaces),
		macs:          cloneMap(s.macs),
		ips:           cloneMap(s.ips),
		vlans:         cloneMap(s.vlans),
		wlans:         cloneMap(s.wlans),
		cables:        cloneMap(s.cables),
		wlinks:        cloneMap(s.wlinks),
		clients:       cloneMap(s.clients),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// first returns the lowest-id row matching fn.
func first[V any](m map[int64]V, fn func(V) bool) (V, bool) {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if v := m[id]; fn(v) {
			return v, true
		}
	}

	var zero V

	return zero, false
}

func sorted[V any](m map[int64]V) []V {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}

	return out
}

// Store is an in-memory inventory.Store that also keeps tenant configs and
// the run log. The zero value is not usable; call New.
type Store struct {
	caps inventory.Capabilities

	txMu sync.Mutex

	mu      sync.Mutex
	inv     *state
	configs map[int64]models.TenantConfig
	runs    []models.SyncRun
	nextCfg int64
}

// Option customizes a Store.
type Option func(*Store)

// WithCapabilities overrides the advertised schema capabilities.
func WithCapabilities(c inventory.Capabilities) Option {
	return func(s *Store) { s.caps = c }
}

// New returns an empty store advertising every capability.
func New(opts ...Option) *Store {
	s := &Store{
		caps:    inventory.AllCapabilities(),
		inv:     newState(),
		configs: make(map[int64]models.TenantConfig),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Capabilities() inventory.Capabilities {
	return s.caps
}

// Begin snapshots the inventory. Only one transaction is open at a time.
func (s *Store) Begin(ctx context.Context) (inventory.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.txMu.Lock()

	s.mu.Lock()
	snap := s.inv.clone()
	s.mu.Unlock()

	return &tx{store: s, st: snap}, nil
}

// Inventory is a point-in-time copy of every inventory table, ordered by id.
type Inventory struct {
	SiteGroups    []models.SiteGroup
	Sites         []models.Site
	Locations     []models.Location
	Roles         []models.DeviceRole
	Manufacturers []models.Manufacturer
	DeviceTypes   []models.DeviceType
	Devices       []models.Device
	Interfaces    []models.Interface
	MACs          []models.MACAddress
	IPs           []models.IPAddress
	VLANs         []models.VLAN
	WLANs         []models.WirelessLAN
	Cables        []models.Cable
	WirelessLinks []models.WirelessLink
	Clients       []models.ClientRecord
}

// Total is the number of inventory objects, client records excluded.
func (i *Inventory) Total() int {
	return len(i.SiteGroups) + len(i.Sites) + len(i.Locations) + len(i.Roles) +
		len(i.Manufacturers) + len(i.DeviceTypes) + len(i.Devices) + len(i.Interfaces) +
		len(i.MACs) + len(i.IPs) + len(i.VLANs) + len(i.WLANs) + len(i.Cables) + len(i.WirelessLinks)
}

// Snapshot returns the committed inventory.
func (s *Store) Snapshot() *Inventory {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.inv

	clients := make([]models.ClientRecord, 0, len(st.clients))
	for _, c := range st.clients {
		clients = append(clients, c)
	}

	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })

	return &Inventory{
		SiteGroups:    sorted(st.siteGroups),
		Sites:         sorted(st.sites),
		Locations:     sorted(st.locations),
		Roles:         sorted(st.roles),
		Manufacturers: sorted(st.manufacturers),
		DeviceTypes:   sorted(st.deviceTypes),
		Devices:       sorted(st.devices),
		Interfaces:    sorted(st.interfaces),
		MACs:          sorted(st.macs),
		IPs:           sorted(st.ips),
		VLANs:         sorted(st.vlans),
		WLANs:         sorted(st.wlans),
		Cables:        sorted(st.cables),
		WirelessLinks: sorted(st.wlinks),
		Clients:       clients,
	}
}

// PutSite seeds a site outside any transaction.
func (s *Store) PutSite(site models.Site) models.Site {
	s.mu.Lock()
	defer s.mu.Unlock()

	site.ID = s.inv.id()
	s.inv.sites[site.ID] = site

	return site
}

type tx struct {
	store *Store
	st    *state
	done  bool
}

var _ inventory.Tx = (*tx)(nil)

func (t *tx) finish() error {
	if t.done {
		return errTxDone
	}

	t.done = true
	t.store.txMu.Unlock()

	return nil
}

func (t *tx) Commit(context.Context) error {
	if t.done {
		return errTxDone
	}

	t.store.mu.Lock()
	t.store.inv = t.st
	t.store.mu.Unlock()

	return t.finish()
}

// Rollback discards the snapshot. Rolling back a finished transaction is a
// no-op so it can be deferred.
func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}

	return t.finish()
}

func (t *tx) Capabilities() inventory.Capabilities {
	return t.store.caps
}

func (t *tx) EnsureSiteGroup(_ context.Context, g *models.SiteGroup) (*models.SiteGroup, bool, error) {
	if cur, ok := first(t.st.siteGroups, func(v models.SiteGroup) bool { return v.Slug == g.Slug }); ok {
		return &cur, false, nil
	}

	row := *g
	row.ID = t.st.id()
	t.st.siteGroups[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateSiteGroup(_ context.Context, g *models.SiteGroup) error {
	return update(t.st.siteGroups, g.ID, *g)
}

func update[V any](m map[int64]V, id int64, v V) error {
	if _, ok := m[id]; !ok {
		return inventory.ErrNotFound
	}

	m[id] = v

	return nil
}

func lookup[V any](v V, ok bool) (*V, error) {
	if !ok {
		return nil, inventory.ErrNotFound
	}

	return &v, nil
}

func (t *tx) SiteByID(_ context.Context, id int64) (*models.Site, error) {
	v, ok := t.st.sites[id]
	return lookup(v, ok)
}

func (t *tx) SiteBySlug(_ context.Context, slug string) (*models.Site, error) {
	v, ok := first(t.st.sites, func(x models.Site) bool { return x.Slug == slug })

	return lookup(v, ok)
}

func (t *tx) SiteByName(_ context.Context, name string) (*models.Site, error) {
	v, ok := first(t.st.sites, func(x models.Site) bool { return strings.EqualFold(x.Name, name) })

	return lookup(v, ok)
}

func (t *tx) EnsureSite(_ context.Context, s *models.Site) (*models.Site, bool, error) {
	if cur, ok := first(t.st.sites, func(v models.Site) bool { return v.Slug == s.Slug }); ok {
		return &cur, false, nil
	}

	row := *s
	row.ID = t.st.id()
	t.st.sites[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateSite(_ context.Context, s *models.Site) error {
	return update(t.st.sites, s.ID, *s)
}

func (t *tx) EnsureLocation(_ context.Context, l *models.Location) (*models.Location, bool, error) {
	if cur, ok := first(t.st.locations, func(v models.Location) bool {
		return v.SiteID == l.SiteID && v.Slug == l.Slug
	}); ok {
		return &cur, false, nil
	}

	row := *l
	row.ID = t.st.id()
	t.st.locations[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateLocation(_ context.Context, l *models.Location) error {
	return update(t.st.locations, l.ID, *l)
}

func (t *tx) EnsureDeviceRole(_ context.Context, r *models.DeviceRole) (*models.DeviceRole, bool, error) {
	if cur, ok := first(t.st.roles, func(v models.DeviceRole) bool { return v.Slug == r.Slug }); ok {
		return &cur, false, nil
	}

	row := *r
	row.ID = t.st.id()
	t.st.roles[row.ID] = row

	return &row, true, nil
}

func (t *tx) EnsureManufacturer(_ context.Context, m *models.Manufacturer) (*models.Manufacturer, bool, error) {
	if cur, ok := first(t.st.manufacturers, func(v models.Manufacturer) bool { return v.Slug == m.Slug }); ok {
		return &cur, false, nil
	}

	row := *m
	row.ID = t.st.id()
	t.st.manufacturers[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateManufacturer(_ context.Context, m *models.Manufacturer) error {
	return update(t.st.manufacturers, m.ID, *m)
}

func (t *tx) EnsureDeviceType(_ context.Context, d *models.DeviceType) (*models.DeviceType, bool, error) {
	if cur, ok := first(t.st.deviceTypes, func(v models.DeviceType) bool {
		return v.ManufacturerID == d.ManufacturerID && v.Slug == d.Slug
	}); ok {
		return &cur, false, nil
	}

	row := *d
	row.ID = t.st.id()
	t.st.deviceTypes[row.ID] = row

	return &row, true, nil
}

func (t *tx) DeviceBySerial(_ context.Context, serial string) (*models.Device, error) {
	v, ok := first(t.st.devices, func(x models.Device) bool { return serial != "" && x.Serial == serial })

	return lookup(v, ok)
}

func (t *tx) DeviceBySiteName(_ context.Context, siteID int64, name string) (*models.Device, error) {
	named := func(x models.Device) bool { return x.SiteID == siteID && x.Name == name }

	v, ok := first(t.st.devices, func(x models.Device) bool { return named(x) && x.Serial == "" })
	if !ok {
		v, ok = first(t.st.devices, named)
	}

	return lookup(v, ok)
}

func (t *tx) DeviceByMAC(_ context.Context, tenantID, siteID int64, mac string) (*models.Device, error) {
	inScope := func(deviceID int64) (models.Device, bool) {
		d, ok := t.st.devices[deviceID]
		return d, ok && d.TenantID == tenantID && d.SiteID == siteID
	}

	if obj, ok := first(t.st.macs, func(v models.MACAddress) bool { return v.MAC == mac }); ok && obj.InterfaceID != nil {
		if iface, ok := t.st.interfaces[*obj.InterfaceID]; ok {
			if d, ok := inScope(iface.DeviceID); ok {
				return &d, nil
			}
		}
	}

	iface, ok := first(t.st.interfaces, func(v models.Interface) bool {
		if !strings.EqualFold(v.MACAddress, mac) {
			return false
		}

		_, ok := inScope(v.DeviceID)

		return ok
	})
	if !ok {
		return nil, inventory.ErrNotFound
	}

	d := t.st.devices[iface.DeviceID]

	return &d, nil
}

func (t *tx) EnsureDevice(_ context.Context, d *models.Device) (*models.Device, bool, error) {
	if cur, ok := first(t.st.devices, func(v models.Device) bool {
		if d.Serial != "" {
			return v.Serial == d.Serial
		}

		return v.SiteID == d.SiteID && v.Name == d.Name
	}); ok {
		return &cur, false, nil
	}

	row := *d
	row.ID = t.st.id()
	t.st.devices[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateDevice(_ context.Context, d *models.Device) error {
	return update(t.st.devices, d.ID, *d)
}

func (t *tx) EnsureInterface(_ context.Context, i *models.Interface) (*models.Interface, bool, error) {
	if cur, ok := first(t.st.interfaces, func(v models.Interface) bool {
		return v.DeviceID == i.DeviceID && v.Name == i.Name
	}); ok {
		return &cur, false, nil
	}

	row := *i
	row.ID = t.st.id()
	t.st.interfaces[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateInterface(_ context.Context, i *models.Interface) error {
	return update(t.st.interfaces, i.ID, *i)
}

func (t *tx) EnsureMACAddress(_ context.Context, m *models.MACAddress) (*models.MACAddress, bool, error) {
	if cur, ok := first(t.st.macs, func(v models.MACAddress) bool { return v.MAC == m.MAC }); ok {
		return &cur, false, nil
	}

	row := *m
	row.ID = t.st.id()
	t.st.macs[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateMACAddress(_ context.Context, m *models.MACAddress) error {
	return update(t.st.macs, m.ID, *m)
}

func (t *tx) EnsureIPAddress(_ context.Context, ip *models.IPAddress) (*models.IPAddress, bool, error) {
	if cur, ok := first(t.st.ips, func(v models.IPAddress) bool {
		return v.Address == ip.Address && v.TenantID == ip.TenantID
	}); ok {
		return &cur, false, nil
	}

	row := *ip
	row.ID = t.st.id()
	t.st.ips[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateIPAddress(_ context.Context, ip *models.IPAddress) error {
	return update(t.st.ips, ip.ID, *ip)
}

func (t *tx) EnsureVLAN(_ context.Context, v *models.VLAN) (*models.VLAN, bool, error) {
	if cur, ok := first(t.st.vlans, func(x models.VLAN) bool {
		return x.TenantID == v.TenantID && x.VID == v.VID && models.SameRef(x.SiteID, v.SiteID)
	}); ok {
		return &cur, false, nil
	}

	row := *v
	row.ID = t.st.id()
	t.st.vlans[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpdateVLAN(_ context.Context, v *models.VLAN) error {
	return update(t.st.vlans, v.ID, *v)
}

func (t *tx) EnsureWirelessLAN(_ context.Context, w *models.WirelessLAN) (*models.WirelessLAN, bool, error) {
	if cur, ok := first(t.st.wlans, func(v models.WirelessLAN) bool {
		return v.TenantID == w.TenantID && v.SSID == w.SSID
	}); ok {
		return &cur, false, nil
	}

	row := *w
	row.ID = t.st.id()
	t.st.wlans[row.ID] = row

	return &row, true, nil
}

func samePair(a1, b1, a2, b2 int64) bool {
	return (a1 == a2 && b1 == b2) || (a1 == b2 && b1 == a2)
}

func (t *tx) checkEnds(a, b int64) error {
	if a == b {
		return errCableEnds
	}

	if _, ok := t.st.interfaces[a]; !ok {
		return errNoInterface
	}

	if _, ok := t.st.interfaces[b]; !ok {
		return errNoInterface
	}

	return nil
}

func (t *tx) EnsureCable(_ context.Context, c *models.Cable) (*models.Cable, bool, error) {
	if err := t.checkEnds(c.AInterfaceID, c.BInterfaceID); err != nil {
		return nil, false, err
	}

	if cur, ok := first(t.st.cables, func(v models.Cable) bool {
		return samePair(v.AInterfaceID, v.BInterfaceID, c.AInterfaceID, c.BInterfaceID)
	}); ok {
		return &cur, false, nil
	}

	row := *c
	row.ID = t.st.id()
	t.st.cables[row.ID] = row

	return &row, true, nil
}

func (t *tx) EnsureWirelessLink(_ context.Context, l *models.WirelessLink) (*models.WirelessLink, bool, error) {
	if err := t.checkEnds(l.AInterfaceID, l.BInterfaceID); err != nil {
		return nil, false, err
	}

	if cur, ok := first(t.st.wlinks, func(v models.WirelessLink) bool {
		return samePair(v.AInterfaceID, v.BInterfaceID, l.AInterfaceID, l.BInterfaceID)
	}); ok {
		return &cur, false, nil
	}

	row := *l
	row.ID = t.st.id()
	t.st.wlinks[row.ID] = row

	return &row, true, nil
}

func (t *tx) UpsertClient(_ context.Context, c *models.ClientRecord) error {
	key := clientKey{tenantID: c.TenantID, mac: c.MAC}

	row := *c
	if cur, ok := t.st.clients[key]; ok {
		row.ID = cur.ID
	} else {
		row.ID = t.st.id()
	}

	t.st.clients[key] = row
	c.ID = row.ID

	return nil
}
