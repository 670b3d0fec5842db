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
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/r1sync/pkg/inventory/memstore"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/r1"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

var errUpstreamDown = errors.New("POST /venues/switches/query failed (503): unavailable")

type venueData struct {
	aps      []r1.Device
	switches []r1.Device
	ports    []r1.SwitchPort
	wifi     []r1.WifiClient
	wired    []r1.SwitchClient
	topology *r1.Topology
}

type snapshot struct {
	venues   []r1.Venue
	networks []r1.WifiNetwork
	byVenue  map[string]venueData
}

type harness struct {
	store *memstore.Store
	api   *MockControllerAPI
	svc   *Service
	cfg   *models.TenantConfig
}

func testTenantConfig() *models.TenantConfig {
	cfg := models.NewTenantConfig()
	cfg.TenantID = 7
	cfg.Name = "acme"
	cfg.R1TenantID = "r1-tenant"
	cfg.ClientID = "client"
	cfg.ClientSecret = "secret"

	return cfg
}

func steppingClock() func() time.Time {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newHarness(t *testing.T, mutate func(cfg *models.TenantConfig), opts ...Option) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	store := memstore.New()

	cfg := testTenantConfig()
	if mutate != nil {
		mutate(cfg)
	}

	require.NoError(t, store.PutConfig(context.Background(), cfg))

	api := NewMockControllerAPI(ctrl)
	factory := func(*models.TenantConfig) (ControllerAPI, error) { return api, nil }

	opts = append([]Option{WithClock(steppingClock()), WithLogger(logger.NewTestLogger())}, opts...)

	svc, err := NewService(Config{}, store, store, store, factory, opts...)
	require.NoError(t, err)

	return &harness{store: store, api: api, svc: svc, cfg: cfg}
}

// serve answers every controller call from s, any number of times.
func (h *harness) serve(s snapshot) {
	h.api.EXPECT().Venues(gomock.Any()).Return(s.venues, nil).AnyTimes()
	h.api.EXPECT().WifiNetworks(gomock.Any()).Return(s.networks, nil).AnyTimes()
	h.api.EXPECT().APs(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) ([]r1.Device, error) {
		return s.byVenue[id].aps, nil
	}).AnyTimes()
	h.api.EXPECT().Switches(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) ([]r1.Device, error) {
		return s.byVenue[id].switches, nil
	}).AnyTimes()
	h.api.EXPECT().SwitchPorts(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) ([]r1.SwitchPort, error) {
		return s.byVenue[id].ports, nil
	}).AnyTimes()
	h.api.EXPECT().WifiClients(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) ([]r1.WifiClient, error) {
		return s.byVenue[id].wifi, nil
	}).AnyTimes()
	h.api.EXPECT().SwitchClients(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) ([]r1.SwitchClient, error) {
		return s.byVenue[id].wired, nil
	}).AnyTimes()
	h.api.EXPECT().Topology(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) (*r1.Topology, error) {
		return s.byVenue[id].topology, nil
	}).AnyTimes()
}

func (h *harness) runs(t *testing.T) []*models.SyncRun {
	t.Helper()

	runs, err := h.store.ListRuns(context.Background(), h.cfg.ID, 0)
	require.NoError(t, err)

	return runs
}

func (h *harness) config(t *testing.T) *models.TenantConfig {
	t.Helper()

	cfg, err := h.store.GetConfig(context.Background(), h.cfg.ID)
	require.NoError(t, err)

	return cfg
}

func boolPtr(b bool) *bool { return &b }

func campusSnapshot() snapshot {
	return snapshot{
		venues:   []r1.Venue{{ID: "v1", Name: "HQ"}},
		networks: []r1.WifiNetwork{{ID: "n1", SSID: "corp"}},
		byVenue: map[string]venueData{
			"v1": {
				aps: []r1.Device{{Name: "AP-Lobby", Serial: "AP1", Model: "R510", IP: "10.0.0.10", MgmtVLAN: "10"}},
				switches: []r1.Device{
					{Name: "SW-Core", Serial: "SW1", Model: "ICX7150", IP: "10.0.0.2"},
				},
				ports: []r1.SwitchPort{
					{SwitchUnitID: "SW1", Name: "1/1/1", MAC: "AA:BB:CC:00:00:01", AdminStatus: "up",
						Capacity: "1G", VLANs: []string{"1", "20"}, LinkStatus: "Up", VLANIDsText: "1,20"},
					{SwitchUnitID: "SW1", Name: "1/1/48", MAC: "aabbcc000030", AdminStatus: "down",
						Speed: "10Gb/sec", VLANs: []string{"30", "20", "x"}, PoEEnabled: boolPtr(true)},
					{Name: "orphan"},
				},
				wifi: []r1.WifiClient{
					{MAC: "11:22:33:44:55:66", IP: "10.0.1.50", Hostname: "bobs-laptop", SSID: "corp", APSerial: "AP1",
						Raw: r1.Record{"macAddress": "11:22:33:44:55:66"}},
					{SSID: "guest", Raw: r1.Record{"hostname": "?"}},
				},
				wired: []r1.SwitchClient{
					{MAC: "66:55:44:33:22:11", IP: "10.0.2.9", Hostname: "printer", VLAN: "20", VLANText: "20",
						SwitchUnitID: "SW1", Port: "1/1/1", Raw: r1.Record{}},
				},
				topology: &r1.Topology{
					Nodes: []r1.TopologyNode{
						{Type: "switch", Name: "SW-Core", Serial: "SW1", Model: "ICX7150", MAC: "aa:bb:cc:00:00:99"},
						{Type: "ap", Name: "AP-Lobby", Serial: "AP1", Model: "R510", MAC: "aa:bb:cc:00:01:00", IP: "10.0.0.10"},
						{Type: "ap", Name: "AP-Mesh", Serial: "AP2", Model: "R750", MAC: "aa:bb:cc:00:02:00"},
					},
					Edges: []r1.TopologyEdge{
						{ConnectionType: "wired", Status: "Connected", FromSerial: "SW1", ToSerial: "AP1",
							ConnectedPort: "1/1/47", CorrespondingPort: "eth0", LinkSpeed: "1 Gb/sec"},
						{ConnectionType: "wired", FromMAC: "AA:BB:CC:00:02:00", ToSerial: "SW1", CorrespondingPort: "1/1/46"},
						{ConnectionType: "mesh", Status: "Up", FromSerial: "AP1", ToSerial: "AP2"},
						{ConnectionType: "wired", FromSerial: "SW1", ToSerial: "AP9", ToName: "Remote AP", ConnectedPort: "1/1/45"},
					},
				},
			},
		},
	}
}

func TestRunSyncScenario(t *testing.T) {
	h := newHarness(t, nil)
	h.serve(snapshot{
		venues: []r1.Venue{{ID: "v1", Name: "HQ"}},
		byVenue: map[string]venueData{
			"v1": {aps: []r1.Device{{Serial: "AP1", Model: "R510"}}},
		},
	})

	outcome, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, outcome.Status)
	assert.True(t, strings.HasPrefix(outcome.Message, "Sync OK. venues=1 wlans=0 processed_devices=1 "), outcome.Message)

	inv := h.store.Snapshot()
	require.Len(t, inv.Sites, 1)
	assert.Equal(t, "HQ", inv.Sites[0].Name)
	require.Len(t, inv.Devices, 1)
	assert.Equal(t, "AP1", inv.Devices[0].Serial)
	assert.Equal(t, "AP1", inv.Devices[0].Name)
	assert.Equal(t, inv.Sites[0].ID, inv.Devices[0].SiteID)

	runs := h.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, 1, runs[0].Devices)
	assert.Equal(t, 1, runs[0].Venues)
	require.NotNil(t, runs[0].Finished)
	assert.Equal(t, outcome.Message, runs[0].Summary)
	assert.Equal(t, outcome.Message, runs[0].Message)
	assert.Empty(t, runs[0].Error)

	cfg := h.config(t)
	assert.Equal(t, models.LastSyncSuccess, cfg.LastSyncStatus)
	assert.Equal(t, outcome.Message, cfg.LastSyncMessage)
	require.NotNil(t, cfg.LastSync)
}

func TestRunSyncCountsEveryCategory(t *testing.T) {
	h := newHarness(t, func(cfg *models.TenantConfig) { cfg.Toggles.VLANs = true })
	h.serve(campusSnapshot())

	outcome, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RunCounters{
		Venues:     1,
		Devices:    2,
		Interfaces: 13,
		MACs:       5,
		VLANs:      5,
		IPs:        2,
		WLANs:      1,
		Cables:     4,
		Clients:    3,
	}, outcome.Counters)
	assert.Contains(t, outcome.Message, "processed_wlinks=1 ")
	assert.Contains(t, outcome.Message, "(mapping: mode=sites parent_site=none child_location=Venue)")

	inv := h.store.Snapshot()
	assert.Len(t, inv.Devices, 6)
	assert.Len(t, inv.Cables, 4)
	assert.Len(t, inv.WirelessLinks, 1)
	assert.Len(t, inv.VLANs, 4)
	assert.Len(t, inv.WLANs, 2)
	assert.Len(t, inv.Clients, 3)

	var macs []string
	for _, c := range inv.Clients {
		macs = append(macs, c.MAC)
	}

	assert.ElementsMatch(t, []string{"11:22:33:44:55:66", UnknownMAC, "66:55:44:33:22:11"}, macs)

	names := make(map[string]string)
	for _, d := range inv.Devices {
		names[d.Serial] = d.Name
	}

	assert.Equal(t, "CL-bobs-laptop-112233445566", names["112233445566"])
	assert.Equal(t, "CL-W-printer-665544332211", names["665544332211"])
	assert.Equal(t, "Remote AP", names["AP9"])

	for _, v := range inv.VLANs {
		if v.VID == 10 {
			assert.Equal(t, "MGMT VLAN 10", v.Name)
		}
	}
}

func TestRunSyncIsIdempotent(t *testing.T) {
	h := newHarness(t, func(cfg *models.TenantConfig) { cfg.Toggles.VLANs = true })
	h.serve(campusSnapshot())

	_, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.NoError(t, err)

	first := h.store.Snapshot()

	second, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.NoError(t, err)

	after := h.store.Snapshot()
	assert.Equal(t, first.Total(), after.Total())

	first.Clients, after.Clients = nil, nil
	assert.Equal(t, first, after)

	assert.Zero(t, second.Counters.Cables)
	assert.Contains(t, second.Message, "processed_wlinks=0 ")
	assert.Len(t, h.runs(t), 2)
}

func TestRunSyncSameNamedAPsStayDistinct(t *testing.T) {
	h := newHarness(t, nil)
	h.serve(snapshot{
		venues: []r1.Venue{{ID: "v1", Name: "HQ"}},
		byVenue: map[string]venueData{
			"v1": {aps: []r1.Device{
				{Name: "RuckusAP", Serial: "S1", Model: "R510"},
				{Name: "RuckusAP", Serial: "S2", Model: "R510"},
			}},
		},
	})

	_, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.NoError(t, err)

	first := h.store.Snapshot()
	require.Len(t, first.Devices, 2)
	assert.ElementsMatch(t, []string{"S1", "S2"}, []string{first.Devices[0].Serial, first.Devices[1].Serial})

	_, err = h.svc.RunSync(context.Background(), h.cfg.ID)
	require.NoError(t, err)

	after := h.store.Snapshot()
	first.Clients, after.Clients = nil, nil
	assert.Equal(t, first, after)
}

func TestRunSyncVenueFilter(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		want     []string
	}{
		{name: "selection", selected: []string{"v1"}, want: []string{"v1"}},
		{name: "empty selection", want: []string{"v1", "v2"}},
		{name: "blank selection", selected: []string{" "}, want: []string{"v1", "v2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(cfg *models.TenantConfig) {
				cfg.VenuesSelected = tt.selected
				cfg.Toggles = models.SyncToggles{APs: true}
			})

			h.api.EXPECT().Venues(gomock.Any()).Return([]r1.Venue{{ID: "v1", Name: "One"}, {ID: "v2", Name: "Two"}}, nil)

			for _, id := range tt.want {
				h.api.EXPECT().APs(gomock.Any(), id).Return(nil, nil)
			}

			outcome, err := h.svc.RunSync(context.Background(), h.cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), outcome.Counters.Venues)
			assert.Len(t, h.store.Snapshot().Sites, len(tt.want))
		})
	}
}

func TestRunSyncSkipsDisabledConfig(t *testing.T) {
	store := memstore.New()
	cfg := testTenantConfig()
	cfg.Enabled = false
	require.NoError(t, store.PutConfig(context.Background(), cfg))

	factory := func(*models.TenantConfig) (ControllerAPI, error) {
		t.Fatal("controller client must not be built for a disabled config")
		return nil, nil
	}

	svc, err := NewService(Config{}, store, store, store, factory)
	require.NoError(t, err)

	outcome, err := svc.RunSync(context.Background(), cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSkipped, outcome.Status)
	assert.Equal(t, skippedMessage, outcome.Message)

	runs, err := store.ListRuns(context.Background(), cfg.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunSyncFailureRollsBackAndRecords(t *testing.T) {
	h := newHarness(t, nil)

	h.api.EXPECT().Venues(gomock.Any()).Return([]r1.Venue{{ID: "v1", Name: "HQ"}}, nil)
	h.api.EXPECT().WifiNetworks(gomock.Any()).Return([]r1.WifiNetwork{{SSID: "corp"}}, nil)
	h.api.EXPECT().APs(gomock.Any(), "v1").Return([]r1.Device{{Serial: "AP1", Model: "R510"}}, nil)
	h.api.EXPECT().Switches(gomock.Any(), "v1").Return(nil, syncerr.New(syncerr.KindUpstream, "", errUpstreamDown))

	outcome, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.Error(t, err)
	assert.True(t, syncerr.Is(err, syncerr.KindUpstream))
	assert.ErrorIs(t, err, errUpstreamDown)
	assert.Equal(t, models.RunStatusFailed, outcome.Status)

	inv := h.store.Snapshot()
	assert.Zero(t, inv.Total())

	runs := h.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Equal(t, failedSummary, runs[0].Summary)
	assert.Equal(t, errUpstreamDown.Error(), runs[0].Error)
	assert.Equal(t, errUpstreamDown.Error(), runs[0].Message)
	require.NotNil(t, runs[0].Finished)

	cfg := h.config(t)
	assert.Equal(t, models.LastSyncFailed, cfg.LastSyncStatus)
	assert.Equal(t, errUpstreamDown.Error(), cfg.LastSyncMessage)
}

func TestRunSyncTruncatesErrors(t *testing.T) {
	h := newHarness(t, nil)

	long := errors.New(strings.Repeat("x", 30000))
	h.api.EXPECT().Venues(gomock.Any()).Return(nil, long)

	_, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.Error(t, err)
	assert.True(t, syncerr.Is(err, syncerr.KindUpstream))

	runs := h.runs(t)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].Error, runErrorMaxLen)
	assert.Len(t, runs[0].Message, runMessageMaxLen)
	assert.True(t, strings.HasSuffix(runs[0].Error, "..."))
	assert.Len(t, h.config(t).LastSyncMessage, configMessageMaxLen)
}

func TestRunSyncRecordsClientConstructionFailure(t *testing.T) {
	store := memstore.New()
	cfg := testTenantConfig()
	cfg.ClientSecret = ""
	require.NoError(t, store.PutConfig(context.Background(), cfg))

	svc, err := NewService(Config{}, store, store, store, NewClientFactory(r1.Config{}, nil))
	require.NoError(t, err)

	outcome, err := svc.RunSync(context.Background(), cfg.ID)
	require.Error(t, err)
	assert.True(t, syncerr.Is(err, syncerr.KindConfiguration))
	assert.Equal(t, models.RunStatusFailed, outcome.Status)

	runs, err := store.ListRuns(context.Background(), cfg.ID, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
}

func TestRunSyncLocationsModeWithoutParent(t *testing.T) {
	h := newHarness(t, func(cfg *models.TenantConfig) {
		cfg.VenueMapping.Mode = models.VenueMappingLocations
		cfg.Toggles = models.SyncToggles{}
	})
	h.serve(snapshot{venues: []r1.Venue{{ID: "v1", Name: "HQ"}}})

	_, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.Error(t, err)
	assert.True(t, syncerr.Is(err, syncerr.KindConfiguration))
	assert.Equal(t, models.LastSyncFailed, h.config(t).LastSyncStatus)
}

func TestRunSyncResolvesConfigByTenant(t *testing.T) {
	h := newHarness(t, func(cfg *models.TenantConfig) {
		cfg.TenantID = 42
		cfg.Toggles = models.SyncToggles{}
	})
	h.serve(snapshot{})

	outcome, err := h.svc.RunSync(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, h.cfg.ID, outcome.ConfigID)

	_, err = h.svc.RunSync(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, syncerr.Is(err, syncerr.KindConfiguration))
	assert.ErrorIs(t, err, models.ErrConfigNotFound)
	assert.Len(t, h.runs(t), 1)
}

func TestRunSyncStubPolicyOff(t *testing.T) {
	h := newHarness(t, func(cfg *models.TenantConfig) {
		cfg.AllowStub = models.StubPolicy{}
		cfg.Toggles = models.SyncToggles{Interfaces: true, Cabling: true}
	})
	h.serve(snapshot{
		venues: []r1.Venue{{ID: "v1", Name: "HQ"}},
		byVenue: map[string]venueData{
			"v1": {
				ports: []r1.SwitchPort{{SwitchUnitID: "SW9", Name: "1/1/1"}},
				topology: &r1.Topology{Edges: []r1.TopologyEdge{
					{ConnectionType: "wired", FromSerial: "X1", ToSerial: "X2"},
				}},
			},
		},
	})

	outcome, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.NoError(t, err)
	assert.Zero(t, outcome.Counters.Interfaces)
	assert.Empty(t, h.store.Snapshot().Devices)
}

func TestRunSyncPublishesEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := NewMockEventPublisher(ctrl)

	h := newHarness(t, func(cfg *models.TenantConfig) { cfg.Toggles = models.SyncToggles{} }, WithEvents(events))
	h.serve(snapshot{})

	events.EXPECT().PublishRunFinished(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, run *models.SyncRun) error {
			assert.Equal(t, models.RunStatusSuccess, run.Status)
			return errors.New("nats unavailable")
		})

	outcome, err := h.svc.RunSync(context.Background(), h.cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, outcome.Status)
}

func TestRefreshVenues(t *testing.T) {
	h := newHarness(t, nil)
	h.api.EXPECT().Venues(gomock.Any()).Return([]r1.Venue{{ID: "v1", Name: "HQ"}, {Name: "nameless"}}, nil)

	refs, err := h.svc.RefreshVenues(context.Background(), h.cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.VenueRef{{ID: "v1", Name: "HQ"}}, refs)
	assert.Equal(t, refs, h.config(t).VenuesCache)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(Config{}, nil, nil, nil, nil)
	require.ErrorIs(t, err, errNilDependency)
}

func TestRecorderFinishesOnce(t *testing.T) {
	h := newHarness(t, nil)

	rec, err := h.svc.startRun(context.Background(), h.cfg)
	require.NoError(t, err)

	require.NoError(t, rec.succeed(context.Background(), models.RunCounters{}, "ok"))
	require.ErrorIs(t, rec.fail(context.Background(), models.RunCounters{}, errUpstreamDown), errRunAlreadyFinished)

	runs := h.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusSuccess, runs[0].Status)
}
