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
	"fmt"
	"time"

	"github.com/carverauto/r1sync/pkg/identity"
	"github.com/carverauto/r1sync/pkg/metrics"
	"github.com/carverauto/r1sync/pkg/models"
)

// accumulator counts what a run touched. One is threaded by pointer through
// every venue step of a run.
type accumulator struct {
	venues     int
	wlans      int
	devices    int
	interfaces int
	macs       int
	cables     int
	wlinks     int
	vlans      int
	ips        int
	clients    int
}

func (a *accumulator) counters() models.RunCounters {
	return models.RunCounters{
		Venues:     a.venues,
		Devices:    a.devices,
		Interfaces: a.interfaces,
		MACs:       a.macs,
		VLANs:      a.vlans,
		IPs:        a.ips,
		WLANs:      a.wlans,
		Cables:     a.cables,
		Clients:    a.clients,
	}
}

func (a *accumulator) observe() {
	for category, n := range map[string]int{
		"devices":        a.devices,
		"interfaces":     a.interfaces,
		"macs":           a.macs,
		"cables":         a.cables,
		"wireless_links": a.wlinks,
		"vlans":          a.vlans,
		"ips":            a.ips,
		"clients":        a.clients,
		"wlans":          a.wlans,
	} {
		if n > 0 {
			metrics.SyncObjectsTouched.WithLabelValues(category).Add(float64(n))
		}
	}
}

// message renders the one-line summary stored on the run and the config.
func (a *accumulator) message(cfg *models.TenantConfig, elapsed time.Duration) string {
	return fmt.Sprintf("Sync OK. venues=%d wlans=%d processed_devices=%d processed_interfaces=%d "+
		"processed_macs=%d processed_cables=%d processed_wlinks=%d processed_vlans=%d processed_ips=%d "+
		"processed_clients=%d duration=%.2fs (toggles: %s) (mapping: mode=%s parent_site=%s child_location=%s)",
		a.venues, a.wlans, a.devices, a.interfaces,
		a.macs, a.cables, a.wlinks, a.vlans, a.ips,
		a.clients, elapsed.Seconds(), cfg.Toggles,
		cfg.MappingMode(),
		identity.FirstNonEmpty(cfg.VenueMapping.ParentSiteRef, "none"),
		identity.FirstNonEmpty(cfg.VenueMapping.ChildLocationName, models.DefaultChildLocationName))
}
