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

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/r1sync/pkg/models"
)

func (a *app) println(style lipgloss.Style, msg string) {
	_, _ = fmt.Fprintln(a.out, style.Render(msg))
}

func (a *app) statusStyle(status models.RunStatus) lipgloss.Style {
	switch status {
	case models.RunStatusSuccess:
		return a.styles.success
	case models.RunStatusSkipped:
		return a.styles.warning
	case models.RunStatusFailed:
		return a.styles.error
	case models.RunStatusRunning, models.RunStatusUnknown:
		return a.styles.info
	}

	return a.styles.info
}

func (a *app) printOutcome(o *models.SyncOutcome) {
	line := fmt.Sprintf("config #%d %s", o.ConfigID, a.statusStyle(o.Status).Render(string(o.Status)))
	if o.Message != "" {
		line += ": " + o.Message
	}

	_, _ = fmt.Fprintln(a.out, line)

	if counts := formatCounters(o.Counters); counts != "" {
		_, _ = fmt.Fprintln(a.out, "  "+a.styles.muted.Render(counts))
	}
}

// formatCounters lists the non-zero counters in a fixed order.
func formatCounters(c models.RunCounters) string {
	fields := []struct {
		name string
		n    int
	}{
		{"venues", c.Venues},
		{"networks", c.Networks},
		{"devices", c.Devices},
		{"interfaces", c.Interfaces},
		{"macs", c.MACs},
		{"vlans", c.VLANs},
		{"ips", c.IPs},
		{"wlans", c.WLANs},
		{"wlan_groups", c.WLANGroups},
		{"tunnels", c.Tunnels},
		{"cables", c.Cables},
		{"clients", c.Clients},
	}

	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		if f.n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", f.name, f.n))
		}
	}

	return strings.Join(parts, " ")
}

func (a *app) printDryRun() {
	inv := a.dryRun.Snapshot()
	a.println(a.styles.muted, fmt.Sprintf("Dry run: %d inventory objects held in memory, nothing written.", inv.Total()))
}
