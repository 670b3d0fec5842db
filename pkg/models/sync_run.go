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

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a SyncRun.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
	RunStatusSkipped RunStatus = "skipped"
	RunStatusUnknown RunStatus = "unknown"
)

// Final reports whether no further transition is allowed.
func (s RunStatus) Final() bool {
	return s == RunStatusSuccess || s == RunStatusFailed || s == RunStatusSkipped
}

// RunCounters counts objects touched by one run, not total inventory size.
type RunCounters struct {
	Venues     int `json:"venues"`
	Networks   int `json:"networks"`
	Devices    int `json:"devices"`
	Interfaces int `json:"interfaces"`
	MACs       int `json:"macs"`
	VLANs      int `json:"vlans"`
	IPs        int `json:"ips"`
	WLANs      int `json:"wlans"`
	WLANGroups int `json:"wlan_groups"`
	Tunnels    int `json:"tunnels"`
	Cables     int `json:"cables"`
	Clients    int `json:"clients"`
}

// SyncRun is the audit record of one sync attempt. Immutable once final.
type SyncRun struct {
	ID       uuid.UUID  `json:"id"`
	ConfigID int64      `json:"config_id"`
	TenantID int64      `json:"tenant_id"`
	Started  time.Time  `json:"started"`
	Finished *time.Time `json:"finished,omitempty"`
	Status   RunStatus  `json:"status"`
	Summary  string     `json:"summary"`
	Message  string     `json:"message"`
	Error    string     `json:"error,omitempty"`

	RunCounters
}

// NewSyncRun opens a run in the running state.
func NewSyncRun(cfg *TenantConfig, now time.Time) *SyncRun {
	return &SyncRun{
		ID:       uuid.New(),
		ConfigID: cfg.ID,
		TenantID: cfg.TenantID,
		Started:  now,
		Status:   RunStatusRunning,
	}
}

// Duration is the wall time of a finished run.
func (r *SyncRun) Duration() time.Duration {
	if r.Finished == nil {
		return 0
	}

	return r.Finished.Sub(r.Started)
}

// SyncOutcome is what RunSync reports to its caller.
type SyncOutcome struct {
	ConfigID int64       `json:"config_id"`
	RunID    uuid.UUID   `json:"run_id,omitempty"`
	Status   RunStatus   `json:"status"`
	Message  string      `json:"message"`
	Counters RunCounters `json:"counters"`
}

func (o *SyncOutcome) String() string {
	return fmt.Sprintf("config=%d status=%s %s", o.ConfigID, o.Status, o.Message)
}
