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

import "time"

const (
	// CloudEventsSpecVersion is the CloudEvents version emitted by r1sync.
	CloudEventsSpecVersion = "1.0"

	// EventTypeSyncRunFinished is emitted once per finalized run.
	EventTypeSyncRunFinished = "com.carverauto.r1sync.run.finished"
)

// CloudEvent represents a CloudEvents v1.0 compliant event
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// SyncRunEvent is the payload of EventTypeSyncRunFinished.
type SyncRunEvent struct {
	RunID    string      `json:"run_id"`
	ConfigID int64       `json:"config_id"`
	TenantID int64       `json:"tenant_id"`
	Status   RunStatus   `json:"status"`
	Summary  string      `json:"summary"`
	Error    string      `json:"error,omitempty"`
	Duration Duration    `json:"duration"`
	Counters RunCounters `json:"counters"`
}

// NewSyncRunEvent builds the event payload for a finalized run.
func NewSyncRunEvent(run *SyncRun) *SyncRunEvent {
	return &SyncRunEvent{
		RunID:    run.ID.String(),
		ConfigID: run.ConfigID,
		TenantID: run.TenantID,
		Status:   run.Status,
		Summary:  run.Summary,
		Error:    run.Error,
		Duration: Duration(run.Duration()),
		Counters: run.RunCounters,
	}
}
