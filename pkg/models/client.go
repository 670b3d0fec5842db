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
	"encoding/json"
	"time"
)

// ClientRecord is the latest observation of one client MAC for a tenant.
// Unique per (TenantID, MAC); later observations overwrite earlier ones.
type ClientRecord struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenant_id"`
	VenueID   string          `json:"venue_id"`
	NetworkID string          `json:"network_id"`
	R1ID      string          `json:"r1_id"`
	MAC       string          `json:"mac"`
	IPAddress string          `json:"ip_address"`
	Hostname  string          `json:"hostname"`
	SSID      string          `json:"ssid"`
	VLAN      *int            `json:"vlan,omitempty"`
	LastSeen  time.Time       `json:"last_seen"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}
