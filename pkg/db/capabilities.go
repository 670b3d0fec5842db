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

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/r1sync/pkg/inventory"
)

// querier is the statement surface shared by pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const capabilityQuery = `
SELECT table_name, column_name
FROM information_schema.columns
WHERE table_schema = current_schema()
  AND table_name = ANY($1)`

var capabilityTables = []string{"mac_addresses", "devices", "vlans", "wireless_links", "interfaces"}

// DetectCapabilities inspects the live schema once.
func DetectCapabilities(ctx context.Context, q querier) (inventory.Capabilities, error) {
	rows, err := q.Query(ctx, capabilityQuery, capabilityTables)
	if err != nil {
		return inventory.Capabilities{}, fmt.Errorf("detect capabilities: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return inventory.Capabilities{}, fmt.Errorf("detect capabilities: %w", err)
		}

		cols[table+"."+column] = true
	}

	if err := rows.Err(); err != nil {
		return inventory.Capabilities{}, fmt.Errorf("detect capabilities: %w", err)
	}

	return capabilitiesFrom(cols), nil
}

// capabilitiesFrom maps "table.column" names to capabilities.
func capabilitiesFrom(cols map[string]bool) inventory.Capabilities {
	return inventory.Capabilities{
		MACObjects:     cols["mac_addresses.interface_id"],
		DeviceLocation: cols["devices.location_id"],
		VLANSiteScope:  cols["vlans.site_id"],
		WirelessLinks:  cols["wireless_links.a_interface_id"],
		PoEMode:        cols["interfaces.poe_mode"],
	}
}
