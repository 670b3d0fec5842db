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
	"io"
)

// PrintHelp writes the usage text.
func PrintHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `r1sync: reconcile RUCKUS One tenants into the inventory of record

Usage:
  r1sync <command> [options] [id]

Commands:
  run             run a sync for one tenant config or every enabled config
  refresh-venues  fetch the venue list of a tenant config and cache it
  serve           run the periodic scheduler and the HTTP API
  migrate         apply pending database migrations
  version         print the build version

Common options:
  -config string  path to r1sync.yaml (default: $R1SYNC_CONFIG or the first of
                  ./r1sync.yaml, /etc/r1sync/r1sync.yaml)
  -dry-run        reconcile into an in-memory inventory instead of PostgreSQL

Options for run:
  -all            sync every enabled tenant config, ordered by id
  -tenant-id int  inventory tenant id whose config should be synced

Options are read before the positional id. The id of run and refresh-venues
is a config id; when no config has that id it is looked up as a tenant id.

Examples:
  # Sync config 3
  r1sync run 3

  # Sync the config bound to inventory tenant 12
  r1sync run -tenant-id 12

  # Sync all enabled configs without touching the database
  r1sync run -dry-run -all

  # Refresh the cached venue list of config 3
  r1sync refresh-venues 3

  # Run the daemon
  r1sync serve -config /etc/r1sync/r1sync.yaml
`)
}
