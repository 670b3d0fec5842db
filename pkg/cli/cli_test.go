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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/r1sync/pkg/models"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    CmdConfig
		wantErr error
	}{
		{name: "no args", args: nil, want: CmdConfig{Help: true}},
		{name: "help", args: []string{"--help"}, want: CmdConfig{Help: true}},
		{name: "run by id", args: []string{"run", "3"}, want: CmdConfig{SubCmd: "run", ID: 3}},
		{name: "run by tenant", args: []string{"run", "-tenant-id", "12"}, want: CmdConfig{SubCmd: "run", TenantID: 12}},
		{
			name: "run all dry",
			args: []string{"run", "-dry-run", "-all", "-config", "/tmp/r1.yaml"},
			want: CmdConfig{SubCmd: "run", All: true, DryRun: true, ConfigFile: "/tmp/r1.yaml"},
		},
		{name: "run without target", args: []string{"run"}, wantErr: errRunTarget},
		{name: "run all with id", args: []string{"run", "-all", "4"}, wantErr: errTargetConflict},
		{name: "run bad id", args: []string{"run", "x"}, wantErr: errInvalidID},
		{name: "refresh", args: []string{"refresh-venues", "5"}, want: CmdConfig{SubCmd: "refresh-venues", ID: 5}},
		{name: "refresh without id", args: []string{"refresh-venues"}, wantErr: errRequiresID},
		{name: "serve", args: []string{"serve", "-config", "c.yaml"}, want: CmdConfig{SubCmd: "serve", ConfigFile: "c.yaml"}},
		{name: "migrate", args: []string{"migrate"}, want: CmdConfig{SubCmd: "migrate"}},
		{name: "version", args: []string{"version"}, want: CmdConfig{SubCmd: "version"}},
		{name: "unknown", args: []string{"frobnicate"}, wantErr: errUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlags(tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)

			got.Args = nil
			assert.Equal(t, tt.want, *got)
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "r1sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

const disabledTenant = `
logging:
  output: stderr
  level: error
tenants:
  - tenant_id: 7
    name: acme
    r1_tenant_id: r1-acme
    client_id: id
    client_secret: secret
    enabled: false
`

func TestRunDryRunSkipsDisabledConfig(t *testing.T) {
	path := writeConfig(t, disabledTenant)

	cmd, err := ParseFlags([]string{"run", "-dry-run", "-config", path, "-tenant-id", "7"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), cmd, &out))

	assert.Contains(t, out.String(), "config #1")
	assert.Contains(t, out.String(), string(models.RunStatusSkipped))
	assert.Contains(t, out.String(), "Dry run")
}

func TestRunAllWithoutEnabledConfigs(t *testing.T) {
	path := writeConfig(t, disabledTenant)

	cmd, err := ParseFlags([]string{"run", "-dry-run", "-all", "-config", path})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), cmd, &out))

	assert.Contains(t, out.String(), "No enabled tenant configs found.")
}

func TestRunUnknownConfig(t *testing.T) {
	path := writeConfig(t, disabledTenant)

	cmd, err := ParseFlags([]string{"run", "-dry-run", "-config", path, "42"})
	require.NoError(t, err)

	var out bytes.Buffer
	err = Run(context.Background(), cmd, &out)
	require.ErrorIs(t, err, errSyncFailed)
	require.ErrorIs(t, err, models.ErrConfigNotFound)
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), &CmdConfig{Help: true}, &out))
	assert.Contains(t, out.String(), "refresh-venues")
}

func TestRunVersion(t *testing.T) {
	cmd, err := ParseFlags([]string{"version"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), cmd, &out))
	assert.Contains(t, out.String(), "r1sync dev")
}

func TestFormatCounters(t *testing.T) {
	assert.Empty(t, formatCounters(models.RunCounters{}))
	assert.Equal(t, "venues=2 devices=5 clients=9",
		formatCounters(models.RunCounters{Venues: 2, Devices: 5, Clients: 9}))
}
