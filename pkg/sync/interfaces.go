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

//go:generate mockgen -destination=mock_sync.go -package=sync github.com/carverauto/r1sync/pkg/sync ControllerAPI,EventPublisher

package sync

import (
	"context"

	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/r1"
)

// ControllerAPI is the read surface of the controller used by a run.
type ControllerAPI interface {
	Venues(ctx context.Context) ([]r1.Venue, error)
	WifiNetworks(ctx context.Context) ([]r1.WifiNetwork, error)
	APs(ctx context.Context, venueID string) ([]r1.Device, error)
	Switches(ctx context.Context, venueID string) ([]r1.Device, error)
	SwitchPorts(ctx context.Context, venueID string) ([]r1.SwitchPort, error)
	WifiClients(ctx context.Context, venueID string) ([]r1.WifiClient, error)
	SwitchClients(ctx context.Context, venueID string) ([]r1.SwitchClient, error)
	Topology(ctx context.Context, venueID string) (*r1.Topology, error)
}

var _ ControllerAPI = (*r1.Client)(nil)

// ClientFactory builds the controller client for one run.
type ClientFactory func(cfg *models.TenantConfig) (ControllerAPI, error)

// ConfigStore reads tenant configs and persists their run status.
type ConfigStore interface {
	GetConfig(ctx context.Context, id int64) (*models.TenantConfig, error)
	ConfigByTenant(ctx context.Context, tenantID int64) (*models.TenantConfig, error)
	ListConfigs(ctx context.Context) ([]*models.TenantConfig, error)
	SaveSyncStatus(ctx context.Context, cfg *models.TenantConfig) error
	SaveVenues(ctx context.Context, id int64, venues []models.VenueRef) error
}

// RunLog is the append-only sync run history. FinishRun must refuse a run
// that is already final.
type RunLog interface {
	StartRun(ctx context.Context, run *models.SyncRun) error
	FinishRun(ctx context.Context, run *models.SyncRun) error
	ListRuns(ctx context.Context, configID int64, limit int) ([]*models.SyncRun, error)
}

// EventPublisher announces finalized runs.
type EventPublisher interface {
	PublishRunFinished(ctx context.Context, run *models.SyncRun) error
}
