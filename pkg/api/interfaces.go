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

//go:generate mockgen -destination=mock_api.go -package=api github.com/carverauto/r1sync/pkg/api Syncer

package api

import (
	"context"

	"github.com/carverauto/r1sync/pkg/models"
)

// Syncer runs and refreshes tenant configs.
type Syncer interface {
	RunSync(ctx context.Context, configID int64) (*models.SyncOutcome, error)
	RefreshVenues(ctx context.Context, configID int64) ([]models.VenueRef, error)
}

// ConfigLister lists tenant configs.
type ConfigLister interface {
	ListConfigs(ctx context.Context) ([]*models.TenantConfig, error)
}

// RunLister reads the run history.
type RunLister interface {
	ListRuns(ctx context.Context, configID int64, limit int) ([]*models.SyncRun, error)
}
