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
	"context"

	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/syncerr"
)

// RefreshVenues replaces the config's venue cache with the live venue list
// and returns it. The selection is left untouched.
func (s *Service) RefreshVenues(ctx context.Context, configID int64) ([]models.VenueRef, error) {
	cfg, err := s.resolveConfig(ctx, configID)
	if err != nil {
		return nil, err
	}

	api, err := s.newClient(cfg)
	if err != nil {
		return nil, classify(syncerr.KindConfiguration, "build controller client", err)
	}

	if api == nil {
		return nil, syncerr.New(syncerr.KindConfiguration, "build controller client", errNoClient)
	}

	venues, err := api.Venues(ctx)
	if err != nil {
		return nil, upstream("list venues", err)
	}

	refs := make([]models.VenueRef, 0, len(venues))
	for _, v := range venues {
		if v.ID == "" {
			continue
		}

		refs = append(refs, models.VenueRef{ID: v.ID, Name: v.Name})
	}

	if err := s.configs.SaveVenues(ctx, cfg.ID, refs); err != nil {
		return nil, syncerr.New(syncerr.KindStoreWrite, "save venues", err)
	}

	s.logger.Info().Int64("config_id", cfg.ID).Int("venues", len(refs)).Msg("Venue cache refreshed")

	return refs, nil
}
