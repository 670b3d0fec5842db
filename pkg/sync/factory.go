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
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/r1"
)

// NewClientFactory returns a ClientFactory building r1 clients from the
// tenant config on top of base transport settings.
func NewClientFactory(base r1.Config, log logger.Logger) ClientFactory {
	return func(cfg *models.TenantConfig) (ControllerAPI, error) {
		c := base
		c.BaseURL = cfg.APIBaseURL
		c.TenantID = cfg.R1TenantID
		c.ClientID = cfg.ClientID
		c.ClientSecret = cfg.ClientSecret

		var opts []r1.Option
		if log != nil {
			opts = append(opts, r1.WithLogger(log))
		}

		client, err := r1.New(c, opts...)
		if err != nil {
			return nil, err
		}

		return client, nil
	}
}
