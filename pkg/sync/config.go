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
	"time"

	"github.com/carverauto/r1sync/pkg/mapping"
)

// Config holds the process-wide settings of the sync service.
type Config struct {
	// SlugPrefix prefixes every venue slug.
	SlugPrefix string `json:"slug_prefix" koanf:"slug_prefix" validate:"max=20"`
	// RunTimeout bounds a whole run. Zero means no deadline.
	RunTimeout time.Duration `json:"run_timeout" koanf:"run_timeout"`
}

func (c Config) slugPrefix() string {
	if c.SlugPrefix == "" {
		return mapping.DefaultSlugPrefix
	}

	return c.SlugPrefix
}
