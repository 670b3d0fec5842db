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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/carverauto/r1sync/pkg/models"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "R1SYNC_"
	// PathEnvVar names a config file when no explicit path is given.
	PathEnvVar = "R1SYNC_CONFIG"
)

// DefaultPaths are probed in order when neither an explicit path nor
// R1SYNC_CONFIG is set.
var DefaultPaths = []string{
	"r1sync.yaml",
	"r1sync.yml",
	"/etc/r1sync/r1sync.yaml",
}

// envAliases maps short variable names to config keys.
var envAliases = map[string]string{
	"database_url":   "database.url",
	"nats_url":       "nats.url",
	"log_level":      "logging.level",
	"listen":         "server.listen",
	"api_token":      "server.api_token",
	"sync_interval":  "sync.interval",
	"otlp_endpoint":  "tracing.endpoint",
	"failure_limit":  "sync.failure_limit",
	"slug_prefix":    "sync.slug_prefix",
	"run_timeout":    "sync.run_timeout",
	"nats_enabled":   "nats.enabled",
	"tracing_enable": "tracing.enabled",
}

// envKey turns R1SYNC_DATABASE__MAX_CONNS into database.max_conns. Double
// underscores separate levels; aliases cover the common short names.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))

	if alias, ok := envAliases[key]; ok {
		return alias
	}

	return strings.ReplaceAll(key, "__", ".")
}

// Load reads the configuration. path may be empty, in which case
// R1SYNC_CONFIG and DefaultPaths are tried; a missing file is not an error
// unless it was named explicitly.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	tenants, err := loadTenants(k)
	if err != nil {
		return nil, err
	}

	cfg.Tenants = tenants

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadTenants decodes each tenants[] entry over a fresh default config so
// omitted toggles keep their documented defaults.
func loadTenants(k *koanf.Koanf) ([]*models.TenantConfig, error) {
	var out []*models.TenantConfig

	for i, sub := range k.Slices("tenants") {
		t := models.NewTenantConfig()
		if err := sub.Unmarshal("", t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tenants[%d]: %w", i, err)
		}

		if t.VenueMapping.ChildLocationName == "" {
			t.VenueMapping.ChildLocationName = models.DefaultChildLocationName
		}

		out = append(out, t)
	}

	return out, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}

	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
