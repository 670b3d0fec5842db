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

// Package config loads the r1sync service configuration: struct defaults,
// then an optional YAML file, then R1SYNC_ environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/carverauto/r1sync/pkg/api"
	"github.com/carverauto/r1sync/pkg/db"
	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/models"
	"github.com/carverauto/r1sync/pkg/natsutil"
	"github.com/carverauto/r1sync/pkg/r1"
	"github.com/carverauto/r1sync/pkg/scheduler"
	"github.com/carverauto/r1sync/pkg/sync"
)

var errDuplicateTenant = errors.New("duplicate tenant seed")

// Config is the full service configuration.
type Config struct {
	Database   db.Config            `json:"database" koanf:"database"`
	Controller r1.Config            `json:"controller" koanf:"controller"`
	Sync       SyncConfig           `json:"sync" koanf:"sync"`
	Server     ServerConfig         `json:"server" koanf:"server"`
	NATS       natsutil.Config      `json:"nats" koanf:"nats"`
	Logging    logger.Config        `json:"logging" koanf:"logging"`
	Tracing    logger.TracingConfig `json:"tracing" koanf:"tracing"`

	// Tenants seeds tenant configs that do not exist yet. Each entry starts
	// from models.NewTenantConfig.
	Tenants []*models.TenantConfig `json:"tenants" koanf:"-"`
}

// SyncConfig tunes the orchestrator and the scheduler.
type SyncConfig struct {
	SlugPrefix   string        `json:"slug_prefix" koanf:"slug_prefix" validate:"max=20"`
	RunTimeout   time.Duration `json:"run_timeout" koanf:"run_timeout" validate:"gte=0"`
	Interval     time.Duration `json:"interval" koanf:"interval" validate:"gte=0"`
	FailureLimit int           `json:"failure_limit" koanf:"failure_limit" validate:"gte=0"`
	RunOnStart   bool          `json:"run_on_start" koanf:"run_on_start"`
}

// Service returns the orchestrator settings.
func (c SyncConfig) Service() sync.Config {
	return sync.Config{SlugPrefix: c.SlugPrefix, RunTimeout: c.RunTimeout}
}

// Scheduler returns the periodic pass settings.
func (c SyncConfig) Scheduler() scheduler.Config {
	return scheduler.Config{Interval: c.Interval, FailureLimit: c.FailureLimit, RunOnStart: c.RunOnStart}
}

// ServerConfig configures the HTTP surface of `r1sync serve`.
type ServerConfig struct {
	Listen          string        `json:"listen" koanf:"listen" validate:"required"`
	ReadTimeout     time.Duration `json:"read_timeout" koanf:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" koanf:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" koanf:"shutdown_timeout"`
	// APIToken, when set, is required as a bearer token on write endpoints.
	APIToken string `json:"api_token,omitempty" koanf:"api_token"`
}

func defaultConfig() *Config {
	return &Config{
		Database: db.Config{
			Host:            "localhost",
			Port:            5432,
			Database:        "r1sync",
			Username:        "r1sync",
			ApplicationName: "r1sync",
			MaxConns:        10,
			MaxConnLifetime: time.Hour,
		},
		Controller: r1.Config{
			Timeout:   30 * time.Second,
			RateLimit: 10,
			RateBurst: 20,
			Breaker: r1.BreakerConfig{
				ConsecutiveFailures: 5,
				OpenTimeout:         30 * time.Second,
				HalfOpenRequests:    1,
			},
		},
		Sync: SyncConfig{
			SlugPrefix:   "r1",
			RunTimeout:   30 * time.Minute,
			Interval:     scheduler.DefaultInterval,
			FailureLimit: scheduler.DefaultFailureLimit,
		},
		Server: ServerConfig{
			Listen:          ":8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		NATS: natsutil.Config{
			URL:           "nats://127.0.0.1:4222",
			Stream:        natsutil.DefaultStream,
			Subject:       natsutil.DefaultSubject,
			ConnectWait:   5 * time.Second,
			MaxReconnects: -1,
		},
		Logging: logger.Config{
			Level:  "info",
			Output: "stdout",
		},
		Tracing: logger.TracingConfig{
			ServiceName: "r1sync",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the service settings and every tenant seed.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Tenants))

	for _, t := range c.Tenants {
		if err := t.Validate(); err != nil {
			return err
		}

		key := fmt.Sprintf("%d/%s", t.TenantID, t.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: tenant %d %q", errDuplicateTenant, t.TenantID, t.Name)
		}

		seen[key] = struct{}{}
	}

	return nil
}

// API returns the HTTP server settings.
func (c ServerConfig) API() api.Config {
	return api.Config{
		Listen:          c.Listen,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
		Token:           c.APIToken,
	}
}
