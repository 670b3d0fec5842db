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

// Package scheduler runs every enabled tenant config on an interval and
// disables configs that keep failing.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/carverauto/r1sync/pkg/logger"
	"github.com/carverauto/r1sync/pkg/metrics"
	"github.com/carverauto/r1sync/pkg/models"
)

const (
	DefaultInterval     = 15 * time.Minute
	DefaultFailureLimit = 3
)

var errNilDependency = errors.New("scheduler requires a config store and a runner")

// Config tunes the scheduler.
type Config struct {
	Interval     time.Duration
	FailureLimit int
	// RunOnStart runs a pass before the first tick.
	RunOnStart bool
}

// Summary counts the outcomes of one pass.
type Summary struct {
	OK      int `json:"ok"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (s Summary) String() string {
	return fmt.Sprintf("Done. ok=%d failed=%d skipped=%d", s.OK, s.Failed, s.Skipped)
}

// Scheduler runs sync passes over all configs.
type Scheduler struct {
	cfg     Config
	configs ConfigStore
	runner  Runner
	clock   Clock
	logger  logger.Logger
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New builds a Scheduler. Zero interval and failure limit take the defaults.
func New(cfg Config, configs ConfigStore, runner Runner, opts ...Option) (*Scheduler, error) {
	if configs == nil || runner == nil {
		return nil, errNilDependency
	}

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = DefaultFailureLimit
	}

	s := &Scheduler{
		cfg:     cfg,
		configs: configs,
		runner:  runner,
		clock:   realClock{},
		logger:  logger.NewTestLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.WithComponent("scheduler")

	return s, nil
}

// RunAll runs every enabled config once, in id order. A config that fails
// FailureLimit times in a row is disabled. Run failures are counted, not
// returned; only a failure to list configs or a cancelled context is.
func (s *Scheduler) RunAll(ctx context.Context) (Summary, error) {
	var sum Summary

	configs, err := s.configs.ListConfigs(ctx)
	if err != nil {
		return sum, fmt.Errorf("list configs: %w", err)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })

	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if !cfg.Enabled {
			sum.Skipped++
			continue
		}

		switch s.runOne(ctx, cfg) {
		case models.RunStatusSuccess:
			sum.OK++
		case models.RunStatusSkipped:
			sum.Skipped++
		default:
			sum.Failed++
		}
	}

	s.logger.Info().
		Int("ok", sum.OK).
		Int("failed", sum.Failed).
		Int("skipped", sum.Skipped).
		Msg("Sync pass finished")

	return sum, nil
}

func (s *Scheduler) runOne(ctx context.Context, cfg *models.TenantConfig) models.RunStatus {
	log := s.logger.WithFields(map[string]interface{}{"config_id": cfg.ID, "tenant_id": cfg.TenantID})

	outcome, err := s.runner.RunSync(ctx, cfg.ID)
	if err == nil {
		if outcome != nil && outcome.Status == models.RunStatusSkipped {
			return models.RunStatusSkipped
		}

		if err := s.configs.ResetFailures(ctx, cfg.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to reset failure counter")
		}

		return models.RunStatusSuccess
	}

	log.Error().Err(err).Msg("Sync failed")

	failures, disabled, rerr := s.configs.RecordFailure(ctx, cfg.ID, s.cfg.FailureLimit)
	if rerr != nil {
		log.Warn().Err(rerr).Msg("Failed to record sync failure")
		return models.RunStatusFailed
	}

	if disabled {
		metrics.ConfigsAutoDisabled.Inc()
		log.Warn().Int("failures", failures).Msg("Config disabled after repeated failures")
	}

	return models.RunStatusFailed
}

// Serve runs a pass on every tick until ctx is done. It satisfies
// suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	ticker := s.clock.Ticker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("Starting scheduler")

	if s.cfg.RunOnStart {
		s.pass(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	started := s.clock.Now()

	if _, err := s.RunAll(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error().Err(err).Msg("Sync pass aborted")
		return
	}

	s.logger.Debug().Dur("elapsed", s.clock.Now().Sub(started)).Msg("Sync pass complete")
}
